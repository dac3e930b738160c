package snapshot

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadCliffType reads a fixed-cliff-type file for a vector of n nodes.
//
// Each line is "<index> <0|1>" where 1 marks the node as non-erodible.
// Nodes not listed in the file are erodible.
func ReadCliffType(path string, n int) ([]bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cliff type %s: %w", path, err)
	}
	defer file.Close()

	fixed := make([]bool, n)
	sc := newScanner(file)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: %s:%d: want \"<index> <0|1>\", got %q", ErrMalformed, path, line, sc.Text())
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: index: %v", ErrMalformed, path, line, err)
		}
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%w: %s:%d: index %d outside [0, %d)", ErrMalformed, path, line, idx, n)
		}
		switch fields[1] {
		case "0":
			fixed[idx] = false
		case "1":
			fixed[idx] = true
		default:
			return nil, fmt.Errorf("%w: %s:%d: flag must be 0 or 1, got %q", ErrMalformed, path, line, fields[1])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read cliff type %s: %w", path, err)
	}
	return fixed, nil
}

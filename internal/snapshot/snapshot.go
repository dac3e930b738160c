// Package snapshot reads and writes the plain-text vector snapshot format
// shared by clifflines and shorelines.
//
// # File Format
//
//	<start-boundary> <end-boundary>
//	<time> <x0> <x1> ... <xN-1>
//	<time> <y0> <y1> ... <yN-1>
//	<time> <x0> ...
//	...
//
// The header holds the two boundary codes (1 = periodic, 2 = fixed,
// 3 = prescribed). Each frame is a pair of lines sharing the same leading
// time value. Writers append frames; readers return the first frame whose
// time matches the query exactly.
//
// Values are written with the shortest representation that parses back to
// the identical float64, so a frame written at time T and read back at T
// reproduces every coordinate bit-for-bit.
package snapshot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrTimeNotFound is returned when no frame matches the requested time.
	ErrTimeNotFound = errors.New("no frame at requested time")

	// ErrMalformed is returned when a file does not follow the snapshot format.
	ErrMalformed = errors.New("malformed snapshot")
)

// maxLineBytes bounds a single coordinate line. Long coastlines can carry
// tens of thousands of nodes per line.
const maxLineBytes = 64 << 20

// Frame is one time slice of a vector: the header boundary codes and the
// node coordinates at Time.
type Frame struct {
	StartBoundary int
	EndBoundary   int
	Time          float64
	X             []float64
	Y             []float64
}

// Len returns the number of nodes in the frame.
func (f Frame) Len() int {
	return len(f.X)
}

// Read opens path and returns the first frame recorded at time t.
func Read(path string, t float64) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer file.Close()

	frame, err := ReadFrom(file, t)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return frame, nil
}

// ReadFrom scans r for the first frame recorded at time t.
func ReadFrom(r io.Reader, t float64) (*Frame, error) {
	sc := newScanner(r)

	start, end, err := readHeader(sc)
	if err != nil {
		return nil, err
	}

	line := 1
	for sc.Scan() {
		line++
		xs := sc.Text()
		if strings.TrimSpace(xs) == "" {
			continue
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: line %d: x row without y row", ErrMalformed, line)
		}
		line++
		ys := sc.Text()

		xTime, xVals, err := parseRow(xs)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line-1, err)
		}
		if xTime != t {
			continue
		}

		yTime, yVals, err := parseRow(ys)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		if yTime != xTime {
			return nil, fmt.Errorf("%w: line %d: y row time %v does not match x row time %v", ErrMalformed, line, yTime, xTime)
		}
		if len(xVals) != len(yVals) {
			return nil, fmt.Errorf("%w: line %d: %d x values but %d y values", ErrMalformed, line, len(xVals), len(yVals))
		}

		return &Frame{
			StartBoundary: start,
			EndBoundary:   end,
			Time:          t,
			X:             xVals,
			Y:             yVals,
		}, nil
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("%w: %v", ErrTimeNotFound, t)
}

// Times lists the frame times recorded in path, in file order.
func Times(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer file.Close()

	sc := newScanner(file)
	if _, _, err := readHeader(sc); err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	times := []float64{}
	row := 0
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		row++
		if row%2 == 0 {
			continue
		}
		fields := strings.Fields(text)
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: time %q: %v", ErrMalformed, fields[0], err)
		}
		times = append(times, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return times, nil
}

// Write appends f to path. A missing file is created with the boundary
// header line first.
func Write(path string, f Frame) error {
	if len(f.X) != len(f.Y) {
		return fmt.Errorf("write snapshot %s: %d x values but %d y values", path, len(f.X), len(f.Y))
	}

	_, statErr := os.Stat(path)
	exists := statErr == nil

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}

	w := bufio.NewWriter(file)
	if err := WriteTo(w, f, !exists); err != nil {
		file.Close()
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return file.Close()
}

// WriteTo encodes f onto w, preceded by the header line when header is true.
func WriteTo(w io.Writer, f Frame, header bool) error {
	if header {
		if _, err := fmt.Fprintf(w, "%d %d\n", f.StartBoundary, f.EndBoundary); err != nil {
			return err
		}
	}
	if err := writeRow(w, f.Time, f.X); err != nil {
		return err
	}
	return writeRow(w, f.Time, f.Y)
}

func writeRow(w io.Writer, t float64, vals []float64) error {
	var b strings.Builder
	b.WriteString(formatFloat(t))
	for _, v := range vals {
		b.WriteByte(' ')
		b.WriteString(formatFloat(v))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return sc
}

func readHeader(sc *bufio.Scanner) (start, end int, err error) {
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return 0, 0, err
		}
		return 0, 0, fmt.Errorf("%w: missing boundary header", ErrMalformed)
	}
	fields := strings.Fields(sc.Text())
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: boundary header must hold two codes, got %q", ErrMalformed, sc.Text())
	}
	start, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: start boundary: %v", ErrMalformed, err)
	}
	end, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: end boundary: %v", ErrMalformed, err)
	}
	return start, end, nil
}

func parseRow(line string) (float64, []float64, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, errors.New("empty row")
	}
	t, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, nil, fmt.Errorf("time %q: %v", fields[0], err)
	}
	vals := make([]float64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("value %q: %v", f, err)
		}
		vals = append(vals, v)
	}
	return t, vals, nil
}

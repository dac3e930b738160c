package cliff

import (
	"errors"
	"fmt"
)

// Error represents a fault raised by the cliffline engine.
//
// Errors fall into four groups:
//   - Configuration: invalid boundary code, unknown retreat law, bad parameter
//   - I/O: unreadable snapshot or cliff type file
//   - Geometry: degenerate segments, density control that fails to settle
//   - Self-intersection: only returned under IntersectionHalt
//
// Callers decide whether to abort or retry; the engine never exits the process.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node is the node index involved, or -1 when not applicable.
	Node int

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes cliffline errors.
type ErrorCode string

const (
	// ErrCodeInvalidBoundary indicates an unknown or mismatched boundary code.
	ErrCodeInvalidBoundary ErrorCode = "INVALID_BOUNDARY"

	// ErrCodeInvalidRetreatLaw indicates an unrecognized retreat law selector.
	ErrCodeInvalidRetreatLaw ErrorCode = "INVALID_RETREAT_LAW"

	// ErrCodeInvalidParameter indicates a parameter outside its valid range.
	ErrCodeInvalidParameter ErrorCode = "INVALID_PARAMETER"

	// ErrCodeIO indicates a missing or unreadable input file.
	ErrCodeIO ErrorCode = "IO"

	// ErrCodeTooFewNodes indicates a vector too short to carry morphology.
	ErrCodeTooFewNodes ErrorCode = "TOO_FEW_NODES"

	// ErrCodeGeometry indicates an azimuth that cannot be classified,
	// which happens only for coincident nodes or non-finite coordinates.
	ErrCodeGeometry ErrorCode = "GEOMETRY"

	// ErrCodeDensityDiverged indicates node density control did not settle.
	ErrCodeDensityDiverged ErrorCode = "DENSITY_DIVERGED"

	// ErrCodeSelfIntersection indicates the cliffline crosses itself.
	ErrCodeSelfIntersection ErrorCode = "SELF_INTERSECTION"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Node >= 0 {
		msg = fmt.Sprintf("%s (node=%d)", msg, e.Node)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Node: -1}
}

func nodeError(code ErrorCode, node int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Node: node}
}

func wrapError(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Node: -1, Err: err}
}

// HasCode reports whether err is, or wraps, an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsConfigError returns true for boundary, retreat law and parameter errors.
func IsConfigError(err error) bool {
	return HasCode(err, ErrCodeInvalidBoundary) ||
		HasCode(err, ErrCodeInvalidRetreatLaw) ||
		HasCode(err, ErrCodeInvalidParameter)
}

// IsIOError returns true if the error came from reading an input file.
func IsIOError(err error) bool {
	return HasCode(err, ErrCodeIO)
}

// IsIntersectionError returns true if the step halted on a self-intersection.
func IsIntersectionError(err error) bool {
	return HasCode(err, ErrCodeSelfIntersection)
}

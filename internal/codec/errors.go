package codec

import (
	"errors"
	"fmt"
)

// FormatError is the single error kind raised by the codec and the editor:
// a missing required file or stream, a fixed-format pack/unpack failure, an
// out-of-range feature/shape/record index, or an attempt to merge datasets
// whose shape type or schema differ.
type FormatError struct {
	// Op names the operation that failed ("read shape", "pack record", ...).
	Op string
	// Record is the 1-based record number involved, or 0 when not applicable.
	Record int
	// Reason is a human-readable description.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

func (e *FormatError) Error() string {
	msg := e.Op
	if e.Record > 0 {
		msg = fmt.Sprintf("%s: record %d", msg, e.Record)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "shapefile: " + msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormatError reports whether err is, or wraps, a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func formatErr(op string, record int, format string, args ...interface{}) *FormatError {
	return &FormatError{Op: op, Record: record, Reason: fmt.Sprintf(format, args...)}
}

func indexErr(op string, i, n int) *FormatError {
	return &FormatError{Op: op, Reason: fmt.Sprintf("index %d out of range [0,%d)", i, n)}
}

// ResolveIndex maps a possibly negative index (counting from the end) onto
// [0, n). Out-of-range indices yield a FormatError.
func ResolveIndex(op string, i, n int) (int, error) {
	j := i
	if j < 0 {
		j += n
	}
	if j < 0 || j >= n {
		return 0, indexErr(op, i, n)
	}
	return j, nil
}

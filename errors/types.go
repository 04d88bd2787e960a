package errors

import "fmt"

// Type classifies where in the pipeline an error originated.
type Type int

const (
	TypeParse Type = iota
	TypeFileIO
	TypeConfig
	TypeInternal
)

// String returns a string representation of the error type
func (t Type) String() string {
	switch t {
	case TypeParse:
		return "parse"
	case TypeFileIO:
		return "fileio"
	case TypeConfig:
		return "config"
	case TypeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a classified, recoverable error. Nothing in this core is fatal:
// the worst case is a stale or empty snapshot, self-healing on the next
// successful pass.
type Error struct {
	Type Type
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap classifies an underlying error. Returns nil for a nil error.
func Wrap(t Type, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Type: t, Op: op, Err: err}
}

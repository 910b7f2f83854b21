package vm

import "fmt"

// ErrorKind classifies an evaluation failure. A pattern that simply does not
// match is not an error.
type ErrorKind uint8

const (
	// ErrStackExceeded means the depth-first backtrack stack outgrew Options.MaxStack.
	ErrStackExceeded ErrorKind = iota + 1
	ErrInvalidMode
	ErrInvalidProgram
)

func (k ErrorKind) String() string {
	switch k {
	case ErrStackExceeded:
		return "backtrack stack exceeded"
	case ErrInvalidMode:
		return "invalid mode"
	case ErrInvalidProgram:
		return "invalid program"
	}
	return "unknown"
}

// Error lets a bare kind be used as a target for errors.Is.
func (k ErrorKind) Error() string {
	return "eval error: " + k.String()
}

// Error describes an evaluation failure.
type Error struct {
	Kind  ErrorKind
	Limit int   // stack limit for ErrStackExceeded, mode value for ErrInvalidMode
	Err   error // validation failure for ErrInvalidProgram
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrStackExceeded:
		return fmt.Sprintf("eval error: %s: limit = %d", e.Kind.String(), e.Limit)
	case ErrInvalidMode:
		return fmt.Sprintf("eval error: %s: %d", e.Kind.String(), e.Limit)
	case ErrInvalidProgram:
		if e.Err != nil {
			return fmt.Sprintf("eval error: %s: %v", e.Kind.String(), e.Err)
		}
	}
	return "eval error: " + e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the same kind of evaluation error.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case ErrorKind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

package parser

import "fmt"

// ErrorKind classifies a parse failure.
type ErrorKind uint8

const (
	ErrInvalidEscape ErrorKind = iota + 1
	ErrInvalidRightParen
	ErrNoPrev
	ErrNoRightParen
	ErrEmpty
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidEscape:
		return "invalid escape"
	case ErrInvalidRightParen:
		return "invalid right parenthesis"
	case ErrNoPrev:
		return "no previous expression"
	case ErrNoRightParen:
		return "no right parenthesis"
	case ErrEmpty:
		return "empty expression"
	}
	return "unknown parse error"
}

// Error lets a bare kind be used as a target for errors.Is.
func (k ErrorKind) Error() string {
	return "parse error: " + k.String()
}

// Error describes a malformed pattern.
// Pos is the rune index of the offending character; it is -1 for
// ErrNoRightParen and ErrEmpty, which are detected at end of input.
type Error struct {
	Kind ErrorKind
	Pos  int
	Char rune // set for ErrInvalidEscape
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrInvalidEscape:
		return fmt.Sprintf("parse error: %s: pos = %d, char = '%c'", e.Kind.String(), e.Pos, e.Char)
	case ErrInvalidRightParen, ErrNoPrev:
		return fmt.Sprintf("parse error: %s: pos = %d", e.Kind.String(), e.Pos)
	}
	return "parse error: " + e.Kind.String()
}

// Is reports whether target is the same kind of parse error.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case ErrorKind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

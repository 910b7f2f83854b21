package compiler

import "fmt"

// ErrorKind classifies a code generation failure.
type ErrorKind uint8

const (
	// ErrPCOverflow means the program would not fit in the address space.
	ErrPCOverflow ErrorKind = iota + 1

	// The kinds below are raised when a back-patch finds an unexpected
	// instruction. They indicate a generator bug, never bad input.
	ErrFailStar
	ErrFailOr
	ErrFailQuestion
	ErrUnknownNode
)

func (k ErrorKind) String() string {
	switch k {
	case ErrPCOverflow:
		return "PCOverFlow"
	case ErrFailStar:
		return "FailStar"
	case ErrFailOr:
		return "FailOr"
	case ErrFailQuestion:
		return "FailQuestion"
	case ErrUnknownNode:
		return "UnknownNode"
	}
	return "Unknown"
}

// Error lets a bare kind be used as a target for errors.Is.
func (k ErrorKind) Error() string {
	return "codegen error: " + k.String()
}

// Internal reports whether the kind signals a generator bug.
func (k ErrorKind) Internal() bool {
	return k != ErrPCOverflow
}

// Error describes a code generation failure at instruction address PC.
type Error struct {
	Kind ErrorKind
	PC   int
}

func (e *Error) Error() string {
	if e.Kind == ErrPCOverflow {
		return fmt.Sprintf("codegen error: %s: program exceeds %d instructions", e.Kind.String(), e.PC)
	}
	return fmt.Sprintf("codegen error: %s at %04d (internal)", e.Kind.String(), e.PC)
}

// Internal reports whether the error signals a generator bug rather than a
// pattern that is too large.
func (e *Error) Internal() bool {
	return e.Kind.Internal()
}

// Is reports whether target is the same kind of codegen error.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case ErrorKind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

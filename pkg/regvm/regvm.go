// Package regvm compiles simple regular expressions into a small instruction
// program and runs it on a virtual machine.
//
// The pattern language has literal characters, grouping with (), alternation
// with |, the postfix operators *, + and ?, and backslash escapes for the
// six metacharacters. A match is anchored at the start of the input and may
// stop before its end.
package regvm

import (
	"fmt"

	"github.com/KromDaniel/regvm/internal/compiler"
	"github.com/KromDaniel/regvm/internal/parser"
	"github.com/KromDaniel/regvm/internal/vm"
)

type (
	// Node is a pattern syntax tree.
	Node = parser.Node
	// Program is a compiled instruction list ending in a match instruction.
	Program = compiler.Program
	// Inst is a single program instruction.
	Inst = compiler.Inst
	// Mode selects depth-first or breadth-first evaluation.
	Mode = vm.Mode

	// ParseError reports a malformed pattern with the offending position.
	ParseError = parser.Error
	// CompileError reports a code generation failure.
	CompileError = compiler.Error
	// EvalError reports an evaluation failure. A non-match is not an error.
	EvalError = vm.Error
)

const (
	DepthFirst   = vm.DepthFirst
	BreadthFirst = vm.BreadthFirst
)

// Error kinds, usable as errors.Is targets.
const (
	ErrInvalidEscape     = parser.ErrInvalidEscape
	ErrInvalidRightParen = parser.ErrInvalidRightParen
	ErrNoPrev            = parser.ErrNoPrev
	ErrNoRightParen      = parser.ErrNoRightParen
	ErrEmpty             = parser.ErrEmpty

	ErrPCOverflow   = compiler.ErrPCOverflow
	ErrFailStar     = compiler.ErrFailStar
	ErrFailOr       = compiler.ErrFailOr
	ErrFailQuestion = compiler.ErrFailQuestion
	ErrUnknownNode  = compiler.ErrUnknownNode

	ErrStackExceeded  = vm.ErrStackExceeded
	ErrInvalidMode    = vm.ErrInvalidMode
	ErrInvalidProgram = vm.ErrInvalidProgram
)

// ParseMode parses a mode name such as "depth" or "breadth".
func ParseMode(s string) (Mode, error) {
	return vm.ParseMode(s)
}

// Parse parses pattern into a syntax tree.
func Parse(pattern string) (*Node, error) {
	return parser.Parse(pattern)
}

// Generate compiles a syntax tree into a program.
func Generate(node *Node) (Program, error) {
	return compiler.Generate(node, compiler.Config{})
}

// Evaluate reports whether prog matches a prefix of input.
func Evaluate(prog Program, input []rune, mode Mode) (bool, error) {
	return vm.Evaluate(prog, input, mode, vm.Options{})
}

// Match parses, compiles and evaluates pattern against input. The first
// failing stage stops the pipeline and its error is returned wrapped.
func Match(pattern, input string, mode Mode) (bool, error) {
	node, err := Parse(pattern)
	if err != nil {
		return false, fmt.Errorf("failed to parse pattern: %w", err)
	}
	prog, err := Generate(node)
	if err != nil {
		return false, fmt.Errorf("failed to compile pattern: %w", err)
	}
	ok, err := Evaluate(prog, []rune(input), mode)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate: %w", err)
	}
	return ok, nil
}

// Options configures Compile.
type Options struct {
	// Verbose logs code generation decisions to stderr.
	Verbose bool

	// MaxInstructions bounds the program length (0 = no limit beyond the address width).
	MaxInstructions int

	// MaxStack bounds the depth-first backtrack stack (0 = bounded by input length).
	MaxStack int
}

// Validate checks if the options are valid.
func (o Options) Validate() error {
	if o.MaxInstructions < 0 {
		return fmt.Errorf("max instructions cannot be negative")
	}
	if uint64(o.MaxInstructions) > compiler.DefaultMaxInstructions {
		return fmt.Errorf("max instructions cannot exceed %d", uint64(compiler.DefaultMaxInstructions))
	}
	if o.MaxStack < 0 {
		return fmt.Errorf("max stack cannot be negative")
	}
	return nil
}

// Regexp is a compiled pattern. It is safe for concurrent use.
type Regexp struct {
	pattern string
	machine *vm.Machine
}

// Compile parses and compiles pattern.
func Compile(pattern string, opts Options) (*Regexp, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	node, err := Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pattern: %w", err)
	}

	prog, err := compiler.Generate(node, compiler.Config{
		MaxInstructions: uint32(opts.MaxInstructions),
		Verbose:         opts.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern: %w", err)
	}

	m, err := vm.New(prog, vm.Options{MaxStack: opts.MaxStack})
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern: %w", err)
	}
	return &Regexp{pattern: pattern, machine: m}, nil
}

// MustCompile is like Compile with default options but panics on error.
func MustCompile(pattern string) *Regexp {
	re, err := Compile(pattern, Options{})
	if err != nil {
		panic(fmt.Sprintf("regvm: Compile(%q): %v", pattern, err))
	}
	return re
}

// String returns the source pattern.
func (re *Regexp) String() string {
	return re.pattern
}

// Program returns a copy of the compiled program.
func (re *Regexp) Program() Program {
	return append(Program(nil), re.machine.Program()...)
}

// Match reports whether the pattern matches a prefix of input.
func (re *Regexp) Match(input string, mode Mode) (bool, error) {
	return re.machine.Run([]rune(input), mode)
}

// MatchRunes is like Match for an input already split into characters.
func (re *Regexp) MatchRunes(input []rune, mode Mode) (bool, error) {
	return re.machine.Run(input, mode)
}

// Search reports the first character offset in input at which the pattern
// matches. Offsets count characters, not bytes. The end of the input is a
// valid start, so a pattern that accepts the empty string always succeeds.
func (re *Regexp) Search(input string, mode Mode) (start int, ok bool, err error) {
	runes := []rune(input)
	for start = 0; start <= len(runes); start++ {
		ok, err = re.machine.Run(runes[start:], mode)
		if err != nil {
			return -1, false, err
		}
		if ok {
			return start, true, nil
		}
	}
	return -1, false, nil
}

// FindIndex returns the character range [start, end) of the leftmost match,
// preferring the longest repetition at every quantifier.
func (re *Regexp) FindIndex(input string) (start, end int, ok bool, err error) {
	runes := []rune(input)
	for start = 0; start <= len(runes); start++ {
		n, matched, err := re.machine.MatchEnd(runes[start:])
		if err != nil {
			return 0, 0, false, err
		}
		if matched {
			return start, start + n, true, nil
		}
	}
	return -1, -1, false, nil
}

// Package vm executes compiled programs against input text.
//
// Matching is anchored at the first input character but not at the end:
// a program matches when some thread reaches the match instruction,
// regardless of any input left unconsumed.
package vm

import (
	"sync"

	"github.com/KromDaniel/regvm/internal/compiler"
)

// Options configures evaluation.
type Options struct {
	// MaxStack bounds the depth-first backtrack stack. Zero means no limit
	// beyond the one the visited set already imposes: a split pushes only on
	// its first visit at an offset, so the stack never holds more than
	// (jumps+splits) * (len(input)+1) entries.
	MaxStack int
}

// Machine evaluates one program. It never modifies the program and is safe
// for concurrent use; every Run owns its own thread state.
type Machine struct {
	prog     compiler.Program
	maxStack int

	// epsIndex maps each jump or split pc to a dense index used by the
	// depth-first visited bit-vector; other pcs map to -1.
	epsIndex []int32
	numEps   int

	backtrackPool sync.Pool
	threadPool    sync.Pool
}

// New validates prog and prepares a Machine for it.
func New(prog compiler.Program, opts Options) (*Machine, error) {
	if err := prog.Validate(); err != nil {
		return nil, &Error{Kind: ErrInvalidProgram, Err: err}
	}

	m := &Machine{
		prog:     prog,
		maxStack: opts.MaxStack,
		epsIndex: make([]int32, len(prog)),
	}
	for pc, inst := range prog {
		if inst.Op == compiler.InstJump || inst.Op == compiler.InstSplit {
			m.epsIndex[pc] = int32(m.numEps)
			m.numEps++
		} else {
			m.epsIndex[pc] = -1
		}
	}

	m.backtrackPool.New = func() interface{} {
		return &backtracker{stack: make([]job, 0, 32)}
	}
	m.threadPool.New = func() interface{} {
		return &threadSets{
			clist: newSparseSet(len(prog)),
			nlist: newSparseSet(len(prog)),
		}
	}
	return m, nil
}

// Program returns the program the machine runs.
func (m *Machine) Program() compiler.Program {
	return m.prog
}

// Run reports whether the program matches a prefix of input.
func (m *Machine) Run(input []rune, mode Mode) (bool, error) {
	switch mode {
	case DepthFirst:
		_, ok, err := m.backtrack(input)
		return ok, err
	case BreadthFirst:
		return m.pike(input), nil
	}
	return false, &Error{Kind: ErrInvalidMode, Limit: int(mode)}
}

// MatchEnd runs a depth-first evaluation and returns the number of input
// characters consumed by the first successful path. Quantifiers are greedy,
// so the first path prefers the longest repetition at every choice.
func (m *Machine) MatchEnd(input []rune) (int, bool, error) {
	return m.backtrack(input)
}

// Evaluate reports whether prog matches a prefix of input using the given mode.
func Evaluate(prog compiler.Program, input []rune, mode Mode, opts Options) (bool, error) {
	if !mode.Valid() {
		return false, &Error{Kind: ErrInvalidMode, Limit: int(mode)}
	}
	m, err := New(prog, opts)
	if err != nil {
		return false, err
	}
	return m.Run(input, mode)
}

package vm

import (
	"github.com/KromDaniel/regvm/internal/compiler"
)

// job is a pending alternative: resume at pc with input position sp.
type job struct {
	pc int
	sp int
}

// backtracker is the per-run state of a depth-first evaluation.
type backtracker struct {
	stack   []job
	visited []uint32
	width   int // len(input) + 1
}

func (b *backtracker) reset(numEps, inputLen int) {
	b.stack = b.stack[:0]
	b.width = inputLen + 1

	size := (numEps*b.width + 31) / 32
	if cap(b.visited) < size {
		b.visited = make([]uint32, size)
		return
	}
	b.visited = b.visited[:size]
	for i := range b.visited {
		b.visited[i] = 0
	}
}

// visit marks the epsilon state (eps, sp) and reports whether it was already marked.
func (b *backtracker) visit(eps int32, sp int) bool {
	idx := int(eps)*b.width + sp
	word, bit := idx/32, uint32(1)<<(idx%32)
	if b.visited[word]&bit != 0 {
		return true
	}
	b.visited[word] |= bit
	return false
}

// backtrack runs a depth-first search. At a split the first branch is
// followed and the second is pushed, so the first is exhausted before the
// second is tried.
//
// Every jump and split state (pc, sp) is entered at most once. A state seen
// before is either on the current path, which makes this an epsilon cycle,
// or already exhausted without reaching match; either way the thread dies.
//
// It returns the input position at which the match instruction was reached.
func (m *Machine) backtrack(input []rune) (int, bool, error) {
	b := m.backtrackPool.Get().(*backtracker)
	defer m.backtrackPool.Put(b)
	b.reset(m.numEps, len(input))

	limit := m.maxStack
	if limit <= 0 {
		limit = m.numEps * (len(input) + 1)
	}

	pc, sp := 0, 0
	for {
		inst := m.prog[pc]
		switch inst.Op {
		case compiler.InstChar:
			if sp < len(input) && input[sp] == inst.Char {
				pc++
				sp++
				continue
			}

		case compiler.InstMatch:
			return sp, true, nil

		case compiler.InstJump:
			if !b.visit(m.epsIndex[pc], sp) {
				pc = int(inst.X)
				continue
			}

		case compiler.InstSplit:
			if !b.visit(m.epsIndex[pc], sp) {
				if len(b.stack) >= limit {
					return 0, false, &Error{Kind: ErrStackExceeded, Limit: limit}
				}
				b.stack = append(b.stack, job{pc: int(inst.Y), sp: sp})
				pc = int(inst.X)
				continue
			}
		}

		// This thread failed; resume the most recent alternative.
		if len(b.stack) == 0 {
			return 0, false, nil
		}
		last := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]
		pc, sp = last.pc, last.sp
	}
}

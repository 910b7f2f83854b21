package vm

import (
	"github.com/KromDaniel/regvm/internal/compiler"
)

// threadSets holds the current and next generation of threads.
type threadSets struct {
	clist *sparseSet
	nlist *sparseSet
}

// pike simulates all threads in lockstep. Threads are deduplicated by pc
// within one input position, so each step costs at most len(prog).
func (m *Machine) pike(input []rune) bool {
	ts := m.threadPool.Get().(*threadSets)
	defer m.threadPool.Put(ts)
	clist, nlist := ts.clist, ts.nlist
	clist.clear()
	nlist.clear()

	if m.addThread(clist, 0) {
		return true
	}

	for sp := 0; sp < len(input) && clist.len() > 0; sp++ {
		c := input[sp]
		nlist.clear()
		for _, pc := range clist.dense {
			inst := m.prog[pc]
			if inst.Op != compiler.InstChar || inst.Char != c {
				continue
			}
			if m.addThread(nlist, pc+1) {
				return true
			}
		}
		clist, nlist = nlist, clist
	}
	return false
}

// addThread adds pc and its epsilon closure to set. It reports whether the
// closure reaches the match instruction.
func (m *Machine) addThread(set *sparseSet, pc uint32) bool {
	if !set.insert(pc) {
		return false
	}
	inst := m.prog[pc]
	switch inst.Op {
	case compiler.InstMatch:
		return true
	case compiler.InstJump:
		return m.addThread(set, uint32(inst.X))
	case compiler.InstSplit:
		return m.addThread(set, uint32(inst.X)) || m.addThread(set, uint32(inst.Y))
	}
	return false
}

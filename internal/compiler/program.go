package compiler

import (
	"fmt"
	"strings"
)

// Addr is an absolute instruction index within a Program.
type Addr uint32

// InstOp is the opcode of an instruction.
type InstOp uint8

const (
	InstChar  InstOp = iota + 1 // consume Char or fail
	InstMatch                   // accept
	InstJump                    // continue at X
	InstSplit                   // continue at X, then at Y
)

func (op InstOp) String() string {
	switch op {
	case InstChar:
		return "char"
	case InstMatch:
		return "match"
	case InstJump:
		return "jump"
	case InstSplit:
		return "split"
	}
	return "unknown"
}

// Inst is a single program instruction.
type Inst struct {
	Op   InstOp
	Char rune // InstChar
	X    Addr // InstJump target, first InstSplit branch
	Y    Addr // second InstSplit branch
}

func (i Inst) String() string {
	switch i.Op {
	case InstChar:
		return fmt.Sprintf("char %c", i.Char)
	case InstMatch:
		return "match"
	case InstJump:
		return fmt.Sprintf("jump %04d", i.X)
	case InstSplit:
		return fmt.Sprintf("split %04d, %04d", i.X, i.Y)
	}
	return "unknown"
}

// Program is a flat instruction sequence addressed from zero.
// A Program returned by Generate is never modified afterwards and may be
// shared between goroutines.
type Program []Inst

// String returns the disassembly, one "0000: inst" line per instruction.
func (p Program) String() string {
	var b strings.Builder
	for pc, inst := range p {
		fmt.Fprintf(&b, "%04d: %s\n", pc, inst)
	}
	return b.String()
}

// Validate checks that every jump target lies inside the program and that
// the program ends with its only match instruction.
func (p Program) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("empty program")
	}
	n := Addr(len(p))
	for pc, inst := range p {
		switch inst.Op {
		case InstChar:
		case InstMatch:
			if pc != len(p)-1 {
				return fmt.Errorf("match at %04d is not the last instruction", pc)
			}
		case InstJump:
			if inst.X >= n {
				return fmt.Errorf("jump at %04d targets %04d outside program of length %d", pc, inst.X, n)
			}
		case InstSplit:
			if inst.X >= n || inst.Y >= n {
				return fmt.Errorf("split at %04d targets %04d, %04d outside program of length %d", pc, inst.X, inst.Y, n)
			}
		default:
			return fmt.Errorf("unknown opcode %d at %04d", inst.Op, pc)
		}
	}
	if p[len(p)-1].Op != InstMatch {
		return fmt.Errorf("program does not end with match")
	}
	return nil
}

// Package compiler turns a pattern syntax tree into a flat instruction program.
package compiler

import (
	"math"

	"github.com/KromDaniel/regvm/internal/parser"
)

// DefaultMaxInstructions is the largest program the address type can hold.
const DefaultMaxInstructions = math.MaxUint32

// Config holds the configuration for code generation.
type Config struct {
	MaxInstructions uint32  // Program length limit (0 = DefaultMaxInstructions)
	Verbose         bool    // Enable verbose logging of generation decisions
	Logger          *Logger // Overrides the logger created from Verbose
}

// Generator emits instructions for a syntax tree.
// pc always equals len(insts).
type Generator struct {
	pc     int
	insts  Program
	max    uint32
	logger *Logger
}

// New creates a new generator instance.
func New(config Config) *Generator {
	g := &Generator{
		max:    config.MaxInstructions,
		logger: config.Logger,
	}
	if g.max == 0 {
		g.max = DefaultMaxInstructions
	}
	if g.logger == nil {
		g.logger = NewLogger(config.Verbose)
	}
	return g
}

// Generate compiles n into a program terminated by a single match instruction.
func Generate(n *parser.Node, config Config) (Program, error) {
	return New(config).Generate(n)
}

// Generate compiles n. A Generator must not be reused after Generate returns.
func (g *Generator) Generate(n *parser.Node) (Program, error) {
	g.logger.Section("Code Generation")
	g.logger.Log("Instruction limit: %d", g.max)

	if err := g.gen(n); err != nil {
		return nil, err
	}
	if _, err := g.emit(Inst{Op: InstMatch}); err != nil {
		return nil, err
	}

	g.logger.Log("Program length: %d", len(g.insts))
	g.logger.Listing(g.insts)
	return g.insts, nil
}

// emit appends inst and returns its address.
func (g *Generator) emit(inst Inst) (Addr, error) {
	if uint64(g.pc) >= uint64(g.max) {
		g.logger.Log("Address space exhausted at %d instructions", g.pc)
		return 0, &Error{Kind: ErrPCOverflow, PC: g.pc}
	}
	g.insts = append(g.insts, inst)
	g.pc++
	return Addr(g.pc - 1), nil
}

func (g *Generator) gen(n *parser.Node) error {
	if n == nil {
		return &Error{Kind: ErrUnknownNode, PC: g.pc}
	}

	switch n.Op {
	case parser.OpChar:
		_, err := g.emit(Inst{Op: InstChar, Char: n.Char})
		return err
	case parser.OpSeq:
		for _, sub := range n.Sub {
			if err := g.gen(sub); err != nil {
				return err
			}
		}
		return nil
	case parser.OpOr:
		if len(n.Sub) != 2 {
			return &Error{Kind: ErrUnknownNode, PC: g.pc}
		}
		return g.genOr(n.Sub[0], n.Sub[1])
	case parser.OpPlus, parser.OpStar, parser.OpQuestion:
		if len(n.Sub) != 1 {
			return &Error{Kind: ErrUnknownNode, PC: g.pc}
		}
		switch n.Op {
		case parser.OpPlus:
			return g.genPlus(n.Sub[0])
		case parser.OpStar:
			return g.genStar(n.Sub[0])
		default:
			return g.genQuestion(n.Sub[0])
		}
	}
	return &Error{Kind: ErrUnknownNode, PC: g.pc}
}

// genPlus emits
//
//	L1: e
//	    split L1, L2
//	L2:
func (g *Generator) genPlus(e *parser.Node) error {
	l1 := Addr(g.pc)
	if err := g.gen(e); err != nil {
		return err
	}
	_, err := g.emit(Inst{Op: InstSplit, X: l1, Y: Addr(g.pc + 1)})
	return err
}

// genStar emits
//
//	L1: split L2, L3
//	L2: e
//	    jump L1
//	L3:
func (g *Generator) genStar(e *parser.Node) error {
	l1, err := g.emit(Inst{Op: InstSplit, X: Addr(g.pc + 1)})
	if err != nil {
		return err
	}
	if err := g.gen(e); err != nil {
		return err
	}
	if _, err := g.emit(Inst{Op: InstJump, X: l1}); err != nil {
		return err
	}
	return g.patch(l1, InstSplit, ErrFailStar)
}

// genQuestion emits
//
//	    split L1, L2
//	L1: e
//	L2:
func (g *Generator) genQuestion(e *parser.Node) error {
	split, err := g.emit(Inst{Op: InstSplit, X: Addr(g.pc + 1)})
	if err != nil {
		return err
	}
	if err := g.gen(e); err != nil {
		return err
	}
	return g.patch(split, InstSplit, ErrFailQuestion)
}

// genOr emits
//
//	    split L1, L2
//	L1: e1
//	    jump L3
//	L2: e2
//	L3:
func (g *Generator) genOr(e1, e2 *parser.Node) error {
	split, err := g.emit(Inst{Op: InstSplit, X: Addr(g.pc + 1)})
	if err != nil {
		return err
	}
	if err := g.gen(e1); err != nil {
		return err
	}
	jump, err := g.emit(Inst{Op: InstJump})
	if err != nil {
		return err
	}
	if err := g.patch(split, InstSplit, ErrFailOr); err != nil {
		return err
	}
	if err := g.gen(e2); err != nil {
		return err
	}
	return g.patch(jump, InstJump, ErrFailOr)
}

// patch fills the placeholder address of the instruction at addr with the
// current pc: Y for a split, X for a jump. The placeholder must still be zero.
func (g *Generator) patch(addr Addr, op InstOp, kind ErrorKind) error {
	if int(addr) >= len(g.insts) || g.insts[addr].Op != op {
		return &Error{Kind: kind, PC: int(addr)}
	}

	inst := &g.insts[addr]
	slot := &inst.Y
	if op == InstJump {
		slot = &inst.X
	}
	if *slot != 0 {
		return &Error{Kind: kind, PC: int(addr)}
	}
	*slot = Addr(g.pc)

	g.logger.Log("Patched %04d: %s", addr, *inst)
	return nil
}

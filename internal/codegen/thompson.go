package codegen

import (
	"github.com/KromDaniel/regvm/internal/compiler"
	"github.com/dave/jennifer/jen"
)

// epsilonClosures returns, for every pc, the set of pcs reachable from it
// through jumps and splits, pc included. Only valid when the program has at
// most MaxThompsonStates instructions.
func epsilonClosures(prog compiler.Program) []uint64 {
	closures := make([]uint64, len(prog))
	for pc := range prog {
		var set uint64
		var walk func(compiler.Addr)
		walk = func(at compiler.Addr) {
			bit := uint64(1) << at
			if set&bit != 0 {
				return
			}
			set |= bit
			switch inst := prog[at]; inst.Op {
			case compiler.InstJump:
				walk(inst.X)
			case compiler.InstSplit:
				walk(inst.X)
				walk(inst.Y)
			}
		}
		walk(compiler.Addr(pc))
		closures[pc] = set
	}
	return closures
}

// thompsonBody emits a lockstep simulation over a uint64 state set. Closures
// are computed here, so the generated loop does one AND and one OR per
// character state per input rune.
func (g *Generator) thompsonBody() []jen.Code {
	prog := g.config.Program
	closures := epsilonClosures(prog)

	var acceptMask uint64
	var charStates []int
	for pc, inst := range prog {
		switch inst.Op {
		case compiler.InstMatch:
			acceptMask |= uint64(1) << pc
		case compiler.InstChar:
			charStates = append(charStates, pc)
		}
	}

	// Lit renders uint64 values with an explicit conversion.
	code := []jen.Code{
		jen.Id(AcceptMaskName).Op(":=").Lit(acceptMask),
		jen.Id(CurrentName).Op(":=").Lit(closures[0]),
	}
	if len(charStates) == 0 {
		return append(code, jen.Return(jen.Id(CurrentName).Op("&").Id(AcceptMaskName).Op("!=").Lit(0)))
	}

	step := []jen.Code{jen.Var().Id(NextName).Uint64()}
	for _, pc := range charStates {
		step = append(step,
			jen.If(
				jen.Id(CurrentName).Op("&").Lit(uint64(1)<<pc).Op("!=").Lit(0).Op("&&").
					Id("c").Op("==").Add(runeLit(prog[pc].Char)),
			).Block(
				jen.Id(NextName).Op("|=").Lit(closures[pc+1]),
			),
		)
	}
	step = append(step,
		jen.If(jen.Id(NextName).Op("&").Id(AcceptMaskName).Op("!=").Lit(0)).Block(jen.Return(jen.True())),
		jen.If(jen.Id(NextName).Op("==").Lit(0)).Block(jen.Return(jen.False())),
		jen.Id(CurrentName).Op("=").Id(NextName),
	)

	return append(code,
		jen.If(jen.Id(CurrentName).Op("&").Id(AcceptMaskName).Op("!=").Lit(0)).Block(jen.Return(jen.True())),
		jen.For(jen.List(jen.Id("_"), jen.Id("c")).Op(":=").Range().Id(InputName)).Block(step...),
		jen.Return(jen.False()),
	)
}

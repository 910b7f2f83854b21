package codegen

import (
	"fmt"

	"github.com/KromDaniel/regvm/internal/compiler"
	"github.com/dave/jennifer/jen"
)

// backtrackBody emits a depth-first matcher. Every instruction becomes a
// labelled block; a failed thread jumps to TryFallback, which pops the most
// recent split alternative and re-enters through the StepSelect switch.
//
// All locals are declared before the first goto so no jump skips a
// declaration.
func (g *Generator) backtrackBody() []jen.Code {
	if len(g.config.Program) == 1 {
		// A lone match instruction accepts every input.
		return []jen.Code{jen.Return(jen.True())}
	}

	code := []jen.Code{
		jen.Id(InputLenName).Op(":=").Len(jen.Id(InputName)),
		jen.Id(OffsetName).Op(":=").Lit(0),
	}

	if g.needsBacktracking {
		if g.config.UsePool {
			code = append(code, g.pooledStackInit()...)
		} else {
			code = append(code,
				jen.Id(StackName).Op(":=").Make(jen.Index().Index(jen.Lit(2)).Int(), jen.Lit(0), jen.Lit(32)),
			)
		}
	}

	if len(g.epsIndex) > 0 {
		code = append(code,
			jen.Comment("One bit per (jump or split, offset) state"),
			jen.Id("visitedSize").Op(":=").Lit(len(g.epsIndex)).Op("*").Parens(jen.Id(InputLenName).Op("+").Lit(1)),
			jen.Id(VisitedName).Op(":=").Make(jen.Index().Uint32(), jen.Parens(jen.Id("visitedSize").Op("+").Lit(31)).Op("/").Lit(32)),
		)
	}

	code = append(code,
		jen.Id(NextInstructionName).Op(":=").Lit(0),
		jen.Goto().Id(StepSelectName),
	)

	code = append(code, g.fallback()...)
	code = append(code, g.stepSelector()...)
	for pc, inst := range g.config.Program {
		code = append(code, g.instruction(compiler.Addr(pc), inst)...)
	}
	return code
}

func (g *Generator) fallback() []jen.Code {
	code := []jen.Code{jen.Id(TryFallbackName).Op(":")}
	if g.needsBacktracking {
		code = append(code,
			jen.If(jen.Len(jen.Id(StackName)).Op(">").Lit(0)).Block(
				jen.Id("last").Op(":=").Id(StackName).Index(jen.Len(jen.Id(StackName)).Op("-").Lit(1)),
				jen.Id(OffsetName).Op("=").Id("last").Index(jen.Lit(0)),
				jen.Id(NextInstructionName).Op("=").Id("last").Index(jen.Lit(1)),
				jen.Id(StackName).Op("=").Id(StackName).Index(jen.Empty(), jen.Len(jen.Id(StackName)).Op("-").Lit(1)),
				jen.Goto().Id(StepSelectName),
			),
		)
	}
	return append(code, jen.Return(jen.False()))
}

// stepSelector emits the dispatch switch used on entry and after a pop.
func (g *Generator) stepSelector() []jen.Code {
	cases := make([]jen.Code, 0, len(g.config.Program))
	for pc := range g.config.Program {
		cases = append(cases,
			jen.Case(jen.Lit(pc)).Block(jen.Goto().Id(labelName(compiler.Addr(pc)))),
		)
	}
	return []jen.Code{
		jen.Id(StepSelectName).Op(":"),
		jen.Switch(jen.Id(NextInstructionName)).Block(cases...),
		jen.Return(jen.False()),
	}
}

func (g *Generator) instruction(pc compiler.Addr, inst compiler.Inst) []jen.Code {
	label := jen.Id(labelName(pc)).Op(":")

	switch inst.Op {
	case compiler.InstChar:
		return []jen.Code{
			label,
			jen.Block(
				jen.If(
					jen.Id(OffsetName).Op(">=").Id(InputLenName).Op("||").
						Id(InputName).Index(jen.Id(OffsetName)).Op("!=").Add(runeLit(inst.Char)),
				).Block(jen.Goto().Id(TryFallbackName)),
				jen.Id(OffsetName).Op("++"),
				jen.Goto().Id(labelName(pc+1)),
			),
		}

	case compiler.InstMatch:
		return []jen.Code{
			label,
			jen.Block(jen.Return(jen.True())),
		}

	case compiler.InstJump:
		block := g.visit(pc)
		block = append(block, jen.Goto().Id(labelName(inst.X)))
		return []jen.Code{label, jen.Block(block...)}

	case compiler.InstSplit:
		block := g.visit(pc)
		block = append(block,
			jen.Id(StackName).Op("=").Append(
				jen.Id(StackName),
				jen.Index(jen.Lit(2)).Int().Values(jen.Id(OffsetName), jen.Lit(int(inst.Y))),
			),
			jen.Goto().Id(labelName(inst.X)),
		)
		return []jen.Code{label, jen.Block(block...)}
	}

	// Validate rejects unknown opcodes before generation starts.
	panic(fmt.Sprintf("codegen: unexpected instruction %v at %d", inst.Op, pc))
}

// visit emits the visited bit-vector check for the epsilon state at pc.
func (g *Generator) visit(pc compiler.Addr) []jen.Code {
	row := g.epsIndex[pc]
	return []jen.Code{
		jen.Id("idx").Op(":=").Lit(row).Op("*").Parens(jen.Id(InputLenName).Op("+").Lit(1)).Op("+").Id(OffsetName),
		jen.List(jen.Id("word"), jen.Id("bit")).Op(":=").List(
			jen.Id("idx").Op("/").Lit(32),
			jen.Uint32().Call(jen.Lit(1)).Op("<<").Parens(jen.Id("idx").Op("%").Lit(32)),
		),
		jen.If(jen.Id(VisitedName).Index(jen.Id("word")).Op("&").Id("bit").Op("!=").Lit(0)).Block(
			jen.Goto().Id(TryFallbackName),
		),
		jen.Id(VisitedName).Index(jen.Id("word")).Op("|=").Id("bit"),
	}
}

// runeLit renders r as a rune literal.
func runeLit(r rune) *jen.Statement {
	return jen.LitRune(r)
}

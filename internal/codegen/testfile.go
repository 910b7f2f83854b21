package codegen

import (
	"bytes"
	"fmt"

	"github.com/KromDaniel/regvm/internal/vm"
	"github.com/dave/jennifer/jen"
)

// TestSource renders a test file for the generated matcher. Expected results
// come from the breadth-first virtual machine, so the generated code is
// checked against the interpreter it was derived from.
func (g *Generator) TestSource() ([]byte, error) {
	m, err := vm.New(g.config.Program, vm.Options{})
	if err != nil {
		return nil, err
	}

	cases := make([]jen.Code, 0, len(g.config.TestFileInputs))
	inputs := make([]jen.Code, 0, len(g.config.TestFileInputs))
	for _, input := range g.config.TestFileInputs {
		want, err := m.Run([]rune(input), vm.BreadthFirst)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %q: %w", input, err)
		}
		cases = append(cases, jen.Values(jen.Lit(input), jen.Lit(want)))
		inputs = append(inputs, jen.Lit(input))
	}

	name := g.config.Name
	f := jen.NewFile(g.config.Package)
	f.HeaderComment(fmt.Sprintf("Code generated by regvm for pattern: %s", g.config.Pattern))
	f.HeaderComment("DO NOT EDIT.")

	f.Func().Id("Test"+name+"MatchString").Params(jen.Id("t").Op("*").Qual("testing", "T")).Block(
		jen.Id("tests").Op(":=").Index().Struct(
			jen.Id("input").String(),
			jen.Id("want").Bool(),
		).Values(cases...),
		jen.For(jen.List(jen.Id("_"), jen.Id("tt")).Op(":=").Range().Id("tests")).Block(
			jen.If(
				jen.Id("got").Op(":=").Id(g.compiledName()).Dot("MatchString").Call(jen.Id("tt").Dot("input")),
				jen.Id("got").Op("!=").Id("tt").Dot("want"),
			).Block(
				jen.Id("t").Dot("Errorf").Call(
					jen.Lit("MatchString(%q) = %v, want %v"),
					jen.Id("tt").Dot("input"), jen.Id("got"), jen.Id("tt").Dot("want"),
				),
			),
			jen.If(
				jen.Id("got").Op(":=").Id(g.compiledName()).Dot("MatchRunes").Call(jen.Index().Rune().Parens(jen.Id("tt").Dot("input"))),
				jen.Id("got").Op("!=").Id("tt").Dot("want"),
			).Block(
				jen.Id("t").Dot("Errorf").Call(
					jen.Lit("MatchRunes(%q) = %v, want %v"),
					jen.Id("tt").Dot("input"), jen.Id("got"), jen.Id("tt").Dot("want"),
				),
			),
		),
	)
	f.Line()

	f.Func().Id("Benchmark"+name+"MatchString").Params(jen.Id("b").Op("*").Qual("testing", "B")).Block(
		jen.Id("inputs").Op(":=").Index().String().Values(inputs...),
		jen.For(jen.Id("i").Op(":=").Lit(0), jen.Id("i").Op("<").Id("b").Dot("N"), jen.Id("i").Op("++")).Block(
			jen.For(jen.List(jen.Id("_"), jen.Id("input")).Op(":=").Range().Id("inputs")).Block(
				jen.Id(g.compiledName()).Dot("MatchString").Call(jen.Id("input")),
			),
		),
	)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render test source: %w", err)
	}
	return formatSource(buf.Bytes())
}

package codegen

import (
	"github.com/dave/jennifer/jen"
)

func (g *Generator) stackPoolName() string {
	return lowerFirst(g.config.Name) + "StackPool"
}

// generateStackPool emits a sync.Pool holding backtrack stacks.
func (g *Generator) generateStackPool() {
	g.file.Var().Id(g.stackPoolName()).Op("=").Qual("sync", "Pool").Values(jen.Dict{
		jen.Id("New"): jen.Func().Params().Interface().Block(
			jen.Id("stack").Op(":=").Make(jen.Index().Index(jen.Lit(2)).Int(), jen.Lit(0), jen.Lit(32)),
			jen.Return(jen.Op("&").Id("stack")),
		),
	})
	g.file.Line()
}

// pooledStackInit emits code taking a stack from the pool and returning it
// when the match function exits.
func (g *Generator) pooledStackInit() []jen.Code {
	poolName := g.stackPoolName()
	return []jen.Code{
		jen.Id("stackPtr").Op(":=").Id(poolName).Dot("Get").Call().Assert(jen.Op("*").Index().Index(jen.Lit(2)).Int()),
		jen.Id(StackName).Op(":=").Parens(jen.Op("*").Id("stackPtr")).Index(jen.Empty(), jen.Lit(0)),
		jen.Defer().Func().Params().Block(
			jen.Op("*").Id("stackPtr").Op("=").Id(StackName).Index(jen.Empty(), jen.Lit(0)),
			jen.Id(poolName).Dot("Put").Call(jen.Id("stackPtr")),
		).Call(),
	}
}

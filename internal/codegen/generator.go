// Package codegen emits standalone Go matchers for compiled programs.
//
// The emitted type has MatchString, MatchRunes and SearchString methods with
// the same anchored-prefix semantics as the virtual machine. Two engines are
// available: a goto-per-instruction backtracker with a visited bit-vector,
// and a bitset simulation for programs of at most MaxThompsonStates
// instructions.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"os"
	"strings"

	"github.com/KromDaniel/regvm/internal/compiler"
	"github.com/dave/jennifer/jen"
)

// MaxThompsonStates is the largest program the bitset engine can hold.
const MaxThompsonStates = 64

// Engine selects the matching strategy of the generated code.
type Engine int

const (
	// EngineAuto uses the bitset engine for looping programs that fit in
	// MaxThompsonStates instructions and the backtracker otherwise.
	EngineAuto Engine = iota
	EngineBacktrack
	EngineThompson
)

func (e Engine) String() string {
	switch e {
	case EngineAuto:
		return "auto"
	case EngineBacktrack:
		return "backtrack"
	case EngineThompson:
		return "thompson"
	}
	return fmt.Sprintf("Engine(%d)", int(e))
}

// ParseEngine parses an engine name as printed by Engine.String.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return EngineAuto, nil
	case "backtrack", "backtracking":
		return EngineBacktrack, nil
	case "thompson", "nfa":
		return EngineThompson, nil
	}
	return EngineAuto, fmt.Errorf("unknown engine %q", s)
}

// Config holds the configuration for Go source emission.
type Config struct {
	Pattern          string
	Name             string // Exported type name of the matcher
	Package          string
	OutputFile       string
	Program          compiler.Program
	Engine           Engine
	UsePool          bool     // Enable sync.Pool for backtrack stack reuse
	GenerateTestFile bool     // Also write <output>_test.go
	TestFileInputs   []string // Inputs for the generated test table
	Verbose          bool
	Logger           *compiler.Logger // Overrides the logger created from Verbose
}

// Generator emits Go source for one program.
type Generator struct {
	config Config
	file   *jen.File
	logger *compiler.Logger

	// epsIndex maps jump and split pcs to rows of the visited bit-vector.
	epsIndex          map[compiler.Addr]int
	needsBacktracking bool // program contains a split
	hasLoop           bool // some jump or split targets an earlier pc
	useThompson       bool
}

// New validates config and selects an engine.
func New(config Config) (*Generator, error) {
	if err := config.Program.Validate(); err != nil {
		return nil, fmt.Errorf("invalid program: %w", err)
	}
	if config.Name == "" {
		config.Name = "Matcher"
	}
	config.Name = upperFirst(config.Name)
	if !token.IsIdentifier(config.Name) {
		return nil, fmt.Errorf("invalid type name %q", config.Name)
	}
	if config.Package == "" {
		config.Package = "main"
	}
	if !token.IsIdentifier(config.Package) {
		return nil, fmt.Errorf("invalid package name %q", config.Package)
	}

	g := &Generator{
		config:   config,
		logger:   config.Logger,
		epsIndex: make(map[compiler.Addr]int),
	}
	if g.logger == nil {
		g.logger = compiler.NewLogger(config.Verbose)
	}

	for pc, inst := range config.Program {
		switch inst.Op {
		case compiler.InstSplit:
			g.needsBacktracking = true
			if int(inst.Y) <= pc {
				g.hasLoop = true
			}
			fallthrough
		case compiler.InstJump:
			g.epsIndex[compiler.Addr(pc)] = len(g.epsIndex)
			if int(inst.X) <= pc {
				g.hasLoop = true
			}
		}
	}

	g.selectEngine()
	return g, nil
}

func (g *Generator) selectEngine() {
	n := len(g.config.Program)
	g.logger.Section("Engine Selection")
	g.logger.Log("Pattern: %s", g.config.Pattern)
	g.logger.Log("Instructions: %d", n)
	g.logger.Log("Needs backtracking: %v", g.needsBacktracking)
	g.logger.Log("Has loop: %v", g.hasLoop)

	switch g.config.Engine {
	case EngineThompson:
		if n <= MaxThompsonStates {
			g.useThompson = true
			g.logger.Log("Match engine: Thompson bitset (forced by user)")
			return
		}
		g.logger.Log("Warning: Thompson forced but program exceeds %d states, falling back", MaxThompsonStates)
	case EngineAuto:
		if g.hasLoop && n <= MaxThompsonStates {
			g.useThompson = true
			g.logger.Log("Match engine: Thompson bitset (looping program)")
			return
		}
	}
	g.logger.Log("Match engine: Backtracking with visited bit-vector")
}

// UsesThompson reports whether the bitset engine was selected.
func (g *Generator) UsesThompson() bool {
	return g.useThompson
}

// method returns a jen.Statement declaring a method on the generated type.
func (g *Generator) method(name string) *jen.Statement {
	return g.file.Func().
		Params(jen.Id("r").Id(g.config.Name)).
		Id(name)
}

func (g *Generator) compiledName() string {
	return "Compiled" + g.config.Name
}

// Source renders the matcher and returns gofmt-formatted Go source.
func (g *Generator) Source() ([]byte, error) {
	g.file = jen.NewFile(g.config.Package)
	g.file.HeaderComment(fmt.Sprintf("Code generated by regvm for pattern: %s", g.config.Pattern))
	g.file.HeaderComment("DO NOT EDIT.")

	if g.config.UsePool && g.needsBacktracking && !g.useThompson {
		g.generateStackPool()
	}

	g.file.Type().Id(g.config.Name).Struct()
	g.file.Line()
	g.file.Var().Id(g.compiledName()).Op("=").Id(g.config.Name).Values()
	g.file.Line()

	g.method("MatchString").
		Params(jen.Id(InputName).String()).
		Params(jen.Bool()).
		Block(g.matchStringBody()...)

	var body []jen.Code
	if g.useThompson {
		g.logger.Log("Generating Thompson match function (states: %d)", len(g.config.Program))
		body = g.thompsonBody()
	} else {
		g.logger.Log("Generating backtracking match function (epsilon states: %d)", len(g.epsIndex))
		body = g.backtrackBody()
	}
	g.method("MatchRunes").
		Params(jen.Id(InputName).Index().Rune()).
		Params(jen.Bool()).
		Block(body...)

	g.method("SearchString").
		Params(jen.Id(InputName).String()).
		Params(jen.Int(), jen.Bool()).
		Block(g.searchBody()...)

	var buf bytes.Buffer
	if err := g.file.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render source: %w", err)
	}
	return formatSource(buf.Bytes())
}

func (g *Generator) matchStringBody() []jen.Code {
	if g.useThompson {
		// The bitset engine ranges over runes, so strings need no conversion.
		return g.thompsonBody()
	}
	return []jen.Code{
		jen.Return(jen.Id("r").Dot("MatchRunes").Call(jen.Index().Rune().Parens(jen.Id(InputName)))),
	}
}

func (g *Generator) searchBody() []jen.Code {
	return []jen.Code{
		jen.Id("runes").Op(":=").Index().Rune().Parens(jen.Id(InputName)),
		jen.For(
			jen.Id("start").Op(":=").Lit(0),
			jen.Id("start").Op("<=").Len(jen.Id("runes")),
			jen.Id("start").Op("++"),
		).Block(
			jen.If(jen.Id("r").Dot("MatchRunes").Call(jen.Id("runes").Index(jen.Id("start"), jen.Empty()))).Block(
				jen.Return(jen.Id("start"), jen.True()),
			),
		),
		jen.Return(jen.Lit(-1), jen.False()),
	}
}

// Generate writes the matcher to Config.OutputFile and, when requested, a
// test file next to it.
func (g *Generator) Generate() error {
	if g.config.OutputFile == "" {
		return fmt.Errorf("output file is required")
	}

	src, err := g.Source()
	if err != nil {
		return err
	}
	if err := os.WriteFile(g.config.OutputFile, src, 0644); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	g.logger.Log("Wrote %s", g.config.OutputFile)

	if g.config.GenerateTestFile {
		testSrc, err := g.TestSource()
		if err != nil {
			return fmt.Errorf("failed to generate test file: %w", err)
		}
		path := TestFileName(g.config.OutputFile)
		if err := os.WriteFile(path, testSrc, 0644); err != nil {
			return fmt.Errorf("failed to save test file: %w", err)
		}
		g.logger.Log("Wrote %s", path)
	}
	return nil
}

// TestFileName returns the test file path paired with a generated file.
func TestFileName(outputFile string) string {
	return strings.TrimSuffix(outputFile, ".go") + "_test.go"
}

// formatSource runs go/format over generated source.
func formatSource(src []byte) ([]byte, error) {
	formatted, err := format.Source(src)
	if err != nil {
		return nil, fmt.Errorf("failed to format source: %w", err)
	}
	return formatted, nil
}

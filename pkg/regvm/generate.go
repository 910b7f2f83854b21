package regvm

import (
	"fmt"

	"github.com/KromDaniel/regvm/internal/codegen"
	"github.com/KromDaniel/regvm/internal/compiler"
)

// GoOptions configures Go source generation.
type GoOptions struct {
	// Pattern is the expression to compile
	Pattern string

	// Name is the generated type name (e.g., "Email" generates type Email with MatchString)
	Name string

	// OutputFile is the path where generated code will be written
	OutputFile string

	// Package is the Go package name for the generated code
	Package string

	// Engine is "auto", "backtrack" or "thompson" (empty means auto)
	Engine string

	// NoPool disables sync.Pool for backtrack stack reuse
	NoPool bool

	// GenerateTestFile writes a test file next to OutputFile. Expected results
	// are computed by the interpreter.
	GenerateTestFile bool

	// TestFileInputs lists the inputs of the generated test. Providing any
	// enables GenerateTestFile.
	TestFileInputs []string

	// Verbose logs engine selection to stderr.
	Verbose bool
}

// Validate checks if the options are valid.
func (o GoOptions) Validate() error {
	if o.Pattern == "" {
		return fmt.Errorf("pattern cannot be empty")
	}
	if o.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if o.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if o.Package == "" {
		return fmt.Errorf("package cannot be empty")
	}
	if _, err := codegen.ParseEngine(o.Engine); err != nil {
		return err
	}
	return nil
}

// GenerateGo compiles the pattern and writes a standalone Go matcher.
func GenerateGo(opts GoOptions) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	engine, _ := codegen.ParseEngine(opts.Engine)

	node, err := Parse(opts.Pattern)
	if err != nil {
		return fmt.Errorf("failed to parse pattern: %w", err)
	}
	logger := compiler.NewLogger(opts.Verbose)
	prog, err := compiler.Generate(node, compiler.Config{Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to compile pattern: %w", err)
	}

	inputs := opts.TestFileInputs
	generateTestFile := opts.GenerateTestFile || len(inputs) > 0
	if generateTestFile && len(inputs) == 0 {
		inputs = []string{"example"}
	}

	g, err := codegen.New(codegen.Config{
		Pattern:          opts.Pattern,
		Name:             opts.Name,
		Package:          opts.Package,
		OutputFile:       opts.OutputFile,
		Program:          prog,
		Engine:           engine,
		UsePool:          !opts.NoPool,
		GenerateTestFile: generateTestFile,
		TestFileInputs:   inputs,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	if err := g.Generate(); err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	return nil
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/KromDaniel/regvm/pkg/regvm"
	"github.com/joho/godotenv"
)

// Environment variables consulted for defaults, either from the process
// environment or from the .env file. Explicit flags win over both.
const (
	envMode    = "REGVM_MODE"
	envVerbose = "REGVM_VERBOSE"
)

type config struct {
	mode        regvm.Mode
	showAST     bool
	showCode    bool
	verbose     bool
	lineNumbers bool
	color       bool
	envFile     string

	// Go generation
	output     string
	name       string
	pkg        string
	engine     string
	noPool     bool
	testInputs arrayFlags

	pattern string
	files   []string
}

func newFlagSet(cfg *config, stderr io.Writer) *flag.FlagSet {
	fset := flag.NewFlagSet("regvm", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = func() {
		fmt.Fprintln(stderr, "usage: regvm [flags] PATTERN [FILE...]")
		fset.PrintDefaults()
	}

	cfg.mode = regvm.DepthFirst
	fset.Var(&cfg.mode, "mode", "evaluation mode: depth or breadth")
	fset.BoolVar(&cfg.showAST, "ast", false, "print the parsed syntax tree")
	fset.BoolVar(&cfg.showCode, "code", false, "print the compiled program")
	fset.BoolVar(&cfg.verbose, "v", false, "log compilation details to stderr")
	fset.BoolVar(&cfg.lineNumbers, "n", false, "prefix matching lines with their line number")
	fset.BoolVar(&cfg.color, "color", false, "colorize -ast output")
	fset.StringVar(&cfg.envFile, "env", ".env", "file with REGVM_* defaults (ignored when missing)")

	fset.StringVar(&cfg.output, "o", "", "write a generated Go matcher to this file instead of matching")
	fset.StringVar(&cfg.name, "name", "Matcher", "type name of the generated matcher")
	fset.StringVar(&cfg.pkg, "package", "main", "package of the generated matcher")
	fset.StringVar(&cfg.engine, "engine", "auto", "generated engine: auto, backtrack or thompson")
	fset.BoolVar(&cfg.noPool, "no-pool", false, "disable sync.Pool in the generated matcher")
	fset.Var(&cfg.testInputs, "test-input", "input for the generated test file (repeatable)")
	return fset
}

// parseArgs parses flags, then fills unset ones from the environment.
func parseArgs(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{}
	fset := newFlagSet(cfg, stderr)
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	explicit := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})
	if err := cfg.applyEnv(explicit); err != nil {
		return nil, err
	}

	rest := fset.Args()
	if len(rest) == 0 {
		fset.Usage()
		return nil, errors.New("missing pattern")
	}
	cfg.pattern = rest[0]
	cfg.files = rest[1:]
	return cfg, nil
}

func (c *config) applyEnv(explicit map[string]bool) error {
	values, err := godotenv.Read(c.envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", c.envFile, err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}

	if v, ok := lookup(envMode); ok && !explicit["mode"] {
		mode, err := regvm.ParseMode(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envMode, err)
		}
		c.mode = mode
	}
	if v, ok := lookup(envVerbose); ok && !explicit["v"] {
		verbose, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envVerbose, err)
		}
		c.verbose = verbose
	}
	return nil
}

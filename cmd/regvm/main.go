// Command regvm prints the lines of its input that contain a match of a
// pattern, or writes a Go matcher for the pattern with -o.
//
// Exit status is 0 when a line matched, 1 when none did and 2 on error.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/KromDaniel/regvm/pkg/regvm"
	"github.com/KromDaniel/regvm/stream"
	"github.com/k0kubun/pp/v3"
)

const (
	exitMatch   = 0
	exitNoMatch = 1
	exitError   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitMatch
		}
		fmt.Fprintf(stderr, "regvm: %v\n", err)
		return exitError
	}

	if cfg.output != "" {
		return generate(cfg, stderr)
	}

	re, err := regvm.Compile(cfg.pattern, regvm.Options{Verbose: cfg.verbose})
	if err != nil {
		fmt.Fprintf(stderr, "regvm: %v\n", err)
		return exitError
	}

	if cfg.showAST || cfg.showCode {
		if err := describe(cfg, re, stdout); err != nil {
			fmt.Fprintf(stderr, "regvm: %v\n", err)
			return exitError
		}
		if len(cfg.files) == 0 {
			return exitMatch
		}
	}

	found := false
	if len(cfg.files) == 0 {
		ok, err := grep(cfg, re, "", stdin, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "regvm: stdin: %v\n", err)
			return exitError
		}
		found = ok
	}
	for _, path := range cfg.files {
		ok, err := grepFile(cfg, re, path, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "regvm: %v\n", err)
			return exitError
		}
		found = found || ok
	}

	if found {
		return exitMatch
	}
	return exitNoMatch
}

// describe prints the syntax tree and program of the pattern.
func describe(cfg *config, re *regvm.Regexp, w io.Writer) error {
	if cfg.showAST {
		node, err := regvm.Parse(cfg.pattern)
		if err != nil {
			return err
		}
		printer := pp.New()
		printer.SetColoringEnabled(cfg.color)
		printer.SetOutput(w)
		printer.Println(node)
	}
	if cfg.showCode {
		fmt.Fprint(w, re.Program().String())
	}
	return nil
}

func grepFile(cfg *config, re *regvm.Regexp, path string, w io.Writer) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	label := ""
	if len(cfg.files) > 1 {
		label = path
	}
	ok, err := grep(cfg, re, label, f, w)
	if err != nil {
		return ok, fmt.Errorf("%s: %w", path, err)
	}
	return ok, nil
}

// grep copies the lines of r containing a match to w. Lines are prefixed
// with label and, with -n, their number.
func grep(cfg *config, re *regvm.Regexp, label string, r io.Reader, w io.Writer) (bool, error) {
	pred := func(line []byte) (bool, error) {
		_, ok, err := re.Search(string(line), cfg.mode)
		return ok, err
	}

	if label == "" && !cfg.lineNumbers {
		n, err := io.Copy(w, stream.LineFilter(r, stream.Config{}, pred))
		return n > 0, err
	}

	found := false
	var writeErr error
	err := stream.ScanLines(r, stream.Config{}, pred, func(line stream.Line) bool {
		found = true
		prefix := ""
		if label != "" {
			prefix = label + ":"
		}
		if cfg.lineNumbers {
			prefix += strconv.Itoa(line.Number) + ":"
		}
		if _, writeErr = io.WriteString(w, prefix); writeErr != nil {
			return false
		}
		text := line.Text
		if !bytes.HasSuffix(text, []byte{'\n'}) {
			text = append(text[:len(text):len(text)], '\n')
		}
		_, writeErr = w.Write(text)
		return writeErr == nil
	})
	if err == nil {
		err = writeErr
	}
	return found, err
}

func generate(cfg *config, stderr io.Writer) int {
	err := regvm.GenerateGo(regvm.GoOptions{
		Pattern:        cfg.pattern,
		Name:           cfg.name,
		OutputFile:     cfg.output,
		Package:        cfg.pkg,
		Engine:         cfg.engine,
		NoPool:         cfg.noPool,
		TestFileInputs: cfg.testInputs,
		Verbose:        cfg.verbose,
	})
	if err != nil {
		fmt.Fprintf(stderr, "regvm: %v\n", err)
		return exitError
	}
	return exitMatch
}

package codegen

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KromDaniel/regvm/internal/compiler"
	rparser "github.com/KromDaniel/regvm/internal/parser"
)

func compile(t *testing.T, pattern string) compiler.Program {
	t.Helper()
	node, err := rparser.Parse(pattern)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", pattern, err)
	}
	prog, err := compiler.Generate(node, compiler.Config{})
	if err != nil {
		t.Fatalf("Generate(%q) failed: %v", pattern, err)
	}
	return prog
}

// methods returns the names of all methods declared on typeName in src.
func methods(t *testing.T, src []byte, typeName string) map[string]bool {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "gen.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}
	found := make(map[string]bool)
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) != 1 {
			continue
		}
		if id, ok := fn.Recv.List[0].Type.(*ast.Ident); ok && id.Name == typeName {
			found[fn.Name.Name] = true
		}
	}
	return found
}

func TestEpsilonClosures(t *testing.T) {
	// a*: split(1, 3), char a, jump 0, match
	got := epsilonClosures(compile(t, "a*"))
	want := []uint64{0b1011, 0b0010, 0b1111, 0b1000}
	if len(got) != len(want) {
		t.Fatalf("got %d closures, want %d", len(got), len(want))
	}
	for pc := range want {
		if got[pc] != want[pc] {
			t.Errorf("closure[%d] = %#b, want %#b", pc, got[pc], want[pc])
		}
	}
}

func TestEngineSelection(t *testing.T) {
	long := strings.Repeat("ab", 40) + "*"

	tests := []struct {
		name         string
		pattern      string
		engine       Engine
		wantThompson bool
	}{
		{"literal auto", "abc", EngineAuto, false},
		{"alternation auto", "a|b", EngineAuto, false},
		{"star auto", "a*", EngineAuto, true},
		{"plus auto", "(ab)+c", EngineAuto, true},
		{"star forced backtrack", "a*", EngineBacktrack, false},
		{"literal forced thompson", "abc", EngineThompson, true},
		{"too large for thompson", long, EngineThompson, false},
		{"too large auto", long, EngineAuto, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(Config{Pattern: tt.pattern, Program: compile(t, tt.pattern), Engine: tt.engine})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if got := g.UsesThompson(); got != tt.wantThompson {
				t.Errorf("UsesThompson() = %v, want %v", got, tt.wantThompson)
			}
		})
	}
}

func TestSourceIsValidGo(t *testing.T) {
	patterns := []string{"a", "abc", "a|b|c", "a*", "a+b", "(ab)*c", "(a*)*b", "(a|b)?c", "(a*|b)*c", "x(yz|y)*z?"}
	engines := []Engine{EngineBacktrack, EngineThompson}

	for _, pattern := range patterns {
		for _, engine := range engines {
			for _, pool := range []bool{false, true} {
				name := pattern + "/" + engine.String()
				if pool {
					name += "/pool"
				}
				t.Run(name, func(t *testing.T) {
					prog := compile(t, pattern)
					g, err := New(Config{
						Pattern: pattern,
						Name:    "Sample",
						Package: "sample",
						Program: prog,
						Engine:  engine,
						UsePool: pool,
					})
					if err != nil {
						t.Fatalf("New failed: %v", err)
					}
					src, err := g.Source()
					if err != nil {
						t.Fatalf("Source failed: %v", err)
					}

					got := methods(t, src, "Sample")
					for _, m := range []string{"MatchString", "MatchRunes", "SearchString"} {
						if !got[m] {
							t.Errorf("missing method %s in\n%s", m, src)
						}
					}
					if !bytes.HasPrefix(src, []byte("// Code generated by regvm for pattern: "+pattern)) {
						t.Errorf("missing generated header in\n%s", src)
					}

					hasPool := bytes.Contains(src, []byte("sync.Pool"))
					wantPool := pool && engine == EngineBacktrack && g.needsBacktracking
					if hasPool != wantPool {
						t.Errorf("sync.Pool present = %v, want %v", hasPool, wantPool)
					}
				})
			}
		}
	}
}

func TestBacktrackLabels(t *testing.T) {
	prog := compile(t, "a|b")
	g, err := New(Config{Pattern: "a|b", Program: prog, Engine: EngineBacktrack})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	src, err := g.Source()
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}

	want := []string{StepSelectName + ":", TryFallbackName + ":", VisitedName + " := make([]uint32"}
	for pc := range prog {
		want = append(want, labelName(compiler.Addr(pc))+":")
	}
	for _, w := range want {
		if !bytes.Contains(src, []byte(w)) {
			t.Errorf("source missing %q", w)
		}
	}
}

func TestLiteralProgramHasNoStack(t *testing.T) {
	g, err := New(Config{Pattern: "abc", Program: compile(t, "abc"), Engine: EngineBacktrack})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	src, err := g.Source()
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}
	for _, unwanted := range []string{StackName + " :=", VisitedName + " :="} {
		if bytes.Contains(src, []byte(unwanted)) {
			t.Errorf("source unexpectedly contains %q:\n%s", unwanted, src)
		}
	}
}

func TestLoneMatchProgram(t *testing.T) {
	prog := compiler.Program{{Op: compiler.InstMatch}}
	for _, engine := range []Engine{EngineBacktrack, EngineThompson} {
		t.Run(engine.String(), func(t *testing.T) {
			g, err := New(Config{Program: prog, Engine: engine})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			src, err := g.Source()
			if err != nil {
				t.Fatalf("Source failed: %v", err)
			}
			if got := methods(t, src, "Matcher"); !got["MatchRunes"] {
				t.Errorf("missing MatchRunes in\n%s", src)
			}
		})
	}
}

func TestNewDefaultsAndErrors(t *testing.T) {
	prog := compile(t, "a")

	g, err := New(Config{Name: "email", Program: prog})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	src, err := g.Source()
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}
	if !bytes.Contains(src, []byte("package main")) {
		t.Errorf("expected default package main")
	}
	if !bytes.Contains(src, []byte("type Email struct{}")) {
		t.Errorf("expected exported type Email:\n%s", src)
	}
	if !bytes.Contains(src, []byte("var CompiledEmail = Email{}")) {
		t.Errorf("expected CompiledEmail variable:\n%s", src)
	}

	tests := []struct {
		name   string
		config Config
	}{
		{"empty program", Config{}},
		{"bad type name", Config{Name: "9lives", Program: prog}},
		{"bad package name", Config{Package: "my-pkg", Program: prog}},
		{"invalid program", Config{Program: compiler.Program{{Op: compiler.InstJump, X: 5}, {Op: compiler.InstMatch}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestGenerateWritesFiles(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "matcher.go")

	g, err := New(Config{
		Pattern:          "a+b",
		Name:             "AB",
		Package:          "matcher",
		OutputFile:       out,
		Program:          compile(t, "a+b"),
		GenerateTestFile: true,
		TestFileInputs:   []string{"aab", "b", "abx"},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := g.Generate(); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	src, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if got := methods(t, src, "AB"); !got["MatchString"] {
		t.Errorf("missing MatchString in\n%s", src)
	}

	testSrc, err := os.ReadFile(TestFileName(out))
	if err != nil {
		t.Fatalf("reading test output: %v", err)
	}
	for _, want := range []string{`{"aab", true}`, `{"b", false}`, `{"abx", true}`, "func TestABMatchString", "func BenchmarkABMatchString"} {
		if !bytes.Contains(testSrc, []byte(want)) {
			t.Errorf("test file missing %q:\n%s", want, testSrc)
		}
	}
}

func TestGenerateRequiresOutputFile(t *testing.T) {
	g, err := New(Config{Program: compile(t, "a")})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := g.Generate(); err == nil {
		t.Error("expected error without output file")
	}
}

func TestVerboseLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := compiler.NewLogger(true)
	logger.SetOutput(&buf)

	if _, err := New(Config{Pattern: "a*", Program: compile(t, "a*"), Logger: logger}); err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"=== Engine Selection ===", "Pattern: a*", "Match engine: Thompson bitset"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestParseEngine(t *testing.T) {
	tests := []struct {
		in      string
		want    Engine
		wantErr bool
	}{
		{"", EngineAuto, false},
		{"auto", EngineAuto, false},
		{"backtrack", EngineBacktrack, false},
		{"Thompson", EngineThompson, false},
		{"dfa", EngineAuto, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEngine(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEngine(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseEngine(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNameHelpers(t *testing.T) {
	tests := []struct {
		in, lower, upper string
	}{
		{"", "", ""},
		{"Email", "email", "Email"},
		{"url", "url", "Url"},
		{"Élan", "élan", "Élan"},
	}
	for _, tt := range tests {
		if got := lowerFirst(tt.in); got != tt.lower {
			t.Errorf("lowerFirst(%q) = %q, want %q", tt.in, got, tt.lower)
		}
		if got := upperFirst(tt.in); got != tt.upper {
			t.Errorf("upperFirst(%q) = %q, want %q", tt.in, got, tt.upper)
		}
	}
	if got := labelName(12); got != "Ins12" {
		t.Errorf("labelName(12) = %q", got)
	}
}

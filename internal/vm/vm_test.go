package vm

import (
	"errors"
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/KromDaniel/regvm/internal/compiler"
	"github.com/KromDaniel/regvm/internal/parser"
)

var modes = []Mode{DepthFirst, BreadthFirst}

func mustMachine(t testing.TB, pattern string, opts Options) *Machine {
	t.Helper()
	prog, err := compiler.Generate(parser.MustParse(pattern), compiler.Config{})
	if err != nil {
		t.Fatalf("Generate(%q) unexpected error: %v", pattern, err)
	}
	m, err := New(prog, opts)
	if err != nil {
		t.Fatalf("New(%q) unexpected error: %v", pattern, err)
	}
	return m
}

func TestRun(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"abc|def", "def", true},
		{"(abc)*", "abcab", true},
		{"(ab|cd)+", "abcdabcd", true},
		{"abc?", "ab", true},
		{"abc?", "ax", false},
		{"abc", "abcdef", true},
		{"abc", "xabc", false},
		{"abc", "", false},
		{"a*", "", true},
		{"a?", "", true},
		{"a+", "", false},
		{"a+b", "aaab", true},
		{"a+b", "aaa", false},
		{"(a|b)*c", "ababc", true},
		{"(a|b)*c", "ababd", false},
		{"(ab|a)(bc|c)d", "abcd", true},
		{"x(y|z*)?w", "xzzzw", true},
		{"x(y|z*)?w", "xw", true},
		{"x(y|z*)?w", "xyzw", false},
		{`\(\+\)`, "(+)", true},
		{`a\|b`, "a|b", true},
		{`a\|b`, "a", false},
		{"日本+語", "日本本本語", true},
		{"(a*)*b", "aaaab", true},
		{"(a*)*b", "aaaac", false},
		{"(a?)*b", "aab", true},
		{"(a*|b)*c", "abbac", true},
		{"((a+)?)+x", "aax", true},
	}

	for _, tt := range tests {
		for _, mode := range modes {
			t.Run(mode.String()+"/"+tt.pattern+"/"+tt.input, func(t *testing.T) {
				m := mustMachine(t, tt.pattern, Options{})
				got, err := m.Run([]rune(tt.input), mode)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("Run(%q, %q, %s) = %v, want %v", tt.pattern, tt.input, mode, got, tt.want)
				}
			})
		}
	}
}

func TestEvaluate(t *testing.T) {
	prog, err := compiler.Generate(parser.MustParse("ab+"), compiler.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, mode := range modes {
		got, err := Evaluate(prog, []rune("abbb"), mode, Options{})
		if err != nil || !got {
			t.Errorf("Evaluate(%s) = %v, %v; want true, nil", mode, got, err)
		}
		// Same program, same input, same answer.
		again, err := Evaluate(prog, []rune("abbb"), mode, Options{})
		if err != nil || again != got {
			t.Errorf("Evaluate(%s) not deterministic: %v then %v (%v)", mode, got, again, err)
		}
	}
}

func TestGreedyQuantifiers(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		wantEnd int
	}{
		{"a*", "aaa", 3},
		{"a+", "aaab", 3},
		{"a?", "aa", 1},
		{"(ab)*", "ababa", 4},
		{"a*a", "aaaa", 4},
		{"(a|ab)*", "abab", 1},
		{"ab|abc", "abcd", 2},
		{"(a|b)*(c)?", "abcc", 3},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			m := mustMachine(t, tt.pattern, Options{})
			end, ok, err := m.MatchEnd([]rune(tt.input))
			if err != nil || !ok {
				t.Fatalf("MatchEnd(%q) = %d, %v, %v", tt.input, end, ok, err)
			}
			if end != tt.wantEnd {
				t.Errorf("MatchEnd(%q, %q) = %d, want %d", tt.pattern, tt.input, end, tt.wantEnd)
			}
		})
	}
}

func TestEpsilonCyclesTerminate(t *testing.T) {
	patterns := []string{"(a*)*", "(a*)*b", "(a?)*", "(a?)+b", "((a*)*)*c", "(a*|b*)*c", "((a?)?)+"}
	input := []rune(strings.Repeat("a", 64) + "x")

	for _, pattern := range patterns {
		m := mustMachine(t, pattern, Options{})
		dfs, err := m.Run(input, DepthFirst)
		if err != nil {
			t.Fatalf("%q depth-first unexpected error: %v", pattern, err)
		}
		bfs, err := m.Run(input, BreadthFirst)
		if err != nil {
			t.Fatalf("%q breadth-first unexpected error: %v", pattern, err)
		}
		if dfs != bfs {
			t.Errorf("%q: depth-first = %v, breadth-first = %v", pattern, dfs, bfs)
		}
	}
}

func TestSelfLoopProgram(t *testing.T) {
	prog := compiler.Program{
		{Op: compiler.InstJump, X: 0},
		{Op: compiler.InstMatch},
	}
	for _, mode := range modes {
		got, err := Evaluate(prog, []rune("abc"), mode, Options{})
		if err != nil || got {
			t.Errorf("%s: Evaluate = %v, %v; want false, nil", mode, got, err)
		}
	}
}

func TestStackLimit(t *testing.T) {
	m := mustMachine(t, "a*b", Options{MaxStack: 10})
	input := []rune(strings.Repeat("a", 100) + "b")

	_, err := m.Run(input, DepthFirst)
	if !errors.Is(err, ErrStackExceeded) {
		t.Fatalf("depth-first error = %v, want ErrStackExceeded", err)
	}
	var verr *Error
	if !errors.As(err, &verr) || verr.Limit != 10 {
		t.Errorf("error = %#v, want *Error with Limit 10", err)
	}

	// Breadth-first keeps no stack.
	got, err := m.Run(input, BreadthFirst)
	if err != nil || !got {
		t.Errorf("breadth-first = %v, %v; want true, nil", got, err)
	}

	// A short input stays under the limit.
	got, err = m.Run([]rune("aab"), DepthFirst)
	if err != nil || !got {
		t.Errorf("depth-first short input = %v, %v; want true, nil", got, err)
	}
}

func TestErrorMessages(t *testing.T) {
	_, stackErr := mustMachine(t, "a*b", Options{MaxStack: 10}).Run([]rune(strings.Repeat("a", 100)), DepthFirst)
	if stackErr == nil {
		t.Fatal("expected stack error")
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"stack exceeded", stackErr, "eval error: backtrack stack exceeded: limit = 10"},
		{"invalid mode", &Error{Kind: ErrInvalidMode, Limit: 7}, "eval error: invalid mode: 7"},
		{"invalid program", &Error{Kind: ErrInvalidProgram, Err: errors.New("empty program")}, "eval error: invalid program: empty program"},
		{"bare kind", ErrInvalidProgram, "eval error: invalid program"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Without an explicit MaxStack the visited set bounds the stack, so long
// inputs evaluate the same in both modes.
func TestDefaultStackFollowsInput(t *testing.T) {
	m := mustMachine(t, "a*", Options{})
	input := []rune(strings.Repeat("a", 1<<20+5))
	for _, mode := range modes {
		got, err := m.Run(input, mode)
		if err != nil || !got {
			t.Errorf("%s: Run = %v, %v; want true, nil", mode, got, err)
		}
	}

	end, ok, err := m.MatchEnd(input)
	if err != nil || !ok || end != len(input) {
		t.Errorf("MatchEnd = %d, %v, %v; want %d, true, nil", end, ok, err, len(input))
	}
}

func TestInvalidMode(t *testing.T) {
	m := mustMachine(t, "a", Options{})
	_, err := m.Run([]rune("a"), Mode(7))
	if !errors.Is(err, ErrInvalidMode) {
		t.Errorf("Run error = %v, want ErrInvalidMode", err)
	}

	_, err = Evaluate(m.Program(), []rune("a"), Mode(9), Options{})
	if !errors.Is(err, ErrInvalidMode) {
		t.Errorf("Evaluate error = %v, want ErrInvalidMode", err)
	}
}

func TestInvalidProgram(t *testing.T) {
	progs := []compiler.Program{
		nil,
		{{Op: compiler.InstChar, Char: 'a'}},
		{{Op: compiler.InstSplit, X: 0, Y: 9}, {Op: compiler.InstMatch}},
	}
	for i, prog := range progs {
		_, err := New(prog, Options{})
		if !errors.Is(err, ErrInvalidProgram) {
			t.Errorf("program %d: error = %v, want ErrInvalidProgram", i, err)
		}
		if errors.Unwrap(err) == nil {
			t.Errorf("program %d: error does not wrap the validation failure", i)
		}
	}
}

func TestModeAgreementPathological(t *testing.T) {
	// Exponential for naive backtracking without memoization.
	m := mustMachine(t, "(a|a)*(a|a)*(a|a)*b", Options{})
	input := []rune(strings.Repeat("a", 40))
	for _, mode := range modes {
		got, err := m.Run(input, mode)
		if err != nil || got {
			t.Errorf("%s: Run = %v, %v; want false, nil", mode, got, err)
		}
	}
}

// TestAgainstStdlib cross-checks random patterns against regexp, anchored at
// the start only. Skipped: empty groups and empty trailing alternatives,
// which this parser drops but regexp keeps, and +? *? ??, which regexp reads
// as lazy quantifiers.
func TestAgainstStdlib(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	inputs := []string{"", "a", "b", "ab", "ba", "aab", "abab", "bbba", "abcabc", "cccc", "aaaaaaab"}

	checked := 0
	for i := 0; i < 3000; i++ {
		pattern := randomPattern(rng, 1+rng.Intn(10))
		node, err := parser.Parse(pattern)
		if err != nil {
			continue
		}
		prog, err := compiler.Generate(node, compiler.Config{})
		if err != nil {
			t.Fatalf("Generate(%q) unexpected error: %v", pattern, err)
		}
		m, err := New(prog, Options{})
		if err != nil {
			t.Fatalf("New(%q) unexpected error: %v", pattern, err)
		}

		var std *regexp.Regexp
		if comparableWithStdlib(pattern) {
			std, _ = regexp.Compile(`^(?:` + pattern + `)`)
		}

		for _, input := range inputs {
			runes := []rune(input)
			dfs, err := m.Run(runes, DepthFirst)
			if err != nil {
				t.Fatalf("%q on %q depth-first error: %v", pattern, input, err)
			}
			bfs, err := m.Run(runes, BreadthFirst)
			if err != nil {
				t.Fatalf("%q on %q breadth-first error: %v", pattern, input, err)
			}
			if dfs != bfs {
				t.Fatalf("%q on %q: depth-first = %v, breadth-first = %v\n%s", pattern, input, dfs, bfs, prog)
			}
			if std != nil {
				if want := std.MatchString(input); want != dfs {
					t.Fatalf("%q on %q: got %v, regexp says %v\n%s", pattern, input, dfs, want, prog)
				}
				checked++
			}
		}
	}
	if checked == 0 {
		t.Fatal("no pattern was checked against regexp")
	}
}

func comparableWithStdlib(pattern string) bool {
	for _, s := range []string{"()", "|)", "+?", "*?", "??"} {
		if strings.Contains(pattern, s) {
			return false
		}
	}
	return !strings.HasSuffix(pattern, "|")
}

func randomPattern(rng *rand.Rand, n int) string {
	const alphabet = "abc"
	var b strings.Builder
	depth := 0
	for i := 0; i < n; i++ {
		switch r := rng.Intn(10); {
		case r < 5:
			b.WriteByte(alphabet[rng.Intn(len(alphabet))])
		case r == 5:
			b.WriteByte("+*?"[rng.Intn(3)])
		case r == 6:
			b.WriteByte('|')
		case r == 7:
			b.WriteByte('(')
			depth++
		default:
			if depth > 0 {
				b.WriteByte(')')
				depth--
			} else {
				b.WriteByte(alphabet[rng.Intn(len(alphabet))])
			}
		}
	}
	for ; depth > 0; depth-- {
		b.WriteByte(')')
	}
	return b.String()
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"depth", DepthFirst, false},
		{"DFS", DepthFirst, false},
		{"depth-first", DepthFirst, false},
		{"breadth", BreadthFirst, false},
		{" bfs ", BreadthFirst, false},
		{"breadth-first", BreadthFirst, false},
		{"sideways", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	var m Mode
	if err := m.Set("bfs"); err != nil || m != BreadthFirst {
		t.Errorf("Set(bfs) = %v, mode %v", err, m)
	}
	if Mode(5).String() != "Mode(5)" {
		t.Errorf("Mode(5).String() = %q", Mode(5).String())
	}
}

func BenchmarkRun(b *testing.B) {
	input := []rune(strings.Repeat("ab", 500) + "c")
	m := mustMachine(b, "(ab|a|b)*c", Options{})

	for _, mode := range modes {
		b.Run(mode.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if ok, err := m.Run(input, mode); err != nil || !ok {
					b.Fatalf("Run = %v, %v", ok, err)
				}
			}
		})
	}
}

package vm

import (
	"fmt"
	"strings"
)

// Mode selects the evaluation strategy. Both strategies give the same answer.
type Mode uint8

const (
	// DepthFirst explores one thread at a time with backtracking, trying the
	// first branch of every split before the second.
	DepthFirst Mode = iota
	// BreadthFirst advances every live thread in lockstep over the input.
	BreadthFirst
)

func (m Mode) String() string {
	switch m {
	case DepthFirst:
		return "depth-first"
	case BreadthFirst:
		return "breadth-first"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Valid reports whether m names a known strategy.
func (m Mode) Valid() bool {
	return m == DepthFirst || m == BreadthFirst
}

// ParseMode parses a mode name such as "depth", "dfs", "breadth" or "bfs".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "depth", "dfs", "depth-first", "depthfirst":
		return DepthFirst, nil
	case "breadth", "bfs", "breadth-first", "breadthfirst":
		return BreadthFirst, nil
	}
	return 0, fmt.Errorf("unknown mode %q (want depth or breadth)", s)
}

// Set implements flag.Value.
func (m *Mode) Set(s string) error {
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

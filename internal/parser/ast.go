// Package parser turns a pattern string into an abstract syntax tree.
package parser

import (
	"strings"
)

// Op identifies the kind of a syntax tree node.
type Op uint8

const (
	OpChar     Op = iota + 1 // matches Char
	OpSeq                    // matches Sub[0], Sub[1], ... in order
	OpOr                     // matches Sub[0] or Sub[1]
	OpPlus                   // matches Sub[0] one or more times
	OpStar                   // matches Sub[0] zero or more times
	OpQuestion               // matches Sub[0] zero or one time
)

func (op Op) String() string {
	switch op {
	case OpChar:
		return "Char"
	case OpSeq:
		return "Seq"
	case OpOr:
		return "Or"
	case OpPlus:
		return "Plus"
	case OpStar:
		return "Star"
	case OpQuestion:
		return "Question"
	}
	return "Unknown"
}

// Node is a node in a pattern syntax tree.
// Each node owns its children; trees never share subtrees.
type Node struct {
	Op   Op
	Char rune    // literal for OpChar
	Sub  []*Node // operands; len 2 for OpOr, len 1 for quantifiers
}

// Char returns a node matching the literal c.
func Char(c rune) *Node {
	return &Node{Op: OpChar, Char: c}
}

// Seq returns a concatenation of nodes. An empty sequence matches the empty string.
func Seq(sub ...*Node) *Node {
	return &Node{Op: OpSeq, Sub: sub}
}

// Or returns the alternation of left and right.
func Or(left, right *Node) *Node {
	return &Node{Op: OpOr, Sub: []*Node{left, right}}
}

// Plus returns n repeated one or more times.
func Plus(n *Node) *Node {
	return &Node{Op: OpPlus, Sub: []*Node{n}}
}

// Star returns n repeated zero or more times.
func Star(n *Node) *Node {
	return &Node{Op: OpStar, Sub: []*Node{n}}
}

// Question returns n matched zero or one time.
func Question(n *Node) *Node {
	return &Node{Op: OpQuestion, Sub: []*Node{n}}
}

// Equal reports whether n and m describe the same tree.
func (n *Node) Equal(m *Node) bool {
	if n == nil || m == nil {
		return n == m
	}
	if n.Op != m.Op || n.Char != m.Char || len(n.Sub) != len(m.Sub) {
		return false
	}
	for i := range n.Sub {
		if !n.Sub[i].Equal(m.Sub[i]) {
			return false
		}
	}
	return true
}

// String renders the tree in a compact form such as Or(Seq(Char(a)),Seq(Char(b))).
func (n *Node) String() string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n *Node) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	b.WriteString(n.Op.String())
	b.WriteByte('(')
	if n.Op == OpChar {
		b.WriteRune(n.Char)
	}
	for i, sub := range n.Sub {
		if i > 0 {
			b.WriteByte(',')
		}
		writeNode(b, sub)
	}
	b.WriteByte(')')
}

// Walk calls fn for n and every node below it in depth-first order.
// Returning false from fn skips the children of that node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, sub := range n.Sub {
		Walk(sub, fn)
	}
}

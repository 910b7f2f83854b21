package parser

// frame is the state of an enclosing group, saved when '(' opens a new one.
type frame struct {
	seq   []*Node
	seqOr []*Node
}

// parser holds the single-pass state for one pattern.
type parser struct {
	seq   []*Node // concatenation being built at the innermost level
	seqOr []*Node // finished alternatives at the innermost level
	stack []frame // one entry per unmatched '('
}

// Parse converts pattern into a syntax tree.
//
// Supported syntax is literal characters, the escapes \\ \( \) \| \+ \* \?,
// concatenation, alternation with |, grouping with (), and the postfix
// quantifiers +, * and ?. Positions in returned errors are rune indices.
func Parse(pattern string) (*Node, error) {
	p := &parser{}
	escape := false
	escapePos := 0

	pos := 0
	for _, c := range pattern {
		if escape {
			if err := p.escaped(pos, c); err != nil {
				return nil, err
			}
			escape = false
			pos++
			continue
		}

		var err error
		switch c {
		case '+':
			err = p.repeat(OpPlus, pos)
		case '*':
			err = p.repeat(OpStar, pos)
		case '?':
			err = p.repeat(OpQuestion, pos)
		case '(':
			p.open()
		case ')':
			err = p.close(pos)
		case '|':
			err = p.alternate(pos)
		case '\\':
			escape = true
			escapePos = pos
		default:
			p.seq = append(p.seq, Char(c))
		}
		if err != nil {
			return nil, err
		}
		pos++
	}

	if escape {
		return nil, &Error{Kind: ErrInvalidEscape, Pos: escapePos, Char: '\\'}
	}
	if len(p.stack) > 0 {
		return nil, &Error{Kind: ErrNoRightParen, Pos: -1}
	}

	p.flush()
	if n := foldOr(p.seqOr); n != nil {
		return n, nil
	}
	return nil, &Error{Kind: ErrEmpty, Pos: -1}
}

// MustParse is like Parse but panics if the pattern cannot be parsed.
func MustParse(pattern string) *Node {
	n, err := Parse(pattern)
	if err != nil {
		panic(`parser: Parse(` + quote(pattern) + `): ` + err.Error())
	}
	return n
}

func (p *parser) escaped(pos int, c rune) error {
	switch c {
	case '\\', '(', ')', '|', '+', '*', '?':
		p.seq = append(p.seq, Char(c))
		return nil
	}
	return &Error{Kind: ErrInvalidEscape, Pos: pos, Char: c}
}

// repeat wraps the last node of the current sequence in a quantifier.
func (p *parser) repeat(op Op, pos int) error {
	if len(p.seq) == 0 {
		return &Error{Kind: ErrNoPrev, Pos: pos}
	}
	last := len(p.seq) - 1
	p.seq[last] = &Node{Op: op, Sub: []*Node{p.seq[last]}}
	return nil
}

func (p *parser) open() {
	p.stack = append(p.stack, frame{seq: p.seq, seqOr: p.seqOr})
	p.seq = nil
	p.seqOr = nil
}

func (p *parser) close(pos int) error {
	if len(p.stack) == 0 {
		return &Error{Kind: ErrInvalidRightParen, Pos: pos}
	}
	outer := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]

	p.flush()
	if n := foldOr(p.seqOr); n != nil {
		outer.seq = append(outer.seq, n)
	}
	p.seq = outer.seq
	p.seqOr = outer.seqOr
	return nil
}

func (p *parser) alternate(pos int) error {
	if len(p.seq) == 0 {
		return &Error{Kind: ErrNoPrev, Pos: pos}
	}
	p.flush()
	return nil
}

// flush moves a non-empty current sequence into the alternatives.
func (p *parser) flush() {
	if len(p.seq) == 0 {
		return
	}
	p.seqOr = append(p.seqOr, Seq(p.seq...))
	p.seq = nil
}

// foldOr combines alternatives into a right-nested chain:
// [a b c] becomes Or(a, Or(b, c)). It returns nil for no alternatives.
func foldOr(alts []*Node) *Node {
	if len(alts) == 0 {
		return nil
	}
	n := alts[len(alts)-1]
	for i := len(alts) - 2; i >= 0; i-- {
		n = Or(alts[i], n)
	}
	return n
}

func quote(s string) string {
	return "`" + s + "`"
}

// Package expression parses and evaluates the watcher condition language:
// a small set algebra over named fetch results.
//
//	expr    := setExpr relOp setExpr | setExpr
//	setExpr := term (('&'|'|'|'-'|'^') term)*
//	term    := 'empty' | 'any' | 'fetch_' INT | '(' setExpr ')'
//	relOp   := '==' | '!=' | '<=' | '>=' | '<' | '>'
//
// fetch_N refers to the result set of the Nth fetch group of the current
// tick; evaluation is a pure function of those sets.
package expression

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// -----------------------------------------------------------------------
// AST nodes
// -----------------------------------------------------------------------

// Node is the common interface for all AST nodes.
type Node interface {
	exprNode()
}

// RelExpr compares two set expressions. At most one relation may appear
// in an expression; relations never nest.
type RelExpr struct {
	Op    RelOp
	Left  Node
	Right Node
}

func (*RelExpr) exprNode() {}

// SetOpExpr combines two set expressions with a set operator.
type SetOpExpr struct {
	Op    SetOp
	Left  Node
	Right Node
}

func (*SetOpExpr) exprNode() {}

// FetchTerm references the result set of fetch group Index.
type FetchTerm struct {
	Index int
}

func (*FetchTerm) exprNode() {}

// EmptyTerm is the empty set literal.
type EmptyTerm struct{}

func (*EmptyTerm) exprNode() {}

// AnyTerm is the contextual "non-empty" operand. It is only meaningful
// directly beside == or !=.
type AnyTerm struct{}

func (*AnyTerm) exprNode() {}

// RelOp is a set relation operator.
type RelOp string

// Relation operators.
const (
	OpEqual          RelOp = "=="
	OpNotEqual       RelOp = "!="
	OpSubset         RelOp = "<="
	OpSuperset       RelOp = ">="
	OpProperSubset   RelOp = "<"
	OpProperSuperset RelOp = ">"
)

// SetOp is a set combination operator.
type SetOp byte

// Set operators.
const (
	OpIntersect  SetOp = '&'
	OpUnion      SetOp = '|'
	OpDifference SetOp = '-'
	OpSymmetric  SetOp = '^'
)

// -----------------------------------------------------------------------
// Tokenizer
// -----------------------------------------------------------------------

type tokenKind int

const (
	tokWord tokenKind = iota // empty | any | fetch_N
	tokSetOp
	tokRelOp
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		ch := expr[i]
		if unicode.IsSpace(rune(ch)) {
			i++
			continue
		}
		switch ch {
		case '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
			continue
		case ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
			continue
		case '&', '|', '-', '^':
			tokens = append(tokens, token{tokSetOp, string(ch), i})
			i++
			continue
		case '=', '!':
			if i+1 >= len(expr) || expr[i+1] != '=' {
				return nil, &ParseError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", ch)}
			}
			tokens = append(tokens, token{tokRelOp, expr[i : i+2], i})
			i += 2
			continue
		case '<', '>':
			if i+1 < len(expr) && expr[i+1] == '=' {
				tokens = append(tokens, token{tokRelOp, expr[i : i+2], i})
				i += 2
			} else {
				tokens = append(tokens, token{tokRelOp, string(ch), i})
				i++
			}
			continue
		}
		if unicode.IsLetter(rune(ch)) || ch == '_' {
			j := i
			for j < len(expr) && (unicode.IsLetter(rune(expr[j])) || unicode.IsDigit(rune(expr[j])) || expr[j] == '_') {
				j++
			}
			tokens = append(tokens, token{tokWord, expr[i:j], i})
			i = j
			continue
		}
		return nil, &ParseError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", ch)}
	}
	tokens = append(tokens, token{tokEOF, "", len(expr)})
	return tokens, nil
}

// -----------------------------------------------------------------------
// Recursive-descent parser
// -----------------------------------------------------------------------

// ParseError reports a syntax error with its byte position.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("expression: %s at position %d", e.Msg, e.Pos)
}

// Expression is a parsed, reusable watcher condition.
type Expression struct {
	src      string
	root     Node
	maxFetch int // highest fetch_N index referenced, -1 if none
}

type parser struct {
	tokens   []token
	pos      int
	maxFetch int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) consume() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

// Parse parses an expression string.
func Parse(src string) (*Expression, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, maxFetch: -1}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q after expression", t.val)}
	}
	return &Expression{src: src, root: root, maxFetch: p.maxFetch}, nil
}

// expr = setExpr [ relOp setExpr ]
func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseSetExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokRelOp {
		return left, nil
	}
	op := RelOp(p.consume().val)
	right, err := p.parseSetExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokRelOp {
		return nil, &ParseError{Pos: t.pos, Msg: "chained relations are not allowed"}
	}
	return &RelExpr{Op: op, Left: left, Right: right}, nil
}

// setExpr = term (setOp term)*, left-associative, single precedence level.
func (p *parser) parseSetExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokSetOp {
		op := SetOp(p.consume().val[0])
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &SetOpExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// term = 'empty' | 'any' | 'fetch_' INT | '(' setExpr ')'
func (p *parser) parseTerm() (Node, error) {
	t := p.peek()
	switch t.kind {
	case tokLParen:
		p.consume()
		inner, err := p.parseSetExpr()
		if err != nil {
			return nil, err
		}
		if c := p.peek(); c.kind != tokRParen {
			return nil, &ParseError{Pos: c.pos, Msg: fmt.Sprintf("expected \")\", got %q", c.val)}
		}
		p.consume()
		return inner, nil
	case tokWord:
		p.consume()
		switch {
		case t.val == "empty":
			return &EmptyTerm{}, nil
		case t.val == "any":
			return &AnyTerm{}, nil
		case strings.HasPrefix(t.val, "fetch_"):
			n, err := strconv.Atoi(t.val[len("fetch_"):])
			if err != nil || n < 0 {
				return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("invalid fetch reference %q", t.val)}
			}
			if n > p.maxFetch {
				p.maxFetch = n
			}
			return &FetchTerm{Index: n}, nil
		}
		return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unknown identifier %q", t.val)}
	default:
		return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("expected term, got %q", t.val)}
	}
}

// String returns the original expression source.
func (e *Expression) String() string { return e.src }

// MaxFetchIndex returns the highest fetch_N index the expression
// references, or -1 when it references none. Callers use it to reject
// expressions that point past the configured fetch groups at load time.
func (e *Expression) MaxFetchIndex() int { return e.maxFetch }

// Package pattern implements the recursive-descent pattern parser (C4): it
// turns a flat token stream (internal/token) into a matcher.Matcher tree
// (internal/matcher), classifying bare identifiers via internal/registry.
package pattern

import (
	"github.com/oxhq/grepsql/internal/capture"
	"github.com/oxhq/grepsql/internal/grepsqlerr"
	"github.com/oxhq/grepsql/internal/matcher"
	"github.com/oxhq/grepsql/internal/registry"
	"github.com/oxhq/grepsql/internal/token"
)

// Compile tokenizes and parses pattern text into a matcher tree. The
// returned matcher is immutable and safe to share across concurrent
// searches, per spec.md §5.
func Compile(pattern string) (matcher.Matcher, error) {
	toks, err := token.Tokenize(pattern)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: toks}
	m, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, p.errorf("end of pattern", "trailing input after a complete expression")
	}
	return m, nil
}

type parser struct {
	tokens []token.Token
	pos    int
}

func (p *parser) peek() token.Token  { return p.tokens[p.pos] }
func (p *parser) atEOF() bool        { return p.peek().Kind == token.EOF }
func (p *parser) advance() token.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind token.Kind) (token.Token, error) {
	if p.peek().Kind != kind {
		return token.Token{}, p.errorf(kind.String(), "")
	}
	return p.advance(), nil
}

func (p *parser) errorf(expected, detail string) error {
	tok := p.peek()
	text := tok.Value
	if text == "" {
		text = tok.Kind.String()
	}
	expectedMsg := expected
	if detail != "" {
		expectedMsg = expected + " (" + detail + ")"
	}
	return &grepsqlerr.PatternSyntaxError{
		Position: tok.Position,
		Token:    text,
		Expected: expectedMsg,
	}
}

// parseExpression consumes one logical expression and returns its matcher,
// dispatching on the head token per spec.md §4.4.
func (p *parser) parseExpression() (matcher.Matcher, error) {
	tok := p.peek()
	switch tok.Kind {
	case token.LPAREN:
		return p.parseGroup()
	case token.LBRACE:
		return p.parseCombinatorList(token.LBRACE, token.RBRACE, func(children []matcher.Matcher) matcher.Matcher {
			return &matcher.Any{Children: children}
		})
	case token.LBRACK:
		return p.parseCombinatorList(token.LBRACK, token.RBRACK, func(children []matcher.Matcher) matcher.Matcher {
			return &matcher.All{Children: children}
		})
	case token.CARET:
		p.advance()
		child, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &matcher.Parent{Child: child}, nil
	case token.BANG:
		p.advance()
		child, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &matcher.Not{Child: child}, nil
	case token.QMARK:
		p.advance()
		child, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &matcher.Maybe{Child: child}, nil
	case token.DOLLAR:
		return p.parseCapture()
	case token.UNDERSCORE:
		p.advance()
		return matcher.AnyNode{}, nil
	case token.ELLIPSIS:
		p.advance()
		return matcher.HasChildren{}, nil
	case token.DQSTRING:
		p.advance()
		return &matcher.Literal{Text: tok.Value, CaseInsensitive: false}, nil
	case token.SQSTRING:
		p.advance()
		return &matcher.Literal{Text: tok.Value, CaseInsensitive: false}, nil
	case token.IDENT:
		return p.parseIdent()
	default:
		return nil, p.errorf("an expression", "")
	}
}

// closesGroup reports whether kind terminates a group/combinator — used to
// decide whether a capture's expression argument is implicit (any-node).
func closesGroup(kind token.Kind) bool {
	switch kind {
	case token.RPAREN, token.RBRACE, token.RBRACK, token.EOF:
		return true
	default:
		return false
	}
}

func (p *parser) parseCapture() (matcher.Matcher, error) {
	p.advance() // DOLLAR
	name := capture.DefaultBucket
	if p.peek().Kind == token.IDENT {
		name = p.advance().Value
	}
	if closesGroup(p.peek().Kind) {
		return &matcher.Capture{Name: name, Child: matcher.AnyNode{}}, nil
	}
	child, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &matcher.Capture{Name: name, Child: child}, nil
}

// parseCombinatorList parses `open expr+ close` into children via build.
func (p *parser) parseCombinatorList(open, close token.Kind, build func([]matcher.Matcher) matcher.Matcher) (matcher.Matcher, error) {
	if _, err := p.expect(open); err != nil {
		return nil, err
	}
	var children []matcher.Matcher
	for p.peek().Kind != close {
		if p.atEOF() {
			return nil, p.errorf(close.String(), "unterminated combinator")
		}
		child, err := p.parseCombinatorMember()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if _, err := p.expect(close); err != nil {
		return nil, err
	}
	return build(children), nil
}

// parseCombinatorMember parses one member of a `{}`/`[]` combinator. Per
// spec.md §4.5's tie-break, a bare identifier here never consumes a
// following sibling as a value predicate — each identifier is its own
// standalone matcher (attribute with an implicit any-value predicate, node
// type, or literal), so `{relname funcname}` is two OR'd matchers rather
// than one attribute whose value is the other. Only the IDENT case needs
// this override; every other expression form (parenthesized groups, nested
// combinators, captures, literals, ...) parses the same as at any other
// position.
func (p *parser) parseCombinatorMember() (matcher.Matcher, error) {
	if p.peek().Kind == token.IDENT {
		return p.parseIdentStandalone()
	}
	return p.parseExpression()
}

// parseIdentStandalone classifies a bare identifier without looking past it
// for a value predicate, used wherever a following sibling must remain a
// separate matcher rather than be consumed (spec.md §4.5's combinator
// tie-break).
func (p *parser) parseIdentStandalone() (matcher.Matcher, error) {
	tok := p.advance()
	switch registry.Classify(tok.Value) {
	case registry.Attribute:
		return &matcher.Attribute{Name: tok.Value}, nil
	case registry.NodeType:
		return &matcher.NodeType{Name: tok.Value}, nil
	default:
		return &matcher.Literal{Text: tok.Value, CaseInsensitive: true}, nil
	}
}

// parseGroup parses `( expr* )`, implementing both the head-conditions form
// and the bare-sequence form (they are the same production) plus the
// two-phase ellipsis split described in spec.md §9.
func (p *parser) parseGroup() (matcher.Matcher, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	if p.peek().Kind == token.RPAREN {
		p.advance()
		return matcher.AnyNode{}, nil
	}

	var same []matcher.Matcher
	var descendant []matcher.Matcher
	pastEllipsis := false

	for p.peek().Kind != token.RPAREN {
		if p.atEOF() {
			return nil, p.errorf("RPAREN", "unterminated group")
		}

		if p.peek().Kind == token.ELLIPSIS {
			p.advance()
			pastEllipsis = true
			continue
		}

		if !pastEllipsis && len(same) == 0 {
			m, err := p.parseGroupHead()
			if err != nil {
				return nil, err
			}
			same = append(same, m)
			continue
		}

		m, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if pastEllipsis {
			descendant = append(descendant, m)
		} else {
			same = append(same, m)
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	if len(descendant) == 0 {
		if len(same) == 1 {
			return same[0], nil
		}
		return &matcher.All{Children: same}, nil
	}
	return &matcher.Group{Same: same, Descendant: descendant}, nil
}

// parseGroupHead parses the first sub-expression of a group. An IDENT head
// goes through parseIdentAsHead, so an attribute-name head can consume the
// next expression as its value predicate; this is the same handling
// parseExpression gives an IDENT, and only combinator members differ.
func (p *parser) parseGroupHead() (matcher.Matcher, error) {
	if p.peek().Kind != token.IDENT {
		return p.parseExpression()
	}
	return p.parseIdentAsHead()
}

// parseIdent classifies a bare identifier via the attribute registry and
// builds the corresponding matcher, consuming a trailing value predicate
// for attribute identifiers wherever one is present. Combinator members do
// not come through here: parseCombinatorMember routes a bare identifier to
// parseIdentStandalone, which never consumes a following sibling.
func (p *parser) parseIdent() (matcher.Matcher, error) {
	return p.parseIdentAsHead()
}

func (p *parser) parseIdentAsHead() (matcher.Matcher, error) {
	tok := p.advance()
	switch registry.Classify(tok.Value) {
	case registry.Attribute:
		if p.startsValuePattern() {
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return &matcher.Attribute{Name: tok.Value, Value: value}, nil
		}
		return &matcher.Attribute{Name: tok.Value}, nil
	case registry.NodeType:
		return &matcher.NodeType{Name: tok.Value}, nil
	default:
		return &matcher.Literal{Text: tok.Value, CaseInsensitive: true}, nil
	}
}

// startsValuePattern reports whether the current token can begin a value
// predicate: LBRACE, LPAREN, a quoted string, or any identifier that is not
// itself a group/combinator closer.
func (p *parser) startsValuePattern() bool {
	switch p.peek().Kind {
	case token.LBRACE, token.LPAREN, token.DQSTRING, token.SQSTRING,
		token.IDENT, token.UNDERSCORE, token.ELLIPSIS, token.DOLLAR,
		token.BANG, token.QMARK, token.CARET, token.LBRACK:
		return true
	default:
		return false
	}
}

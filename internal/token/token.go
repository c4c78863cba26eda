// Package token tokenizes grepsql pattern text into the flat token stream
// the pattern parser (internal/pattern) consumes. The lexer is a single
// incremental cursor over the source string, in the style of a hand-rolled
// recursive lexer rather than a regex-driven one, so that the grammar stays
// provably backtracking-free.
package token

import (
	"strings"

	"github.com/oxhq/grepsql/internal/grepsqlerr"
)

// Kind identifies a token's lexical category.
type Kind int

const (
	EOF Kind = iota
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACK
	RBRACK
	CARET
	BANG
	QMARK
	DOLLAR
	UNDERSCORE
	ELLIPSIS
	DQSTRING
	SQSTRING
	IDENT
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	case LBRACK:
		return "LBRACK"
	case RBRACK:
		return "RBRACK"
	case CARET:
		return "CARET"
	case BANG:
		return "BANG"
	case QMARK:
		return "QMARK"
	case DOLLAR:
		return "DOLLAR"
	case UNDERSCORE:
		return "UNDERSCORE"
	case ELLIPSIS:
		return "ELLIPSIS"
	case DQSTRING:
		return "DQSTRING"
	case SQSTRING:
		return "SQSTRING"
	case IDENT:
		return "IDENT"
	default:
		return "UNKNOWN"
	}
}

// Token is one lexical unit. Value holds the identifier text or the
// unquoted contents of a string token; it is empty for punctuation tokens.
type Token struct {
	Kind     Kind
	Value    string
	Position int // byte offset of the token's first character in the source
}

// Tokenizer lexes pattern text incrementally. Source and cursor are
// unexported; construct with New. The zero value lexes an empty source.
type Tokenizer struct {
	source string
	cursor int
}

// New constructs a Tokenizer over pattern text.
func New(source string) *Tokenizer {
	return &Tokenizer{source: source}
}

// Tokenize lexes the entire source and returns the token stream, terminated
// by a trailing EOF token. It returns a *grepsqlerr.PatternSyntaxError on the
// first character outside the pattern grammar.
func Tokenize(source string) ([]Token, error) {
	t := New(source)
	var out []Token
	for {
		tok, err := t.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

// Next returns the next token, or an EOF token once the source is exhausted.
func (t *Tokenizer) Next() (Token, error) {
	t.skipWhitespace()
	start := t.cursor

	if !t.more() {
		return Token{Kind: EOF, Position: start}, nil
	}

	if tok, ok := t.maybePunct(start); ok {
		return tok, nil
	}
	if tok, ok, err := t.maybeString(start, '"', DQSTRING); ok || err != nil {
		return tok, err
	}
	if tok, ok, err := t.maybeString(start, '\'', SQSTRING); ok || err != nil {
		return tok, err
	}
	if tok, ok := t.maybeIdent(start); ok {
		return tok, nil
	}

	return Token{}, &grepsqlerr.PatternSyntaxError{
		Position: start,
		Token:    string(t.headByte()),
		Expected: "one of ( ) { } [ ] ^ ! ? $ _ ... a quoted string, or an identifier",
	}
}

func (t *Tokenizer) skipWhitespace() {
	for t.more() && isWhitespace(t.headByte()) {
		t.cursor++
	}
}

func (t *Tokenizer) maybePunct(start int) (Token, bool) {
	// "..." must be checked before a lone "." would ever be considered;
	// the grammar has no single-dot token, so this is unambiguous.
	if strings.HasPrefix(t.rest(), "...") {
		t.cursor += 3
		return Token{Kind: ELLIPSIS, Position: start}, true
	}

	// A lone "_" is the any-node wildcard; "_foo" or "_1" is an identifier
	// that happens to start with underscore, so only claim UNDERSCORE when
	// no further identifier byte follows.
	if t.headByte() == '_' && !isIdentByte(t.peekByte(1)) {
		t.cursor++
		return Token{Kind: UNDERSCORE, Position: start}, true
	}

	single := map[byte]Kind{
		'(': LPAREN, ')': RPAREN,
		'{': LBRACE, '}': RBRACE,
		'[': LBRACK, ']': RBRACK,
		'^': CARET, '!': BANG, '?': QMARK,
		'$': DOLLAR,
	}
	if kind, ok := single[t.headByte()]; ok {
		t.cursor++
		return Token{Kind: kind, Position: start}, true
	}
	return Token{}, false
}

func (t *Tokenizer) maybeString(start int, quote byte, kind Kind) (Token, bool, error) {
	if t.headByte() != quote {
		return Token{}, false, nil
	}
	t.cursor++
	contentStart := t.cursor
	for t.more() {
		if t.headByte() == quote {
			value := t.source[contentStart:t.cursor]
			t.cursor++
			return Token{Kind: kind, Value: value, Position: start}, true, nil
		}
		t.cursor++
	}
	return Token{}, true, &grepsqlerr.PatternSyntaxError{
		Position: start,
		Token:    t.source[start:],
		Expected: "closing " + string(quote),
	}
}

func (t *Tokenizer) maybeIdent(start int) (Token, bool) {
	if !isIdentByte(t.headByte()) {
		return Token{}, false
	}
	for t.more() && isIdentByte(t.headByte()) {
		t.cursor++
	}
	return Token{Kind: IDENT, Value: t.source[start:t.cursor], Position: start}, true
}

func (t *Tokenizer) more() bool { return t.cursor < len(t.source) }

func (t *Tokenizer) headByte() byte {
	if t.more() {
		return t.source[t.cursor]
	}
	return 0
}

func (t *Tokenizer) peekByte(offset int) byte {
	i := t.cursor + offset
	if i < len(t.source) {
		return t.source[i]
	}
	return 0
}

func (t *Tokenizer) rest() string {
	if t.more() {
		return t.source[t.cursor:]
	}
	return ""
}

func isWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

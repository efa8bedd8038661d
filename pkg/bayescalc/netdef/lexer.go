package netdef

import (
	"fmt"
	"unicode"

	"github.com/cognicore/bayescalc/pkg/bayescalc/internalerr"
)

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenNumber
	tokenLBrace
	tokenRBrace
	tokenLParen
	tokenRParen
	tokenComma
	tokenPipe
	tokenEquals
	tokenEOF
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (k tokenKind) String() string {
	switch k {
	case tokenIdent:
		return "identifier"
	case tokenNumber:
		return "number"
	case tokenLBrace:
		return "'{'"
	case tokenRBrace:
		return "'}'"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenComma:
		return "','"
	case tokenPipe:
		return "'|'"
	case tokenEquals:
		return "'='"
	case tokenEOF:
		return "end of input"
	}
	return "unknown token"
}

// lexer splits a network definition into tokens. Lines starting with '#' are
// comments.
type lexer struct {
	input []rune
	pos   int
	line  int
}

func newLexer(input string) *lexer {
	return &lexer{input: []rune(input), line: 1}
}

func (l *lexer) tokenize() ([]token, error) {
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokenEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipBlank()
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, line: l.line}, nil
	}

	r := l.input[l.pos]
	switch r {
	case '{':
		return l.symbol(tokenLBrace), nil
	case '}':
		return l.symbol(tokenRBrace), nil
	case '(':
		return l.symbol(tokenLParen), nil
	case ')':
		return l.symbol(tokenRParen), nil
	case ',':
		return l.symbol(tokenComma), nil
	case '|':
		return l.symbol(tokenPipe), nil
	case '=':
		return l.symbol(tokenEquals), nil
	}

	if unicode.IsDigit(r) || r == '.' {
		return l.number(), nil
	}
	if unicode.IsLetter(r) || r == '_' {
		return l.ident(), nil
	}
	return token{}, fmt.Errorf("%w: line %d: unexpected character %q", internalerr.ErrInvalidNetwork, l.line, string(r))
}

func (l *lexer) skipBlank() {
	for l.pos < len(l.input) {
		r := l.input[l.pos]
		switch {
		case r == '\n':
			l.line++
			l.pos++
		case unicode.IsSpace(r):
			l.pos++
		case r == '#':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) symbol(kind tokenKind) token {
	tok := token{kind: kind, text: string(l.input[l.pos]), line: l.line}
	l.pos++
	return tok
}

func (l *lexer) number() token {
	start := l.pos
	for l.pos < len(l.input) {
		r := l.input[l.pos]
		if !unicode.IsDigit(r) && r != '.' && r != 'e' && r != 'E' && r != '-' && r != '+' {
			break
		}
		// Only allow sign characters directly after an exponent marker.
		if (r == '-' || r == '+') && l.pos > start {
			prev := l.input[l.pos-1]
			if prev != 'e' && prev != 'E' {
				break
			}
		}
		l.pos++
	}
	return token{kind: tokenNumber, text: string(l.input[start:l.pos]), line: l.line}
}

func (l *lexer) ident() token {
	start := l.pos
	for l.pos < len(l.input) {
		r := l.input[l.pos]
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.pos++
	}
	return token{kind: tokenIdent, text: string(l.input[start:l.pos]), line: l.line}
}

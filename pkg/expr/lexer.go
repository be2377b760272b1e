package expr

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenPlus
	tokenMinus
	tokenMul
	tokenDiv
	tokenPow
	tokenLParen
	tokenRParen
	tokenComma
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of input"
	case tokenNumber:
		return "number"
	case tokenIdent:
		return "identifier"
	case tokenPlus:
		return "'+'"
	case tokenMinus:
		return "'-'"
	case tokenMul:
		return "'x'"
	case tokenDiv:
		return "'/'"
	case tokenPow:
		return "'^'"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenComma:
		return "','"
	default:
		return "unknown"
	}
}

var punctuation = map[byte]tokenKind{
	'+': tokenPlus,
	'-': tokenMinus,
	'x': tokenMul,
	'*': tokenMul,
	'/': tokenDiv,
	'^': tokenPow,
	'(': tokenLParen,
	')': tokenRParen,
	',': tokenComma,
}

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) all() ([]token, error) {
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
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}

	start := l.pos
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, pos: start}, nil
	}

	c := l.input[l.pos]
	if kind, ok := punctuation[c]; ok {
		l.pos++
		return token{kind: kind, text: string(c), pos: start}, nil
	}

	switch {
	case isDigit(c) || c == '.':
		return l.number()
	case isLetter(c):
		for l.pos < len(l.input) && (isLetter(l.input[l.pos]) || isDigit(l.input[l.pos])) {
			l.pos++
		}
		return token{kind: tokenIdent, text: l.input[start:l.pos], pos: start}, nil
	default:
		return token{}, &Error{
			Expr:  l.input,
			Pos:   start,
			Cause: fmt.Errorf("%w: unexpected character %q", ErrSyntax, c),
		}
	}
}

func (l *lexer) number() (token, error) {
	start := l.pos
	digits := 0
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
		digits++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
			digits++
		}
	}

	if digits == 0 {
		return token{}, &Error{
			Expr:  l.input,
			Pos:   start,
			Cause: fmt.Errorf("%w: lone decimal point", ErrSyntax),
		}
	}

	// Exponent part, only when digits follow: "2e" leaves e as an identifier.
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		i := l.pos + 1
		if i < len(l.input) && (l.input[i] == '+' || l.input[i] == '-') {
			i++
		}
		if i < len(l.input) && isDigit(l.input[i]) {
			for i < len(l.input) && isDigit(l.input[i]) {
				i++
			}
			l.pos = i
		}
	}

	text := l.input[start:l.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, &Error{
			Expr:  l.input,
			Pos:   start,
			Cause: fmt.Errorf("%w: bad number %q", ErrOutOfRange, text),
		}
	}
	return token{kind: tokenNumber, text: text, num: v, pos: start}, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z' && c != 'x') || ('A' <= c && c <= 'Z') || c == '_'
}

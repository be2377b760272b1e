// Package expr evaluates the restricted arithmetic language typed into the
// calculator: + - x / ^, parentheses, unary minus, implicit multiplication
// and a fixed set of math functions. Nothing outside that namespace resolves.
package expr

import (
	"fmt"
	"math"
	"strings"
)

// TrailingOperators is the set stripped from the end of an expression before evaluation.
const TrailingOperators = "+-x*/^ "

type function struct {
	minArgs int
	maxArgs int
	call    func(args []float64) float64
}

func unary(fn func(float64) float64) function {
	return function{minArgs: 1, maxArgs: 1, call: func(args []float64) float64 {
		return fn(args[0])
	}}
}

var namespace = map[string]function{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"sqrt":  unary(math.Sqrt),
	"log10": unary(math.Log10),
	"ln":    unary(math.Log),
	"abs":   unary(math.Abs),
	"round": {minArgs: 1, maxArgs: 2, call: func(args []float64) float64 {
		if len(args) == 1 {
			return math.RoundToEven(args[0])
		}
		scale := math.Pow(10, math.Trunc(args[1]))
		return math.RoundToEven(args[0]*scale) / scale
	}},
}

// Functions reports whether name is part of the evaluator's namespace.
func Functions(name string) bool {
	_, ok := namespace[name]
	return ok
}

// StripTrailing removes a dangling run of operators and spaces.
func StripTrailing(raw string) string {
	return strings.TrimRight(raw, TrailingOperators)
}

// Evaluate parses and computes raw. Every failure is an *Error.
func Evaluate(raw string) (float64, error) {
	input := StripTrailing(raw)
	if strings.TrimSpace(input) == "" {
		return 0, &Error{Expr: raw, Cause: fmt.Errorf("%w: empty expression", ErrSyntax)}
	}

	l := &lexer{input: input}
	tokens, err := l.all()
	if err != nil {
		return 0, err
	}

	p := &parser{input: input, tokens: tokens}
	v, err := p.expression()
	if err != nil {
		return 0, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return 0, p.fail(tok, fmt.Errorf("%w: unexpected %s", ErrSyntax, tok.kind))
	}
	return v, nil
}

type parser struct {
	input  string
	tokens []token
	i      int
}

func (p *parser) peek() token {
	return p.tokens[p.i]
}

func (p *parser) advance() token {
	tok := p.tokens[p.i]
	if tok.kind != tokenEOF {
		p.i++
	}
	return tok
}

func (p *parser) fail(tok token, cause error) error {
	return &Error{Expr: p.input, Pos: tok.pos, Cause: cause}
}

func (p *parser) checked(tok token, v float64) (float64, error) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, p.fail(tok, ErrOutOfRange)
	}
	return v, nil
}

func (p *parser) expression() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}

	for {
		op := p.peek()
		if op.kind != tokenPlus && op.kind != tokenMinus {
			return left, nil
		}
		p.advance()

		right, err := p.term()
		if err != nil {
			return 0, err
		}

		if op.kind == tokenPlus {
			left += right
		} else {
			left -= right
		}
		if left, err = p.checked(op, left); err != nil {
			return 0, err
		}
	}
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}

	for {
		op := p.peek()
		switch op.kind {
		case tokenMul, tokenDiv:
			p.advance()
		case tokenNumber, tokenIdent, tokenLParen:
			// juxtaposition: 2(3), (1)(2), 2sin(0)
		default:
			return left, nil
		}

		right, err := p.unary()
		if err != nil {
			return 0, err
		}

		if op.kind == tokenDiv {
			if right == 0 {
				return 0, p.fail(op, ErrDivisionByZero)
			}
			left /= right
		} else {
			left *= right
		}
		if left, err = p.checked(op, left); err != nil {
			return 0, err
		}
	}
}

func (p *parser) unary() (float64, error) {
	switch tok := p.peek(); tok.kind {
	case tokenMinus:
		p.advance()
		v, err := p.unary()
		return -v, err
	case tokenPlus:
		p.advance()
		return p.unary()
	default:
		return p.power()
	}
}

func (p *parser) power() (float64, error) {
	base, err := p.primary()
	if err != nil {
		return 0, err
	}

	op := p.peek()
	if op.kind != tokenPow {
		return base, nil
	}
	p.advance()

	exp, err := p.unary()
	if err != nil {
		return 0, err
	}
	if base == 0 && exp < 0 {
		return 0, p.fail(op, ErrDivisionByZero)
	}
	return p.checked(op, math.Pow(base, exp))
}

func (p *parser) primary() (float64, error) {
	tok := p.advance()
	switch tok.kind {
	case tokenNumber:
		return tok.num, nil
	case tokenLParen:
		v, err := p.expression()
		if err != nil {
			return 0, err
		}
		if closing := p.advance(); closing.kind != tokenRParen {
			return 0, p.fail(closing, fmt.Errorf("%w: expected ')' but got %s", ErrSyntax, closing.kind))
		}
		return v, nil
	case tokenIdent:
		return p.call(tok)
	default:
		return 0, p.fail(tok, fmt.Errorf("%w: unexpected %s", ErrSyntax, tok.kind))
	}
}

func (p *parser) call(name token) (float64, error) {
	fn, ok := namespace[name.text]
	if !ok {
		return 0, p.fail(name, fmt.Errorf("%w: %q", ErrUnknownIdentifier, name.text))
	}
	if p.peek().kind != tokenLParen {
		return 0, p.fail(name, fmt.Errorf("%w: function %s used as a number", ErrType, name.text))
	}
	p.advance()

	var args []float64
	if p.peek().kind != tokenRParen {
		for {
			v, err := p.expression()
			if err != nil {
				return 0, err
			}
			args = append(args, v)
			if p.peek().kind != tokenComma {
				break
			}
			p.advance()
		}
	}

	if closing := p.advance(); closing.kind != tokenRParen {
		return 0, p.fail(closing, fmt.Errorf("%w: expected ')' but got %s", ErrSyntax, closing.kind))
	}

	if len(args) < fn.minArgs || len(args) > fn.maxArgs {
		return 0, p.fail(name, fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrType, name.text, fn.minArgs, len(args)))
	}
	return p.checked(name, fn.call(args))
}

package calculator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrUnsupported = errors.New("unsupported input format")

// Canonical key names accepted by Press besides digits, "." and the operators.
const (
	KeyClear     = "AC"
	KeyBackspace = "DEL"
	KeyParen     = "()"
	KeySign      = "NEG"
	KeyAns       = "ANS"
	KeyEquals    = "="
)

var functionTokens = map[string]string{
	"sin":  "sin(",
	"cos":  "cos(",
	"tan":  "tan(",
	"sqrt": "sqrt(",
	"log":  "log10(",
	"ln":   "ln(",
	"sq":   "^2",
	"^":    "^",
	"pi":   "(" + strconv.FormatFloat(math.Pi, 'g', -1, 64) + ")",
	"e":    "(" + strconv.FormatFloat(math.E, 'g', -1, 64) + ")",
}

var operatorAliases = map[string]string{
	"+": "+",
	"-": "-",
	"x": "x",
	"*": "x",
	"×": "x",
	"/": "/",
	"÷": "/",
}

// FunctionToken returns the text a scientific key inserts.
func FunctionToken(key string) (string, bool) {
	text, ok := functionTokens[key]
	return text, ok
}

// Press dispatches one key event. Keys that make no sense in the current
// state are ignored; only keys the calculator does not know are an error.
func (c *Calculator) Press(key string) error {
	if len(key) == 1 && (isDigit(key[0]) || key[0] == '.') {
		c.EnterDigit(key)
		return nil
	}
	if op, ok := operatorAliases[key]; ok {
		c.EnterOperator(op)
		return nil
	}

	switch key {
	case KeyClear, "C":
		c.Clear()
	case KeyBackspace:
		c.Backspace()
	case KeyParen, "(", ")":
		c.ToggleParenthesis()
	case KeySign, "±":
		c.ToggleSign()
	case KeyAns:
		c.InsertAns()
	case KeyEquals:
		c.Calculate()
	default:
		text, ok := functionTokens[key]
		if !ok {
			return ErrUnsupported
		}
		c.InsertFunction(text)
	}
	return nil
}

// IsKey reports whether Press accepts key.
func IsKey(key string) bool {
	if len(key) == 1 && (isDigit(key[0]) || key[0] == '.') {
		return true
	}
	if _, ok := operatorAliases[key]; ok {
		return true
	}
	switch key {
	case KeyClear, "C", KeyBackspace, KeyParen, "(", ")", KeySign, "±", KeyAns, KeyEquals:
		return true
	}
	_, ok := functionTokens[key]
	return ok
}

// PressAll feeds a whitespace-separated key sequence. Nothing is pressed
// when any key is unknown.
func (c *Calculator) PressAll(keys string) error {
	fields := strings.Fields(keys)
	for _, key := range fields {
		if !IsKey(key) {
			return fmt.Errorf("%w: %q", ErrUnsupported, key)
		}
	}

	for _, key := range fields {
		if err := c.Press(key); err != nil {
			return err
		}
	}
	return nil
}

type span struct {
	start, end int
}

func fields(s string) []span {
	var spans []span
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			if start >= 0 {
				spans = append(spans, span{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, span{start, len(s)})
	}
	return spans
}

func lastNonSpace(s string) (int, byte) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != ' ' {
			return i, s[i]
		}
	}
	return -1, 0
}

// isSign reports whether the '-' at i is a unary minus rather than a
// subtraction.
func isSign(s string, i int) bool {
	if s[i] != '-' {
		return false
	}
	j, prev := lastNonSpace(s[:i])
	return j < 0 || prev == '(' || prev == '^' || isBinaryOperator(prev)
}

// trailingNumber returns the number literal at the end of s, exponent
// included.
func trailingNumber(s string) string {
	i := len(s)
	for i > 0 && (isDigit(s[i-1]) || s[i-1] == '.') {
		i--
	}

	j := i
	if j > 0 && (s[j-1] == '+' || s[j-1] == '-') {
		j--
	}
	if j > 0 && s[j-1] == 'e' {
		k := j - 1
		for k > 0 && (isDigit(s[k-1]) || s[k-1] == '.') {
			k--
		}
		if k < j-1 {
			return s[k:]
		}
	}
	return s[i:]
}

func isOperatorToken(tok string) bool {
	return len(tok) == 1 && isBinaryOperator(tok[0])
}

func isBinaryOperator(c byte) bool {
	return c == '+' || c == '-' || c == 'x' || c == '/'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

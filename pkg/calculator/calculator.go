// Package calculator holds the expression editing session behind every
// calculator front end. A Calculator turns discrete key events into a
// space-tokenized expression, evaluates it on demand and keeps the last
// result for ANS.
//
// A Calculator is not safe for concurrent use; hosts that receive events on
// several goroutines must serialize calls.
package calculator

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/turbekoff/calcpad/pkg/expr"
	"github.com/turbekoff/calcpad/pkg/format"
)

// ErrorMarker replaces the number on the result line when evaluation fails.
const ErrorMarker = "Error"

const maxHistory = 100

type Calculator struct {
	raw            string
	shown          string
	justCalculated bool
	failed         bool
	lastResult     float64
	hasResult      bool
	count          int
	history        []string
	err            error
}

func New() *Calculator {
	return &Calculator{}
}

// EnterDigit appends a digit or a decimal point to the expression.
func (c *Calculator) EnterDigit(token string) {
	if len(token) != 1 || !(isDigit(token[0]) || token[0] == '.') {
		return
	}

	if c.justCalculated {
		c.restart("")
	}

	if token == "." && strings.ContainsAny(trailingNumber(c.raw), ".e") {
		return
	}

	if n := len(c.raw); n > 0 && isBinaryOperator(c.raw[n-1]) && !isSign(c.raw, n-1) {
		c.raw += " "
	}
	c.raw += token
}

// EnterOperator appends one of + - x /. A leading operator other than - and
// an operator right after an opening group are ignored.
func (c *Calculator) EnterOperator(op string) {
	if len(op) != 1 || !isBinaryOperator(op[0]) {
		return
	}

	raw := c.raw
	if c.justCalculated {
		raw = c.seed()
	}

	next, ok := applyOperator(raw, op[0])
	if !ok {
		return
	}
	c.restart(next)
}

func applyOperator(s string, op byte) (string, bool) {
	i, last := lastNonSpace(s)
	switch {
	case i < 0:
		if op == '-' {
			return "-", true
		}
		return s, false

	case last == '(' || last == '^':
		if op == '-' {
			return s + "-", true
		}
		return s, false

	case isBinaryOperator(last):
		if isSign(s, i) {
			if op == '-' {
				return s, true
			}
			return applyOperator(s[:i], op)
		}

		if op == '-' && last != '-' {
			if strings.HasSuffix(s, " ") {
				return s + "-", true
			}
			return s + " -", true
		}
		return s[:i] + string(op) + s[i+1:], true

	default:
		return strings.TrimRight(s, " ") + " " + string(op) + " ", true
	}
}

// ToggleSign flips the sign of the last operand.
func (c *Calculator) ToggleSign() {
	if c.justCalculated && c.hasResult && !c.failed {
		c.restart(format.Format(-c.lastResult, format.Live))
		return
	}
	if c.justCalculated {
		c.restart("")
	}

	if strings.TrimSpace(c.raw) == "" {
		c.raw = "-"
		return
	}

	spans := fields(c.raw)
	for k := len(spans) - 1; k >= 0; k-- {
		sp := spans[k]
		tok := c.raw[sp.start:sp.end]
		if isOperatorToken(tok) {
			continue
		}

		if strings.HasPrefix(tok, "-") {
			tok = tok[1:]
		} else {
			tok = "-" + tok
		}
		c.raw = c.raw[:sp.start] + tok + c.raw[sp.end:]
		return
	}

	c.raw = strings.TrimRight(c.raw, " ") + " -1"
}

// Backspace deletes one character. Right after a calculation it only brings
// the result back for editing.
func (c *Calculator) Backspace() {
	if c.justCalculated {
		c.restart(c.seed())
		return
	}
	if c.raw == "" {
		return
	}

	_, size := utf8.DecodeLastRuneInString(c.raw)
	c.raw = strings.TrimRight(c.raw[:len(c.raw)-size], " ")
}

// ToggleParenthesis opens a group when every group is closed, otherwise
// closes the innermost one.
func (c *Calculator) ToggleParenthesis() {
	if c.justCalculated {
		c.restart("")
	}

	opens := strings.Count(c.raw, "(")
	closes := strings.Count(c.raw, ")")
	i, last := lastNonSpace(c.raw)

	if opens <= closes {
		if i >= 0 && (isDigit(last) || last == '.' || last == ')') {
			c.raw = strings.TrimRight(c.raw, " ") + " x "
		}
		c.raw += "("
		return
	}

	if last == '(' || last == '^' || isBinaryOperator(last) {
		c.raw += "0"
	}
	c.raw += ")"
}

// InsertFunction appends a scientific token such as "sin(" or "^2" verbatim.
func (c *Calculator) InsertFunction(text string) {
	if text == "" {
		return
	}
	if c.justCalculated {
		c.restart("")
	}
	c.raw += text
}

// InsertAns appends the last result at full precision.
func (c *Calculator) InsertAns() {
	if !c.hasResult {
		return
	}

	ans := AnsText(c.lastResult)
	if c.justCalculated {
		c.restart(ans)
		return
	}

	if n := len(c.raw); n > 0 {
		last := c.raw[n-1]
		switch {
		case isDigit(last) || last == '.' || last == ')':
			c.raw += " x "
		case !isBinaryOperator(last) && last != ' ':
			c.raw += " "
		}
	}
	c.raw += ans
}

// Clear empties the expression. The last result stays available as ANS.
func (c *Calculator) Clear() {
	c.restart("")
	c.shown = ""
	c.failed = false
	c.err = nil
}

// Calculate evaluates the expression. Failures are recorded, never returned:
// the expression is discarded and the result line shows ErrorMarker.
func (c *Calculator) Calculate() {
	stripped := expr.StripTrailing(c.raw)
	if strings.TrimSpace(stripped) == "" {
		return
	}

	c.count++
	c.shown = stripped
	c.justCalculated = true

	v, err := expr.Evaluate(stripped)
	if err != nil {
		c.raw = ""
		c.failed = true
		c.err = err
		c.record(ErrorMarker)
		return
	}

	if v == 0 {
		v = 0
	}
	c.lastResult, c.hasResult = v, true
	c.failed = false
	c.err = nil
	c.raw = AnsText(v)
	c.record(format.Format(v, format.Final))
}

func (c *Calculator) restart(raw string) {
	c.raw = raw
	c.justCalculated = false
}

func (c *Calculator) seed() string {
	if c.failed || !c.hasResult {
		return ""
	}
	return format.Format(c.lastResult, format.Live)
}

func (c *Calculator) record(result string) {
	c.history = append(c.history, "= "+result)
	if len(c.history) > maxHistory {
		c.history = c.history[len(c.history)-maxHistory:]
	}
}

// AnsText renders v without rounding, the way ANS is inserted into an expression.
func AnsText(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

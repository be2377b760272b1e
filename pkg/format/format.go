// Package format renders calculator numbers for display.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Mode int

const (
	// Live is used while an expression is being typed: 8 significant digits, no grouping.
	Live Mode = iota
	// Final is used for computed results: 8 decimal places, space-grouped thousands.
	Final
)

const (
	scientificThreshold = 1e9
	liveSignificant     = 8
	finalDecimals       = 8
)

// Format converts value to its display text. Values that are not finite
// numbers are returned in their literal string form.
func Format(value any, mode Mode) string {
	v, ok := toFloat(value)
	if !ok {
		return literal(value)
	}

	if v == 0 {
		v = 0
	}

	if math.Abs(v) >= scientificThreshold {
		return fmt.Sprintf("%.2e", v)
	}

	switch mode {
	case Final:
		return final(v)
	default:
		return normalizeZero(strconv.FormatFloat(v, 'g', liveSignificant, 64))
	}
}

func final(v float64) string {
	s := strconv.FormatFloat(v, 'f', finalDecimals, 64)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	fracPart = strings.TrimRight(fracPart, "0")

	s = sign + Group(intPart)
	if fracPart != "" {
		s += "." + fracPart
	}
	return normalizeZero(s)
}

// Group inserts a space between every three digits of an unsigned integer string.
func Group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Parse reads a number previously produced by Format.
func Parse(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func toFloat(value any) (float64, bool) {
	var v float64
	switch x := value.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case int32:
		v = float64(x)
	case uint:
		v = float64(x)
	case uint64:
		v = float64(x)
	case string:
		return Parse(x)
	default:
		return 0, false
	}

	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func literal(value any) string {
	switch x := value.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func normalizeZero(s string) string {
	if s == "-0" {
		return "0"
	}
	return s
}

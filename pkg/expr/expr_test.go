package expr

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Knetic/govaluate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbekoff/calcpad/pkg/format"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{name: "Addition", input: "7 + 3", expected: 10},
		{name: "Letter x multiplies", input: "2 x 3", expected: 6},
		{name: "Star multiplies", input: "2*3", expected: 6},
		{name: "Precedence", input: "2 + 3 x 4", expected: 14},
		{name: "Left associative subtraction", input: "10 - 4 - 3", expected: 3},
		{name: "Left associative division", input: "8 / 4 / 2", expected: 1},
		{name: "Power", input: "2^3", expected: 8},
		{name: "Power is right associative", input: "2^3^2", expected: 512},
		{name: "Unary minus binds looser than power", input: "-2^2", expected: -4},
		{name: "Negative exponent", input: "2^-1", expected: 0.5},
		{name: "Unary after operator", input: "5 + -3", expected: 2},
		{name: "Double negative", input: "- -1", expected: 1},
		{name: "Parentheses", input: "(1 + 2) x 3", expected: 9},
		{name: "Implicit multiplication before group", input: "2(3)", expected: 6},
		{name: "Implicit multiplication between groups", input: "(1 + 2)(3 + 4)", expected: 21},
		{name: "Implicit multiplication before function", input: "2sqrt(9)", expected: 6},
		{name: "Trailing operator stripped", input: "5 + ", expected: 5},
		{name: "Trailing operator run stripped", input: "5 x -", expected: 5},
		{name: "Square root", input: "sqrt(16)", expected: 4},
		{name: "Base 10 log", input: "log10(1000)", expected: 3},
		{name: "Natural log", input: "ln(1)", expected: 0},
		{name: "Sine", input: "sin(0)", expected: 0},
		{name: "Cosine", input: "cos(0)", expected: 1},
		{name: "Tangent", input: "tan(0)", expected: 0},
		{name: "Abs", input: "abs(-3)", expected: 3},
		{name: "Round half to even", input: "round(2.5)", expected: 2},
		{name: "Round with digits", input: "round(3.14159, 2)", expected: 3.14},
		{name: "Squared suffix", input: "3^2", expected: 9},
		{name: "Constant literal", input: "2(3.141592653589793)", expected: 2 * math.Pi},
		{name: "Exponent literal", input: "1.5e-05 x 2", expected: 3e-05},
		{name: "Leading decimal point", input: ".5 + 5.", expected: 5.5},
		{name: "Group of constant", input: "(0)", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Evaluate(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, result, 1e-12)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cause error
	}{
		{name: "Division by zero", input: "5 / 0", cause: ErrDivisionByZero},
		{name: "Division by zero expression", input: "1 / (2 - 2)", cause: ErrDivisionByZero},
		{name: "Zero to negative power", input: "0^-1", cause: ErrDivisionByZero},
		{name: "Unknown function", input: "foo(2)", cause: ErrUnknownIdentifier},
		{name: "Unknown name", input: "import", cause: ErrUnknownIdentifier},
		{name: "Bare e is not a constant", input: "2e", cause: ErrUnknownIdentifier},
		{name: "Function without call", input: "sin", cause: ErrType},
		{name: "Wrong arity", input: "sqrt(1, 2)", cause: ErrType},
		{name: "No arguments", input: "abs()", cause: ErrType},
		{name: "Unbalanced group", input: "(2 + 3", cause: ErrSyntax},
		{name: "Stray closing", input: "2)", cause: ErrSyntax},
		{name: "Empty group", input: "()", cause: ErrSyntax},
		{name: "Doubled operator", input: "2 + x 3", cause: ErrSyntax},
		{name: "Unsupported character", input: "5 % 2", cause: ErrSyntax},
		{name: "Attribute access", input: "math.pi", cause: ErrSyntax},
		{name: "Lone decimal point", input: ".", cause: ErrSyntax},
		{name: "Empty", input: "", cause: ErrSyntax},
		{name: "Only operators", input: " - ", cause: ErrSyntax},
		{name: "Domain error", input: "sqrt(-1)", cause: ErrOutOfRange},
		{name: "Log of zero", input: "ln(0)", cause: ErrOutOfRange},
		{name: "Overflow", input: "10^400", cause: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.cause)

			var evalErr *Error
			require.True(t, errors.As(err, &evalErr), "error should be *Error, got %T", err)
			assert.NotEmpty(t, evalErr.Error())
		})
	}
}

func TestEvaluateMatchesGovaluate(t *testing.T) {
	inputs := []string{
		"1 + 2 * 3",
		"(1 + 2) * 3",
		"10 / 4",
		"100 - 7 * 3 / 2",
		"((2 + 3) * (7 - 4)) / 5",
		"0.1 + 0.2",
		"12.5 * 8 - 3 / 7",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			oracle, err := govaluate.NewEvaluableExpression(input)
			require.NoError(t, err)
			want, err := oracle.Evaluate(nil)
			require.NoError(t, err)

			got, err := Evaluate(strings.ReplaceAll(input, "*", "x"))
			require.NoError(t, err)
			assert.InDelta(t, want.(float64), got, 1e-12)
		})
	}
}

func TestEvaluateRoundTripsLiveFormat(t *testing.T) {
	values := []float64{
		0, 1, -1, 10, math.Pi, -math.E, 0.000015, -0.00012345678,
		1234567.891, 123456789, -987654321.5, 1.0 / 3.0, 42.42,
	}

	for _, v := range values {
		text := format.Format(v, format.Live)
		got, err := Evaluate(text)
		require.NoError(t, err, "evaluate %q", text)
		if v == 0 {
			assert.Zero(t, got)
			continue
		}
		assert.InEpsilon(t, v, got, 1e-7, "value %v formatted as %q", v, text)
	}
}

func TestStripTrailing(t *testing.T) {
	assert.Equal(t, "5", StripTrailing("5 + "))
	assert.Equal(t, "5 x (2)", StripTrailing("5 x (2) / -"))
	assert.Equal(t, "", StripTrailing(" - "))
}

func TestFunctions(t *testing.T) {
	for _, name := range []string{"sin", "cos", "tan", "sqrt", "log10", "ln", "abs", "round"} {
		assert.True(t, Functions(name), name)
	}
	for _, name := range []string{"pow", "exec", "e", "pi", "log"} {
		assert.False(t, Functions(name), name)
	}
}

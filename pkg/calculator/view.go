package calculator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/turbekoff/calcpad/pkg/format"
)

var numberPattern = regexp.MustCompile(`(?:\d+\.?\d*|\.\d+)(?:e[+-]?\d+)?`)

// Raw returns the unformatted expression under construction.
func (c *Calculator) Raw() string {
	return c.raw
}

// Expression renders the expression with every number in live format. Right
// after a calculation it shows the expression that was evaluated.
func (c *Calculator) Expression() string {
	if c.justCalculated {
		return project(c.shown)
	}
	return project(c.raw)
}

// Display is the expression line followed, after a calculation, by the
// result line.
func (c *Calculator) Display() string {
	line := c.Expression()
	if line == "" {
		line = "0"
	}
	if c.justCalculated && len(c.history) > 0 {
		line += "\n" + c.history[len(c.history)-1]
	}
	return line
}

func (c *Calculator) Status() string {
	if !c.hasResult {
		return "ANS: "
	}
	return "ANS: " + format.Format(c.lastResult, format.Final)
}

// History returns the result log, oldest first.
func (c *Calculator) History() []string {
	return append([]string(nil), c.history...)
}

func (c *Calculator) LastResult() (float64, bool) {
	return c.lastResult, c.hasResult
}

func (c *Calculator) Count() int {
	return c.count
}

func (c *Calculator) JustCalculated() bool {
	return c.justCalculated
}

// Err returns the cause of the last failed calculation, if the session is
// still showing it.
func (c *Calculator) Err() error {
	return c.err
}

// RuntimeStatus renders the status line shown by long-running front ends.
func RuntimeStatus(elapsed time.Duration, count int) string {
	return fmt.Sprintf("Runtime: %ds | Calculations: %d", int(elapsed.Seconds()), count)
}

func project(s string) string {
	return numberPattern.ReplaceAllStringFunc(s, func(n string) string {
		if typing(n) {
			return n
		}
		return format.Format(n, format.Live)
	})
}

// typing reports whether n is a number still being entered, whose trailing
// point or zeros must survive the redraw.
func typing(n string) bool {
	if strings.HasSuffix(n, ".") {
		return true
	}
	return strings.Contains(n, ".") && !strings.Contains(n, "e") && strings.HasSuffix(n, "0")
}

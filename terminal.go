package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/turbekoff/calcpad/pkg/calculator"
)

const (
	defaultWidth   = 48
	historyRows    = 5
	terminalHelp   = "q quit  c clear  n ±  a ANS  () group  s/o/t trig  r √  l log  g ln  w x²  p π  e e"
	clearScreenSeq = "\x1b[H\x1b[2J"
)

var keyBindings = map[byte]string{
	'+':  "+",
	'-':  "-",
	'*':  "x",
	'x':  "x",
	'/':  "/",
	'^':  "^",
	'(':  calculator.KeyParen,
	')':  calculator.KeyParen,
	'=':  calculator.KeyEquals,
	'\r': calculator.KeyEquals,
	'\n': calculator.KeyEquals,
	127:  calculator.KeyBackspace,
	8:    calculator.KeyBackspace,
	27:   calculator.KeyClear,
	'c':  calculator.KeyClear,
	'n':  calculator.KeySign,
	'a':  calculator.KeyAns,
	's':  "sin",
	'o':  "cos",
	't':  "tan",
	'r':  "sqrt",
	'l':  "log",
	'g':  "ln",
	'w':  "sq",
	'p':  "pi",
	'e':  "e",
}

// translateKey maps one input byte to a calculator key. quit is set for the
// bytes that end the session.
func translateKey(b byte) (key string, quit bool) {
	switch {
	case b == 'q' || b == 3 || b == 4:
		return "", true
	case '0' <= b && b <= '9' || b == '.':
		return string(b), false
	default:
		return keyBindings[b], false
	}
}

// Terminal is a keypad on a character terminal. One goroutine owns the
// calculator; key presses and the status ticker are multiplexed onto it.
type Terminal struct {
	in       io.Reader
	out      io.Writer
	calc     *calculator.Calculator
	interval time.Duration
	start    time.Time
	width    int
	logger   *log.Logger
}

func NewTerminal(in io.Reader, out io.Writer, config *TerminalConfig, logger *log.Logger) *Terminal {
	return &Terminal{
		in:       in,
		out:      out,
		calc:     calculator.New(),
		interval: config.StatusInterval,
		width:    defaultWidth,
		logger:   logger,
	}
}

func (t *Terminal) Run(ctx context.Context) error {
	if f, ok := t.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		defer term.Restore(int(f.Fd()), state)
	}
	if f, ok := t.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			t.width = w
		}
	}

	if t.interval <= 0 {
		t.interval = time.Second
	}

	t.start = time.Now()
	keys := make(chan byte)
	go t.read(ctx, keys)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	if err := t.draw(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case b, ok := <-keys:
			if !ok {
				return nil
			}

			key, quit := translateKey(b)
			if quit {
				return nil
			}
			if key == "" {
				continue
			}

			if err := t.calc.Press(key); err != nil {
				t.logger.Printf("failed to press key %q, error: %v", key, err)
			}
			if err := t.calc.Err(); err != nil && t.calc.JustCalculated() && key == calculator.KeyEquals {
				t.logger.Printf("calculation failed, error: %v", err)
			}
		}

		if err := t.draw(); err != nil {
			return err
		}
	}
}

func (t *Terminal) read(ctx context.Context, keys chan<- byte) {
	defer close(keys)

	buf := make([]byte, 64)
	for {
		n, err := t.in.Read(buf)
		for _, b := range buf[:n] {
			select {
			case keys <- b:
			case <-ctx.Done():
				return
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.logger.Printf("failed to read input, error: %v", err)
			}
			return
		}
	}
}

func (t *Terminal) draw() error {
	lines := []string{terminalHelp, strings.Repeat("─", t.width)}

	history := t.calc.History()
	if t.calc.JustCalculated() && len(history) > 0 {
		history = history[:len(history)-1]
	}
	if n := len(history); n > historyRows {
		history = history[n-historyRows:]
	}
	for _, row := range history {
		lines = append(lines, t.right(row))
	}

	for _, row := range strings.Split(t.calc.Display(), "\n") {
		lines = append(lines, t.right(row))
	}

	lines = append(lines,
		strings.Repeat("─", t.width),
		t.calc.Status(),
		calculator.RuntimeStatus(time.Since(t.start), t.calc.Count()),
	)

	_, err := io.WriteString(t.out, clearScreenSeq+strings.Join(lines, "\r\n")+"\r\n")
	return err
}

func (t *Terminal) right(s string) string {
	if pad := t.width - len([]rune(s)); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}

package expr

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax            = errors.New("malformed expression")
	ErrDivisionByZero    = errors.New("unsupported divide by zero")
	ErrUnknownIdentifier = errors.New("unknown identifier")
	ErrType              = errors.New("type mismatch")
	ErrOutOfRange        = errors.New("result out of range")
)

// Error is the single failure kind returned by Evaluate.
type Error struct {
	Expr  string
	Pos   int
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("evaluate %q at %d: %v", e.Expr, e.Pos, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

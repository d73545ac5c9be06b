package asm

import (
	"errors"
	"fmt"
)

// The following sentinel errors classify assembly failures, so callers
// can match a specific failure with errors.Is rather than parsing an
// error string.
var (
	// ErrDuplicateSymbol is raised when a label is defined more than once.
	ErrDuplicateSymbol = errors.New("asm: duplicate symbol")

	// ErrExpectedInstructionName is raised when a line's first token
	// cannot be parsed as a label, pseudo-op, or mnemonic.
	ErrExpectedInstructionName = errors.New("asm: expected instruction name")

	// ErrNotEnoughParameters is raised when a mnemonic's declared operand
	// count is not satisfied by the line.
	ErrNotEnoughParameters = errors.New("asm: not enough parameters")

	// ErrUnexpectedOperand is raised when an operand's kind does not
	// match the instruction's declared slot (Register vs Immediate).
	ErrUnexpectedOperand = errors.New("asm: unexpected operand")

	// ErrInvalidIntegerLiteral is raised when a numeric literal is
	// malformed or does not fit in 8 bits.
	ErrInvalidIntegerLiteral = errors.New("asm: invalid integer literal")

	// ErrSymbolNotFound is raised during the fixup pass when a symbol
	// reference never resolved to a label.
	ErrSymbolNotFound = errors.New("asm: symbol not found")
)

// Diagnostic is one assembly error, with a line number where known (0
// means unknown).
type Diagnostic struct {
	Line int
	Err  error
}

func (d Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s", d.Line, d.Err)
	}
	return d.Err.Error()
}

func (d Diagnostic) Unwrap() error { return d.Err }

// Error aggregates every Diagnostic raised by a single translate call.
// translate fails if and only if this slice is non-empty.
type Error struct {
	Diagnostics []Diagnostic
}

func (e *Error) Error() string {
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].Error()
	}
	return fmt.Sprintf("%d assembly errors, first: %s", len(e.Diagnostics), e.Diagnostics[0])
}

// Unwrap exposes every diagnostic, so errors.Is and errors.As match any
// of the sentinel errors above that was raised during the call.
func (e *Error) Unwrap() []error {
	errs := make([]error, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		errs[i] = d
	}
	return errs
}

func (e *Error) add(line int, err error) {
	e.Diagnostics = append(e.Diagnostics, Diagnostic{Line: line, Err: err})
}

func (e *Error) failed() bool { return len(e.Diagnostics) > 0 }

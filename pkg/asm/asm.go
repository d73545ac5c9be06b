// Package asm implements the LS-8 two-pass assembler: Translate turns LS-8
// assembly source text into the byte vector the cpu package loads at
// memory address 0.
//
// See pkg/cpu for the authoritative opcode table this package encodes
// against — operand counts and operand kinds are never duplicated here,
// they are looked up from cpu.LookupMnemonic/OperandCount/OperandKinds so
// the two packages can never drift apart.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ls8/ls8/pkg/cpu"
)

// fixup records a deferred write of a symbol's resolved address into a
// code byte whose position was recorded during pass one.
type fixup struct {
	symbol string
	addr   int
	line   int
}

// translator holds the transient state of a single Translate call.
type translator struct {
	code    []byte
	symbols map[string]int
	fixups  []fixup
	errs    Error
}

// Translate runs the two-pass assembler over text and returns the
// assembled bytes, or an error aggregating every diagnostic raised. Pass
// one streams parsed lines, emitting code and recording label
// definitions and forward/backward symbol references as fixups. Pass two
// walks the fixups and patches the resolved addresses into the code.
func Translate(text string) ([]byte, error) {
	t := &translator{symbols: make(map[string]int)}

	for pl := range StartParsing(StartLexing(text)) {
		t.assembleLine(pl)
	}
	t.applyFixups()

	if t.errs.failed() {
		return nil, &t.errs
	}
	return t.code, nil
}

func (t *translator) assembleLine(pl parsedLine) {
	if pl.Err != nil {
		t.errs.add(pl.Number, pl.Err)
		return
	}

	if pl.Label != nil {
		if _, exists := t.symbols[*pl.Label]; exists {
			t.errs.add(pl.Number, ErrDuplicateSymbol)
		} else {
			t.symbols[*pl.Label] = len(t.code)
		}
	}

	switch pl.Kind {
	case kindLabelOnly:
		// nothing more to emit
	case kindData:
		t.assembleData(pl)
	case kindString:
		t.code = append(t.code, []byte(pl.DataString)...)
	case kindInstruction:
		t.assembleInstruction(pl)
	}
}

func (t *translator) assembleData(pl parsedLine) {
	v, err := parseInteger(pl.DataByte)
	if err != nil {
		t.errs.add(pl.Number, err)
		t.code = append(t.code, 0)
		return
	}
	t.code = append(t.code, v)
}

func (t *translator) assembleInstruction(pl parsedLine) {
	op, ok := cpu.LookupMnemonic(pl.Mnemonic)
	if !ok {
		t.errs.add(pl.Number, ErrExpectedInstructionName)
		return
	}

	count := cpu.OperandCount(op)
	kindA, kindB := cpu.OperandKinds(op)
	kinds := [2]cpu.OperandKind{kindA, kindB}

	t.code = append(t.code, byte(op))

	if len(pl.Operands) != count {
		t.errs.add(pl.Number, ErrNotEnoughParameters)
		for i := 0; i < count; i++ {
			t.code = append(t.code, 0)
		}
		return
	}

	for i := 0; i < count; i++ {
		t.assembleOperand(pl.Number, pl.Operands[i], kinds[i])
	}
}

func (t *translator) assembleOperand(lineno int, tok string, kind cpu.OperandKind) {
	if reg, ok := parseRegister(tok); ok {
		if kind != cpu.KindRegister {
			t.errs.add(lineno, ErrUnexpectedOperand)
		}
		t.code = append(t.code, reg)
		return
	}

	if kind == cpu.KindRegister {
		t.errs.add(lineno, ErrUnexpectedOperand)
		t.code = append(t.code, 0)
		return
	}

	v, err := parseInteger(tok)
	if err == nil {
		t.code = append(t.code, v)
		return
	}
	if tok[0] == '-' || (tok[0] >= '0' && tok[0] <= '9') {
		// Numeric-looking but malformed or out of range: a literal error,
		// not a label reference.
		t.errs.add(lineno, err)
		t.code = append(t.code, 0)
		return
	}

	// Not a register, not a numeric literal: treat it as a forward or
	// backward label reference and defer resolution to pass two. The
	// placeholder byte is emitted first so the fixup's recorded address
	// always indexes an already-existing code byte.
	t.code = append(t.code, 0)
	t.fixups = append(t.fixups, fixup{symbol: tok, addr: len(t.code) - 1, line: lineno})
}

func (t *translator) applyFixups() {
	for _, fx := range t.fixups {
		addr, ok := t.symbols[fx.symbol]
		if !ok {
			t.errs.add(fx.line, fmt.Errorf("%w: %q", ErrSymbolNotFound, fx.symbol))
			continue
		}
		t.code[fx.addr] = byte(addr)
	}
}

// parseRegister recognizes the two-character register tokens R0..R7,
// case-insensitively.
func parseRegister(tok string) (byte, bool) {
	if len(tok) != 2 {
		return 0, false
	}
	if tok[0] != 'R' && tok[0] != 'r' {
		return 0, false
	}
	if tok[1] < '0' || tok[1] > '7' {
		return 0, false
	}
	return tok[1] - '0', true
}

// parseInteger recognizes 0x (hex), 0b (binary), and decimal literals
// that fit in 8 bits, in either the 0..255 unsigned or -128..127 signed
// two's-complement range. The base is picked explicitly from the token's
// prefix rather than handed to strconv's base-0 auto-detection, which
// would read a leading-zero token like "010" as octal 8 instead of
// decimal 10; there is no octal literal form here.
func parseInteger(tok string) (byte, error) {
	s := tok
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	base := 10
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		base = 16
		s = s[2:]
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		base = 2
		s = s[2:]
	}

	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIntegerLiteral, tok)
	}
	if neg {
		v = -v
	}
	if v < -128 || v > 255 {
		return 0, fmt.Errorf("%w: %q out of 8-bit range", ErrInvalidIntegerLiteral, tok)
	}
	return byte(v), nil
}

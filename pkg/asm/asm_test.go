package asm_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ls8/ls8/pkg/asm"
	"github.com/ls8/ls8/pkg/cpu"
)

func TestAssemblesPrintEight(t *testing.T) {
	code, err := asm.Translate("LDI R0, 8\nPRN R0\nHLT\n")
	require.NoError(t, err)
	assert.Equal(t, []byte{
		byte(cpu.LDI), 0, 8,
		byte(cpu.PRN), 0,
		byte(cpu.HLT),
	}, code)
}

func TestResolvesForwardLabel(t *testing.T) {
	src := `
LDI R0, 1
LDI R1, END
JMP R1
LDI R0, 2
END: PRN R0
HLT
`
	code, err := asm.Translate(src)
	require.NoError(t, err)

	expected := []byte{
		byte(cpu.LDI), 0, 1, // 0,1,2
		byte(cpu.LDI), 1, 0, // 3,4,5 (5 is the END address, patched below)
		byte(cpu.JMP), 1, // 6,7
		byte(cpu.LDI), 0, 2, // 8,9,10
		byte(cpu.PRN), 0, // 11,12 <- END
		byte(cpu.HLT), // 13
	}
	expected[5] = 11 // END's resolved address
	assert.Equal(t, expected, code)
}

func TestResolvesBackwardLabel(t *testing.T) {
	src := `
NOP
LOOP: INC R0
LDI R1, LOOP
JMP R1
`
	code, err := asm.Translate(src)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		byte(cpu.NOP),    // 0
		byte(cpu.INC), 0, // 1,2 <- LOOP
		byte(cpu.LDI), 1, 1, // 3,4,5: R1 = LOOP
		byte(cpu.JMP), 1, // 6,7
	}, code)
}

func TestRejectsDuplicateLabel(t *testing.T) {
	_, err := asm.Translate("FOO: NOP\nFOO: NOP\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, asm.ErrDuplicateSymbol)
}

func TestRejectsUnknownMnemonic(t *testing.T) {
	_, err := asm.Translate("FROB R0\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, asm.ErrExpectedInstructionName)
}

func TestRejectsOperandCountMismatch(t *testing.T) {
	_, err := asm.Translate("ADD R0\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, asm.ErrNotEnoughParameters)
}

func TestRejectsOperandKindMismatch(t *testing.T) {
	_, err := asm.Translate("LDI R0, R1\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, asm.ErrUnexpectedOperand)
}

func TestRejectsIntegerLiteralOutOfRange(t *testing.T) {
	_, err := asm.Translate("LDI R0, 999\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, asm.ErrInvalidIntegerLiteral)
}

func TestRejectsUnresolvedSymbol(t *testing.T) {
	_, err := asm.Translate("LDI R0, NOWHERE\nHLT\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, asm.ErrSymbolNotFound)
}

func TestCollectsMultipleErrors(t *testing.T) {
	src := "FROB R0\nADD R0\n"
	_, err := asm.Translate(src)
	require.Error(t, err)

	var aggregate *asm.Error
	require.True(t, errors.As(err, &aggregate))
	require.Len(t, aggregate.Diagnostics, 2)
	assert.ErrorIs(t, aggregate.Diagnostics[0].Err, asm.ErrExpectedInstructionName)
	assert.ErrorIs(t, aggregate.Diagnostics[1].Err, asm.ErrNotEnoughParameters)
}

func TestAssemblesDataByte(t *testing.T) {
	code, err := asm.Translate("db 0x41\n")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x41}, code)
}

func TestLeadingZeroLiteralIsDecimalNotOctal(t *testing.T) {
	code, err := asm.Translate("db 010\n")
	require.NoError(t, err)
	assert.Equal(t, []byte{10}, code)
}

func TestAssemblesDataString(t *testing.T) {
	code, err := asm.Translate("ds hello\n")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), code)
}

func TestAssemblyIsDeterministic(t *testing.T) {
	src := "LDI R0, 8\nPRN R0\nHLT\n"
	a, err := asm.Translate(src)
	require.NoError(t, err)
	b, err := asm.Translate(src)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIgnoresCommentsAndSeparators(t *testing.T) {
	code, err := asm.Translate("LDI R0,8 ; load eight\nPRN R0 # print it\nHLT\n")
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(cpu.LDI), 0, 8, byte(cpu.PRN), 0, byte(cpu.HLT)}, code)
}

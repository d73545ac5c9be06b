package cpu

import "fmt"

// Disassemble renders the instruction at memory[addr] (and its operand
// bytes, if any) as LS-8 assembly text.
func (c *CPU) Disassemble(addr byte) string {
	op := Opcode(c.memory[addr])
	mnemonic := Mnemonic(op)
	if mnemonic == "" {
		return fmt.Sprintf("<unknown instruction: 0x%02x>", byte(op))
	}

	a, b := OperandKinds(op)
	opA := c.memory[byte(addr+1)]
	opB := c.memory[byte(addr+2)]

	switch OperandCount(op) {
	case 0:
		return mnemonic
	case 1:
		return fmt.Sprintf("%s %s", mnemonic, formatOperand(a, opA))
	default:
		return fmt.Sprintf("%s %s,%s", mnemonic, formatOperand(a, opA), formatOperand(b, opB))
	}
}

func formatOperand(kind OperandKind, v byte) string {
	switch kind {
	case KindRegister:
		return fmt.Sprintf("R%d", v&0b111)
	case KindImmediate:
		return fmt.Sprintf("0x%02x", v)
	default:
		return fmt.Sprintf("0x%02x", v)
	}
}

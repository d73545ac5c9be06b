package cpu

import (
	"errors"
	"fmt"

	"github.com/ls8/ls8/pkg/ioport"
)

const (
	memorySize = 256

	// Fixed memory addresses, per the LS-8 layout.
	addrProgramBase    = 0x00
	addrStackInit      = 0xF3
	addrKeyboardBuffer = 0xF4
	addrInterruptBase  = 0xF8 // handler for interrupt n lives at addrInterruptBase+n

	// Reserved registers.
	regInterruptMask   = 5
	regInterruptStatus = 6
	regStackPointer    = 7

	numRegisters   = 8
	numInterrupts  = 8
	timerFrequency = 10000 // cycles between timer ticks, host-tunable via SetTimerFrequency
)

// The following errors terminate the current Step call.
var (
	// ErrInvalidInstruction is returned when the fetched byte matches no
	// known opcode.
	ErrInvalidInstruction = errors.New("cpu: invalid instruction")

	// ErrInterruptReturnOutsideInterrupt is returned by IRET when
	// interrupts are already enabled (i.e. we are not handling one).
	ErrInterruptReturnOutsideInterrupt = errors.New("cpu: iret outside of interrupt")

	// ErrInterruptReturnInvalidFlagsValue is returned by IRET when the
	// popped flags byte has any of bits 3..7 set.
	ErrInterruptReturnInvalidFlagsValue = errors.New("cpu: iret invalid flags value")

	// ErrDivideByZero is returned by DIV/MOD when the divisor is zero.
	ErrDivideByZero = errors.New("cpu: divide by zero")

	// ErrProgramTooLarge is returned by Load when the image does not fit
	// in the 256-byte address space.
	ErrProgramTooLarge = errors.New("cpu: program too large")
)

// Flags is the LS-8's 3-bit comparison word.
type Flags struct {
	Less    bool
	Greater bool
	Equal   bool
}

// byte packs the flags into the zero-extended representation pushed to
// the stack during an interrupt.
func (f Flags) byte() byte {
	var b byte
	if f.Less {
		b |= 1 << 0
	}
	if f.Greater {
		b |= 1 << 1
	}
	if f.Equal {
		b |= 1 << 2
	}
	return b
}

func flagsFromByte(b byte) (Flags, error) {
	if b&^0b111 != 0 {
		return Flags{}, ErrInterruptReturnInvalidFlagsValue
	}
	return Flags{
		Less:    b&(1<<0) != 0,
		Greater: b&(1<<1) != 0,
		Equal:   b&(1<<2) != 0,
	}, nil
}

// CPU is one LS-8 processor instance. It is not goroutine-safe: a single
// goroutine should drive Step.
type CPU struct {
	memory    [memorySize]byte
	registers [numRegisters]byte

	programCounter byte

	// Bookkeeping registers, present for fidelity with the reference
	// model. Neither has any externally observable effect beyond what
	// Step already produces.
	instructionRegister   byte
	memoryAddressRegister byte
	memoryDataRegister    byte

	flags              Flags
	interruptsEnabled  bool
	halted             bool

	cycles              uint64
	lastTimerInterrupt  uint64
	timerFrequencyCycle uint64

	reader ioport.Reader
	writer ioport.Writer
}

// New constructs a CPU parameterised over the host's reader and writer,
// and resets it to its power-on state.
func New(reader ioport.Reader, writer ioport.Writer) *CPU {
	c := &CPU{reader: reader, writer: writer, timerFrequencyCycle: timerFrequency}
	c.Reset()
	return c
}

// SetTimerFrequency overrides the cycle interval between timer
// interrupts; tests use this to make the timer fire every cycle.
func (c *CPU) SetTimerFrequency(cycles uint64) {
	c.timerFrequencyCycle = cycles
}

// Reset re-initialises all state to power-on values: memory and
// registers zeroed, R7 set to the initial stack pointer, flags cleared,
// interrupts enabled, cycle counters zeroed, halted cleared.
func (c *CPU) Reset() {
	c.memory = [memorySize]byte{}
	c.registers = [numRegisters]byte{}
	c.registers[regStackPointer] = addrStackInit
	c.programCounter = 0
	c.instructionRegister = 0
	c.memoryAddressRegister = 0
	c.memoryDataRegister = 0
	c.flags = Flags{}
	c.interruptsEnabled = true
	c.halted = false
	c.cycles = 0
	c.lastTimerInterrupt = 0
}

// Load copies program into memory starting at address 0. Programs larger
// than the 256-byte address space are refused rather than truncated.
func (c *CPU) Load(program []byte) error {
	if len(program) > memorySize {
		return fmt.Errorf("%w: %d bytes exceeds %d-byte memory", ErrProgramTooLarge, len(program), memorySize)
	}
	copy(c.memory[addrProgramBase:], program)
	return nil
}

// Halted reports whether the CPU has executed HLT.
func (c *CPU) Halted() bool { return c.halted }

// ProgramCounter returns the current program counter.
func (c *CPU) ProgramCounter() byte { return c.programCounter }

// Register returns the value of register r (0..7).
func (c *CPU) Register(r int) byte { return c.registers[r&0b111] }

// Memory returns the byte at addr.
func (c *CPU) Memory(addr byte) byte { return c.memory[addr] }

// Cycles returns the number of Step calls executed since Reset.
func (c *CPU) Cycles() uint64 { return c.cycles }

// Snapshot is a read-only copy of CPU state for debuggers and tests. It is
// never retained by the CPU itself.
type Snapshot struct {
	Registers         [numRegisters]byte
	ProgramCounter    byte
	Flags             Flags
	InterruptsEnabled bool
	Halted            bool
	Cycles            uint64
	CurrentOpcode     byte
	Memory            [memorySize]byte
}

// Snapshot captures the CPU's current state.
func (c *CPU) Snapshot() Snapshot {
	return Snapshot{
		Registers:         c.registers,
		ProgramCounter:    c.programCounter,
		Flags:             c.flags,
		InterruptsEnabled: c.interruptsEnabled,
		Halted:            c.halted,
		Cycles:            c.cycles,
		CurrentOpcode:     c.memory[c.programCounter],
		Memory:            c.memory,
	}
}

// Step executes exactly one instruction and advances the cycle counter by
// one. It returns an error on an invalid opcode or a malformed IRET; the
// host decides whether such an error should halt the machine.
func (c *CPU) Step() error {
	if c.interruptsEnabled {
		if err := c.pollInterrupts(); err != nil {
			return err
		}
	}

	op := Opcode(c.memory[c.programCounter])
	c.instructionRegister = byte(op)

	if _, ok := instructionTable[op]; !ok {
		return fmt.Errorf("%w: 0x%02x at pc=0x%02x", ErrInvalidInstruction, byte(op), c.programCounter)
	}

	opA := c.memory[byte(c.programCounter+1)]
	opB := c.memory[byte(c.programCounter+2)]

	tookBranch, err := c.execute(op, opA, opB)
	if err != nil {
		return err
	}

	c.cycles++

	if c.halted {
		return nil
	}

	if !SetsPC(op) || !tookBranch {
		c.programCounter = byte(int(c.programCounter) + OperandCount(op) + 1)
	}
	return nil
}

// pollInterrupts implements the per-step interrupt poll: a cycle-counted
// timer tick followed by a non-blocking read of the host keyboard.
func (c *CPU) pollInterrupts() error {
	if c.cycles-c.lastTimerInterrupt >= c.timerFrequencyCycle {
		c.lastTimerInterrupt = c.cycles
		c.raiseInterrupt(0)
	}

	// An interrupt just taken disables further interrupts until the
	// handler IRETs; don't also raise the keyboard interrupt this step.
	if !c.interruptsEnabled {
		return nil
	}

	b, status, err := c.reader.ReadByte()
	switch status {
	case ioport.Ready:
		c.memory[addrKeyboardBuffer] = b
		c.raiseInterrupt(1)
	case ioport.WouldBlock, ioport.EndOfStream:
		// nothing to do
	default:
		if err == nil {
			err = ioport.ErrIO
		}
		return fmt.Errorf("%w", err)
	}
	return nil
}

// raiseInterrupt implements the save/restore discipline: ignored unless
// the matching IM bit is set, otherwise the CPU disables further
// interrupts, records the cause in IS, pushes PC, flags, and R0..R6 (R7
// is deliberately not pushed), and jumps to the handler.
func (c *CPU) raiseInterrupt(n int) (taken bool) {
	if c.registers[regInterruptMask]&(1<<uint(n)) == 0 {
		return false
	}
	c.interruptsEnabled = false
	c.registers[regInterruptStatus] = 1 << uint(n)

	c.push(c.programCounter)
	c.push(c.flags.byte())
	for r := 0; r <= 6; r++ {
		c.push(c.registers[r])
	}
	c.programCounter = c.memory[addrInterruptBase+n]
	return true
}

func (c *CPU) push(v byte) {
	c.registers[regStackPointer]--
	c.memory[c.registers[regStackPointer]] = v
}

func (c *CPU) pop() byte {
	v := c.memory[c.registers[regStackPointer]]
	c.registers[regStackPointer]++
	return v
}

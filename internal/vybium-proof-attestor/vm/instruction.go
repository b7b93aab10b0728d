// Package vm provides the chunked guest execution engine: a stack-machine
// ISA, the loaded program representation, and a resumable emulator that
// yields bounded execution chunks with chained public values.
package vm

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Instruction is a guest ISA opcode.
type Instruction uint32

// Guest instruction set. The attestation guest only needs a small machine:
// stack manipulation, a branch, call/return, field arithmetic, public I/O,
// and the two host-assisted instructions (hint_read, verify_openings).
const (
	// Halt terminates execution and clears the program counter
	Halt Instruction = 0

	// Push pushes its argument onto the stack
	Push Instruction = 1

	// Skiz pops the top and skips the next instruction if it was zero
	Skiz Instruction = 2

	// Pop removes the top element
	Pop Instruction = 3

	// Nop does nothing
	Nop Instruction = 4

	// Assert pops the top and faults unless it was 1
	Assert Instruction = 5

	// Add pops two elements and pushes their sum
	Add Instruction = 6

	// AddI adds its immediate argument to the top element
	AddI Instruction = 7

	// Mul pops two elements and pushes their product
	Mul Instruction = 8

	// Eq pops two elements and pushes 1 if equal, 0 otherwise
	Eq Instruction = 9

	// Dup copies stack[i] to the top
	Dup Instruction = 10

	// Swap exchanges the top with stack[i]
	Swap Instruction = 11

	// Call jumps to its argument address, recording the return address
	Call Instruction = 12

	// Return jumps back to the most recent call site
	Return Instruction = 13

	// Recurse jumps back to the entry of the current call
	Recurse Instruction = 14

	// ReadIo pushes the next element of the public input
	ReadIo Instruction = 15

	// WriteIo pops the top element onto the public output
	WriteIo Instruction = 16

	// HintRead pops a RAM address, consumes the next input-stream buffer
	// into RAM one byte per word, and pushes the byte count
	HintRead Instruction = 17

	// VerifyOpenings pops a RAM address and a byte count, hands the RAM
	// range to the opening-verifier coprocessor, and pushes 1 on success
	// or 0 on failure
	VerifyOpenings Instruction = 18
)

// InstructionInfo provides metadata about an instruction
type InstructionInfo struct {
	Opcode      Instruction
	Name        string
	Size        int  // Number of program words (1 or 2)
	Pops        int  // Elements consumed from the stack
	StackEffect int  // Net effect on stack depth
	HasArg      bool // Whether the instruction carries an argument word
}

// AllInstructions maps every opcode to its metadata.
var AllInstructions = map[Instruction]InstructionInfo{
	Halt:           {Halt, "halt", 1, 0, 0, false},
	Push:           {Push, "push", 2, 0, 1, true},
	Skiz:           {Skiz, "skiz", 1, 1, -1, false},
	Pop:            {Pop, "pop", 1, 1, -1, false},
	Nop:            {Nop, "nop", 1, 0, 0, false},
	Assert:         {Assert, "assert", 1, 1, -1, false},
	Add:            {Add, "add", 1, 2, -1, false},
	AddI:           {AddI, "addi", 2, 1, 0, true},
	Mul:            {Mul, "mul", 1, 2, -1, false},
	Eq:             {Eq, "eq", 1, 2, -1, false},
	Dup:            {Dup, "dup", 2, 0, 1, true},
	Swap:           {Swap, "swap", 2, 0, 0, true},
	Call:           {Call, "call", 2, 0, 0, true},
	Return:         {Return, "return", 1, 0, 0, false},
	Recurse:        {Recurse, "recurse", 1, 0, 0, false},
	ReadIo:         {ReadIo, "read_io", 1, 0, 1, false},
	WriteIo:        {WriteIo, "write_io", 1, 1, -1, false},
	HintRead:       {HintRead, "hint_read", 1, 1, 0, false},
	VerifyOpenings: {VerifyOpenings, "verify_openings", 1, 2, -1, false},
}

// instructionsByName supports the assembly source loader.
var instructionsByName = func() map[string]Instruction {
	m := make(map[string]Instruction, len(AllInstructions))
	for op, info := range AllInstructions {
		m[info.Name] = op
	}
	return m
}()

// Info returns the metadata for the instruction
func (i Instruction) Info() (InstructionInfo, error) {
	info, ok := AllInstructions[i]
	if !ok {
		return InstructionInfo{}, fmt.Errorf("unknown opcode: %d", uint32(i))
	}
	return info, nil
}

// String returns the name of the instruction
func (i Instruction) String() string {
	if info, ok := AllInstructions[i]; ok {
		return info.Name
	}
	return fmt.Sprintf("unknown(%d)", uint32(i))
}

// Size returns the number of program words the instruction occupies
func (i Instruction) Size() int {
	info, err := i.Info()
	if err != nil {
		return 1
	}
	return info.Size
}

// EncodedInstruction is an instruction with its decoded argument, if any.
type EncodedInstruction struct {
	Instruction Instruction
	Argument    *field.Element
}

// NewEncodedInstruction creates an encoded instruction, enforcing the
// argument arity of the opcode.
func NewEncodedInstruction(op Instruction, arg *field.Element) (*EncodedInstruction, error) {
	info, err := op.Info()
	if err != nil {
		return nil, err
	}
	if info.HasArg && arg == nil {
		return nil, fmt.Errorf("instruction %s requires an argument", op)
	}
	if !info.HasArg && arg != nil {
		return nil, fmt.Errorf("instruction %s takes no argument", op)
	}
	return &EncodedInstruction{Instruction: op, Argument: arg}, nil
}

// DecodeInstruction decodes one instruction from program words at offset.
func DecodeInstruction(words []field.Element, offset int) (*EncodedInstruction, error) {
	if offset < 0 || offset >= len(words) {
		return nil, fmt.Errorf("program offset %d out of bounds", offset)
	}

	op := Instruction(words[offset].Value())
	info, err := op.Info()
	if err != nil {
		return nil, err
	}

	var arg *field.Element
	if info.HasArg {
		if offset+1 >= len(words) {
			return nil, fmt.Errorf("instruction %s at offset %d is missing its argument word", op, offset)
		}
		a := words[offset+1]
		arg = &a
	}

	return &EncodedInstruction{Instruction: op, Argument: arg}, nil
}

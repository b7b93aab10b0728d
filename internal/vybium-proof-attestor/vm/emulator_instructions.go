package vm

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// execute dispatches one decoded instruction to its handler.
func (e *Emulator) execute(inst *EncodedInstruction) error {
	switch inst.Instruction {
	case Halt:
		return e.execHalt()
	case Push:
		return e.execPush(inst)
	case Skiz:
		return e.execSkiz()
	case Pop:
		return e.execPop()
	case Nop:
		return e.execNop()
	case Assert:
		return e.execAssert()
	case Add:
		return e.execAdd()
	case AddI:
		return e.execAddI(inst)
	case Mul:
		return e.execMul()
	case Eq:
		return e.execEq()
	case Dup:
		return e.execDup(inst)
	case Swap:
		return e.execSwap(inst)
	case Call:
		return e.execCall(inst)
	case Return:
		return e.execReturn()
	case Recurse:
		return e.execRecurse()
	case ReadIo:
		return e.execReadIo()
	case WriteIo:
		return e.execWriteIo()
	case HintRead:
		return e.execHintRead()
	case VerifyOpenings:
		return e.execVerifyOpenings()
	default:
		return e.fault(fmt.Sprintf("unimplemented opcode %d", uint32(inst.Instruction)), nil)
	}
}

func (e *Emulator) push(v field.Element) {
	e.stack = append(e.stack, v)
}

func (e *Emulator) pop() field.Element {
	v := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return v
}

func (e *Emulator) advance(op Instruction) {
	e.pc += uint32(op.Size())
}

func (e *Emulator) execHalt() error {
	e.halted = true
	e.pc = 0
	return nil
}

func (e *Emulator) execPush(inst *EncodedInstruction) error {
	e.push(*inst.Argument)
	e.advance(Push)
	return nil
}

// execSkiz pops the condition and, if it was zero, skips the instruction
// following skiz.
func (e *Emulator) execSkiz() error {
	v := e.pop()
	e.advance(Skiz)

	if v.IsZero() {
		next, err := e.currentInstruction()
		if err != nil {
			return e.fault("skiz target is undecodable", err)
		}
		e.advance(next.Instruction)
	}
	return nil
}

func (e *Emulator) execPop() error {
	e.pop()
	e.advance(Pop)
	return nil
}

func (e *Emulator) execNop() error {
	e.advance(Nop)
	return nil
}

func (e *Emulator) execAssert() error {
	v := e.pop()
	if !v.Equal(field.One) {
		return e.fault(fmt.Sprintf("assertion failed: top of stack is %d, want 1", v.Value()), nil)
	}
	e.advance(Assert)
	return nil
}

func (e *Emulator) execAdd() error {
	a := e.pop()
	b := e.pop()
	e.push(b.Add(a))
	e.advance(Add)
	return nil
}

func (e *Emulator) execAddI(inst *EncodedInstruction) error {
	v := e.pop()
	e.push(v.Add(*inst.Argument))
	e.advance(AddI)
	return nil
}

func (e *Emulator) execMul() error {
	a := e.pop()
	b := e.pop()
	e.push(b.Mul(a))
	e.advance(Mul)
	return nil
}

func (e *Emulator) execEq() error {
	a := e.pop()
	b := e.pop()
	if a.Equal(b) {
		e.push(field.One)
	} else {
		e.push(field.Zero)
	}
	e.advance(Eq)
	return nil
}

func (e *Emulator) execDup(inst *EncodedInstruction) error {
	i := int(inst.Argument.Value())
	if i >= len(e.stack) {
		return e.fault(fmt.Sprintf("dup %d exceeds stack depth %d", i, len(e.stack)), nil)
	}
	e.push(e.stack[len(e.stack)-1-i])
	e.advance(Dup)
	return nil
}

func (e *Emulator) execSwap(inst *EncodedInstruction) error {
	i := int(inst.Argument.Value())
	if i >= len(e.stack) {
		return e.fault(fmt.Sprintf("swap %d exceeds stack depth %d", i, len(e.stack)), nil)
	}
	top := len(e.stack) - 1
	e.stack[top], e.stack[top-i] = e.stack[top-i], e.stack[top]
	e.advance(Swap)
	return nil
}

func (e *Emulator) execCall(inst *EncodedInstruction) error {
	dest := uint32(inst.Argument.Value())
	e.jumpStack = append(e.jumpStack, jumpStackEntry{
		origin:      e.pc + uint32(Call.Size()),
		destination: dest,
	})
	e.pc = dest
	return nil
}

func (e *Emulator) execReturn() error {
	if len(e.jumpStack) == 0 {
		return e.fault("return with empty jump stack", nil)
	}
	top := e.jumpStack[len(e.jumpStack)-1]
	e.jumpStack = e.jumpStack[:len(e.jumpStack)-1]
	e.pc = top.origin
	return nil
}

func (e *Emulator) execRecurse() error {
	if len(e.jumpStack) == 0 {
		return e.fault("recurse with empty jump stack", nil)
	}
	e.pc = e.jumpStack[len(e.jumpStack)-1].destination
	return nil
}

func (e *Emulator) execReadIo() error {
	if e.inputPtr >= len(e.publicInput) {
		return e.fault("public input exhausted", nil)
	}
	e.push(e.publicInput[e.inputPtr])
	e.inputPtr++
	e.advance(ReadIo)
	return nil
}

func (e *Emulator) execWriteIo() error {
	e.publicOutput = append(e.publicOutput, e.pop())
	e.advance(WriteIo)
	return nil
}

// execHintRead consumes the next input-stream buffer into RAM, one byte per
// word starting at the popped address, and pushes the byte count.
func (e *Emulator) execHintRead() error {
	addr := e.pop().Value()

	if len(e.inputStream) == 0 {
		return e.fault("input stream exhausted", nil)
	}
	buf := e.inputStream[0]
	e.inputStream = e.inputStream[1:]

	for i, b := range buf {
		e.ram[addr+uint64(i)] = field.New(uint64(b))
	}
	e.push(field.New(uint64(len(buf))))
	e.advance(HintRead)
	return nil
}

// execVerifyOpenings hands the RAM range [addr, addr+len) to the opening
// verifier coprocessor and pushes the outcome flag.
func (e *Emulator) execVerifyOpenings() error {
	if e.verifier == nil {
		return e.fault("no opening verifier wired to the emulator", nil)
	}

	addr := e.pop().Value()
	length := e.pop().Value()
	if length > 1<<30 {
		return e.fault(fmt.Sprintf("verify_openings range of %d bytes exceeds limit", length), nil)
	}

	payload := make([]byte, length)
	for i := range payload {
		payload[i] = byte(e.ram[addr+uint64(i)].Value())
	}

	e.coprocessorCalls = append(e.coprocessorCalls, CoprocessorCall{Clock: e.clock, Kind: OpeningCoprocessor})

	if err := e.verifier.VerifyAll(payload); err != nil {
		e.push(field.Zero)
	} else {
		e.push(field.One)
	}
	e.advance(VerifyOpenings)
	return nil
}

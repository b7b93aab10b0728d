package vm

import "github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

// HintBufferAddr is the RAM address the attestation guest loads the payload
// at.
const HintBufferAddr = 0x1000

// spinOffset is the word offset of the guest's spin loop relative to the
// entry point. The main body below occupies exactly this many words.
const spinOffset = 16

// BuildAttestationGuest constructs the proof-of-proof guest program. It
// loads the guest input payload from the input stream, spins over it so the
// cycle count scales with the payload size, verifies every opening proof via
// the coprocessor, asserts the outcome, commits 1 to the public output, and
// halts.
func BuildAttestationGuest() *Program {
	p := NewProgram(DefaultEntryPC)

	arg := func(v uint64) *field.Element {
		e := field.New(v)
		return &e
	}
	negOne := field.Zero.Sub(field.One)

	add := func(op Instruction, a *field.Element) {
		inst, err := NewEncodedInstruction(op, a)
		if err != nil {
			panic(err) // static program, arity mismatches are build bugs
		}
		p.AddInstruction(inst)
	}

	// Main body, 16 words.
	add(Push, arg(HintBufferAddr)) // [addr]
	add(HintRead, nil)             // [len]
	add(Dup, arg(0))               // [len, len]
	add(Call, arg(uint64(DefaultEntryPC+spinOffset))) // [len, 0]
	add(Pop, nil)                  // [len]
	add(Push, arg(HintBufferAddr)) // [len, addr]
	add(VerifyOpenings, nil)       // [ok]
	add(Assert, nil)               // []
	add(Push, arg(1))              // [1]
	add(WriteIo, nil)              // commit true
	add(Halt, nil)

	// Spin loop: decrement the counter on top of the stack to zero, one
	// pass per payload byte.
	add(AddI, &negOne)
	add(Dup, arg(0))
	add(Skiz, nil)
	add(Recurse, nil)
	add(Return, nil)

	return p
}

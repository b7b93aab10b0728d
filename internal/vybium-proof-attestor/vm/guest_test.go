package vm

import "testing"

func TestAttestationGuestLayout(t *testing.T) {
	guest := BuildAttestationGuest()

	if guest.EntryPC != DefaultEntryPC {
		t.Errorf("entry pc = %#x, want %#x", guest.EntryPC, DefaultEntryPC)
	}

	words := guest.Words()
	if len(words) <= spinOffset {
		t.Fatalf("guest has %d words, spin loop expected at offset %d", len(words), spinOffset)
	}

	// The spin loop must start exactly where the main body's call lands.
	inst, err := DecodeInstruction(words, spinOffset)
	if err != nil {
		t.Fatalf("no instruction at spin offset: %v", err)
	}
	if inst.Instruction != AddI {
		t.Errorf("instruction at spin offset is %s, want %s", inst.Instruction, AddI)
	}

	var callTarget uint64
	for offset := 0; offset < spinOffset; {
		inst, err := DecodeInstruction(words, offset)
		if err != nil {
			t.Fatalf("undecodable main body at offset %d: %v", offset, err)
		}
		if inst.Instruction == Call {
			callTarget = inst.Argument.Value()
		}
		offset += inst.Instruction.Size()
	}
	if callTarget != uint64(DefaultEntryPC+spinOffset) {
		t.Errorf("call target = %#x, want %#x", callTarget, DefaultEntryPC+spinOffset)
	}
}

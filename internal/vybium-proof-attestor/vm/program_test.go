package vm

import (
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

func TestProgramBinaryRoundTrip(t *testing.T) {
	original := BuildAttestationGuest()

	image, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	loaded, err := LoadProgram(image, SourceBinary)
	if err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}

	if loaded.EntryPC != original.EntryPC {
		t.Errorf("entry pc = %#x, want %#x", loaded.EntryPC, original.EntryPC)
	}
	if loaded.Length() != original.Length() {
		t.Fatalf("length = %d words, want %d", loaded.Length(), original.Length())
	}

	origWords := original.Words()
	for i, w := range loaded.Words() {
		if !w.Equal(origWords[i]) {
			t.Errorf("word %d = %d, want %d", i, w.Value(), origWords[i].Value())
		}
	}
}

func TestLoadProgramBinaryErrors(t *testing.T) {
	valid, err := BuildAttestationGuest().MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"Truncated", valid[:8]},
		{"BadMagic", append([]byte{'x', 'x', 'x', 'x'}, valid[4:]...)},
		{"ShortBody", valid[:len(valid)-8]},
		{"UndecodableWord", func() []byte {
			b := append([]byte{}, valid...)
			b[16] = 0xee // first program word becomes an unknown opcode
			return b
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadProgram(tc.data, SourceBinary); err == nil {
				t.Error("expected load error")
			}
		})
	}
}

func TestLoadProgramAssembly(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		src := `
			; trivial guest
			push 1
			write_io
			halt
		`
		program, err := LoadProgram([]byte(src), SourceAssembly)
		if err != nil {
			t.Fatalf("LoadProgram failed: %v", err)
		}

		if len(program.Instructions) != 3 {
			t.Fatalf("got %d instructions, want 3", len(program.Instructions))
		}
		if program.Instructions[0].Instruction != Push || program.Instructions[0].Argument.Value() != 1 {
			t.Errorf("first instruction = %+v", program.Instructions[0])
		}
		if program.EntryPC != DefaultEntryPC {
			t.Errorf("entry pc = %#x, want %#x", program.EntryPC, DefaultEntryPC)
		}
	})

	t.Run("UnknownMnemonic", func(t *testing.T) {
		if _, err := LoadProgram([]byte("frobnicate"), SourceAssembly); err == nil {
			t.Error("expected error for unknown mnemonic")
		}
	})

	t.Run("MissingArg", func(t *testing.T) {
		if _, err := LoadProgram([]byte("push"), SourceAssembly); err == nil {
			t.Error("expected error for push without argument")
		}
	})

	t.Run("BadArg", func(t *testing.T) {
		if _, err := LoadProgram([]byte("push banana"), SourceAssembly); err == nil {
			t.Error("expected error for non-numeric argument")
		}
	})
}

func TestProgramDigest(t *testing.T) {
	a := BuildAttestationGuest()
	b := BuildAttestationGuest()

	if !a.Digest().Equal(b.Digest()) {
		t.Error("identical programs should share a digest")
	}

	arg := field.New(2)
	c := BuildAttestationGuest()
	inst, err := NewEncodedInstruction(Push, &arg)
	if err != nil {
		t.Fatalf("NewEncodedInstruction failed: %v", err)
	}
	c.AddInstruction(inst)

	if a.Digest().Equal(c.Digest()) {
		t.Error("different programs should not share a digest")
	}
}

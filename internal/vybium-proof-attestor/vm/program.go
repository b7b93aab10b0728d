package vm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// DefaultEntryPC is the program counter the guest starts at. Programs load
// at a nonzero base so that a zero program counter unambiguously means
// "halted" in the chunk public values.
const DefaultEntryPC uint32 = 0x100

// SourceKind selects the program loader input format.
type SourceKind int

const (
	// SourceBinary is the packed word encoding produced by MarshalBinary
	SourceBinary SourceKind = iota

	// SourceAssembly is a line-oriented text listing, one instruction per
	// line, with numeric arguments
	SourceAssembly
)

// programMagic identifies a packed program image.
var programMagic = []byte{'v', 'p', 'a', '1'}

// Program is an immutable loaded guest program: an instruction list and the
// entry program counter. It is never mutated during a run.
type Program struct {
	Instructions []*EncodedInstruction
	EntryPC      uint32
}

// NewProgram creates an empty program with the given entry point.
func NewProgram(entryPC uint32) *Program {
	return &Program{EntryPC: entryPC}
}

// AddInstruction appends an instruction to the program.
func (p *Program) AddInstruction(inst *EncodedInstruction) {
	p.Instructions = append(p.Instructions, inst)
}

// Words flattens the program to its word representation.
func (p *Program) Words() []field.Element {
	words := make([]field.Element, 0, len(p.Instructions)*2)
	for _, inst := range p.Instructions {
		words = append(words, field.New(uint64(inst.Instruction)))
		if inst.Argument != nil {
			words = append(words, *inst.Argument)
		}
	}
	return words
}

// Length returns the program size in words.
func (p *Program) Length() int {
	n := 0
	for _, inst := range p.Instructions {
		n += inst.Instruction.Size()
	}
	return n
}

// Digest hashes the program description so runs can be tied to the exact
// code that was executed.
func (p *Program) Digest() field.Element {
	elems := make([]field.Element, 0, len(p.Instructions)*2)
	for _, inst := range p.Instructions {
		elems = append(elems, field.New(uint64(inst.Instruction)))
		if inst.Argument != nil {
			elems = append(elems, *inst.Argument)
		} else {
			elems = append(elems, field.Zero)
		}
	}
	return hash.PoseidonHash(elems)
}

// MarshalBinary packs the program into the SourceBinary image format:
// magic, entry pc, word count, then one 64-bit little-endian value per word.
func (p *Program) MarshalBinary() ([]byte, error) {
	words := p.Words()

	out := make([]byte, 0, len(programMagic)+4+8+len(words)*8)
	out = append(out, programMagic...)
	out = binary.LittleEndian.AppendUint32(out, p.EntryPC)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(words)))
	for _, w := range words {
		out = binary.LittleEndian.AppendUint64(out, w.Value())
	}
	return out, nil
}

// LoadProgram builds a program from source bytes of the given kind. Every
// instruction is decoded eagerly so undecodable programs are rejected at
// load time rather than mid-run.
func LoadProgram(data []byte, kind SourceKind) (*Program, error) {
	switch kind {
	case SourceBinary:
		return loadBinary(data)
	case SourceAssembly:
		return loadAssembly(data)
	default:
		return nil, fmt.Errorf("unknown program source kind: %d", kind)
	}
}

func loadBinary(data []byte) (*Program, error) {
	if len(data) < len(programMagic)+12 {
		return nil, fmt.Errorf("program image truncated: %d bytes", len(data))
	}
	if !bytes.Equal(data[:len(programMagic)], programMagic) {
		return nil, fmt.Errorf("bad program image magic %q", data[:len(programMagic)])
	}

	entryPC := binary.LittleEndian.Uint32(data[4:8])
	count := binary.LittleEndian.Uint64(data[8:16])
	body := data[16:]

	if len(body)%8 != 0 || count != uint64(len(body)/8) {
		return nil, fmt.Errorf("program image declares %d words, carries %d bytes", count, len(body))
	}

	words := make([]field.Element, count)
	for i := range words {
		words[i] = field.New(binary.LittleEndian.Uint64(body[i*8:]))
	}

	program := NewProgram(entryPC)
	for offset := 0; offset < len(words); {
		inst, err := DecodeInstruction(words, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to decode program word %d: %w", offset, err)
		}
		program.AddInstruction(inst)
		offset += inst.Instruction.Size()
	}

	return program, nil
}

func loadAssembly(data []byte) (*Program, error) {
	program := NewProgram(DefaultEntryPC)

	for lineNo, line := range strings.Split(string(data), "\n") {
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) > 2 {
			return nil, fmt.Errorf("line %d: too many tokens", lineNo+1)
		}

		op, ok := instructionsByName[fields[0]]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown instruction %q", lineNo+1, fields[0])
		}

		var arg *field.Element
		if len(fields) == 2 {
			v, err := strconv.ParseUint(fields[1], 0, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad argument %q: %w", lineNo+1, fields[1], err)
			}
			a := field.New(v)
			arg = &a
		}

		inst, err := NewEncodedInstruction(op, arg)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		program.AddInstruction(inst)
	}

	return program, nil
}

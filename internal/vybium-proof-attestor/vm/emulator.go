package vm

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// ErrEngineDone is returned when EmulateBatch is called again after it has
// already reported a finished run. Resuming a finished engine is a caller
// error, not a recoverable state.
var ErrEngineDone = errors.New("emulator already reported done")

// FaultError is a fatal emulation fault: an illegal or undecodable
// instruction, an out-of-bounds access, exhausted input, or a failed guest
// assertion. No record is emitted for the chunk the fault occurred in.
type FaultError struct {
	PC       uint32
	Clock    uint64
	ExitCode uint32
	Msg      string
	Cause    error
}

// Error returns the error message
func (e *FaultError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("emulation fault at pc %#x, cycle %d: %s: %v", e.PC, e.Clock, e.Msg, e.Cause)
	}
	return fmt.Sprintf("emulation fault at pc %#x, cycle %d: %s", e.PC, e.Clock, e.Msg)
}

// Unwrap returns the cause of the fault
func (e *FaultError) Unwrap() error {
	return e.Cause
}

// CPUEvent is one executed instruction in a chunk's trace.
type CPUEvent struct {
	Clock  uint64
	PC     uint32
	Opcode Instruction
}

// PublicValues is the per-chunk metadata that downstream proof aggregation
// chains across chunks.
type PublicValues struct {
	StartPC        uint32
	NextPC         uint32
	Chunk          uint32
	ExecutionChunk uint32
	ExitCode       uint32
}

// ExecutionRecord is one emitted execution chunk. It is owned by the caller
// once emitted and never mutated afterwards.
type ExecutionRecord struct {
	CPUEvents    []CPUEvent
	PublicValues PublicValues
}

// BatchReport is the per-call result of EmulateBatch.
type BatchReport struct {
	Done bool
}

// OpeningVerifier is the host-side coprocessor behind the verify_openings
// instruction. It receives the raw guest input payload and verifies every
// opening proof it carries.
type OpeningVerifier interface {
	VerifyAll(payload []byte) error
}

// CoprocessorKind identifies which coprocessor an instruction called.
type CoprocessorKind int

const (
	// OpeningCoprocessor is the opening-proof verifier
	OpeningCoprocessor CoprocessorKind = iota
)

// CoprocessorCall records one coprocessor invocation during execution.
type CoprocessorCall struct {
	Clock uint64
	Kind  CoprocessorKind
}

// Opts configures the emulator's chunking behavior.
type Opts struct {
	// ChunkSize is the instruction budget of one chunk.
	ChunkSize int

	// ChunkBatchSize is the maximum number of chunks one EmulateBatch call
	// may produce before yielding.
	ChunkBatchSize int

	// MaxCycles caps the total run length as a runaway-guest guard.
	MaxCycles uint64
}

// DefaultOpts returns the production chunking options.
func DefaultOpts() Opts {
	return Opts{
		ChunkSize:      1 << 14,
		ChunkBatchSize: 8,
		MaxCycles:      1 << 26,
	}
}

// TestOpts returns small chunking options so short programs still span
// several chunks and batches.
func TestOpts() Opts {
	return Opts{
		ChunkSize:      32,
		ChunkBatchSize: 2,
		MaxCycles:      1 << 20,
	}
}

// WithChunkSize sets the per-chunk instruction budget
func (o Opts) WithChunkSize(n int) Opts {
	o.ChunkSize = n
	return o
}

// WithChunkBatchSize sets the per-batch chunk budget
func (o Opts) WithChunkBatchSize(n int) Opts {
	o.ChunkBatchSize = n
	return o
}

// WithMaxCycles sets the total cycle cap
func (o Opts) WithMaxCycles(n uint64) Opts {
	o.MaxCycles = n
	return o
}

// Validate checks if the options are usable
func (o Opts) Validate() error {
	if o.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", o.ChunkSize)
	}
	if o.ChunkBatchSize <= 0 {
		return fmt.Errorf("chunk batch size must be positive, got %d", o.ChunkBatchSize)
	}
	if o.MaxCycles == 0 {
		return fmt.Errorf("max cycles must be positive")
	}
	return nil
}

type jumpStackEntry struct {
	origin      uint32 // return address
	destination uint32 // call target
}

// Emulator executes a loaded program in bounded chunks. It is a stateful,
// resumable stepper: machine state persists across EmulateBatch calls on the
// same instance, and a single caller must own it for the whole run.
type Emulator struct {
	program *Program
	words   []field.Element
	opts    Opts

	verifier OpeningVerifier

	// Machine state
	pc           uint32
	stack        []field.Element
	ram          map[uint64]field.Element
	jumpStack    []jumpStackEntry
	publicInput  []field.Element
	inputPtr     int
	publicOutput []field.Element
	inputStream  [][]byte
	clock        uint64
	halted       bool

	// Chunk bookkeeping
	chunk          uint32
	executionChunk uint32
	done           bool

	coprocessorCalls []CoprocessorCall
}

// NewEmulator creates an emulator for one run of the given program.
func NewEmulator(program *Program, opts Opts, verifier OpeningVerifier) (*Emulator, error) {
	if program == nil {
		return nil, fmt.Errorf("program cannot be nil")
	}
	if program.EntryPC == 0 {
		return nil, fmt.Errorf("program entry pc must be nonzero")
	}
	if len(program.Instructions) == 0 {
		return nil, fmt.Errorf("program is empty")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid emulator options: %w", err)
	}

	return &Emulator{
		program:  program,
		words:    program.Words(),
		opts:     opts,
		verifier: verifier,
		pc:       program.EntryPC,
		ram:      make(map[uint64]field.Element),
	}, nil
}

// Opts returns the chunking options in effect.
func (e *Emulator) Opts() Opts {
	return e.opts
}

// PushInput appends a buffer to the guest's input stream. Buffers are
// consumed front-to-back by hint_read, so the full payload must be pushed
// before the first batch.
func (e *Emulator) PushInput(buf []byte) {
	e.inputStream = append(e.inputStream, buf)
}

// SetPublicInput seeds the element-wise public input read by read_io.
func (e *Emulator) SetPublicInput(input []field.Element) {
	e.publicInput = input
	e.inputPtr = 0
}

// PublicOutput returns the elements the guest has committed so far.
func (e *Emulator) PublicOutput() []field.Element {
	return e.publicOutput
}

// CoprocessorCalls returns the coprocessor invocations recorded so far.
func (e *Emulator) CoprocessorCalls() []CoprocessorCall {
	return e.coprocessorCalls
}

// Clock returns the number of instructions executed so far.
func (e *Emulator) Clock() uint64 {
	return e.clock
}

// EmulateBatch resumes the guest and executes up to ChunkBatchSize chunks of
// ChunkSize instructions, returning one ExecutionRecord per completed chunk.
// When the guest halts, the final chunk's record carries NextPC 0, one empty
// padding record closes the run, and the report's Done flag is set. Calling
// again after Done returns ErrEngineDone.
func (e *Emulator) EmulateBatch() ([]ExecutionRecord, BatchReport, error) {
	if e.done {
		return nil, BatchReport{Done: true}, ErrEngineDone
	}

	records := make([]ExecutionRecord, 0, e.opts.ChunkBatchSize+1)
	for i := 0; i < e.opts.ChunkBatchSize && !e.halted; i++ {
		record, err := e.runChunk()
		if err != nil {
			return nil, BatchReport{}, err
		}
		records = append(records, record)
	}

	var report BatchReport
	if e.halted {
		records = append(records, e.paddingRecord())
		e.done = true
		report.Done = true
	}

	return records, report, nil
}

// runChunk executes until the chunk instruction budget is exhausted or the
// guest halts, and closes the chunk with its public values.
func (e *Emulator) runChunk() (ExecutionRecord, error) {
	startPC := e.pc
	events := make([]CPUEvent, 0, e.opts.ChunkSize)

	for len(events) < e.opts.ChunkSize && !e.halted {
		event, err := e.step()
		if err != nil {
			return ExecutionRecord{}, err
		}
		events = append(events, event)
	}

	e.chunk++
	e.executionChunk++

	return ExecutionRecord{
		CPUEvents: events,
		PublicValues: PublicValues{
			StartPC:        startPC,
			NextPC:         e.pc,
			Chunk:          e.chunk,
			ExecutionChunk: e.executionChunk,
			ExitCode:       0,
		},
	}, nil
}

// paddingRecord closes the run with an empty chunk whose public values chain
// off the halt record's zero program counter.
func (e *Emulator) paddingRecord() ExecutionRecord {
	e.chunk++
	return ExecutionRecord{
		PublicValues: PublicValues{
			StartPC:        e.pc,
			NextPC:         e.pc,
			Chunk:          e.chunk,
			ExecutionChunk: e.executionChunk,
			ExitCode:       0,
		},
	}
}

// step fetches, decodes, and executes one instruction.
func (e *Emulator) step() (CPUEvent, error) {
	if e.clock >= e.opts.MaxCycles {
		return CPUEvent{}, e.fault(fmt.Sprintf("exceeded cycle budget of %d", e.opts.MaxCycles), nil)
	}

	inst, err := e.currentInstruction()
	if err != nil {
		return CPUEvent{}, e.fault("failed to fetch instruction", err)
	}

	info, _ := inst.Instruction.Info()
	if len(e.stack) < info.Pops {
		return CPUEvent{}, e.fault(
			fmt.Sprintf("stack underflow: %s needs %d elements, have %d", inst.Instruction, info.Pops, len(e.stack)), nil)
	}

	event := CPUEvent{Clock: e.clock, PC: e.pc, Opcode: inst.Instruction}

	if err := e.execute(inst); err != nil {
		return CPUEvent{}, err
	}
	e.clock++

	return event, nil
}

// currentInstruction decodes the instruction under the program counter.
func (e *Emulator) currentInstruction() (*EncodedInstruction, error) {
	if e.pc < e.program.EntryPC {
		return nil, fmt.Errorf("program counter %#x below entry %#x", e.pc, e.program.EntryPC)
	}
	offset := int(e.pc - e.program.EntryPC)
	if offset >= len(e.words) {
		return nil, fmt.Errorf("program counter %#x past program end", e.pc)
	}
	return DecodeInstruction(e.words, offset)
}

func (e *Emulator) fault(msg string, cause error) error {
	return &FaultError{PC: e.pc, Clock: e.clock, ExitCode: 1, Msg: msg, Cause: cause}
}

// Package chain validates the continuation invariants of an emitted
// execution-record sequence so per-chunk proofs can later be stitched into
// one proof of the whole run.
package chain

import (
	"fmt"

	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/vm"
)

// Violation reports a broken continuation invariant. It identifies the
// invariant and carries the offending values; a violation is fatal to the
// run and signals a determinism bug or an engine defect, never something to
// tolerate or repair.
type Violation struct {
	Invariant int
	Chunk     uint32
	Msg       string
}

// Error returns the error message
func (v *Violation) Error() string {
	return fmt.Sprintf("continuation chain violation at chunk %d (invariant %d): %s", v.Chunk, v.Invariant, v.Msg)
}

// Validator checks each execution record of one run, in emission order,
// against the continuation invariants. A Validator is single-use: one
// instance per run, records fed in the order they were emitted, then Finish
// once the engine reports done.
type Validator struct {
	entryPC uint32

	started    bool
	terminated bool

	prevNextPC    uint32
	prevChunk     uint32
	prevExecChunk uint32
}

// NewValidator creates a validator for a run whose program starts at
// entryPC.
func NewValidator(entryPC uint32) *Validator {
	return &Validator{entryPC: entryPC}
}

// Validate checks one record against the running chain state and advances
// the state on success. The first violation found is returned and the
// validator must not be fed further records.
func (c *Validator) Validate(record vm.ExecutionRecord) error {
	pv := record.PublicValues
	nonEmpty := len(record.CPUEvents) > 0

	violation := func(invariant int, format string, args ...interface{}) error {
		return &Violation{Invariant: invariant, Chunk: pv.Chunk, Msg: fmt.Sprintf(format, args...)}
	}

	// Chunk indices count 1, 2, 3, ... in emission order.
	if pv.Chunk != c.prevChunk+1 {
		return violation(1, "chunk index %d does not follow %d", pv.Chunk, c.prevChunk)
	}

	// The execution chunk index advances only on records that executed
	// instructions; padding chunks leave it unchanged.
	if nonEmpty {
		if pv.ExecutionChunk != c.prevExecChunk+1 {
			return violation(2, "execution chunk %d does not follow %d for a non-empty record", pv.ExecutionChunk, c.prevExecChunk)
		}
	} else if pv.ExecutionChunk != c.prevExecChunk {
		return violation(2, "execution chunk moved from %d to %d on an empty record", c.prevExecChunk, pv.ExecutionChunk)
	}

	if !c.started {
		if !nonEmpty {
			return violation(3, "first record has no cpu events")
		}
		if pv.StartPC != c.entryPC {
			return violation(3, "first record starts at pc %#x, program entry is %#x", pv.StartPC, c.entryPC)
		}
	} else if pv.StartPC != c.prevNextPC {
		return violation(4, "start pc %#x does not continue from previous next pc %#x", pv.StartPC, c.prevNextPC)
	}

	if nonEmpty {
		if pv.StartPC == 0 {
			return violation(5, "non-empty record starts at pc 0")
		}
	} else if pv.StartPC != pv.NextPC {
		return violation(5, "empty record moves pc from %#x to %#x", pv.StartPC, pv.NextPC)
	}

	if pv.ExitCode != 0 {
		return violation(6, "exit code %d on a record of a successful run", pv.ExitCode)
	}

	c.started = true
	c.prevNextPC = pv.NextPC
	c.prevChunk = pv.Chunk
	c.prevExecChunk = pv.ExecutionChunk

	// Once a record carries next pc 0, continuity and the padding rule
	// together force every later record to be an empty 0 -> 0 chunk, so the
	// run can only end here.
	c.terminated = pv.NextPC == 0

	return nil
}

// Finish closes the chain once the engine reports done. It fails if no
// record was ever validated or if the last record did not carry next pc 0.
func (c *Validator) Finish() error {
	if !c.started {
		return &Violation{Invariant: 7, Msg: "run produced no records"}
	}
	if !c.terminated {
		return &Violation{Invariant: 7, Chunk: c.prevChunk, Msg: fmt.Sprintf("run ended with next pc %#x, terminal record never emitted", c.prevNextPC)}
	}
	return nil
}

// Terminated reports whether the terminal record (next pc 0) has been seen.
func (c *Validator) Terminated() bool {
	return c.terminated
}

// Package run drives one attestation run end to end: it loads and decodes
// the guest input, steps the emulator in batches, routes every emitted
// record through the continuation validator and the cycle accountant, and
// writes the result artifact.
package run

import (
	"time"

	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/vm"
)

// CycleAccountant accumulates per-record cycle counts for one run.
type CycleAccountant struct {
	// TotalCycles is the number of instructions executed across all records.
	TotalCycles uint64

	// Records is the number of records observed, padding included.
	Records int

	// ExecutionRecords counts only records that executed instructions.
	ExecutionRecords int
}

// Accumulate folds one record into the running totals.
func (a *CycleAccountant) Accumulate(record vm.ExecutionRecord) {
	a.TotalCycles += uint64(len(record.CPUEvents))
	a.Records++
	if len(record.CPUEvents) > 0 {
		a.ExecutionRecords++
	}
}

// Rate returns cycles per whole elapsed second. Runs shorter than one
// second report 0 rather than dividing by a zero-second window.
func (a *CycleAccountant) Rate(elapsed time.Duration) uint64 {
	secs := uint64(elapsed.Seconds())
	if secs == 0 {
		return 0
	}
	return a.TotalCycles / secs
}

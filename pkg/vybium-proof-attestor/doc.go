// Package vybiumproofattestor provides a proof-of-proof attestation harness:
// it re-executes, inside a deterministic chunked virtual machine, the
// verification of a previously produced polynomial-commitment opening proof.
//
// The guest program loads an encoded input carrying the opening proofs, the
// evaluation point, and the evaluation claim; verifies every proof through a
// host-side coprocessor; and commits the outcome. The host drives the guest
// in bounded execution chunks whose boundaries satisfy strict chaining
// invariants, so the run can later be proven piecewise and stitched into one
// proof of the whole execution.
//
// # Quick Start
//
// Attesting a previously generated guest input file:
//
//	config := vybiumproofattestor.DefaultConfig("input.bin")
//	report, err := vybiumproofattestor.Attest(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("attested %d cycles over %d chunks\n", report.TotalCycles, report.Records)
//
// Generating a guest input from raw data:
//
//	encoded, err := vybiumproofattestor.GenerateInput(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//	os.WriteFile("input.bin", encoded, 0o644)
package vybiumproofattestor

package vybiumproofattestor

import (
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/codec"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/run"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/vm"
)

// GuestInput is the decoded guest input tuple: opening proofs, evaluation
// point, evaluation claim, and the packed log-length.
type GuestInput = codec.GuestInput

// ExecutionRecord is one emitted execution chunk with its public values.
type ExecutionRecord = vm.ExecutionRecord

// PublicValues is the per-chunk metadata chained across chunks.
type PublicValues = vm.PublicValues

// Report summarizes one attestation run.
type Report = run.Report

// Phase is the lifecycle stage of a run.
type Phase = run.Phase

// Run lifecycle phases.
const (
	PhaseLoading   = run.PhaseLoading
	PhaseRunning   = run.PhaseRunning
	PhaseCompleted = run.PhaseCompleted
	PhaseFaulted   = run.PhaseFaulted
)

// Config configures one attestation run.
type Config = run.Config

// ProvingBackend turns a completed run into a proof artifact.
type ProvingBackend = run.ProvingBackend

// Runner executes a supervised external prover invocation.
type Runner = run.Runner

// EmulatorOpts is the engine chunking configuration.
type EmulatorOpts = vm.Opts

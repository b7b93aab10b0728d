package run

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/chain"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/codec"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/vm"
)

// Phase is the lifecycle stage of one attestation run.
type Phase int

const (
	// PhaseLoading covers input reading, decoding, and engine seeding.
	PhaseLoading Phase = iota

	// PhaseRunning covers the batch loop.
	PhaseRunning

	// PhaseCompleted is reached when the engine reports done and the chain
	// closes cleanly.
	PhaseCompleted

	// PhaseFaulted is reached on any emulation fault or chain violation.
	PhaseFaulted
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	case PhaseFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ProvingBackend turns a completed attestation run into a proof artifact.
// The core ships without one; configuring nil falls back to plain emulation.
type ProvingBackend interface {
	Prove(input codec.GuestInput, program *vm.Program) ([]byte, error)
}

// Config configures one attestation run.
type Config struct {
	// InputPath is the encoded guest-input file.
	InputPath string

	// OutputPath receives the result artifact.
	OutputPath string

	// MockMode emulates the guest without invoking a proving backend.
	MockMode bool

	// CyclesOnly reports cycle counts and skips the artifact entirely.
	// Only available in mock mode.
	CyclesOnly bool

	// EmulatorOpts is the engine's chunking configuration.
	EmulatorOpts vm.Opts

	// Backend is the optional proving backend for non-mock runs.
	Backend ProvingBackend

	// Logger receives run progress. Defaults to the standard logger.
	Logger *logrus.Logger
}

// NewConfig returns a run configuration with production defaults.
func NewConfig(inputPath string) Config {
	return Config{
		InputPath:    inputPath,
		OutputPath:   "proof.bin",
		EmulatorOpts: vm.DefaultOpts(),
		Logger:       logrus.StandardLogger(),
	}
}

// WithOutputPath sets the artifact path
func (c Config) WithOutputPath(path string) Config {
	c.OutputPath = path
	return c
}

// WithMockMode toggles mock emulation
func (c Config) WithMockMode(mock bool) Config {
	c.MockMode = mock
	return c
}

// WithCyclesOnly toggles cycle-count-only reporting
func (c Config) WithCyclesOnly(cyclesOnly bool) Config {
	c.CyclesOnly = cyclesOnly
	return c
}

// WithEmulatorOpts sets the engine chunking options
func (c Config) WithEmulatorOpts(opts vm.Opts) Config {
	c.EmulatorOpts = opts
	return c
}

// WithBackend sets the proving backend
func (c Config) WithBackend(b ProvingBackend) Config {
	c.Backend = b
	return c
}

// WithLogger sets the progress logger
func (c Config) WithLogger(log *logrus.Logger) Config {
	c.Logger = log
	return c
}

// Validate checks if the configuration is usable
func (c Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if !c.CyclesOnly && c.OutputPath == "" {
		return fmt.Errorf("output path is required unless reporting cycles only")
	}
	if c.CyclesOnly && !c.MockMode {
		return fmt.Errorf("cycle-count reporting is only available in mock mode")
	}
	return c.EmulatorOpts.Validate()
}

// Report summarizes one completed or faulted run.
type Report struct {
	Phase            Phase
	TotalCycles      uint64
	Records          int
	ExecutionRecords int
	Elapsed          time.Duration
	Rate             uint64
	ArtifactPath     string
}

// Orchestrator owns one attestation run from input loading to artifact
// write. One instance per run; Execute must not be called twice.
type Orchestrator struct {
	cfg Config
	log *logrus.Logger
}

// NewOrchestrator creates an orchestrator for the given configuration.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run configuration: %w", err)
	}
	return &Orchestrator{cfg: cfg, log: cfg.Logger}, nil
}

// Execute drives the run to completion. The returned report carries the
// final phase even on failure; the error explains any fault.
func (o *Orchestrator) Execute() (*Report, error) {
	report := &Report{Phase: PhaseLoading}

	raw, err := os.ReadFile(o.cfg.InputPath)
	if err != nil {
		report.Phase = PhaseFaulted
		return report, fmt.Errorf("failed to read guest input %s: %w", o.cfg.InputPath, err)
	}

	input, err := codec.Decode(raw)
	if err != nil {
		report.Phase = PhaseFaulted
		return report, fmt.Errorf("guest input %s is malformed: %w", o.cfg.InputPath, err)
	}

	o.log.WithFields(logrus.Fields{
		"proofs":         len(input.Proofs),
		"point_coords":   len(input.EvaluationPoint),
		"packed_log_len": input.PackedLogLen,
		"bytes":          len(raw),
	}).Info("loaded guest input")

	program := vm.BuildAttestationGuest()
	emulator, err := vm.NewEmulator(program, o.cfg.EmulatorOpts, NewSchemeVerifier())
	if err != nil {
		report.Phase = PhaseFaulted
		return report, fmt.Errorf("failed to create emulator: %w", err)
	}
	emulator.PushInput(raw)

	validator := chain.NewValidator(program.EntryPC)
	var accountant CycleAccountant

	report.Phase = PhaseRunning
	start := time.Now()

	for {
		records, batch, err := emulator.EmulateBatch()
		if err != nil {
			report.Phase = PhaseFaulted
			return report, fmt.Errorf("emulation failed: %w", err)
		}
		for _, rec := range records {
			if err := validator.Validate(rec); err != nil {
				report.Phase = PhaseFaulted
				return report, err
			}
			accountant.Accumulate(rec)
		}
		if batch.Done {
			break
		}
	}

	if err := validator.Finish(); err != nil {
		report.Phase = PhaseFaulted
		return report, err
	}

	report.Elapsed = time.Since(start)
	report.TotalCycles = accountant.TotalCycles
	report.Records = accountant.Records
	report.ExecutionRecords = accountant.ExecutionRecords
	report.Rate = accountant.Rate(report.Elapsed)

	fields := logrus.Fields{
		"cycles":            report.TotalCycles,
		"records":           report.Records,
		"execution_records": report.ExecutionRecords,
		"elapsed":           report.Elapsed.Round(time.Millisecond),
	}
	if report.Rate > 0 {
		fields["cycles_per_sec"] = report.Rate
	}
	o.log.WithFields(fields).Info("attestation run completed")

	if o.cfg.CyclesOnly {
		report.Phase = PhaseCompleted
		return report, nil
	}

	artifact := []byte{1}
	if !o.cfg.MockMode {
		if o.cfg.Backend != nil {
			artifact, err = o.cfg.Backend.Prove(input, program)
			if err != nil {
				report.Phase = PhaseFaulted
				return report, fmt.Errorf("proving backend failed: %w", err)
			}
		} else {
			o.log.Info("no proving backend configured, writing the emulated attestation result")
		}
	}

	if err := os.WriteFile(o.cfg.OutputPath, artifact, 0o644); err != nil {
		report.Phase = PhaseFaulted
		return report, fmt.Errorf("failed to write artifact %s: %w", o.cfg.OutputPath, err)
	}

	report.Phase = PhaseCompleted
	report.ArtifactPath = o.cfg.OutputPath
	return report, nil
}

package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultRunTimeout bounds one supervised prover invocation.
const DefaultRunTimeout = 300 * time.Second

// TimeoutError reports that a supervised prover process exceeded its
// wall-clock deadline and was killed. It is distinct from a process that
// ran to completion and failed.
type TimeoutError struct {
	Binary  string
	Timeout time.Duration
}

// Error returns the error message
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("prover %s exceeded its %s deadline and was killed", e.Binary, e.Timeout)
}

// Request describes one supervised prover invocation.
type Request struct {
	// InputPath is the encoded guest-input file handed to the prover.
	InputPath string

	// OutputPath is where the prover writes its artifact.
	OutputPath string

	// MockMode asks the prover for an emulation-only run.
	MockMode bool
}

// Result is the outcome of one supervised prover invocation.
type Result struct {
	// Stdout and Stderr are the captured process streams.
	Stdout []byte
	Stderr []byte

	// Elapsed is the wall-clock duration of the process.
	Elapsed time.Duration
}

// Runner executes one prover invocation under supervision.
type Runner interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// SubprocessRunner runs the prover as an external process with a wall-clock
// deadline, killing it on expiry.
type SubprocessRunner struct {
	// Binary is the prover executable path.
	Binary string

	// Timeout is the per-invocation deadline. Zero uses DefaultRunTimeout.
	Timeout time.Duration
}

// NewSubprocessRunner creates a runner for the given prover binary.
func NewSubprocessRunner(binary string) *SubprocessRunner {
	return &SubprocessRunner{Binary: binary, Timeout: DefaultRunTimeout}
}

// WithTimeout sets the per-invocation deadline
func (r *SubprocessRunner) WithTimeout(d time.Duration) *SubprocessRunner {
	r.Timeout = d
	return r
}

// Run invokes the prover and waits for it, enforcing the deadline. A killed
// process surfaces as *TimeoutError; any other non-zero exit surfaces as a
// process failure carrying the captured stderr.
func (r *SubprocessRunner) Run(ctx context.Context, req Request) (*Result, error) {
	if r.Binary == "" {
		return nil, fmt.Errorf("prover binary is required")
	}
	if req.InputPath == "" {
		return nil, fmt.Errorf("input path is required")
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultRunTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"--input", req.InputPath}
	if req.OutputPath != "" {
		args = append(args, "--output", req.OutputPath)
	}
	if req.MockMode {
		args = append(args, "--mock")
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Stdout:  stdout.Bytes(),
		Stderr:  stderr.Bytes(),
		Elapsed: time.Since(start),
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, &TimeoutError{Binary: r.Binary, Timeout: timeout}
		}
		return result, fmt.Errorf("prover %s failed: %w: %s", r.Binary, err, stderr.String())
	}

	return result, nil
}

package vybiumproofattestor

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/chain"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/codec"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/run"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/vm"
)

// ErrorCode represents an attestor error category
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrInvalidConfig represents an invalid configuration error
	ErrInvalidConfig

	// ErrIO represents a file read or write failure
	ErrIO

	// ErrFormat represents malformed or truncated guest-input bytes
	ErrFormat

	// ErrEmulationFault represents a fatal guest emulation fault
	ErrEmulationFault

	// ErrChainViolation represents a broken continuation invariant
	ErrChainViolation

	// ErrVerification represents a rejected opening proof
	ErrVerification

	// ErrTimeout represents a killed subprocess prover
	ErrTimeout
)

// AttestorError represents an attestor error
type AttestorError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *AttestorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vybium-proof-attestor error [%d]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("vybium-proof-attestor error [%d]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *AttestorError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error
func (e *AttestorError) Is(target error) bool {
	t, ok := target.(*AttestorError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Classify maps an error from a run to its attestor error category. Errors
// that already carry a category pass through unchanged.
func Classify(err error) *AttestorError {
	if err == nil {
		return nil
	}

	var attestorErr *AttestorError
	if errors.As(err, &attestorErr) {
		return attestorErr
	}

	wrap := func(code ErrorCode, message string) *AttestorError {
		return &AttestorError{Code: code, Message: message, Cause: err}
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return wrap(ErrIO, "file access failed")
	}

	var formatErr *codec.FormatError
	if errors.As(err, &formatErr) {
		return wrap(ErrFormat, "malformed guest input")
	}

	var violation *chain.Violation
	if errors.As(err, &violation) {
		return wrap(ErrChainViolation, "continuation chain violated")
	}

	var fault *vm.FaultError
	if errors.As(err, &fault) {
		return wrap(ErrEmulationFault, "guest emulation faulted")
	}

	var timeout *run.TimeoutError
	if errors.As(err, &timeout) {
		return wrap(ErrTimeout, "prover subprocess timed out")
	}

	return wrap(ErrUnknown, "attestation run failed")
}

package vybiumproofattestor

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/chain"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/codec"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/run"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/vm"
)

func TestAttestorError(t *testing.T) {
	t.Run("MessageWithCause", func(t *testing.T) {
		cause := fmt.Errorf("underlying")
		err := &AttestorError{Code: ErrFormat, Message: "bad input", Cause: cause}
		msg := err.Error()
		if !strings.Contains(msg, "bad input") || !strings.Contains(msg, "underlying") {
			t.Errorf("message %q missing detail", msg)
		}
		if !errors.Is(err, cause) {
			t.Error("cause not reachable through Unwrap")
		}
	})

	t.Run("MessageWithoutCause", func(t *testing.T) {
		err := &AttestorError{Code: ErrIO, Message: "read failed"}
		if !strings.Contains(err.Error(), "read failed") {
			t.Errorf("message %q missing detail", err.Error())
		}
	})

	t.Run("IsMatchesByCode", func(t *testing.T) {
		err := &AttestorError{Code: ErrTimeout, Message: "one"}
		if !errors.Is(err, &AttestorError{Code: ErrTimeout}) {
			t.Error("same code should match")
		}
		if errors.Is(err, &AttestorError{Code: ErrIO}) {
			t.Error("different code should not match")
		}
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{
			name: "Format",
			err:  fmt.Errorf("decode: %w", &codec.FormatError{Field: "proofs", Msg: "truncated"}),
			code: ErrFormat,
		},
		{
			name: "ChainViolation",
			err:  fmt.Errorf("run: %w", &chain.Violation{Invariant: 4, Msg: "broken continuity"}),
			code: ErrChainViolation,
		},
		{
			name: "EmulationFault",
			err:  fmt.Errorf("run: %w", &vm.FaultError{PC: 0x104, Msg: "assertion failed"}),
			code: ErrEmulationFault,
		},
		{
			name: "Timeout",
			err:  fmt.Errorf("prover: %w", &run.TimeoutError{Binary: "prover"}),
			code: ErrTimeout,
		},
		{
			name: "IO",
			err:  fmt.Errorf("read: %w", &fs.PathError{Op: "open", Path: "input.bin", Err: fs.ErrNotExist}),
			code: ErrIO,
		},
		{
			name: "Unknown",
			err:  fmt.Errorf("something else"),
			code: ErrUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			if got.Code != tc.code {
				t.Errorf("classified as %d, want %d", got.Code, tc.code)
			}
			if !errors.Is(got, tc.err) && got.Cause == nil {
				t.Error("classified error lost its cause")
			}
		})
	}

	t.Run("NilPassesThrough", func(t *testing.T) {
		if Classify(nil) != nil {
			t.Error("nil should classify to nil")
		}
	})

	t.Run("AttestorErrorPassesThrough", func(t *testing.T) {
		original := &AttestorError{Code: ErrVerification, Message: "rejected"}
		if got := Classify(fmt.Errorf("wrapped: %w", original)); got != original {
			t.Errorf("expected passthrough, got %v", got)
		}
	})
}

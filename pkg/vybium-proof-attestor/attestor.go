package vybiumproofattestor

import (
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/codec"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/pcs"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/run"
)

// DefaultConfig returns a run configuration with production defaults for
// the given encoded guest-input file.
func DefaultConfig(inputPath string) Config {
	return run.NewConfig(inputPath)
}

// Attest drives one attestation run to completion: it loads and decodes the
// guest input, re-executes the opening verification inside the chunked
// virtual machine, validates the continuation chain, and writes the result
// artifact. The returned report carries the final phase even when the run
// fails.
func Attest(config Config) (*Report, error) {
	o, err := run.NewOrchestrator(config)
	if err != nil {
		return nil, &AttestorError{Code: ErrInvalidConfig, Message: "invalid run configuration", Cause: err}
	}

	report, err := o.Execute()
	if err != nil {
		return report, Classify(err)
	}
	return report, nil
}

// GenerateInput commits to the given data, derives an evaluation point and
// claim, produces an opening proof, and returns the encoded guest input
// ready for attestation.
func GenerateInput(data []byte) ([]byte, error) {
	values, logLen, err := pcs.PackValues(data)
	if err != nil {
		return nil, &AttestorError{Code: ErrFormat, Message: "cannot pack input data", Cause: err}
	}

	scheme, err := pcs.NewScheme(pcs.DefaultParams(logLen))
	if err != nil {
		return nil, &AttestorError{Code: ErrInvalidConfig, Message: "invalid scheme parameters", Cause: err}
	}

	commit, err := scheme.Commit(values)
	if err != nil {
		return nil, &AttestorError{Code: ErrUnknown, Message: "commitment failed", Cause: err}
	}

	point := scheme.CalculateEvaluationPoint(commit.Commitment, logLen)
	claim, err := scheme.CalculateEvaluationClaim(values, point)
	if err != nil {
		return nil, &AttestorError{Code: ErrUnknown, Message: "claim evaluation failed", Cause: err}
	}

	transcript, err := scheme.Prove(values, point, commit)
	if err != nil {
		return nil, &AttestorError{Code: ErrUnknown, Message: "opening proof generation failed", Cause: err}
	}

	pointBytes := make([][16]byte, len(point))
	for i, x := range point {
		pointBytes[i] = x.Bytes()
	}

	return codec.Encode(codec.GuestInput{
		Proofs:          [][]byte{transcript.Bytes()},
		EvaluationPoint: pointBytes,
		EvaluationClaim: claim.Bytes(),
		PackedLogLen:    uint64(logLen),
	}), nil
}

// DecodeInput decodes an encoded guest input, failing on any truncation,
// oversized length prefix, or trailing bytes.
func DecodeInput(encoded []byte) (GuestInput, error) {
	input, err := codec.Decode(encoded)
	if err != nil {
		return GuestInput{}, Classify(err)
	}
	return input, nil
}

// VerifyInput checks every opening proof carried by an encoded guest input
// directly, without the virtual machine. It answers the same question the
// attested run re-executes.
func VerifyInput(encoded []byte) error {
	if err := run.NewSchemeVerifier().VerifyAll(encoded); err != nil {
		return &AttestorError{Code: ErrVerification, Message: "guest input verification failed", Cause: err}
	}
	return nil
}

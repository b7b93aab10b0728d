package run

import (
	"fmt"

	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/codec"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/pcs"
)

// SchemeVerifier verifies every opening proof carried by a guest input
// payload. It backs the guest's verify_openings instruction: the payload is
// the same byte sequence the guest loaded via hint_read.
type SchemeVerifier struct{}

// NewSchemeVerifier creates the host-side opening verifier.
func NewSchemeVerifier() *SchemeVerifier {
	return &SchemeVerifier{}
}

// VerifyAll decodes the payload and verifies each opening transcript against
// the payload's evaluation point and claim. Any malformed or rejecting proof
// fails the whole payload.
func (v *SchemeVerifier) VerifyAll(payload []byte) error {
	input, err := codec.Decode(payload)
	if err != nil {
		return fmt.Errorf("failed to decode guest input: %w", err)
	}
	if len(input.Proofs) == 0 {
		return fmt.Errorf("guest input carries no opening proofs")
	}
	if uint64(len(input.EvaluationPoint)) != input.PackedLogLen {
		return fmt.Errorf("evaluation point has %d coordinates, packed log length is %d",
			len(input.EvaluationPoint), input.PackedLogLen)
	}

	scheme, err := pcs.NewScheme(pcs.DefaultParams(int(input.PackedLogLen)))
	if err != nil {
		return err
	}

	point := make([]pcs.B128, len(input.EvaluationPoint))
	for i, b := range input.EvaluationPoint {
		point[i] = pcs.B128FromBytes(b)
	}
	claim := pcs.B128FromBytes(input.EvaluationClaim)

	for i, proof := range input.Proofs {
		transcript, err := pcs.ReconstructTranscript(proof)
		if err != nil {
			return fmt.Errorf("opening proof %d is malformed: %w", i, err)
		}
		if err := scheme.Verify(transcript, claim, point); err != nil {
			return fmt.Errorf("opening proof %d rejected: %w", i, err)
		}
	}

	return nil
}

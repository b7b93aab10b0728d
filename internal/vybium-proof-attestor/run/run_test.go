package run

import (
	"testing"

	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/codec"
	"github.com/vybium/vybium-proof-attestor/internal/vybium-proof-attestor/pcs"
)

// buildGuestInput commits to patterned data, derives a point and claim, and
// encodes a complete guest input with one genuine opening proof.
func buildGuestInput(t *testing.T, dataLen int) []byte {
	t.Helper()

	data := make([]byte, dataLen)
	for i := range data {
		data[i] = byte(i * 7)
	}

	values, logLen, err := pcs.PackValues(data)
	if err != nil {
		t.Fatalf("PackValues failed: %v", err)
	}
	scheme, err := pcs.NewScheme(pcs.DefaultParams(logLen))
	if err != nil {
		t.Fatalf("NewScheme failed: %v", err)
	}
	commit, err := scheme.Commit(values)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	point := scheme.CalculateEvaluationPoint(commit.Commitment, logLen)
	claim, err := scheme.CalculateEvaluationClaim(values, point)
	if err != nil {
		t.Fatalf("CalculateEvaluationClaim failed: %v", err)
	}
	transcript, err := scheme.Prove(values, point, commit)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
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
	})
}

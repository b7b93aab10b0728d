package pcs

import (
	"bytes"
	"testing"
)

func patternedData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 256)
	}
	return data
}

func TestPackValues(t *testing.T) {
	t.Run("PadsToPowerOfTwo", func(t *testing.T) {
		values, logLen, err := PackValues(patternedData(100))
		if err != nil {
			t.Fatalf("PackValues failed: %v", err)
		}
		// 100 bytes is 7 elements, padded up to 8.
		if logLen != 3 || len(values) != 8 {
			t.Errorf("got %d values at logLen %d, want 8 at 3", len(values), logLen)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if _, _, err := PackValues(nil); err == nil {
			t.Error("expected error for empty data")
		}
	})
}

func TestTranscriptFraming(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		tr := NewTranscript()
		tr.Send([]byte{1, 2, 3})
		tr.Send(nil)
		tr.Send([]byte{4})

		got, err := ReconstructTranscript(tr.Bytes())
		if err != nil {
			t.Fatalf("ReconstructTranscript failed: %v", err)
		}

		for _, want := range [][]byte{{1, 2, 3}, {}, {4}} {
			entry, err := got.Receive()
			if err != nil {
				t.Fatalf("Receive failed: %v", err)
			}
			if !bytes.Equal(entry, want) {
				t.Errorf("entry = %v, want %v", entry, want)
			}
		}

		if _, err := got.Receive(); err == nil {
			t.Error("expected error past the last entry")
		}
	})

	t.Run("TruncatedFrame", func(t *testing.T) {
		tr := NewTranscript()
		tr.Send([]byte{1, 2, 3, 4, 5})
		buf := tr.Bytes()

		if _, err := ReconstructTranscript(buf[:len(buf)-2]); err == nil {
			t.Error("expected error for truncated frame")
		}
		if _, err := ReconstructTranscript(buf[:2]); err == nil {
			t.Error("expected error for truncated header")
		}
	})
}

func TestSchemeOpenAndVerify(t *testing.T) {
	values, logLen, err := PackValues(patternedData(9 * 1024))
	if err != nil {
		t.Fatalf("PackValues failed: %v", err)
	}

	scheme, err := NewScheme(DefaultParams(logLen))
	if err != nil {
		t.Fatalf("NewScheme failed: %v", err)
	}

	commit, err := scheme.Commit(values)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	point := scheme.CalculateEvaluationPoint(commit.Commitment, logLen)
	if len(point) != logLen {
		t.Fatalf("point has %d coordinates, want %d", len(point), logLen)
	}

	claim, err := scheme.CalculateEvaluationClaim(values, point)
	if err != nil {
		t.Fatalf("CalculateEvaluationClaim failed: %v", err)
	}

	proof, err := scheme.Prove(values, point, commit)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	t.Run("Accepts", func(t *testing.T) {
		replay, err := ReconstructTranscript(proof.Bytes())
		if err != nil {
			t.Fatalf("ReconstructTranscript failed: %v", err)
		}
		if err := scheme.Verify(replay, claim, point); err != nil {
			t.Errorf("Verify rejected a valid opening: %v", err)
		}
	})

	t.Run("RejectsCorruptProof", func(t *testing.T) {
		raw := proof.Bytes()
		raw[len(raw)-1] ^= 1

		replay, err := ReconstructTranscript(raw)
		if err != nil {
			t.Fatalf("ReconstructTranscript failed: %v", err)
		}
		if err := scheme.Verify(replay, claim, point); err == nil {
			t.Error("Verify accepted a corrupted transcript")
		}
	})

	t.Run("RejectsWrongClaim", func(t *testing.T) {
		replay, err := ReconstructTranscript(proof.Bytes())
		if err != nil {
			t.Fatalf("ReconstructTranscript failed: %v", err)
		}
		if err := scheme.Verify(replay, claim.Add(B128One), point); err == nil {
			t.Error("Verify accepted a wrong claim")
		}
	})

	t.Run("RejectsWrongPoint", func(t *testing.T) {
		replay, err := ReconstructTranscript(proof.Bytes())
		if err != nil {
			t.Fatalf("ReconstructTranscript failed: %v", err)
		}
		wrongPoint := append([]B128{}, point...)
		wrongPoint[0] = wrongPoint[0].Add(B128One)
		if err := scheme.Verify(replay, claim, wrongPoint); err == nil {
			t.Error("Verify accepted a wrong evaluation point")
		}
	})
}

func TestEvaluationPointDeterministic(t *testing.T) {
	scheme, err := NewScheme(DefaultParams(4))
	if err != nil {
		t.Fatalf("NewScheme failed: %v", err)
	}

	commitment := []byte{1, 2, 3, 4}
	a := scheme.CalculateEvaluationPoint(commitment, 4)
	b := scheme.CalculateEvaluationPoint(commitment, 4)

	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Fatalf("coordinate %d differs between identical derivations", i)
		}
	}
}

func TestClaimMatchesCorners(t *testing.T) {
	// At a boolean point the multilinear extension must hit the table value.
	values := []B128{
		B128FromUint64(11), B128FromUint64(22),
		B128FromUint64(33), B128FromUint64(44),
	}

	scheme, err := NewScheme(DefaultParams(2))
	if err != nil {
		t.Fatalf("NewScheme failed: %v", err)
	}

	cases := []struct {
		point []B128
		want  B128
	}{
		{[]B128{B128Zero, B128Zero}, values[0]},
		{[]B128{B128One, B128Zero}, values[1]},
		{[]B128{B128Zero, B128One}, values[2]},
		{[]B128{B128One, B128One}, values[3]},
	}

	for _, tc := range cases {
		got, err := scheme.CalculateEvaluationClaim(values, tc.point)
		if err != nil {
			t.Fatalf("CalculateEvaluationClaim failed: %v", err)
		}
		if !got.Equal(tc.want) {
			t.Errorf("claim at %v = %+v, want %+v", tc.point, got, tc.want)
		}
	}
}

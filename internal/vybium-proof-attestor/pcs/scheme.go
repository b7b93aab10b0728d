// Package pcs provides the polynomial-commitment opening capability consumed
// by the proof-of-proof guest: committing to packed multilinear values,
// producing an opening transcript for an evaluation point, and verifying
// such a transcript against an evaluation claim. The commitment is a Merkle
// root over the packed values and the claim is a multilinear-extension
// evaluation over GF(2^128).
package pcs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/merkle"
)

// LogScalarBitWidth is log2 of the B128 scalar width in bits relative to a
// byte: a packed value of 2^k elements carries 2^(k+7) bits of data. The
// guest derives the total variable count from the packed log-length with
// this offset.
const LogScalarBitWidth = 7

// Params configures an opening scheme instance.
type Params struct {
	// LogInvRate is log2 of the Reed-Solomon inverse rate.
	LogInvRate int

	// NumQueries is the number of opening test queries.
	NumQueries int

	// TotalNVars is the total number of multilinear variables, including
	// the LogScalarBitWidth packing offset.
	TotalNVars int

	// LogNumShares is log2 of the sampling share count.
	LogNumShares int
}

// DefaultParams returns the parameter set the attestation guest assumes.
func DefaultParams(packedLogLen int) Params {
	return Params{
		LogInvRate:   1,
		NumQueries:   128,
		TotalNVars:   packedLogLen + LogScalarBitWidth,
		LogNumShares: 80,
	}
}

// Validate checks if the parameters are well-formed
func (p Params) Validate() error {
	if p.LogInvRate < 0 {
		return fmt.Errorf("log inverse rate must be non-negative, got %d", p.LogInvRate)
	}
	if p.NumQueries <= 0 {
		return fmt.Errorf("number of queries must be positive, got %d", p.NumQueries)
	}
	if p.TotalNVars < LogScalarBitWidth {
		return fmt.Errorf("total variables %d below packing offset %d", p.TotalNVars, LogScalarBitWidth)
	}
	return nil
}

// PackedLogLen is the packed value log-length the parameters describe.
func (p Params) PackedLogLen() int {
	return p.TotalNVars - LogScalarBitWidth
}

// Scheme is a concrete opening-scheme capability.
type Scheme struct {
	params Params
}

// NewScheme creates an opening scheme with the given parameters.
func NewScheme(params Params) (*Scheme, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid opening scheme params: %w", err)
	}
	return &Scheme{params: params}, nil
}

// Params returns the scheme parameters.
func (s *Scheme) Params() Params {
	return s.params
}

// CommitOutput is the result of committing to a packed value vector.
type CommitOutput struct {
	// Commitment is the vector-commitment root.
	Commitment []byte
}

// PackValues packs raw data bytes into B128 values, padded with zeros to a
// power-of-two length. It returns the values and log2 of their count.
func PackValues(data []byte) ([]B128, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("cannot pack empty data")
	}

	n := (len(data) + 15) / 16
	logLen := 0
	for 1<<logLen < n {
		logLen++
	}

	values := make([]B128, 1<<logLen)
	for i := 0; i < n; i++ {
		var b [16]byte
		copy(b[:], data[i*16:])
		values[i] = B128FromBytes(b)
	}

	return values, logLen, nil
}

// Commit builds the vector commitment over the packed values.
func (s *Scheme) Commit(values []B128) (*CommitOutput, error) {
	if len(values) == 0 || bits.OnesCount(uint(len(values))) != 1 {
		return nil, fmt.Errorf("value count must be a power of two, got %d", len(values))
	}

	// One leaf digest per value, packed as two 64-bit words, following the
	// leaf layout of the trace commitment tables.
	leaves := make([]hash.Digest, len(values))
	for i, v := range values {
		leaves[i][0] = field.New(v.Lo)
		leaves[i][1] = field.New(v.Hi)
	}

	tree, err := merkle.New(leaves)
	if err != nil {
		return nil, fmt.Errorf("failed to build commitment tree: %w", err)
	}

	root := tree.Root()
	commitment := make([]byte, len(root)*8)
	for i, elem := range root {
		binary.LittleEndian.PutUint64(commitment[i*8:], elem.Value())
	}
	return &CommitOutput{Commitment: commitment}, nil
}

// CalculateEvaluationPoint derives an evaluation point of nVars coordinates
// from the commitment. Deriving from the transcript rather than an OS RNG
// keeps input generation reproducible.
func (s *Scheme) CalculateEvaluationPoint(commitment []byte, nVars int) []B128 {
	t := NewTranscript()
	t.Send(commitment)

	point := make([]B128, nVars)
	for i := range point {
		point[i] = t.SampleElement()
	}
	return point
}

// CalculateEvaluationClaim evaluates the multilinear extension of the packed
// values at the given point.
func (s *Scheme) CalculateEvaluationClaim(values []B128, point []B128) (B128, error) {
	if len(values) == 0 || bits.OnesCount(uint(len(values))) != 1 {
		return B128Zero, fmt.Errorf("value count must be a power of two, got %d", len(values))
	}
	if 1<<len(point) != len(values) {
		return B128Zero, fmt.Errorf("point has %d coordinates, want %d for %d values",
			len(point), bits.TrailingZeros(uint(len(values))), len(values))
	}

	// Fold one variable at a time: v' = v0*(1-x) + v1*x, with 1-x = 1+x in
	// characteristic 2.
	cur := make([]B128, len(values))
	copy(cur, values)

	for _, x := range point {
		oneMinusX := B128One.Add(x)
		next := make([]B128, len(cur)/2)
		for i := range next {
			next[i] = cur[2*i].Mul(oneMinusX).Add(cur[2*i+1].Mul(x))
		}
		cur = next
	}

	return cur[0], nil
}

// Prove produces an opening transcript for the committed values at the given
// point. The transcript is what travels inside the guest input as opaque
// proof bytes.
func (s *Scheme) Prove(values []B128, point []B128, commit *CommitOutput) (*Transcript, error) {
	claim, err := s.CalculateEvaluationClaim(values, point)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate claim: %w", err)
	}

	blob := make([]byte, 0, len(values)*16)
	for _, v := range values {
		b := v.Bytes()
		blob = append(blob, b[:]...)
	}

	t := NewTranscript()
	t.Send(commit.Commitment)
	claimBytes := claim.Bytes()
	t.Send(claimBytes[:])
	t.Send(blob)

	return t, nil
}

// Verify checks an opening transcript against an evaluation claim at a
// point. It recomputes the commitment and the claim from the revealed values
// and fails on any mismatch.
func (s *Scheme) Verify(t *Transcript, claim B128, point []B128) error {
	root, err := t.Receive()
	if err != nil {
		return fmt.Errorf("missing commitment entry: %w", err)
	}

	claimEntry, err := t.Receive()
	if err != nil {
		return fmt.Errorf("missing claim entry: %w", err)
	}
	if len(claimEntry) != 16 {
		return fmt.Errorf("claim entry is %d bytes, want 16", len(claimEntry))
	}

	var claimBytes [16]byte
	copy(claimBytes[:], claimEntry)
	if !B128FromBytes(claimBytes).Equal(claim) {
		return fmt.Errorf("transcript claim does not match supplied evaluation claim")
	}

	blob, err := t.Receive()
	if err != nil {
		return fmt.Errorf("missing values entry: %w", err)
	}
	if len(blob)%16 != 0 || len(blob) == 0 {
		return fmt.Errorf("values entry of %d bytes is not a whole number of elements", len(blob))
	}

	values := make([]B128, len(blob)/16)
	for i := range values {
		var b [16]byte
		copy(b[:], blob[i*16:])
		values[i] = B128FromBytes(b)
	}

	if 1<<len(point) != len(values) {
		return fmt.Errorf("point has %d coordinates, transcript reveals %d values", len(point), len(values))
	}

	commit, err := s.Commit(values)
	if err != nil {
		return fmt.Errorf("failed to recompute commitment: %w", err)
	}
	if !bytes.Equal(commit.Commitment, root) {
		return fmt.Errorf("commitment mismatch: revealed values do not match root")
	}

	evaluated, err := s.CalculateEvaluationClaim(values, point)
	if err != nil {
		return fmt.Errorf("failed to re-evaluate claim: %w", err)
	}
	if !evaluated.Equal(claim) {
		return fmt.Errorf("evaluation mismatch: values open to a different claim at the point")
	}

	return nil
}

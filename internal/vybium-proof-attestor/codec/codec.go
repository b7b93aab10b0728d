// Package codec implements the binary layout of the guest input payload.
//
// The layout is shared by the host and the guest: a length-prefixed sequence
// of length-prefixed opening-proof buffers, a length-prefixed sequence of
// fixed 16-byte little-endian field elements (the evaluation point), one
// 16-byte little-endian field element (the evaluation claim), and a fixed
// width packed log-length. All length prefixes are unsigned 64-bit
// little-endian, matching the fixint tuple encoding the prover and guest
// already agree on. Any deviation from this layout invalidates the
// cryptographic statement carried by the payload, so decoding is strict:
// either the full tuple decodes or the call fails.
package codec

import (
	"encoding/binary"
	"fmt"
)

// ElementSize is the byte width of one 128-bit field element.
const ElementSize = 16

// GuestInput is the cryptographic payload pushed into the guest's input
// stream. It is created once per run and never mutated afterwards.
type GuestInput struct {
	// Proofs holds the opaque opening-proof transcripts, one per proof.
	Proofs [][]byte

	// EvaluationPoint holds the coordinates of the opening, each a 16-byte
	// little-endian field element.
	EvaluationPoint [][ElementSize]byte

	// EvaluationClaim is the claimed evaluation at the point.
	EvaluationClaim [ElementSize]byte

	// PackedLogLen is log2 of the packed-values length the proofs refer to.
	PackedLogLen uint64
}

// FormatError reports a malformed or truncated guest input buffer.
type FormatError struct {
	Field string
	Msg   string
}

// Error returns the error message
func (e *FormatError) Error() string {
	return fmt.Sprintf("guest input format error: %s: %s", e.Field, e.Msg)
}

// Encode serializes the guest input to its canonical byte layout. The result
// is a deterministic function of the input: equal inputs yield identical
// bytes.
func Encode(in GuestInput) []byte {
	size := 8
	for _, p := range in.Proofs {
		size += 8 + len(p)
	}
	size += 8 + len(in.EvaluationPoint)*ElementSize
	size += ElementSize + 8

	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(in.Proofs)))

	for _, p := range in.Proofs {
		out = binary.LittleEndian.AppendUint64(out, uint64(len(p)))
		out = append(out, p...)
	}

	out = binary.LittleEndian.AppendUint64(out, uint64(len(in.EvaluationPoint)))
	for _, pt := range in.EvaluationPoint {
		out = append(out, pt[:]...)
	}

	out = append(out, in.EvaluationClaim[:]...)
	out = binary.LittleEndian.AppendUint64(out, in.PackedLogLen)

	return out
}

// decoder is a cursor over the input buffer. Every read checks the remaining
// length so a truncated buffer can never yield a partial result.
type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.pos
}

func (d *decoder) uint64(field string) (uint64, error) {
	if d.remaining() < 8 {
		return 0, &FormatError{Field: field, Msg: fmt.Sprintf("truncated length prefix: %d bytes remain, need 8", d.remaining())}
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *decoder) bytes(field string, n uint64) ([]byte, error) {
	if uint64(d.remaining()) < n {
		return nil, &FormatError{Field: field, Msg: fmt.Sprintf("length prefix %d exceeds remaining %d bytes", n, d.remaining())}
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:])
	d.pos += int(n)
	return out, nil
}

// Decode parses a guest input buffer. It is the exact inverse of Encode on
// well-formed input and fails with a FormatError on truncation, oversized
// length prefixes, or trailing unconsumed bytes.
func Decode(buf []byte) (GuestInput, error) {
	var in GuestInput

	d := &decoder{buf: buf}

	nProofs, err := d.uint64("proofs")
	if err != nil {
		return GuestInput{}, err
	}
	// Each proof costs at least its own length prefix, which bounds the
	// count before any allocation happens.
	if nProofs > uint64(d.remaining())/8 {
		return GuestInput{}, &FormatError{Field: "proofs", Msg: fmt.Sprintf("count %d exceeds remaining %d bytes", nProofs, d.remaining())}
	}

	in.Proofs = make([][]byte, nProofs)
	for i := range in.Proofs {
		n, err := d.uint64("proofs")
		if err != nil {
			return GuestInput{}, err
		}
		if in.Proofs[i], err = d.bytes("proofs", n); err != nil {
			return GuestInput{}, err
		}
	}

	nPoint, err := d.uint64("evaluation_point")
	if err != nil {
		return GuestInput{}, err
	}
	if nPoint > uint64(d.remaining())/ElementSize {
		return GuestInput{}, &FormatError{Field: "evaluation_point", Msg: fmt.Sprintf("count %d exceeds remaining %d bytes", nPoint, d.remaining())}
	}

	in.EvaluationPoint = make([][ElementSize]byte, nPoint)
	for i := range in.EvaluationPoint {
		elem, err := d.bytes("evaluation_point", ElementSize)
		if err != nil {
			return GuestInput{}, err
		}
		copy(in.EvaluationPoint[i][:], elem)
	}

	claim, err := d.bytes("evaluation_claim", ElementSize)
	if err != nil {
		return GuestInput{}, err
	}
	copy(in.EvaluationClaim[:], claim)

	if in.PackedLogLen, err = d.uint64("packed_log_len"); err != nil {
		return GuestInput{}, err
	}

	if d.remaining() != 0 {
		return GuestInput{}, &FormatError{Field: "payload", Msg: fmt.Sprintf("%d trailing bytes after tuple", d.remaining())}
	}

	return in, nil
}

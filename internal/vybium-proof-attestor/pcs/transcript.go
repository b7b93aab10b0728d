package pcs

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Transcript is a Fiat-Shamir transcript over the opening protocol. The
// prover appends entries with Send and derives challenges with
// SampleElement; the verifier replays the same entries with Receive so both
// sides observe an identical challenge stream. The serialized form is the
// opaque proof byte sequence carried inside the guest input.
type Transcript struct {
	state   []byte
	entries [][]byte
	readPos int
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{state: []byte{0}}
}

// Send appends an entry and absorbs it into the challenge state.
func (t *Transcript) Send(data []byte) {
	t.entries = append(t.entries, data)
	t.absorb(data)
}

// Receive consumes the next entry in order, absorbing it exactly as Send
// did on the prover side.
func (t *Transcript) Receive() ([]byte, error) {
	if t.readPos >= len(t.entries) {
		return nil, fmt.Errorf("transcript exhausted: no entry at position %d", t.readPos)
	}
	data := t.entries[t.readPos]
	t.readPos++
	t.absorb(data)
	return data, nil
}

// SampleElement squeezes one field element from the current challenge state.
func (t *Transcript) SampleElement() B128 {
	digest := sha3.Sum256(t.state)
	t.state = digest[:]

	var b [16]byte
	copy(b[:], digest[:16])
	return B128FromBytes(b)
}

func (t *Transcript) absorb(data []byte) {
	h := sha3.New256()
	h.Write(t.state)
	h.Write(data)
	t.state = h.Sum(nil)
}

// Bytes serializes the transcript entries as a length-framed sequence.
func (t *Transcript) Bytes() []byte {
	size := 0
	for _, e := range t.entries {
		size += 4 + len(e)
	}

	out := make([]byte, 0, size)
	for _, e := range t.entries {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(e)))
		out = append(out, e...)
	}
	return out
}

// ReconstructTranscript parses a serialized transcript so a verifier can
// replay it. A truncated or overrun frame is an error.
func ReconstructTranscript(buf []byte) (*Transcript, error) {
	t := NewTranscript()

	for pos := 0; pos < len(buf); {
		if len(buf)-pos < 4 {
			return nil, fmt.Errorf("transcript truncated: %d bytes remain mid-frame", len(buf)-pos)
		}
		n := int(binary.LittleEndian.Uint32(buf[pos:]))
		pos += 4

		if len(buf)-pos < n {
			return nil, fmt.Errorf("transcript frame of %d bytes exceeds remaining %d", n, len(buf)-pos)
		}
		entry := make([]byte, n)
		copy(entry, buf[pos:pos+n])
		pos += n

		t.entries = append(t.entries, entry)
	}

	return t, nil
}

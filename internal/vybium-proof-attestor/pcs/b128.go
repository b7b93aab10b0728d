package pcs

import "encoding/binary"

// B128 is an element of the binary field GF(2^128), the coordinate field of
// the multilinear polynomials being opened. Addition is XOR; multiplication
// is carryless multiplication reduced by x^128 + x^7 + x^2 + x + 1. Elements
// serialize as 16 little-endian bytes, the same encoding the guest input
// payload carries.
type B128 struct {
	Lo, Hi uint64
}

// B128Zero is the additive identity.
var B128Zero = B128{}

// B128One is the multiplicative identity.
var B128One = B128{Lo: 1}

// B128FromBytes deserializes a 16-byte little-endian element.
func B128FromBytes(b [16]byte) B128 {
	return B128{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// B128FromUint64 lifts a machine word into the field.
func B128FromUint64(v uint64) B128 {
	return B128{Lo: v}
}

// Bytes serializes the element as 16 little-endian bytes.
func (e B128) Bytes() [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], e.Lo)
	binary.LittleEndian.PutUint64(b[8:16], e.Hi)
	return b
}

// Add returns e + other. In characteristic 2 this is also subtraction.
func (e B128) Add(other B128) B128 {
	return B128{Lo: e.Lo ^ other.Lo, Hi: e.Hi ^ other.Hi}
}

// Mul returns e * other in GF(2^128).
func (e B128) Mul(other B128) B128 {
	var r B128
	a := e
	for i := 0; i < 128; i++ {
		var bit uint64
		if i < 64 {
			bit = (other.Lo >> uint(i)) & 1
		} else {
			bit = (other.Hi >> uint(i-64)) & 1
		}
		if bit == 1 {
			r.Lo ^= a.Lo
			r.Hi ^= a.Hi
		}
		// Shift a by one degree, folding x^128 back as x^7 + x^2 + x + 1.
		carry := a.Hi >> 63
		a.Hi = a.Hi<<1 | a.Lo>>63
		a.Lo <<= 1
		if carry == 1 {
			a.Lo ^= 0x87
		}
	}
	return r
}

// Equal reports whether two elements are identical.
func (e B128) Equal(other B128) bool {
	return e.Lo == other.Lo && e.Hi == other.Hi
}

// IsZero reports whether the element is the additive identity.
func (e B128) IsZero() bool {
	return e.Lo == 0 && e.Hi == 0
}

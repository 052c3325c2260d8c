// Package bits provides the bit-level helpers used to decode ISO 7816 header
// bytes and to prepare DES key material.
//
// Bits are numbered from 1 (least significant) to 8 (most significant), as in
// the ISO/IEC 7816-4 tables.
package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// GetRange extracts the value from a range of bits (e.g., bits 4 to 3).
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11)
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}

	width := high - low + 1
	mask := byte((1 << width) - 1)

	return (b >> (low - 1)) & mask
}

// Set returns b with bit n set.
func Set(b byte, n uint) byte {
	return b | Bit(n)
}

// Clear returns b with bit n cleared.
func Clear(b byte, n uint) byte {
	return b &^ Bit(n)
}

// Count returns the number of bits set in b.
func Count(b byte) int {
	count := 0
	for n := uint(1); n <= 8; n++ {
		if IsSet(b, n) {
			count++
		}
	}
	return count
}

// OddParity returns b with bit 1 adjusted so that the byte holds an odd number
// of set bits. DES keys carry their parity in that position.
func OddParity(b byte) byte {
	if Count(Clear(b, 1))%2 == 0 {
		return Set(b, 1)
	}
	return Clear(b, 1)
}

// AdjustParity applies OddParity to every byte of key, in place.
func AdjustParity(key []byte) {
	for i, b := range key {
		key[i] = OddParity(b)
	}
}

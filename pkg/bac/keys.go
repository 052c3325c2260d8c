package bac

import (
	"crypto/sha1"
	"encoding/binary"

	"github.com/gregLibert/epassport/pkg/bits"
)

// Key derivation counters (ICAO 9303 part 11, section 9.7.1).
const (
	counterEnc uint32 = 1
	counterMAC uint32 = 2
)

// KeySeed returns K_seed, the 16 most significant bytes of SHA-1 over the MRZ information.
func KeySeed(mrzInfo string) []byte {
	sum := sha1.Sum([]byte(mrzInfo))
	return sum[:16]
}

// DeriveKey derives a 3DES key from seed: SHA-1(seed || counter)[0:16], with
// DES parity bits adjusted.
func DeriveKey(seed []byte, counter uint32) []byte {
	input := make([]byte, len(seed)+4)
	copy(input, seed)
	binary.BigEndian.PutUint32(input[len(seed):], counter)

	sum := sha1.Sum(input)
	key := sum[:16]
	bits.AdjustParity(key)

	return key
}

// DeriveKeys returns the encryption and MAC keys for seed.
func DeriveKeys(seed []byte) (enc, mac []byte) {
	return DeriveKey(seed, counterEnc), DeriveKey(seed, counterMAC)
}

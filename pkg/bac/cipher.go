package bac

import (
	"crypto/cipher"
	"crypto/des"
	"crypto/subtle"
	"errors"
	"fmt"
)

var zeroIV = make([]byte, des.BlockSize)

// Pad applies ISO/IEC 9797-1 padding method 2: a mandatory 0x80 followed by
// zeros up to the next multiple of the DES block size.
func Pad(data []byte) []byte {
	padded := make([]byte, len(data)+1, len(data)+des.BlockSize)
	copy(padded, data)
	padded[len(data)] = 0x80
	for len(padded)%des.BlockSize != 0 {
		padded = append(padded, 0x00)
	}
	return padded
}

// Unpad removes ISO/IEC 9797-1 padding method 2.
func Unpad(data []byte) ([]byte, error) {
	for i := len(data) - 1; i >= 0; i-- {
		switch data[i] {
		case 0x00:
			continue
		case 0x80:
			return data[:i], nil
		default:
			return nil, errors.New("invalid padding")
		}
	}
	return nil, errors.New("padding marker not found")
}

// tripleDES builds a two-key 3DES cipher (K1 K2 K1) from a 16-byte key.
func tripleDES(key []byte) (cipher.Block, error) {
	if len(key) != 16 {
		return nil, fmt.Errorf("3DES key must be 16 bytes, got %d", len(key))
	}
	key24 := make([]byte, 24)
	copy(key24, key)
	copy(key24[16:], key[:8])

	return des.NewTripleDESCipher(key24)
}

// Encrypt encrypts block-aligned data with 3DES in CBC mode under a zero IV.
func Encrypt(key, data []byte) ([]byte, error) {
	if len(data)%des.BlockSize != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of %d", len(data), des.BlockSize)
	}
	block, err := tripleDES(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, zeroIV).CryptBlocks(out, data)
	return out, nil
}

// Decrypt reverses Encrypt.
func Decrypt(key, data []byte) ([]byte, error) {
	if len(data)%des.BlockSize != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of %d", len(data), des.BlockSize)
	}
	block, err := tripleDES(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, zeroIV).CryptBlocks(out, data)
	return out, nil
}

// MAC computes the ISO/IEC 9797-1 MAC algorithm 3 ("retail MAC") of padded
// data: single DES CBC under Ka, then a final decrypt with Kb and encrypt with Ka.
func MAC(key, data []byte) ([]byte, error) {
	if len(key) != 16 {
		return nil, fmt.Errorf("MAC key must be 16 bytes, got %d", len(key))
	}
	if len(data) == 0 || len(data)%des.BlockSize != 0 {
		return nil, fmt.Errorf("MAC input length %d is not a positive multiple of %d", len(data), des.BlockSize)
	}

	ka, err := des.NewCipher(key[:8])
	if err != nil {
		return nil, err
	}
	kb, err := des.NewCipher(key[8:16])
	if err != nil {
		return nil, err
	}

	h := make([]byte, des.BlockSize)
	for off := 0; off < len(data); off += des.BlockSize {
		subtle.XORBytes(h, h, data[off:off+des.BlockSize])
		ka.Encrypt(h, h)
	}
	kb.Decrypt(h, h)
	ka.Encrypt(h, h)

	return h, nil
}

// verifyMAC compares the retail MAC of data with mac in constant time.
func verifyMAC(key, data, mac []byte) (bool, error) {
	computed, err := MAC(key, data)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(computed, mac) == 1, nil
}

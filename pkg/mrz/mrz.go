// Package mrz decodes the Machine Readable Zone printed on travel documents
// (ICAO Doc 9303 parts 3 to 6) and builds the MRZ information string that
// seeds Basic Access Control.
//
// FORMATS:
//   - TD1: 3 lines of 30 characters (identity cards).
//   - TD2: 2 lines of 36 characters.
//   - TD3: 2 lines of 44 characters (passport booklets).
//
// The filler character '<' stands for a space or an absent value.
package mrz

import (
	"errors"
	"fmt"
	"strings"
)

// Filler is the MRZ padding character.
const Filler = '<'

// Total lengths of the supported formats, line breaks excluded.
const (
	LengthTD1 = 90
	LengthTD2 = 72
	LengthTD3 = 88
)

// ErrCheckDigit is returned when a field does not match its check digit.
var ErrCheckDigit = errors.New("check digit mismatch")

var weights = [3]int{7, 3, 1}

// CheckDigit computes the ICAO 9303 check digit of s (weights 7, 3, 1 repeating).
// Digits count for their value, letters A-Z for 10-35 and the filler for 0.
func CheckDigit(s string) (byte, error) {
	sum := 0
	for i, r := range s {
		var v int
		switch {
		case r >= '0' && r <= '9':
			v = int(r - '0')
		case r >= 'A' && r <= 'Z':
			v = int(r-'A') + 10
		case r == Filler:
			v = 0
		default:
			return 0, fmt.Errorf("invalid MRZ character %q at position %d", r, i)
		}
		sum += v * weights[i%3]
	}
	return byte('0' + sum%10), nil
}

// KeyInfo builds the MRZ information used to derive BAC keys:
// document number (padded to 9), birth date (YYMMDD) and expiry date (YYMMDD),
// each followed by its check digit.
func KeyInfo(documentNumber, birthDate, expiryDate string) (string, error) {
	documentNumber = strings.ToUpper(strings.TrimSpace(documentNumber))
	if len(documentNumber) < 9 {
		documentNumber += strings.Repeat(string(Filler), 9-len(documentNumber))
	}

	if len(birthDate) != 6 {
		return "", fmt.Errorf("birth date %q must be YYMMDD", birthDate)
	}
	if len(expiryDate) != 6 {
		return "", fmt.Errorf("expiry date %q must be YYMMDD", expiryDate)
	}

	var sb strings.Builder
	for _, field := range []string{documentNumber, birthDate, expiryDate} {
		cd, err := CheckDigit(field)
		if err != nil {
			return "", err
		}
		sb.WriteString(field)
		sb.WriteByte(cd)
	}

	return sb.String(), nil
}

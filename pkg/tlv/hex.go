package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hex joins hex fragments into bytes. Whitespace is ignored, so APDUs and
// TLV fixtures can be written "00 A4 02 0C" or split across lines.
// It panics on invalid input and is meant for fixtures and constants.
func Hex(parts ...string) []byte {
	clean := strings.Join(strings.Fields(strings.Join(parts, " ")), "")

	data, err := hex.DecodeString(clean)
	if err != nil {
		panic(fmt.Sprintf("invalid hex fixture %q: %v", clean, err))
	}
	return data
}

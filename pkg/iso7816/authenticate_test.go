package iso7816

import (
	"bytes"
	"testing"

	"github.com/gregLibert/epassport/pkg/tlv"
)

func TestAuthenticationCommands(t *testing.T) {
	cls, _ := NewClass(0x00)
	token := bytes.Repeat([]byte{0xAB}, 40)

	tests := []struct {
		name     string
		cmd      *CommandAPDU
		expected []byte
	}{
		{
			name:     "GET CHALLENGE for 8 bytes",
			cmd:      GetChallenge(cls, 8),
			expected: tlv.Hex("00 84 00 00 08"),
		},
		{
			name:     "MUTUAL AUTHENTICATE with 40-byte token",
			cmd:      ExternalAuthenticate(cls, token, 40),
			expected: append(append(tlv.Hex("00 82 00 00 28"), token...), 0x28),
		},
		{
			name:     "EXTERNAL AUTHENTICATE without response",
			cmd:      ExternalAuthenticate(cls, []byte{0x01, 0x02}, 0),
			expected: tlv.Hex("00 82 00 00 02 01 02"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Failed to encode bytes: %v", err)
			}
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Mismatch:\nExpected: %X\nGot:      %X", tt.expected, got)
			}
		})
	}
}

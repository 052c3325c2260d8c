package iso7816

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/gregLibert/epassport/pkg/tlv"
)

func TestReadBinary(t *testing.T) {
	cls, _ := NewClass(0x00)

	tests := []struct {
		name     string
		offset   uint16
		ne       int
		expected []byte
		wantErr  bool
	}{
		{
			name:     "Initial read of a tag and 1-byte length",
			offset:   0,
			ne:       2,
			expected: tlv.Hex("00 B0 00 00 02"),
		},
		{
			name:     "Chunk at offset 0x0104",
			offset:   0x0104,
			ne:       100,
			expected: tlv.Hex("00 B0 01 04 64"),
		},
		{
			name:     "Largest offset",
			offset:   MaxReadBinaryOffset,
			ne:       1,
			expected: tlv.Hex("00 B0 7F FF 01"),
		},
		{
			name:    "Offset needs odd INS",
			offset:  0x8000,
			ne:      1,
			wantErr: true,
		},
		{
			name:    "Zero length",
			offset:  0,
			ne:      0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ReadBinary(cls, tt.offset, tt.ne)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadBinary() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			got, err := cmd.Bytes()
			if err != nil {
				t.Fatalf("Failed to encode bytes: %v", err)
			}
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Mismatch:\nExpected: %s\nGot:      %s",
					hex.EncodeToString(tt.expected),
					hex.EncodeToString(got))
			}
		})
	}
}

func TestReadBinarySFI(t *testing.T) {
	cls, _ := NewClass(0x00)

	cmd, err := ReadBinarySFI(cls, 0x1E, 0x00, 4)
	if err != nil {
		t.Fatalf("ReadBinarySFI() error = %v", err)
	}
	got, _ := cmd.Bytes()
	if want := tlv.Hex("00 B0 9E 00 04"); !bytes.Equal(got, want) {
		t.Errorf("ReadBinarySFI() = %X, want %X", got, want)
	}

	if _, err := ReadBinarySFI(cls, 31, 0, 4); err == nil {
		t.Error("expected error for SFI 31")
	}
}

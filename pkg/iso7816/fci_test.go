package iso7816

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/gregLibert/epassport/pkg/tlv"
)

func TestParseSelectData(t *testing.T) {
	// P2 constants: Selection control is on bits 4 and 3.
	const (
		P2_FCI     byte = 0b0000_00_00
		P2_FCP     byte = 0b0000_01_00
		P2_FMD     byte = 0b0000_10_00
		P2_NO_DATA byte = 0b0000_11_00
	)

	tests := []struct {
		name      string
		rawData   []byte
		p2        byte
		wantNil   bool
		wantAID   string
		wantLabel string
		wantSize  int
		wantErr   bool
		check     func(*FileControlInfo) bool
	}{
		{
			name: "FCI with FCP (62) wrapped in 6F",
			rawData: tlv.Hex(
				"6F 09",            // FCI Template (Len 9)
				"62 07",            // FCP Template (Len 7)
				"84 05 A000000001", // AID
			),
			p2:      P2_FCI,
			wantAID: "A000000001",
		},
		{
			name: "FCI with FMD (64) wrapped in 6F",
			rawData: tlv.Hex(
				"6F 07",        // FCI Template (Len 7)
				"64 05",        // FMD Template (Len 5)
				"50 03 414243", // Label "ABC"
			),
			p2:        P2_FCI,
			wantLabel: "ABC",
		},
		{
			name: "FCP of EF.COM with data size",
			rawData: tlv.Hex(
				"62 0B",      // FCP Template (Len 11)
				"80 02 0123", // Data size 291
				"82 01 01",   // Transparent EF
				"83 02 011E", // File identifier
			),
			p2:       P2_FCP,
			wantSize: 291,
			check: func(fci *FileControlInfo) bool {
				return hex.EncodeToString(fci.FCP.FileIdentifier) == "011e"
			},
		},
		{
			name: "FCP with total size only",
			rawData: tlv.Hex(
				"62 04",
				"81 02 0400",
			),
			p2:       P2_FCP,
			wantSize: 1024,
		},
		{
			name: "Direct FMD Request (Mandatory 64)",
			rawData: tlv.Hex(
				"64 05",        // FMD Template (Len 5)
				"50 03 58595A", // Label "XYZ"
			),
			p2:        P2_FMD,
			wantLabel: "XYZ",
		},
		{
			name: "Error: Mismatch P2 vs Data",
			rawData: tlv.Hex(
				"64 05",        // Received FMD
				"50 03 58595A", // Label
			),
			p2:      P2_FCP, // But requested FCP
			wantErr: true,
		},
		{
			name:    "Error: Size does not fit",
			rawData: tlv.Hex("62 0B", "80 09 010203040506070809"),
			p2:      P2_FCP,
			wantErr: true,
		},
		{
			name:    "Proprietary Response (C0)",
			rawData: tlv.Hex("C0 01 FF"),
			p2:      P2_FCI,
			check: func(fci *FileControlInfo) bool {
				return fci.Proprietary != nil && fci.FCP == nil
			},
		},
		{
			name: "Fallback: No Template",
			rawData: tlv.Hex(
				"84 05 A000000003", // Raw AID tag
			),
			p2:      P2_FCI,
			wantAID: "A000000003",
		},
		{
			name: "Unknown Tag Capture in FCP",
			rawData: tlv.Hex(
				"62 0B",            // FCP Template (Len 11)
				"84 05 A000000004", // AID (7 bytes total)
				"99 02 CAFE",       // Unknown Tag 99 (4 bytes total)
			),
			p2:      P2_FCP,
			wantAID: "A000000004",
			check: func(fci *FileControlInfo) bool {
				if len(fci.FCP.Unknown) != 1 {
					return false
				}
				tag := fci.FCP.Unknown[0]
				return tag.Tag == "99" && hex.EncodeToString(tag.Value) == "cafe"
			},
		},
		{
			name:    "No data requested",
			rawData: tlv.Hex("80 01 05"),
			p2:      P2_NO_DATA,
			wantNil: true,
		},
		{
			name:    "Empty data field",
			rawData: nil,
			p2:      P2_FCI,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelectData(tt.rawData, tt.p2)

			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSelectData() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				return
			}

			if tt.wantNil {
				if got != nil {
					t.Errorf("Expected nil result, got %+v", got)
				}
				return
			}

			if got == nil {
				t.Fatal("Expected result, got nil")
			}

			if tt.wantAID != "" {
				aid := strings.ToUpper(hex.EncodeToString(got.DFName()))
				if aid != tt.wantAID {
					t.Errorf("AID mismatch. Got %s, want %s", aid, tt.wantAID)
				}
			}

			if tt.wantLabel != "" {
				if got.FMD == nil || string(got.FMD.ApplicationLabel) != tt.wantLabel {
					t.Errorf("Label mismatch. Got %+v, want %s", got.FMD, tt.wantLabel)
				}
			}

			size, ok := got.FileSize()
			if tt.wantSize != 0 && (!ok || size != tt.wantSize) {
				t.Errorf("FileSize() = %d, %v; want %d", size, ok, tt.wantSize)
			}
			if tt.wantSize == 0 && ok {
				t.Errorf("FileSize() = %d, want none", size)
			}

			if tt.check != nil {
				if !tt.check(got) {
					t.Errorf("Custom check failed")
				}
			}
		})
	}
}

package epass

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/epassport/pkg/tlv"
)

var testFID = []byte{0x01, 0x1E}

// buildFile returns offset header bytes, a width-byte big-endian length and length bytes of body.
func buildFile(width, offset, length int) []byte {
	content := bytes.Repeat([]byte{0x60}, offset)
	for i := width - 1; i >= 0; i-- {
		content = append(content, byte(length>>(8*i)))
	}
	for i := 0; i < length; i++ {
		content = append(content, byte(i*7))
	}
	return content
}

func newSelectedChip(t *testing.T, content []byte) (*fakeChip, *Card) {
	t.Helper()
	chip := newFakeChip()
	chip.addFile(testFID, content)
	card := NewCard(chip)
	if err := card.SelectEF(testFID); err != nil {
		t.Fatalf("SelectEF failed: %v", err)
	}
	return chip, card
}

func TestReadFile_Lengths(t *testing.T) {
	tests := []struct {
		width, offset, length int
	}{
		{1, 1, 0},
		{1, 1, 5},
		{1, 1, 99},
		{1, 1, 100},
		{1, 1, 200},
		{1, 1, 255},
		{2, 2, 0},
		{2, 2, 301},
		{2, 2, 1234},
		{3, 2, 450},
		{4, 0, 101},
		{4, 4, 800},
		{1, 254, 17},
		{2, 253, 300},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("w%d_o%d_L%d", tt.width, tt.offset, tt.length), func(t *testing.T) {
			fixture := buildFile(tt.width, tt.offset, tt.length)
			chip, card := newSelectedChip(t, fixture)

			got, err := card.ReadFile(tt.width, tt.offset)
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}

			if len(got) != tt.width+tt.offset+tt.length {
				t.Errorf("length = %d, want %d", len(got), tt.width+tt.offset+tt.length)
			}
			if !bytes.Equal(got, fixture) {
				t.Error("content does not match the fixture")
			}

			sizes := chip.readSizes()
			if sizes[0] != tt.width+tt.offset {
				t.Errorf("initial read of %d bytes, want %d", sizes[0], tt.width+tt.offset)
			}
			total := 0
			for i, n := range sizes {
				if i > 0 && n > MaxChunkSize {
					t.Errorf("chunk %d requested %d bytes", i, n)
				}
				total += n
			}
			if total != len(fixture) {
				t.Errorf("reads sum to %d bytes, want %d", total, len(fixture))
			}

			wantChunks := (tt.length + MaxChunkSize - 1) / MaxChunkSize
			if len(sizes)-1 != wantChunks {
				t.Errorf("%d chunks, want %d", len(sizes)-1, wantChunks)
			}
		})
	}
}

func TestReadFile_Scenario(t *testing.T) {
	fixture := tlv.Hex("6005", "0102030405")
	chip, card := newSelectedChip(t, fixture)

	got, err := card.ReadFile(1, 1)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if diff := cmp.Diff(fixture, got); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 5}, chip.readSizes()); diff != "" {
		t.Errorf("read sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFile_ShortReads(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		override map[int]int
	}{
		{
			name:    "Initial read truncated",
			content: tlv.Hex("60"),
		},
		{
			name:     "First chunk short",
			content:  buildFile(2, 2, 250),
			override: map[int]int{4: 99},
		},
		{
			name:     "Middle chunk short",
			content:  buildFile(2, 2, 250),
			override: map[int]int{104: 10},
		},
		{
			name:     "Last chunk short",
			content:  buildFile(2, 2, 250),
			override: map[int]int{204: 49},
		},
		{
			name:     "Chunk longer than requested",
			content:  buildFile(2, 2, 250),
			override: map[int]int{104: 101},
		},
		{
			name:    "File shorter than declared",
			content: buildFile(1, 1, 150)[:120],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip, card := newSelectedChip(t, tt.content)
			for k, v := range tt.override {
				chip.chunkOverride[k] = v
			}

			width, offset := 1, 1
			if tt.override != nil {
				width, offset = 2, 2
			}

			got, err := card.ReadFile(width, offset)
			if !errors.Is(err, ErrShortRead) {
				t.Fatalf("expected ErrShortRead, got %v", err)
			}
			if got != nil {
				t.Errorf("partial content returned: %d bytes", len(got))
			}
		})
	}
}

func TestReadFile_InvalidArguments(t *testing.T) {
	tests := []struct {
		name          string
		width, offset int
	}{
		{"Zero width", 0, 1},
		{"Width too large", 5, 0},
		{"Negative offset", 1, -1},
		{"Beyond single read", 2, 254},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip, card := newSelectedChip(t, buildFile(1, 1, 3))

			_, err := card.ReadFile(tt.width, tt.offset)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if len(chip.readSizes()) != 0 {
				t.Error("a READ BINARY was sent for invalid arguments")
			}
		})
	}
}

func TestReadFile_BeyondAddressing(t *testing.T) {
	_, card := newSelectedChip(t, tlv.Hex("7582FFFF"))

	_, err := card.ReadFile(2, 2)
	if !errors.Is(err, ErrMalformedFile) {
		t.Fatalf("expected ErrMalformedFile, got %v", err)
	}
}

func TestReadBinary(t *testing.T) {
	chip, card := newSelectedChip(t, tlv.Hex("60145F0104303130375F3606"))

	got, err := card.ReadBinary(2, 4)
	if err != nil {
		t.Fatalf("ReadBinary failed: %v", err)
	}
	if diff := cmp.Diff(tlv.Hex("5F010430"), got); diff != "" {
		t.Errorf("ReadBinary mismatch (-want +got):\n%s", diff)
	}

	raw, err := chip.commands[len(chip.commands)-1].Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(tlv.Hex("00B0000204"), raw); diff != "" {
		t.Errorf("APDU mismatch (-want +got):\n%s", diff)
	}

	for _, n := range []int{0, 256} {
		if _, err := card.ReadBinary(0, n); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ReadBinary(0, %d) = %v, want ErrInvalidArgument", n, err)
		}
	}
	if _, err := card.ReadBinary(0x8000, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ReadBinary beyond 15-bit offset = %v, want ErrInvalidArgument", err)
	}
}

func TestReadBinary_StatusError(t *testing.T) {
	_, card := newSelectedChip(t, tlv.Hex("6001"))

	_, err := card.ReadBinary(10, 1)
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

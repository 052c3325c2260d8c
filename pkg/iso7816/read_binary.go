package iso7816

import (
	"fmt"
)

// READ BINARY COMMAND LOGIC (ISO 7816-4):
// The READ BINARY command (INS 'B0') reads a slice of a transparent EF.
//
// P1-P2 (Offset):
// - If bit 8 of P1 is 0, P1-P2 encode the offset on 15 bits (0 to 32767)
//   into the currently selected EF.
// - If bit 8 of P1 is 1, bits 5-1 of P1 are a Short File Identifier and
//   P2 is an 8-bit offset. This form selects the file implicitly.
//
// Le: number of bytes to read. Larger offsets need the odd INS 'B1' with an
// offset data object, which this package does not build.

// MaxReadBinaryOffset is the largest offset addressable with the even READ BINARY instruction.
const MaxReadBinaryOffset = 0x7FFF

// ReadBinary creates a READ BINARY command reading ne bytes from offset in the current EF.
func ReadBinary(cla Class, offset uint16, ne int) (*CommandAPDU, error) {
	if offset > MaxReadBinaryOffset {
		return nil, fmt.Errorf("offset %d exceeds the 15-bit READ BINARY range", offset)
	}
	if ne < 1 || ne > MaxShortLe {
		return nil, fmt.Errorf("expected length %d out of range (1-%d)", ne, MaxShortLe)
	}

	ins := instruction(INS_READ_BINARY)

	p1 := byte(offset>>8) & 0x7F
	p2 := byte(offset)

	return NewCommandAPDU(cla, ins, p1, p2, nil, ne), nil
}

// ReadBinarySFI creates a READ BINARY command addressing the file by Short File Identifier.
func ReadBinarySFI(cla Class, sfi byte, offset byte, ne int) (*CommandAPDU, error) {
	if sfi == 0 || sfi > 30 {
		return nil, fmt.Errorf("SFI %d out of range (1-30)", sfi)
	}
	if ne < 1 || ne > MaxShortLe {
		return nil, fmt.Errorf("expected length %d out of range (1-%d)", ne, MaxShortLe)
	}

	ins := instruction(INS_READ_BINARY)

	return NewCommandAPDU(cla, ins, 0x80|sfi, offset, nil, ne), nil
}

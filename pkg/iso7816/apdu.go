package iso7816

import (
	"fmt"
)

// Command and response APDUs (ISO/IEC 7816-3 §12, 7816-4 §5.1).
//
// A command is a 4-byte header (CLA INS P1 P2) optionally followed by
// Lc + data and/or Le. Short fields take one byte (Lc up to 255, Le up to
// 256 encoded as '00'); extended fields take a '00' marker and two bytes.
// Extended encoding is used as soon as either length needs it.
//
// A response is an optional data field followed by SW1 SW2.

const (
	// MaxShortLc is the largest Nc encodable with a one-byte Lc.
	MaxShortLc = 255

	// MaxShortLe is the largest Ne encodable with a one-byte Le ('00').
	MaxShortLe = 256

	// MaxExtendedLc is the largest Nc encodable with a two-byte Lc.
	MaxExtendedLc = 65535

	// MaxExtendedLe is the largest Ne encodable with a two-byte Le ('0000').
	MaxExtendedLe = 65536
)

// CommandAPDU is a command sent to the card.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means none)
}

// NewCommandAPDU creates a command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// Header returns CLA INS P1 P2. Secure messaging authenticates it.
func (c *CommandAPDU) Header() ([]byte, error) {
	cla, err := c.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode Class: %w", err)
	}
	return []byte{cla, byte(c.Instruction.Raw), c.P1, c.P2}, nil
}

// IsExtended reports whether the command needs extended length fields.
func (c *CommandAPDU) IsExtended() bool {
	return len(c.Data) > MaxShortLc || c.Ne > MaxShortLe
}

// Bytes encodes the command, choosing short or extended length fields.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	out, err := c.Header()
	if err != nil {
		return nil, err
	}

	nc, ne := len(c.Data), c.Ne
	if nc > MaxExtendedLc {
		return nil, fmt.Errorf("data field of %d bytes exceeds %d", nc, MaxExtendedLc)
	}
	if ne < 0 || ne > MaxExtendedLe {
		return nil, fmt.Errorf("expected length %d out of range (0-%d)", ne, MaxExtendedLe)
	}
	extended := c.IsExtended()

	if nc > 0 {
		if extended {
			out = append(out, 0x00, byte(nc>>8), byte(nc))
		} else {
			out = append(out, byte(nc))
		}
		out = append(out, c.Data...)
	}

	if ne > 0 {
		switch {
		case !extended:
			// 256 wraps to '00'.
			out = append(out, byte(ne))
		case nc == 0:
			// Without Lc the extended Le needs its own '00' marker.
			out = append(out, 0x00, byte(ne>>8), byte(ne))
		default:
			out = append(out, byte(ne>>8), byte(ne))
		}
	}

	return out, nil
}

// String returns a readable summary of the command.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Verbose(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU is the reply from the card.
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits raw into data and status word.
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	n := len(raw) - 2
	return &ResponseAPDU{
		Data:   raw[:n],
		Status: NewStatusWord(raw[n], raw[n+1]),
	}, nil
}

// String returns a readable summary of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}

// Bytes re-encodes the response as it travelled on the wire: data followed by SW1 SW2.
func (r *ResponseAPDU) Bytes() []byte {
	raw := make([]byte, 0, len(r.Data)+2)
	raw = append(raw, r.Data...)
	return append(raw, r.Status.SW1(), r.Status.SW2())
}

// Err returns a *StatusError when the response does not carry SW_NO_ERROR.
func (r *ResponseAPDU) Err() error {
	if r.Status != SW_NO_ERROR {
		return &StatusError{Status: r.Status}
	}
	return nil
}

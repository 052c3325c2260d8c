package iso7816

import (
	"fmt"

	"github.com/gregLibert/epassport/pkg/bits"
)

// Class byte (CLA), ISO/IEC 7816-4 §5.4.1.
//
//	Bit 8:    proprietary (1) or interindustry (0).
//	Bit 7:    first (0) or further (1) interindustry class.
//	Bit 5:    command chaining.
//	First:    bits 4-3 secure messaging, bits 2-1 logical channel 0-3.
//	Further:  bit 6 secure messaging, bits 4-1 logical channel minus 4.
//
// Passport commands use channel 0. Under Basic Access Control every command
// after the handshake carries CLA '0C': ISO secure messaging with an
// authenticated header.

// SecureMessaging is the SM indication of a CLA byte.
type SecureMessaging int

const (
	// SMNone indicates no secure messaging or no indication given.
	SMNone SecureMessaging = 0
	// SMProprietary indicates a proprietary secure messaging format (first interindustry only).
	SMProprietary SecureMessaging = 1
	// SMHeaderNoProc indicates ISO secure messaging, header not processed.
	SMHeaderNoProc SecureMessaging = 2
	// SMHeaderAuth indicates ISO secure messaging with an authenticated header (first interindustry only).
	SMHeaderAuth SecureMessaging = 3
)

// Class is a decoded CLA byte.
type Class struct {
	Raw             byte
	IsProprietary   bool
	IsChained       bool
	SecureMessaging SecureMessaging
	Channel         uint8 // 0-19
}

// NewClass decodes a raw CLA byte.
func NewClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("invalid CLA value: 0xFF is reserved")
	}

	c := Class{Raw: cla}

	if bits.IsSet(cla, 8) {
		c.IsProprietary = true
		return c, nil
	}

	c.IsChained = bits.IsSet(cla, 5)

	if !bits.IsSet(cla, 7) {
		c.SecureMessaging = SecureMessaging(bits.GetRange(cla, 4, 3))
		c.Channel = bits.GetRange(cla, 2, 1)
	} else {
		if bits.IsSet(cla, 6) {
			c.SecureMessaging = SMHeaderNoProc
		}
		c.Channel = bits.GetRange(cla, 4, 1) + 4
	}

	return c, nil
}

// WithSecureMessaging returns a copy of c carrying the SM indication sm.
// Chaining and channel are preserved. Proprietary classes cannot be changed.
func (c Class) WithSecureMessaging(sm SecureMessaging) (Class, error) {
	if c.IsProprietary {
		return Class{}, fmt.Errorf("cannot set secure messaging on proprietary class %02X", c.Raw)
	}
	if sm < SMNone || sm > SMHeaderAuth {
		return Class{}, fmt.Errorf("invalid SM indication %d", sm)
	}
	// Further interindustry classes only carry one SM bit.
	if c.Channel >= 4 && (sm == SMProprietary || sm == SMHeaderAuth) {
		return Class{}, fmt.Errorf("SM indication %d not supported on channel %d", sm, c.Channel)
	}

	out := c
	out.SecureMessaging = sm
	raw, err := out.Encode()
	if err != nil {
		return Class{}, err
	}
	out.Raw = raw
	return out, nil
}

// Encode converts the Class back to its byte representation.
func (c *Class) Encode() (byte, error) {
	if c.IsProprietary {
		return c.Raw, nil
	}
	if c.Channel > 19 {
		return 0, fmt.Errorf("channel %d out of range (max 19)", c.Channel)
	}

	var res byte
	if c.IsChained {
		res = bits.Set(res, 5)
	}

	if c.Channel <= 3 {
		res |= byte(c.SecureMessaging) << 2
		res |= c.Channel
		return res, nil
	}

	res = bits.Set(res, 7)
	if c.SecureMessaging != SMNone {
		res = bits.Set(res, 6)
	}
	res |= c.Channel - 4
	return res, nil
}

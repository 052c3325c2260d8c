package bac

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gregLibert/epassport/pkg/iso7816"
)

// Secure messaging data objects (ISO 7816-4, section 6).
const (
	tagEncryptedData    = 0x87 // padding-content indicator + cryptogram
	tagEncryptedDataBER = 0x85 // cryptogram, odd INS
	tagExpectedLength   = 0x97
	tagProcessingStatus = 0x99
	tagChecksum         = 0x8E

	paddingIndicator = 0x01
	checksumLen      = 8
)

// ErrSecureMessaging reports a response that could not be authenticated or
// decoded. The session keys can no longer be trusted after it.
var ErrSecureMessaging = errors.New("secure messaging failure")

// SecureMessaging wraps and unwraps APDUs with the BAC session keys.
type SecureMessaging struct {
	ksEnc []byte
	ksMAC []byte
	ssc   []byte
}

// NewSecureMessaging creates a channel from the session keys and the initial send sequence counter.
func NewSecureMessaging(ksEnc, ksMAC, ssc []byte) *SecureMessaging {
	return &SecureMessaging{
		ksEnc: bytes.Clone(ksEnc),
		ksMAC: bytes.Clone(ksMAC),
		ssc:   bytes.Clone(ssc),
	}
}

// SSC returns a copy of the current send sequence counter.
func (sm *SecureMessaging) SSC() []byte {
	return bytes.Clone(sm.ssc)
}

func (sm *SecureMessaging) incrementSSC() {
	for i := len(sm.ssc) - 1; i >= 0; i-- {
		sm.ssc[i]++
		if sm.ssc[i] != 0 {
			return
		}
	}
}

// Wrap protects cmd. The returned command has the SM bits set in CLA, carries
// DO'87'/DO'85', DO'97' and DO'8E' as data and always expects a response.
func (sm *SecureMessaging) Wrap(cmd *iso7816.CommandAPDU) (*iso7816.CommandAPDU, error) {
	if cmd.IsExtended() {
		return nil, fmt.Errorf("secure messaging supports short APDUs only")
	}
	cla, err := cmd.Class.WithSecureMessaging(iso7816.SMHeaderAuth)
	if err != nil {
		return nil, err
	}
	wrapped := iso7816.NewCommandAPDU(cla, cmd.Instruction, cmd.P1, cmd.P2, nil, iso7816.MaxShortLe)
	header, err := wrapped.Header()
	if err != nil {
		return nil, err
	}
	header = Pad(header)

	sm.incrementSSC()

	var do87 []byte
	if len(cmd.Data) > 0 {
		encrypted, err := Encrypt(sm.ksEnc, Pad(cmd.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt command data: %w", err)
		}
		if cmd.Instruction.IsBERTLV {
			do87 = encodeDO(tagEncryptedDataBER, encrypted)
		} else {
			do87 = encodeDO(tagEncryptedData, append([]byte{paddingIndicator}, encrypted...))
		}
	}

	var do97 []byte
	if cmd.Ne > 0 {
		// Short Le: 256 is encoded as 00.
		do97 = encodeDO(tagExpectedLength, []byte{byte(cmd.Ne)})
	}

	macInput := make([]byte, 0, len(sm.ssc)+len(header)+len(do87)+len(do97)+8)
	macInput = append(macInput, sm.ssc...)
	macInput = append(macInput, header...)
	macInput = append(macInput, do87...)
	macInput = append(macInput, do97...)

	cc, err := MAC(sm.ksMAC, Pad(macInput))
	if err != nil {
		return nil, fmt.Errorf("failed to compute command MAC: %w", err)
	}

	data := make([]byte, 0, len(do87)+len(do97)+2+checksumLen)
	data = append(data, do87...)
	data = append(data, do97...)
	data = append(data, encodeDO(tagChecksum, cc)...)

	wrapped.Data = data
	return wrapped, nil
}

// Unwrap verifies and decodes a protected response, returning the plain
// response data followed by the status word carried in DO'99'.
//
// A bare status word is returned unchanged when it signals an error: chips
// answer unprotected when they abort secure messaging.
func (sm *SecureMessaging) Unwrap(raw []byte) ([]byte, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: response too short (%d bytes)", ErrSecureMessaging, len(raw))
	}
	if len(raw) == 2 {
		if iso7816.NewStatusWord(raw[0], raw[1]) == iso7816.SW_NO_ERROR {
			return nil, fmt.Errorf("%w: unprotected success status", ErrSecureMessaging)
		}
		return bytes.Clone(raw), nil
	}

	objects, err := splitDOs(raw[:len(raw)-2])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSecureMessaging, err)
	}

	sm.incrementSSC()

	var do87, do99, cc []byte
	for _, obj := range objects {
		switch obj.tag {
		case tagEncryptedData, tagEncryptedDataBER:
			do87 = obj.raw
		case tagProcessingStatus:
			do99 = obj.raw
		case tagChecksum:
			cc = obj.value
		}
	}

	if do99 == nil || len(do99) != 4 {
		return nil, fmt.Errorf("%w: missing processing status DO'99'", ErrSecureMessaging)
	}
	if len(cc) != checksumLen {
		return nil, fmt.Errorf("%w: missing checksum DO'8E'", ErrSecureMessaging)
	}

	macInput := make([]byte, 0, len(sm.ssc)+len(do87)+len(do99)+8)
	macInput = append(macInput, sm.ssc...)
	macInput = append(macInput, do87...)
	macInput = append(macInput, do99...)

	ok, err := verifyMAC(sm.ksMAC, Pad(macInput), cc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSecureMessaging, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: response MAC mismatch", ErrSecureMessaging)
	}

	var data []byte
	if do87 != nil {
		data, err = sm.decryptDO87(do87)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSecureMessaging, err)
		}
	}

	return append(data, do99[2:]...), nil
}

func (sm *SecureMessaging) decryptDO87(do []byte) ([]byte, error) {
	objects, err := splitDOs(do)
	if err != nil {
		return nil, err
	}
	value := objects[0].value
	if objects[0].tag == tagEncryptedData {
		if len(value) == 0 || value[0] != paddingIndicator {
			return nil, errors.New("unsupported padding-content indicator")
		}
		value = value[1:]
	}

	plain, err := Decrypt(sm.ksEnc, value)
	if err != nil {
		return nil, err
	}
	return Unpad(plain)
}

// dataObject is one SM data object with its encoded form kept for MAC computation.
type dataObject struct {
	tag   byte
	value []byte
	raw   []byte
}

// splitDOs walks a sequence of single-byte-tag data objects.
func splitDOs(b []byte) ([]dataObject, error) {
	var objects []dataObject
	for off := 0; off < len(b); {
		start := off
		tag := b[off]
		off++

		length, n, err := decodeLength(b[off:])
		if err != nil {
			return nil, fmt.Errorf("data object %02X: %w", tag, err)
		}
		off += n
		if off+length > len(b) {
			return nil, fmt.Errorf("data object %02X: length %d overflows response", tag, length)
		}

		objects = append(objects, dataObject{
			tag:   tag,
			value: b[off : off+length],
			raw:   b[start : off+length],
		})
		off += length
	}
	if len(objects) == 0 {
		return nil, errors.New("no data object found")
	}
	return objects, nil
}

func encodeDO(tag byte, value []byte) []byte {
	do := []byte{tag}
	do = append(do, encodeLength(len(value))...)
	return append(do, value...)
}

// encodeLength produces a BER definite length.
func encodeLength(n int) []byte {
	switch {
	case n < 0x80:
		return []byte{byte(n)}
	case n <= 0xFF:
		return []byte{0x81, byte(n)}
	default:
		return []byte{0x82, byte(n >> 8), byte(n)}
	}
}

func decodeLength(b []byte) (length, size int, err error) {
	if len(b) == 0 {
		return 0, 0, errors.New("missing length")
	}
	switch {
	case b[0] < 0x80:
		return int(b[0]), 1, nil
	case b[0] == 0x81 && len(b) >= 2:
		return int(b[1]), 2, nil
	case b[0] == 0x82 && len(b) >= 3:
		return int(b[1])<<8 | int(b[2]), 3, nil
	default:
		return 0, 0, fmt.Errorf("unsupported length encoding %02X", b[0])
	}
}

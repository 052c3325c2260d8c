package iso7816

import (
	"fmt"

	"github.com/gregLibert/epassport/pkg/bits"
	"github.com/gregLibert/epassport/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// File control information returned by SELECT (ISO/IEC 7816-4 §7.4).
//
// Bits 4-3 of P2 choose what the card sends back:
//   - 00: FCI, an optional '6F' wrapper holding '62' and/or '64'.
//   - 01: FCP, a mandatory '62' template.
//   - 10: FMD, a mandatory '64' template.
//   - 11: nothing. Passport applets are normally selected this way.

// FCPTemplate holds the file control parameters (tag '62').
type FCPTemplate struct {
	DataSize       int    `tlv:"80"`
	TotalSize      int    `tlv:"81"`
	FileDescriptor []byte `tlv:"82"`
	FileIdentifier []byte `tlv:"83"`
	DFName         []byte `tlv:"84" fmt:"ascii"`
	ShortEFID      []byte `tlv:"88"`
	LifeCycle      []byte `tlv:"8A"`
	SecurityAttr   []byte `tlv:"8C"`
	Proprietary    []byte `tlv:"A5"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FMDTemplate holds the file management data (tag '64').
type FMDTemplate struct {
	ApplicationID    []byte `tlv:"84" fmt:"ascii"`
	ApplicationLabel []byte `tlv:"50" fmt:"ascii"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FileControlInfo is the parsed data field of a SELECT response.
type FileControlInfo struct {
	FCP *FCPTemplate
	FMD *FMDTemplate

	// Proprietary is set when the card answers with a proprietary
	// (class C0..FF) structure instead of BER-TLV templates.
	Proprietary []byte
}

// FileSize returns the number of data bytes of the selected EF, as
// announced by tag '80' (or '81' when '80' is absent).
func (fci *FileControlInfo) FileSize() (int, bool) {
	if fci == nil || fci.FCP == nil {
		return 0, false
	}
	switch {
	case fci.FCP.DataSize > 0:
		return fci.FCP.DataSize, true
	case fci.FCP.TotalSize > 0:
		return fci.FCP.TotalSize, true
	}
	return 0, false
}

// DFName returns the application identifier reported by the card, if any.
func (fci *FileControlInfo) DFName() []byte {
	if fci == nil {
		return nil
	}
	if fci.FCP != nil && len(fci.FCP.DFName) > 0 {
		return fci.FCP.DFName
	}
	if fci.FMD != nil {
		return fci.FMD.ApplicationID
	}
	return nil
}

// ParseSelectData decodes the data field of a SELECT response according to
// the P2 the command was sent with. It returns nil, nil for an empty field.
func ParseSelectData(data []byte, p2 byte) (*FileControlInfo, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] >= 0xC0 {
		return &FileControlInfo{Proprietary: data}, nil
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding select data: %w", err)
	}

	fci := &FileControlInfo{}

	switch bits.GetRange(p2, 4, 3) {
	case 0b01:
		fci.FCP = &FCPTemplate{}
		return fci, decodeTemplate(packets, "62", fci.FCP)
	case 0b10:
		fci.FMD = &FMDTemplate{}
		return fci, decodeTemplate(packets, "64", fci.FMD)
	case 0b00:
		inner := packets
		if wrapper, ok := tlv.Find(packets, "6F"); ok {
			inner = wrapper.TLVs
		}

		if _, ok := tlv.Find(inner, "62"); ok {
			fci.FCP = &FCPTemplate{}
			if err := decodeTemplate(inner, "62", fci.FCP); err != nil {
				return nil, err
			}
		}
		if _, ok := tlv.Find(inner, "64"); ok {
			fci.FMD = &FMDTemplate{}
			if err := decodeTemplate(inner, "64", fci.FMD); err != nil {
				return nil, err
			}
		}

		// Some cards put the parameters directly inside '6F'.
		if fci.FCP == nil && fci.FMD == nil {
			fci.FCP = &FCPTemplate{}
			if err := tlv.UnmarshalFromPackets(inner, fci.FCP); err != nil {
				return nil, fmt.Errorf("decoding flat FCI: %w", err)
			}
		}
		return fci, nil
	default:
		return nil, nil
	}
}

func decodeTemplate(packets []bertlv.TLV, tag string, target interface{}) error {
	p, ok := tlv.Find(packets, tag)
	if !ok {
		return fmt.Errorf("mandatory template '%s' not found", tag)
	}
	if err := tlv.UnmarshalFromPackets(p.TLVs, target); err != nil {
		return fmt.Errorf("template '%s': %w", tag, err)
	}
	return nil
}

package lds

import (
	"fmt"
	"strings"

	"github.com/gregLibert/epassport/pkg/mrz"
	"github.com/gregLibert/epassport/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// DG1 holds the MRZ as written on the chip (tag '61').
type DG1 struct {
	MRZData []byte `tlv:"5F1F" fmt:"ascii"`

	Unknown []bertlv.TLV `tlv:",unknown"`

	// MRZ is the decoded form of MRZData.
	MRZ *mrz.Record
}

// ParseDG1 decodes the raw content of DG1 and validates the MRZ check digits.
func ParseDG1(data []byte) (*DG1, error) {
	packets, err := decodeTemplate(data, DG1)
	if err != nil {
		return nil, err
	}

	dg := &DG1{}
	if err := tlv.UnmarshalFromPackets(packets, dg); err != nil {
		return nil, fmt.Errorf("failed to map DG1: %w", err)
	}
	if len(dg.MRZData) == 0 {
		return nil, fmt.Errorf("DG1 has no MRZ data (5F1F)")
	}

	dg.MRZ, err = mrz.Parse(string(dg.MRZData))
	if err != nil {
		return nil, fmt.Errorf("DG1: %w", err)
	}

	return dg, nil
}

// Describe generates a report of the DG1 content.
func (d *DG1) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== DG1 (MRZ) ===")

	tlv.WriteStructFields(&sb, "DG1", d)

	if r := d.MRZ; r != nil {
		sb.WriteString(fmt.Sprintf("\n    - Format:    %s", r.Format))
		sb.WriteString(fmt.Sprintf("\n    - Document:  %s %s (%s)", r.DocumentCode, r.DocumentNumber, r.IssuingState))
		sb.WriteString(fmt.Sprintf("\n    - Holder:    %s, %s", r.PrimaryName, r.SecondaryName))
		sb.WriteString(fmt.Sprintf("\n    - Born:      %s (%s)", r.BirthDate, r.Sex))
		sb.WriteString(fmt.Sprintf("\n    - Expires:   %s", r.ExpiryDate))
	}

	return sb.String()
}

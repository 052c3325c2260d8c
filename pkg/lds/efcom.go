package lds

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gregLibert/epassport/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// EFCOM is the common data file (tag '60'): LDS version and the list of data groups present.
type EFCOM struct {
	LDSVersion     []byte `tlv:"5F01" fmt:"ascii"`
	UnicodeVersion []byte `tlv:"5F36" fmt:"ascii"`
	TagList        []byte `tlv:"5C"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseEFCOM decodes the raw content of EF.COM.
func ParseEFCOM(data []byte) (*EFCOM, error) {
	packets, err := decodeTemplate(data, EFCOM)
	if err != nil {
		return nil, err
	}

	com := &EFCOM{}
	if err := tlv.UnmarshalFromPackets(packets, com); err != nil {
		return nil, fmt.Errorf("failed to map EF.COM: %w", err)
	}
	if len(com.TagList) == 0 {
		return nil, fmt.Errorf("EF.COM has no tag list (5C)")
	}

	return com, nil
}

// DataGroups returns the data groups listed in the tag list, in file order.
// Tags that do not name a data group are skipped.
func (c *EFCOM) DataGroups() []File {
	var groups []File
	for _, tag := range c.TagList {
		if f, ok := FileFromTag(tag); ok && f != EFCOM && f != EFSOD {
			groups = append(groups, f)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}

// Has reports whether f is listed in EF.COM.
func (c *EFCOM) Has(f File) bool {
	for _, dg := range c.DataGroups() {
		if dg == f {
			return true
		}
	}
	return false
}

// Describe generates a report of the EF.COM content.
func (c *EFCOM) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== EF.COM ===")

	tlv.WriteStructFields(&sb, "COM", c)

	names := make([]string, 0, len(c.TagList))
	for _, dg := range c.DataGroups() {
		names = append(names, dg.String())
	}
	sb.WriteString(fmt.Sprintf("\n    - COM.DataGroups: %s", strings.Join(names, ", ")))

	return sb.String()
}

// decodeTemplate decodes data and returns the children of the outer template expected for f.
func decodeTemplate(data []byte, f File) ([]bertlv.TLV, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: empty data", f)
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: BER-TLV decode failed: %w", f, err)
	}

	want := fmt.Sprintf("%02X", f.Tag())
	tpl, ok := tlv.Find(packets, want)
	if !ok {
		return nil, fmt.Errorf("%s: missing mandatory template (Tag %s)", f, want)
	}

	return tpl.TLVs, nil
}

package lds

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gregLibert/epassport/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// DG2 holds the encoded face (tag '75'), a Biometric Information Group
// Template as defined by ISO/IEC 7816-11.
type DG2 struct {
	Group BiometricGroup `tlv:"7F61"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// BiometricGroup is the Biometric Information Group Template (tag '7F61').
type BiometricGroup struct {
	Count     int              `tlv:"02"`
	Instances []BiometricEntry `tlv:"7F60"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// BiometricEntry is one Biometric Information Template (tag '7F60').
type BiometricEntry struct {
	Header BiometricHeader `tlv:"A1"`

	// Data carries the ISO/IEC 19794-5 facial record. EncipheredData is used
	// instead when the record is protected.
	Data           []byte `tlv:"5F2E" fmt:"len"`
	EncipheredData []byte `tlv:"7F2E" fmt:"len"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// BiometricHeader is the Biometric Header Template (tag 'A1').
type BiometricHeader struct {
	Version        []byte `tlv:"80"`
	Type           []byte `tlv:"81"`
	Subtype        []byte `tlv:"82"`
	CreationDate   []byte `tlv:"83"`
	ValidityPeriod []byte `tlv:"85"`
	Creator        []byte `tlv:"86"`
	FormatOwner    []byte `tlv:"87"`
	FormatType     []byte `tlv:"88"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// Image formats recognised inside a facial record.
const (
	ImageJPEG     = "image/jpeg"
	ImageJPEG2000 = "image/jp2"
)

var imageMagics = []struct {
	mime  string
	magic []byte
}{
	{ImageJPEG, []byte{0xFF, 0xD8, 0xFF}},
	{ImageJPEG2000, []byte{0x00, 0x00, 0x00, 0x0C, 0x6A, 0x50, 0x20, 0x20, 0x0D, 0x0A}},
	{ImageJPEG2000, []byte{0xFF, 0x4F, 0xFF, 0x51}},
}

// ParseDG2 decodes the raw content of DG2.
func ParseDG2(data []byte) (*DG2, error) {
	packets, err := decodeTemplate(data, DG2)
	if err != nil {
		return nil, err
	}

	dg := &DG2{}
	if err := tlv.UnmarshalFromPackets(packets, dg); err != nil {
		return nil, fmt.Errorf("failed to map DG2: %w", err)
	}
	if len(dg.Group.Instances) == 0 {
		return nil, fmt.Errorf("DG2 has no biometric information template (7F60)")
	}

	return dg, nil
}

// FaceImage locates the first image embedded in the facial records and
// returns it with its MIME type. The ISO/IEC 19794-5 headers before the
// image are skipped.
func (d *DG2) FaceImage() ([]byte, string, error) {
	for _, entry := range d.Group.Instances {
		record := entry.Data
		if len(record) == 0 {
			continue
		}

		start, mime := -1, ""
		for _, m := range imageMagics {
			if i := bytes.Index(record, m.magic); i >= 0 && (start < 0 || i < start) {
				start, mime = i, m.mime
			}
		}
		if start >= 0 {
			return record[start:], mime, nil
		}
	}

	return nil, "", fmt.Errorf("no JPEG or JPEG 2000 image found in DG2")
}

// Describe generates a report of the DG2 structure.
func (d *DG2) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== DG2 (Face) ===")

	tlv.WriteStructFields(&sb, "DG2", d)

	return sb.String()
}

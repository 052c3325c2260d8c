package mrz

import (
	"fmt"
	"strings"
)

// Format identifies the MRZ layout.
type Format int

const (
	FormatTD1 Format = iota + 1
	FormatTD2
	FormatTD3
)

func (f Format) String() string {
	switch f {
	case FormatTD1:
		return "TD1"
	case FormatTD2:
		return "TD2"
	case FormatTD3:
		return "TD3"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Record holds the fields of a decoded MRZ. Fillers are kept in the raw
// fields and replaced by spaces in the name fields.
type Record struct {
	Format         Format
	DocumentCode   string
	IssuingState   string
	DocumentNumber string
	Nationality    string
	BirthDate      string // YYMMDD
	Sex            string
	ExpiryDate     string // YYMMDD
	OptionalData   string
	PrimaryName    string
	SecondaryName  string
}

// checkedField pairs a value with the check digit printed after it.
type checkedField struct {
	name  string
	value string
	digit byte
}

// Parse decodes a TD1, TD2 or TD3 MRZ. Line breaks are ignored.
// Every check digit except the composite one is verified.
func Parse(s string) (*Record, error) {
	s = strings.NewReplacer("\n", "", "\r", "").Replace(s)

	var (
		rec    *Record
		checks []checkedField
	)

	switch len(s) {
	case LengthTD3:
		l1, l2 := s[:44], s[44:]
		rec = &Record{
			Format:         FormatTD3,
			DocumentCode:   l1[0:2],
			IssuingState:   l1[2:5],
			DocumentNumber: l2[0:9],
			Nationality:    l2[10:13],
			BirthDate:      l2[13:19],
			Sex:            l2[20:21],
			ExpiryDate:     l2[21:27],
			OptionalData:   l2[28:42],
		}
		rec.PrimaryName, rec.SecondaryName = splitName(l1[5:44])
		checks = []checkedField{
			{"document number", l2[0:9], l2[9]},
			{"birth date", l2[13:19], l2[19]},
			{"expiry date", l2[21:27], l2[27]},
		}

	case LengthTD2:
		l1, l2 := s[:36], s[36:]
		rec = &Record{
			Format:         FormatTD2,
			DocumentCode:   l1[0:2],
			IssuingState:   l1[2:5],
			DocumentNumber: l2[0:9],
			Nationality:    l2[10:13],
			BirthDate:      l2[13:19],
			Sex:            l2[20:21],
			ExpiryDate:     l2[21:27],
			OptionalData:   l2[28:35],
		}
		rec.PrimaryName, rec.SecondaryName = splitName(l1[5:36])
		checks = []checkedField{
			{"document number", l2[0:9], l2[9]},
			{"birth date", l2[13:19], l2[19]},
			{"expiry date", l2[21:27], l2[27]},
		}

	case LengthTD1:
		l1, l2, l3 := s[:30], s[30:60], s[60:]
		rec = &Record{
			Format:         FormatTD1,
			DocumentCode:   l1[0:2],
			IssuingState:   l1[2:5],
			DocumentNumber: l1[5:14],
			OptionalData:   l1[15:30],
			BirthDate:      l2[0:6],
			Sex:            l2[7:8],
			ExpiryDate:     l2[8:14],
			Nationality:    l2[15:18],
		}
		rec.PrimaryName, rec.SecondaryName = splitName(l3)
		checks = []checkedField{
			{"document number", l1[5:14], l1[14]},
			{"birth date", l2[0:6], l2[6]},
			{"expiry date", l2[8:14], l2[14]},
		}

	default:
		return nil, fmt.Errorf("unsupported MRZ length %d", len(s))
	}

	for _, c := range checks {
		want, err := CheckDigit(c.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
		if want != c.digit {
			return nil, fmt.Errorf("%w: %s %q has %q, expected %q", ErrCheckDigit, c.name, c.value, c.digit, want)
		}
	}

	return rec, nil
}

// KeyInfo returns the BAC MRZ information of the record.
func (r *Record) KeyInfo() (string, error) {
	return KeyInfo(r.DocumentNumber, r.BirthDate, r.ExpiryDate)
}

// splitName separates the primary and secondary identifiers ("<<" separator).
func splitName(s string) (primary, secondary string) {
	parts := strings.SplitN(s, "<<", 2)
	primary = clean(parts[0])
	if len(parts) == 2 {
		secondary = clean(parts[1])
	}
	return primary, secondary
}

func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, string(Filler), " "))
}

package epass

import (
	"fmt"

	"github.com/gregLibert/epassport/pkg/lds"
	"go.uber.org/zap"
)

// efcomMinLength is the smallest EF.COM worth parsing: tag, length, LDS
// version and an empty tag list.
const efcomMinLength = 10

// layout locates the length prefix of a file: width bytes starting at offset.
type layout struct {
	width  int
	offset int
}

// layouts holds the length prefix position of the files read routinely.
// DG1 and EF.COM use a one-byte length, DG2 and EF.SOD a '82' long form.
var layouts = map[lds.File]layout{
	lds.EFCOM: {width: 1, offset: 1},
	lds.DG1:   {width: 1, offset: 1},
	lds.DG2:   {width: 2, offset: 2},
	lds.EFSOD: {width: 2, offset: 2},
}

// SelectFile selects one of the eMRTD elementary files.
func (c *Card) SelectFile(f lds.File) error {
	fid := f.FileID()
	if fid == nil {
		return fmt.Errorf("%w: unknown file %s", ErrInvalidArgument, f)
	}
	return c.SelectEF(fid)
}

// ReadRawFile selects f and returns its complete content. Files without a
// registered layout have their BER length form probed first.
func (c *Card) ReadRawFile(f lds.File) ([]byte, error) {
	if err := c.SelectFile(f); err != nil {
		return nil, err
	}

	l, ok := layouts[f]
	if !ok {
		var err error
		if l, err = c.probeLayout(); err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
	}

	data, err := c.ReadFile(l.width, l.offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f, err)
	}

	c.logger.Debug("file read", zap.Stringer("file", f), zap.Int("length", len(data)))
	return data, nil
}

// probeLayout reads the tag and first length byte of the selected file.
// Only single-byte tags are supported, as used by every LDS1 file.
func (c *Card) probeLayout() (layout, error) {
	head, err := c.ReadBinary(0, 2)
	if err != nil {
		return layout{}, err
	}
	if len(head) != 2 {
		return layout{}, fmt.Errorf("%w: header read returned %d bytes", ErrShortRead, len(head))
	}

	switch first := head[1]; {
	case first < 0x80:
		return layout{width: 1, offset: 1}, nil
	case first >= 0x81 && first <= 0x80+MaxLengthWidth:
		return layout{width: int(first & 0x7F), offset: 2}, nil
	default:
		return layout{}, fmt.Errorf("%w: unsupported length byte %02X", ErrMalformedFile, first)
	}
}

// CheckEFCOM applies the structural checks EF.COM must pass before parsing.
func CheckEFCOM(data []byte) error {
	if len(data) < efcomMinLength {
		return fmt.Errorf("%w: EF.COM is %d bytes, expected at least %d", ErrMalformedFile, len(data), efcomMinLength)
	}
	if data[0] != lds.EFCOM.Tag() {
		return fmt.Errorf("%w: EF.COM starts with %02X, expected %02X", ErrMalformedFile, data[0], lds.EFCOM.Tag())
	}
	return nil
}

// ReadEFCOM reads and decodes EF.COM.
func (c *Card) ReadEFCOM() (*lds.EFCOM, error) {
	data, err := c.ReadRawFile(lds.EFCOM)
	if err != nil {
		return nil, err
	}
	if err := CheckEFCOM(data); err != nil {
		return nil, err
	}

	com, err := lds.ParseEFCOM(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
	}
	return com, nil
}

// ReadDG1 reads and decodes DG1 (MRZ).
func (c *Card) ReadDG1() (*lds.DG1, error) {
	data, err := c.ReadRawFile(lds.DG1)
	if err != nil {
		return nil, err
	}

	dg, err := lds.ParseDG1(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
	}
	return dg, nil
}

// ReadDG2 reads and decodes DG2 (encoded face).
func (c *Card) ReadDG2() (*lds.DG2, error) {
	data, err := c.ReadRawFile(lds.DG2)
	if err != nil {
		return nil, err
	}

	dg, err := lds.ParseDG2(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
	}
	return dg, nil
}

// ReadSOD reads EF.SOD and returns both its raw content and the decoded
// security object. The signature is not verified.
func (c *Card) ReadSOD() ([]byte, *lds.SOD, error) {
	data, err := c.ReadRawFile(lds.EFSOD)
	if err != nil {
		return nil, nil, err
	}

	sod, err := lds.ParseSOD(data)
	if err != nil {
		return data, nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
	}
	return data, sod, nil
}

// Package lds decodes the files of the ICAO 9303 Logical Data Structure
// (LDS1) stored in the eMRTD application: EF.COM, the data groups and EF.SOD.
//
// The parsers take the raw content of a file, as reassembled by the chip
// reader, and map its BER-TLV tree onto Go structs with the tlv package.
package lds

import "fmt"

// File identifies an elementary file of the eMRTD application.
type File int

const (
	EFCOM File = iota
	DG1
	DG2
	DG3
	DG4
	DG5
	DG6
	DG7
	DG8
	DG9
	DG10
	DG11
	DG12
	DG13
	DG14
	DG15
	DG16
	EFSOD
)

type fileInfo struct {
	name string
	fid  [2]byte
	tag  byte
}

var files = map[File]fileInfo{
	EFCOM: {"EF.COM", [2]byte{0x01, 0x1E}, 0x60},
	DG1:   {"DG1", [2]byte{0x01, 0x01}, 0x61},
	DG2:   {"DG2", [2]byte{0x01, 0x02}, 0x75},
	DG3:   {"DG3", [2]byte{0x01, 0x03}, 0x63},
	DG4:   {"DG4", [2]byte{0x01, 0x04}, 0x76},
	DG5:   {"DG5", [2]byte{0x01, 0x05}, 0x65},
	DG6:   {"DG6", [2]byte{0x01, 0x06}, 0x66},
	DG7:   {"DG7", [2]byte{0x01, 0x07}, 0x67},
	DG8:   {"DG8", [2]byte{0x01, 0x08}, 0x68},
	DG9:   {"DG9", [2]byte{0x01, 0x09}, 0x69},
	DG10:  {"DG10", [2]byte{0x01, 0x0A}, 0x6A},
	DG11:  {"DG11", [2]byte{0x01, 0x0B}, 0x6B},
	DG12:  {"DG12", [2]byte{0x01, 0x0C}, 0x6C},
	DG13:  {"DG13", [2]byte{0x01, 0x0D}, 0x6D},
	DG14:  {"DG14", [2]byte{0x01, 0x0E}, 0x6E},
	DG15:  {"DG15", [2]byte{0x01, 0x0F}, 0x6F},
	DG16:  {"DG16", [2]byte{0x01, 0x10}, 0x70},
	EFSOD: {"EF.SOD", [2]byte{0x01, 0x1D}, 0x77},
}

func (f File) String() string {
	if info, ok := files[f]; ok {
		return info.name
	}
	return fmt.Sprintf("File(%d)", int(f))
}

// FileID returns the 2-byte file identifier used to SELECT the file.
func (f File) FileID() []byte {
	info, ok := files[f]
	if !ok {
		return nil
	}
	return []byte{info.fid[0], info.fid[1]}
}

// Tag returns the outermost tag the file content starts with.
func (f File) Tag() byte {
	return files[f].tag
}

// FileFromTag returns the file whose content starts with tag, as listed in EF.COM.
func FileFromTag(tag byte) (File, bool) {
	for f, info := range files {
		if info.tag == tag {
			return f, true
		}
	}
	return 0, false
}

// FileFromID returns the file addressed by a 2-byte file identifier.
func FileFromID(fid []byte) (File, bool) {
	if len(fid) != 2 {
		return 0, false
	}
	for f, info := range files {
		if info.fid[0] == fid[0] && info.fid[1] == fid[1] {
			return f, true
		}
	}
	return 0, false
}

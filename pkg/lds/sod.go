package lds

import (
	"bytes"
	"crypto"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"strings"
)

var (
	oidSignedData        = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
	oidLDSSecurityObject = asn1.ObjectIdentifier{2, 23, 136, 1, 1, 1}
)

type contentInfo struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue `asn1:"explicit,tag:0"`
}

// signedData stops after encapContentInfo: certificates and signer infos
// are left unparsed.
type signedData struct {
	Version          int
	DigestAlgorithms []pkix.AlgorithmIdentifier `asn1:"set"`
	EncapContentInfo encapContentInfo
}

type encapContentInfo struct {
	EContentType asn1.ObjectIdentifier
	EContent     []byte `asn1:"explicit,tag:0"`
}

// DataGroupHash is one entry of the LDS security object.
type DataGroupHash struct {
	DataGroupNumber int
	Hash            []byte
}

// SecurityObject is the LDSSecurityObject signed by the issuer.
type SecurityObject struct {
	Version             int
	HashAlgorithm       pkix.AlgorithmIdentifier
	DataGroupHashValues []DataGroupHash
}

// SOD is the parsed content of EF.SOD.
type SOD struct {
	// Content is the DER encoded CMS ContentInfo inside the '77' template.
	Content []byte
	Object  SecurityObject
}

// ParseSOD decodes EF.SOD down to the LDS security object.
// The CMS signature is not verified.
func ParseSOD(data []byte) (*SOD, error) {
	var outer asn1.RawValue
	if _, err := asn1.Unmarshal(data, &outer); err != nil {
		return nil, fmt.Errorf("EF.SOD: %w", err)
	}
	if outer.Class != asn1.ClassApplication || outer.Tag != 0x17 {
		return nil, fmt.Errorf("EF.SOD: missing mandatory template (Tag 77)")
	}

	var ci contentInfo
	if _, err := asn1.Unmarshal(outer.Bytes, &ci); err != nil {
		return nil, fmt.Errorf("EF.SOD: content info: %w", err)
	}
	if !ci.ContentType.Equal(oidSignedData) {
		return nil, fmt.Errorf("EF.SOD: unexpected content type %s", ci.ContentType)
	}

	var sd signedData
	if _, err := asn1.Unmarshal(ci.Content.Bytes, &sd); err != nil {
		return nil, fmt.Errorf("EF.SOD: signed data: %w", err)
	}
	if !sd.EncapContentInfo.EContentType.Equal(oidLDSSecurityObject) {
		return nil, fmt.Errorf("EF.SOD: unexpected encapsulated content %s", sd.EncapContentInfo.EContentType)
	}

	sod := &SOD{Content: outer.Bytes}
	if _, err := asn1.Unmarshal(sd.EncapContentInfo.EContent, &sod.Object); err != nil {
		return nil, fmt.Errorf("EF.SOD: security object: %w", err)
	}

	return sod, nil
}

// Hash returns the digest algorithm declared by the security object.
func (s *SOD) Hash() (crypto.Hash, error) {
	oid := s.Object.HashAlgorithm.Algorithm
	h, ok := HashFromOID(oid)
	if !ok {
		return 0, fmt.Errorf("unsupported hash algorithm OID %s", oid)
	}
	return h, nil
}

// HashFor returns the reference digest stored for a data group.
func (s *SOD) HashFor(dg File) ([]byte, bool) {
	for _, v := range s.Object.DataGroupHashValues {
		if File(v.DataGroupNumber) == dg {
			return v.Hash, true
		}
	}
	return nil, false
}

// Matches reports whether digest equals the stored digest for dg.
func (s *SOD) Matches(dg File, digest []byte) bool {
	want, ok := s.HashFor(dg)
	return ok && bytes.Equal(want, digest)
}

// Describe generates a report of the security object.
func (s *SOD) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== EF.SOD ===")
	sb.WriteString(fmt.Sprintf("\n    - Version: %d", s.Object.Version))

	alg := s.Object.HashAlgorithm.Algorithm.String()
	if h, err := s.Hash(); err == nil {
		alg = fmt.Sprintf("%s (%s)", h, alg)
	}
	sb.WriteString(fmt.Sprintf("\n    - HashAlgorithm: %s", alg))

	for _, v := range s.Object.DataGroupHashValues {
		sb.WriteString(fmt.Sprintf("\n    - %s: %X", File(v.DataGroupNumber), v.Hash))
	}

	return sb.String()
}

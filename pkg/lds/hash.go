package lds

import (
	"crypto"
	"encoding/asn1"
	"fmt"
	"strings"

	// Register the digests HashFromOID can return.
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
)

var oidToHash = map[string]crypto.Hash{
	"1.3.14.3.2.26":          crypto.SHA1,
	"2.16.840.1.101.3.4.2.1": crypto.SHA256,
	"2.16.840.1.101.3.4.2.2": crypto.SHA384,
	"2.16.840.1.101.3.4.2.3": crypto.SHA512,
	"2.16.840.1.101.3.4.2.4": crypto.SHA224,
}

var nameToHash = map[string]crypto.Hash{
	"sha1":   crypto.SHA1,
	"sha224": crypto.SHA224,
	"sha256": crypto.SHA256,
	"sha384": crypto.SHA384,
	"sha512": crypto.SHA512,
}

// HashFromOID returns the digest identified by oid in an AlgorithmIdentifier.
func HashFromOID(oid asn1.ObjectIdentifier) (crypto.Hash, bool) {
	h, ok := oidToHash[oid.String()]
	return h, ok
}

// HashFromName parses a digest name such as "sha256" or "SHA-256".
func HashFromName(name string) (crypto.Hash, error) {
	key := strings.ToLower(strings.ReplaceAll(name, "-", ""))
	if h, ok := nameToHash[key]; ok {
		return h, nil
	}
	return 0, fmt.Errorf("unsupported hash algorithm %q", name)
}

package epass

import (
	"crypto"
	"fmt"

	// SHA-1 is the default digest, SHA-256 the common alternative.
	_ "crypto/sha1"
	_ "crypto/sha256"

	"github.com/gregLibert/epassport/pkg/lds"
	"go.uber.org/zap"
)

// UseHash changes the digest used by ComputeDataGroupHash, typically to the
// algorithm read from EF.SOD.
func (c *Card) UseHash(h crypto.Hash) {
	c.hash = h
}

// ComputeDataGroupHash reads f and returns its digest with the configured
// hash (see WithHash). The caller picks the algorithm declared in EF.SOD.
func (c *Card) ComputeDataGroupHash(f lds.File) ([]byte, error) {
	if !c.hash.Available() {
		return nil, fmt.Errorf("%w: hash %s is not linked into the binary", ErrInvalidArgument, c.hash)
	}

	data, err := c.ReadRawFile(f)
	if err != nil {
		return nil, err
	}

	h := c.hash.New()
	h.Write(data)
	sum := h.Sum(nil)

	c.logger.Debug("hash computed",
		zap.Stringer("file", f),
		zap.Stringer("algorithm", c.hash),
		zap.String("digest", fmt.Sprintf("%X", sum)),
	)
	return sum, nil
}

package epass

import (
	"fmt"

	"github.com/gregLibert/epassport/pkg/iso7816"
	"go.uber.org/zap"
)

const (
	// MaxChunkSize caps every READ BINARY issued after the length prefix.
	// Some chips return data that later fails hash verification when asked
	// for larger chunks.
	MaxChunkSize = 100

	// MaxInitialRead is the largest single READ BINARY with a short Le.
	MaxInitialRead = 255

	// MaxLengthWidth is the widest length prefix ReadFile decodes.
	MaxLengthWidth = 4
)

// ReadBinary reads n bytes at offset in the selected EF.
func (c *Card) ReadBinary(offset uint16, n int) ([]byte, error) {
	if n < 1 || n > MaxInitialRead {
		return nil, fmt.Errorf("%w: read length %d out of range (1-%d)", ErrInvalidArgument, n, MaxInitialRead)
	}

	cmd, err := iso7816.ReadBinary(c.class, offset, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	resp, err := c.exchange(cmd)
	if err != nil {
		return nil, fmt.Errorf("READ BINARY at %d: %w", offset, err)
	}
	return resp.Data, nil
}

// ReadFile reads the whole selected EF. The file starts with offset header
// bytes followed by a width-byte big-endian length giving the number of bytes
// that follow. The returned content includes the header and the length field.
//
// The file is read with one READ BINARY for the header and length, then with
// chunks of at most MaxChunkSize bytes. Any response of the wrong size fails
// the whole read with ErrShortRead. Nothing is cached.
func (c *Card) ReadFile(width, offset int) ([]byte, error) {
	if width < 1 || width > MaxLengthWidth {
		return nil, fmt.Errorf("%w: length width %d out of range (1-%d)", ErrInvalidArgument, width, MaxLengthWidth)
	}
	if offset < 0 || width+offset > MaxInitialRead {
		return nil, fmt.Errorf("%w: length field at %d+%d exceeds a single read", ErrInvalidArgument, offset, width)
	}

	initial := width + offset
	head, err := c.ReadBinary(0, initial)
	if err != nil {
		return nil, err
	}
	if len(head) != initial {
		return nil, fmt.Errorf("%w: initial read returned %d bytes, expected %d", ErrShortRead, len(head), initial)
	}

	var remaining uint64
	for _, b := range head[offset:] {
		remaining = remaining<<8 | uint64(b)
	}

	c.logger.Debug("initial read",
		zap.Int("width", width),
		zap.Int("offset", offset),
		zap.Uint64("remaining", remaining),
	)

	if remaining > 0 {
		lastChunk := uint64(initial) + (remaining-1)/MaxChunkSize*MaxChunkSize
		if lastChunk > iso7816.MaxReadBinaryOffset {
			return nil, fmt.Errorf("%w: declared length %d is beyond READ BINARY addressing", ErrMalformedFile, remaining)
		}
	}

	content := make([]byte, 0, uint64(initial)+remaining)
	content = append(content, head...)

	pos := initial
	for remaining > 0 {
		n := int(min(remaining, MaxChunkSize))

		chunk, err := c.ReadBinary(uint16(pos), n)
		if err != nil {
			return nil, err
		}
		if len(chunk) != n {
			return nil, fmt.Errorf("%w: chunk at %d returned %d bytes, expected %d", ErrShortRead, pos, len(chunk), n)
		}

		content = append(content, chunk...)
		pos += n
		remaining -= uint64(n)

		c.logger.Debug("chunk read", zap.Int("offset", pos-n), zap.Int("length", n))
	}

	return content, nil
}

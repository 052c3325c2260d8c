package epass

import "errors"

var (
	// ErrShortRead is returned when the chip returns a different number of
	// bytes than a READ BINARY requested.
	ErrShortRead = errors.New("short read")

	// ErrProtocol is returned for unexpected status words and for challenge
	// or authentication responses of the wrong size.
	ErrProtocol = errors.New("protocol error")

	// ErrMalformedFile is returned when file content fails its structural checks.
	ErrMalformedFile = errors.New("malformed file")

	// ErrInvalidArgument is returned for parameters the protocol cannot express.
	ErrInvalidArgument = errors.New("invalid argument")
)

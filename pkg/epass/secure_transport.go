package epass

import (
	"fmt"

	"github.com/gregLibert/epassport/pkg/iso7816"
)

// SecureTransport applies the attached crypto context to the traffic of an
// inner Transport. Commands go through unchanged until the engine reports an
// established session; from then on they are wrapped, and responses are
// verified and unwrapped.
type SecureTransport struct {
	inner     Transport
	messenger Messenger
}

// NewSecureTransport returns a SecureTransport sending through inner.
func NewSecureTransport(inner Transport) *SecureTransport {
	return &SecureTransport{inner: inner}
}

// AttachCrypto replaces the crypto context. Engines that cannot protect APDUs
// leave the traffic in clear.
func (t *SecureTransport) AttachCrypto(engine CryptoEngine) {
	m, _ := engine.(Messenger)
	t.messenger = m
}

// Secured reports whether commands are currently wrapped.
func (t *SecureTransport) Secured() bool {
	return t.messenger != nil && t.messenger.Established()
}

// Transmit implements Transport.
func (t *SecureTransport) Transmit(cmd *iso7816.CommandAPDU) ([]byte, error) {
	if !t.Secured() {
		return t.inner.Transmit(cmd)
	}

	wrapped, err := t.messenger.Wrap(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap %s: %w", cmd.Instruction.Raw, err)
	}

	raw, err := t.inner.Transmit(wrapped)
	if err != nil {
		return nil, err
	}

	plain, err := t.messenger.Unwrap(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap %s response: %w", cmd.Instruction.Raw, err)
	}
	return plain, nil
}

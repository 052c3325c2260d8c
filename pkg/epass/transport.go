package epass

import (
	"github.com/gregLibert/epassport/pkg/bac"
	"github.com/gregLibert/epassport/pkg/iso7816"
)

// Transport sends one command APDU and returns the raw response, status word included.
// *iso7816.Client implements it.
type Transport interface {
	Transmit(cmd *iso7816.CommandAPDU) ([]byte, error)
}

// CryptoEngine runs the two steps of a challenge/response handshake.
type CryptoEngine interface {
	// Step1 turns the chip challenge into the token sent with MUTUAL AUTHENTICATE.
	Step1(challenge []byte) ([]byte, error)
	// Step2 checks the chip answer and derives the session keys.
	Step2(response []byte) (bool, error)
}

// Messenger is implemented by engines able to protect APDUs once the handshake is done.
type Messenger interface {
	Established() bool
	Wrap(cmd *iso7816.CommandAPDU) (*iso7816.CommandAPDU, error)
	Unwrap(raw []byte) ([]byte, error)
}

// CryptoAttacher is implemented by transports that can apply a crypto context.
// A nil engine detaches the current one.
type CryptoAttacher interface {
	AttachCrypto(engine CryptoEngine)
}

// EngineFactory builds a fresh CryptoEngine keyed by the MRZ information.
type EngineFactory func(mrzInfo string) (CryptoEngine, error)

func newBACEngine(mrzInfo string) (CryptoEngine, error) {
	e, err := bac.NewEngine(mrzInfo)
	if err != nil {
		return nil, err
	}
	return e, nil
}

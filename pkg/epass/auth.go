package epass

import (
	"bytes"
	"fmt"

	"github.com/gregLibert/epassport/pkg/iso7816"
	"go.uber.org/zap"
)

// BAC message sizes.
const (
	ChallengeLength    = 8
	AuthResponseLength = 40
)

var swSuccess = []byte{0x90, 0x00}

// Authenticate runs Basic Access Control with keys derived from mrzInfo
// (see mrz.KeyInfo). It returns false, without error, when the chip answer
// does not verify.
//
// A new crypto context replaces the previous one before the handshake
// starts. It is handed to the transport right away and only protects
// traffic once the handshake succeeded.
func (c *Card) Authenticate(mrzInfo string) (bool, error) {
	engine, err := c.newEngine(mrzInfo)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	c.engine = engine
	c.secured = false
	if c.attacher != nil {
		c.attacher.AttachCrypto(engine)
		c.logger.Debug("crypto context attached")
	} else {
		c.logger.Debug("transport cannot apply a crypto context, traffic stays in clear")
	}

	ok, err := c.handshake(engine)
	if err != nil || !ok {
		c.detach()
		c.logger.Debug("handshake failed", zap.Bool("verified", ok), zap.Error(err))
		return false, err
	}

	c.secured = true
	c.logger.Debug("handshake succeeded")
	return true, nil
}

func (c *Card) handshake(engine CryptoEngine) (bool, error) {
	challenge, err := c.getChallenge()
	if err != nil {
		return false, err
	}

	token, err := engine.Step1(challenge)
	if err != nil {
		return false, fmt.Errorf("%w: step 1: %w", ErrProtocol, err)
	}

	resp, err := c.mutualAuthenticate(token)
	if err != nil {
		return false, err
	}

	ok, err := engine.Step2(resp)
	if err != nil {
		return false, fmt.Errorf("%w: step 2: %w", ErrProtocol, err)
	}
	return ok, nil
}

// getChallenge requests the chip nonce. A trailing '9000' is stripped; any
// other response is taken whole, for transports that already removed it.
func (c *Card) getChallenge() ([]byte, error) {
	raw, err := c.transmit(iso7816.GetChallenge(c.class, ChallengeLength))
	if err != nil {
		return nil, fmt.Errorf("GET CHALLENGE: %w", err)
	}

	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: GET CHALLENGE returned %d bytes", ErrProtocol, len(raw))
	}

	challenge := raw
	if bytes.HasSuffix(raw, swSuccess) {
		challenge = raw[:len(raw)-2]
	}

	c.logger.Debug("challenge obtained", zap.Int("length", len(challenge)))
	return challenge, nil
}

func (c *Card) mutualAuthenticate(token []byte) ([]byte, error) {
	resp, err := c.exchange(iso7816.ExternalAuthenticate(c.class, token, AuthResponseLength))
	if err != nil {
		return nil, fmt.Errorf("MUTUAL AUTHENTICATE: %w", err)
	}

	if len(resp.Data) != AuthResponseLength {
		return nil, fmt.Errorf("%w: MUTUAL AUTHENTICATE returned %d bytes, expected %d",
			ErrProtocol, len(resp.Data), AuthResponseLength)
	}
	return resp.Data, nil
}

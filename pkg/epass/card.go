package epass

import (
	"crypto"
	"fmt"

	"github.com/gregLibert/epassport/pkg/iso7816"
	"go.uber.org/zap"
)

// IssuerAID is the application identifier of the ICAO eMRTD (LDS1) application.
var IssuerAID = []byte{0xA0, 0x00, 0x00, 0x02, 0x47, 0x10, 0x01}

// Card is one session with a passport chip.
type Card struct {
	transport Transport
	attacher  CryptoAttacher

	class     iso7816.Class
	hash      crypto.Hash
	newEngine EngineFactory
	logger    *zap.Logger

	engine  CryptoEngine
	secured bool
}

// Option configures a Card.
type Option func(*Card)

// WithLogger sets the logger used for protocol events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Card) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHash sets the digest used by ComputeDataGroupHash. SHA-1 by default.
func WithHash(h crypto.Hash) Option {
	return func(c *Card) {
		c.hash = h
	}
}

// WithEngineFactory replaces the BAC engine built by Authenticate.
func WithEngineFactory(f EngineFactory) Option {
	return func(c *Card) {
		if f != nil {
			c.newEngine = f
		}
	}
}

// WithClass sets the CLA used for every command. Interindustry '00' by default.
func WithClass(cla iso7816.Class) Option {
	return func(c *Card) {
		c.class = cla
	}
}

// NewCard returns a Card sending its commands through t.
func NewCard(t Transport, opts ...Option) *Card {
	cla, _ := iso7816.NewClass(0x00)

	c := &Card{
		transport: t,
		class:     cla,
		hash:      crypto.SHA1,
		newEngine: newBACEngine,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.attacher, _ = t.(CryptoAttacher)
	c.logger = c.logger.Named("epass")

	return c
}

// Authenticated reports whether a verified crypto context is active.
func (c *Card) Authenticated() bool {
	return c.secured
}

// SelectApplication selects an application by AID.
func (c *Card) SelectApplication(aid []byte) error {
	if len(aid) == 0 || len(aid) > 16 {
		return fmt.Errorf("%w: AID length %d", ErrInvalidArgument, len(aid))
	}

	if _, err := c.exchange(iso7816.SelectApplication(c.class, aid)); err != nil {
		return fmt.Errorf("failed to select application %X: %w", aid, err)
	}

	c.logger.Debug("application selected", zap.String("aid", fmt.Sprintf("%X", aid)))
	return nil
}

// SelectIssuerApplication selects the eMRTD application.
func (c *Card) SelectIssuerApplication() error {
	return c.SelectApplication(IssuerAID)
}

// SelectEF selects an elementary file of the current application.
func (c *Card) SelectEF(fid []byte) error {
	if len(fid) != 2 {
		return fmt.Errorf("%w: file identifier must be 2 bytes, got %d", ErrInvalidArgument, len(fid))
	}

	if _, err := c.exchange(iso7816.SelectEF(c.class, fid)); err != nil {
		return fmt.Errorf("failed to select EF %X: %w", fid, err)
	}

	c.logger.Debug("file selected", zap.String("fid", fmt.Sprintf("%X", fid)))
	return nil
}

// transmit sends cmd and drops the crypto context when a secured exchange fails.
func (c *Card) transmit(cmd *iso7816.CommandAPDU) ([]byte, error) {
	raw, err := c.transport.Transmit(cmd)
	if err != nil {
		if c.secured {
			c.invalidate(err)
		}
		return nil, err
	}
	return raw, nil
}

// exchange sends cmd and requires a '9000' status word.
func (c *Card) exchange(cmd *iso7816.CommandAPDU) (*iso7816.ResponseAPDU, error) {
	raw, err := c.transmit(cmd)
	if err != nil {
		return nil, err
	}

	resp, err := iso7816.ParseResponseAPDU(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	if err := resp.Err(); err != nil {
		// The chip answers a broken secure messaging session in clear.
		if c.secured && resp.Status.IsSecureMessagingError() {
			c.invalidate(err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrProtocol, cmd.Instruction.Raw, err)
	}

	return resp, nil
}

// invalidate detaches the crypto context after a session breaking error.
func (c *Card) invalidate(cause error) {
	c.logger.Debug("session invalidated", zap.Error(cause))
	c.detach()
}

func (c *Card) detach() {
	c.engine = nil
	c.secured = false
	if c.attacher != nil {
		c.attacher.AttachCrypto(nil)
	}
}

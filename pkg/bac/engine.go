package bac

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"github.com/gregLibert/epassport/pkg/iso7816"
)

// Handshake sizes.
const (
	ChallengeSize = 8
	NonceSize     = 8
	KeyMaterial   = 16
	TokenSize     = 40 // 32-byte cryptogram + 8-byte MAC
	cryptogramLen = 32
)

// Engine is the cryptographic context of one BAC session. It is created from
// the MRZ information, drives the two handshake steps and, once they succeed,
// protects APDUs with secure messaging.
type Engine struct {
	kEnc []byte
	kMAC []byte

	rand io.Reader

	// Handshake state between Step1 and Step2.
	rndICC []byte
	rndIFD []byte
	kIFD   []byte

	session *SecureMessaging
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandom replaces the source used to draw RND.IFD and K.IFD.
func WithRandom(r io.Reader) Option {
	return func(e *Engine) {
		e.rand = r
	}
}

// NewEngine derives the BAC document keys from the MRZ information string
// (see mrz.KeyInfo).
func NewEngine(mrzInfo string, opts ...Option) (*Engine, error) {
	if mrzInfo == "" {
		return nil, errors.New("empty MRZ information")
	}

	enc, mac := DeriveKeys(KeySeed(mrzInfo))
	e := &Engine{
		kEnc: enc,
		kMAC: mac,
		rand: rand.Reader,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Step1 answers the chip challenge RND.ICC with the 40-byte E.IFD || M.IFD token.
func (e *Engine) Step1(challenge []byte) ([]byte, error) {
	if len(challenge) != ChallengeSize {
		return nil, fmt.Errorf("challenge must be %d bytes, got %d", ChallengeSize, len(challenge))
	}

	rndIFD := make([]byte, NonceSize)
	kIFD := make([]byte, KeyMaterial)
	if _, err := io.ReadFull(e.rand, rndIFD); err != nil {
		return nil, fmt.Errorf("failed to draw RND.IFD: %w", err)
	}
	if _, err := io.ReadFull(e.rand, kIFD); err != nil {
		return nil, fmt.Errorf("failed to draw K.IFD: %w", err)
	}

	s := make([]byte, 0, cryptogramLen)
	s = append(s, rndIFD...)
	s = append(s, challenge...)
	s = append(s, kIFD...)

	eIFD, err := Encrypt(e.kEnc, s)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt S: %w", err)
	}
	mIFD, err := MAC(e.kMAC, Pad(eIFD))
	if err != nil {
		return nil, fmt.Errorf("failed to MAC E.IFD: %w", err)
	}

	e.rndICC = bytes.Clone(challenge)
	e.rndIFD = rndIFD
	e.kIFD = kIFD
	e.session = nil

	return append(eIFD, mIFD...), nil
}

// Step2 checks the chip answer E.ICC || M.ICC. It returns false when the
// chip fails to prove knowledge of the document keys or to echo both nonces.
// On success the session keys and the send sequence counter are established.
func (e *Engine) Step2(response []byte) (bool, error) {
	if e.rndIFD == nil {
		return false, errors.New("step2 called before step1")
	}
	if len(response) != TokenSize {
		return false, fmt.Errorf("response must be %d bytes, got %d", TokenSize, len(response))
	}

	eICC, mICC := response[:cryptogramLen], response[cryptogramLen:]

	ok, err := verifyMAC(e.kMAC, Pad(eICC), mICC)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	r, err := Decrypt(e.kEnc, eICC)
	if err != nil {
		return false, err
	}

	rndICC, rndIFD, kICC := r[0:8], r[8:16], r[16:32]
	if subtle.ConstantTimeCompare(rndICC, e.rndICC) != 1 || subtle.ConstantTimeCompare(rndIFD, e.rndIFD) != 1 {
		return false, nil
	}

	seed := make([]byte, KeyMaterial)
	subtle.XORBytes(seed, e.kIFD, kICC)
	ksEnc, ksMAC := DeriveKeys(seed)

	ssc := make([]byte, 0, 8)
	ssc = append(ssc, rndICC[4:8]...)
	ssc = append(ssc, rndIFD[4:8]...)

	e.session = NewSecureMessaging(ksEnc, ksMAC, ssc)
	e.rndIFD, e.kIFD = nil, nil

	return true, nil
}

// Established reports whether Step2 succeeded and secure messaging is active.
func (e *Engine) Established() bool {
	return e.session != nil
}

// Session returns the secure messaging state, or nil before a successful Step2.
func (e *Engine) Session() *SecureMessaging {
	return e.session
}

// Wrap protects cmd with the established session.
func (e *Engine) Wrap(cmd *iso7816.CommandAPDU) (*iso7816.CommandAPDU, error) {
	if e.session == nil {
		return nil, errors.New("secure messaging not established")
	}
	return e.session.Wrap(cmd)
}

// Unwrap verifies and decodes a protected response with the established session.
func (e *Engine) Unwrap(raw []byte) ([]byte, error) {
	if e.session == nil {
		return nil, errors.New("secure messaging not established")
	}
	return e.session.Unwrap(raw)
}

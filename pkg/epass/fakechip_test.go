package epass

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gregLibert/epassport/pkg/iso7816"
)

var errLinkDown = errors.New("link down")

// fakeChip is an in-memory eMRTD answering in clear. Responses carry the
// status word, as a PC/SC transport returns them.
type fakeChip struct {
	files    map[string][]byte // by upper-case hex FID
	selected []byte

	challenge []byte // raw GET CHALLENGE response, status word included or not
	authReply []byte // MUTUAL AUTHENTICATE data
	token     []byte // last token received

	// chunkOverride replaces the length returned by the READ BINARY at an offset.
	chunkOverride map[int]int
	// failAfter makes every command after the given count fail at transport level (0 disables).
	failAfter int

	commands []*iso7816.CommandAPDU
}

func newFakeChip() *fakeChip {
	return &fakeChip{
		files:         map[string][]byte{},
		chunkOverride: map[int]int{},
	}
}

func (f *fakeChip) addFile(fid []byte, content []byte) {
	f.files[fmt.Sprintf("%X", fid)] = content
}

func sw(status iso7816.StatusWord, data ...byte) []byte {
	return append(bytes.Clone(data), status.SW1(), status.SW2())
}

func (f *fakeChip) Transmit(cmd *iso7816.CommandAPDU) ([]byte, error) {
	f.commands = append(f.commands, cmd)
	if f.failAfter > 0 && len(f.commands) > f.failAfter {
		return nil, errLinkDown
	}

	switch cmd.Instruction.Raw {
	case iso7816.INS_SELECT:
		switch cmd.P1 {
		case 0x04:
			if bytes.Equal(cmd.Data, IssuerAID) {
				return sw(iso7816.SW_NO_ERROR), nil
			}
		case 0x02:
			if _, ok := f.files[fmt.Sprintf("%X", cmd.Data)]; ok {
				f.selected = cmd.Data
				return sw(iso7816.SW_NO_ERROR), nil
			}
		}
		return sw(iso7816.SW_ERR_FILE_NOT_FOUND), nil

	case iso7816.INS_READ_BINARY:
		content, ok := f.files[fmt.Sprintf("%X", f.selected)]
		if !ok {
			return sw(iso7816.SW_ERR_CMD_NOT_ALLOWED_NO_EF), nil
		}
		offset := int(cmd.P1)<<8 | int(cmd.P2)
		if offset > len(content) {
			return sw(iso7816.SW_ERR_WRONG_P1P2), nil
		}
		n := cmd.Ne
		if o, ok := f.chunkOverride[offset]; ok {
			n = o
		}
		end := min(offset+n, len(content))
		return sw(iso7816.SW_NO_ERROR, content[offset:end]...), nil

	case iso7816.INS_GET_CHALLENGE:
		return bytes.Clone(f.challenge), nil

	case iso7816.INS_EXTERNAL_AUTHENTICATE:
		f.token = bytes.Clone(cmd.Data)
		return sw(iso7816.SW_NO_ERROR, f.authReply...), nil
	}

	return sw(iso7816.SW_ERR_INS_INVALID), nil
}

// readSizes returns the Le of every READ BINARY sent, in order.
func (f *fakeChip) readSizes() []int {
	var sizes []int
	for _, cmd := range f.commands {
		if cmd.Instruction.Raw == iso7816.INS_READ_BINARY {
			sizes = append(sizes, cmd.Ne)
		}
	}
	return sizes
}

// fakeEngine records what the handshake hands it.
type fakeEngine struct {
	token    []byte
	accept   bool
	step2Err error

	challenge []byte
	response  []byte
}

func (e *fakeEngine) Step1(challenge []byte) ([]byte, error) {
	e.challenge = bytes.Clone(challenge)
	return e.token, nil
}

func (e *fakeEngine) Step2(response []byte) (bool, error) {
	e.response = bytes.Clone(response)
	return e.accept, e.step2Err
}

func engineFactory(e CryptoEngine) Option {
	return WithEngineFactory(func(string) (CryptoEngine, error) { return e, nil })
}

// attachingChip is a fakeChip that also records the crypto contexts attached to it.
type attachingChip struct {
	*fakeChip
	attached []CryptoEngine
}

func (a *attachingChip) AttachCrypto(engine CryptoEngine) {
	a.attached = append(a.attached, engine)
}

package epass

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gregLibert/epassport/pkg/bac"
	"github.com/gregLibert/epassport/pkg/iso7816"
	"github.com/gregLibert/epassport/pkg/tlv"
	"github.com/stretchr/testify/require"
)

var (
	testChallenge = tlv.Hex("4608F91988702212")
	testToken     = bytes.Repeat([]byte{0xA5}, AuthResponseLength)
	testReply     = bytes.Repeat([]byte{0x5A}, AuthResponseLength)
)

func newAuthChip() *fakeChip {
	chip := newFakeChip()
	chip.challenge = sw(iso7816.SW_NO_ERROR, testChallenge...)
	chip.authReply = testReply
	return chip
}

func TestAuthenticate_ChallengeHandling(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want []byte
	}{
		{"With status word", sw(iso7816.SW_NO_ERROR, testChallenge...), testChallenge},
		{"Status word already stripped", testChallenge, testChallenge},
		{"Trailing non-success bytes kept", tlv.Hex("0102030405060708", "6A82"), tlv.Hex("01020304050607086A82")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip := newAuthChip()
			chip.challenge = tt.raw
			engine := &fakeEngine{token: testToken, accept: true}

			ok, err := NewCard(chip, engineFactory(engine)).Authenticate("ignored")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, tt.want, engine.challenge)
		})
	}
}

func TestAuthenticate_ChallengeTooShort(t *testing.T) {
	chip := newAuthChip()
	chip.challenge = []byte{0x90}
	engine := &fakeEngine{token: testToken, accept: true}

	card := NewCard(chip, engineFactory(engine))
	ok, err := card.Authenticate("ignored")
	require.ErrorIs(t, err, ErrProtocol)
	require.False(t, ok)
	require.False(t, card.Authenticated())
	require.Nil(t, engine.challenge)
}

func TestAuthenticate_Result(t *testing.T) {
	for _, accept := range []bool{true, false} {
		chip := newAuthChip()
		engine := &fakeEngine{token: testToken, accept: accept}
		card := NewCard(chip, engineFactory(engine))

		ok, err := card.Authenticate("ignored")
		require.NoError(t, err)
		require.Equal(t, accept, ok)
		require.Equal(t, accept, card.Authenticated())

		require.Equal(t, testToken, chip.token)
		require.Equal(t, testReply, engine.response)

		raw, err := chip.commands[len(chip.commands)-1].Bytes()
		require.NoError(t, err)
		require.Equal(t, append(append(tlv.Hex("0082000028"), testToken...), 0x28), raw)
	}
}

func TestAuthenticate_Errors(t *testing.T) {
	t.Run("Reply of wrong length", func(t *testing.T) {
		chip := newAuthChip()
		chip.authReply = testReply[:39]
		engine := &fakeEngine{token: testToken, accept: true}

		ok, err := NewCard(chip, engineFactory(engine)).Authenticate("ignored")
		require.ErrorIs(t, err, ErrProtocol)
		require.False(t, ok)
		require.Nil(t, engine.response)
	})

	t.Run("Engine rejects input", func(t *testing.T) {
		engine := &fakeEngine{token: testToken, step2Err: errors.New("bad length")}

		ok, err := NewCard(newAuthChip(), engineFactory(engine)).Authenticate("ignored")
		require.ErrorIs(t, err, ErrProtocol)
		require.False(t, ok)
	})

	t.Run("Factory fails", func(t *testing.T) {
		card := NewCard(newAuthChip(), WithEngineFactory(func(string) (CryptoEngine, error) {
			return nil, errors.New("bad MRZ")
		}))

		_, err := card.Authenticate("")
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("Transport fails", func(t *testing.T) {
		chip := newAuthChip()
		chip.failAfter = 1
		engine := &fakeEngine{token: testToken, accept: true}

		_, err := NewCard(chip, engineFactory(engine)).Authenticate("ignored")
		require.ErrorIs(t, err, errLinkDown)
	})
}

func TestAuthenticate_AttachesContext(t *testing.T) {
	chip := &attachingChip{fakeChip: newAuthChip()}
	first := &fakeEngine{token: testToken, accept: true}
	second := &fakeEngine{token: testToken, accept: false}

	engines := []CryptoEngine{first, second}
	card := NewCard(chip, WithEngineFactory(func(string) (CryptoEngine, error) {
		e := engines[0]
		engines = engines[1:]
		return e, nil
	}))

	ok, err := card.Authenticate("ignored")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []CryptoEngine{first}, chip.attached)

	// The second handshake replaces the context, then drops it on failure.
	ok, err = card.Authenticate("ignored")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []CryptoEngine{first, second, nil}, chip.attached)
	require.False(t, card.Authenticated())
}

func TestCard_SessionInvalidation(t *testing.T) {
	chip := &attachingChip{fakeChip: newAuthChip()}
	chip.addFile(testFID, tlv.Hex("6005", "0102030405"))
	card := NewCard(chip, engineFactory(&fakeEngine{token: testToken, accept: true}))

	ok, err := card.Authenticate("ignored")
	require.NoError(t, err)
	require.True(t, ok)

	chip.failAfter = len(chip.commands)
	err = card.SelectEF(testFID)
	require.ErrorIs(t, err, errLinkDown)
	require.False(t, card.Authenticated())
	require.Nil(t, chip.attached[len(chip.attached)-1])
}

// ICAO 9303 part 11, appendix D: BAC followed by a protected SELECT and
// READ BINARY of EF.COM, byte for byte.
func TestCard_ExampleSession(t *testing.T) {
	script := &scriptedTransport{t: t, steps: []scriptStep{
		{tlv.Hex("00A4040C07A0000002471001"), tlv.Hex("9000")},
		{tlv.Hex("0084000008"), tlv.Hex("4608F91988702212", "9000")},
		{
			tlv.Hex("0082000028",
				"72C29C2371CC9BDB65B779B8E8D37B29ECC154AA56A8799FAE2F498F76ED92F2",
				"5F1448EEA8AD90A7", "28"),
			tlv.Hex("46B9342A41396CD7386BF5803104D7CEDC122B9132139BAF2EEDC94EE178534F",
				"2F2D235D074D7449", "9000"),
		},
		{tlv.Hex("0CA4020C15", "8709016375432908C044F6", "8E08BF8B92D635FF24F8", "00"), tlv.Hex("990290008E08FA855A5D4C50A8ED9000")},
		{tlv.Hex("0CB000000D", "970104", "8E08ED6705417E96BA55", "00"), tlv.Hex("8709019FF0EC34F9922651", "99029000", "8E08AD55CC17140B2DED", "9000")},
	}}

	random := bytes.NewReader(tlv.Hex("781723860C06C226", "0B795240CB7049B01C19B33E32804F0B"))
	card := NewCard(NewSecureTransport(script), WithEngineFactory(func(mrzInfo string) (CryptoEngine, error) {
		return bac.NewEngine(mrzInfo, bac.WithRandom(random))
	}))

	require.NoError(t, card.SelectIssuerApplication())

	ok, err := card.Authenticate("L898902C<369080619406236")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, card.Authenticated())

	require.NoError(t, card.SelectEF(testFID))

	head, err := card.ReadBinary(0, 4)
	require.NoError(t, err)
	require.Equal(t, tlv.Hex("60145F01"), head)
	require.Empty(t, script.steps)
}

func TestCard_ExampleSession_TamperedResponse(t *testing.T) {
	script := &scriptedTransport{t: t, steps: []scriptStep{
		{tlv.Hex("0084000008"), tlv.Hex("4608F91988702212", "9000")},
		{
			tlv.Hex("0082000028",
				"72C29C2371CC9BDB65B779B8E8D37B29ECC154AA56A8799FAE2F498F76ED92F2",
				"5F1448EEA8AD90A7", "28"),
			tlv.Hex("46B9342A41396CD7386BF5803104D7CEDC122B9132139BAF2EEDC94EE178534F",
				"2F2D235D074D7449", "9000"),
		},
		{tlv.Hex("0CA4020C15", "8709016375432908C044F6", "8E08BF8B92D635FF24F8", "00"), tlv.Hex("990290008E08FA855A5D4C50A8EE9000")},
	}}

	random := bytes.NewReader(tlv.Hex("781723860C06C226", "0B795240CB7049B01C19B33E32804F0B"))
	st := NewSecureTransport(script)
	card := NewCard(st, WithEngineFactory(func(mrzInfo string) (CryptoEngine, error) {
		return bac.NewEngine(mrzInfo, bac.WithRandom(random))
	}))

	ok, err := card.Authenticate("L898902C<369080619406236")
	require.NoError(t, err)
	require.True(t, ok)

	err = card.SelectEF(testFID)
	require.ErrorIs(t, err, bac.ErrSecureMessaging)
	require.False(t, card.Authenticated())
	require.False(t, st.Secured())
}

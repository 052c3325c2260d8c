package iso7816

// AUTHENTICATION COMMANDS (ISO 7816-4):
//
// GET CHALLENGE (INS '84'):
// Asks the card for a random number (Le bytes) to be used in a following
// authentication command. P1 = P2 = '00'.
//
// EXTERNAL AUTHENTICATE (INS '82'):
// Sends an authentication cryptogram computed by the terminal. When the
// command also expects response data (Case 4), it acts as a MUTUAL
// AUTHENTICATE: the card proves itself in the same exchange. ICAO 9303 BAC
// uses this form with P1 = P2 = '00' (no key reference).

// GetChallenge creates a GET CHALLENGE command requesting ne random bytes.
func GetChallenge(cla Class, ne int) *CommandAPDU {
	ins := instruction(INS_GET_CHALLENGE)
	return NewCommandAPDU(cla, ins, 0x00, 0x00, nil, ne)
}

// ExternalAuthenticate creates an EXTERNAL AUTHENTICATE command carrying data.
// A non-zero ne turns it into a mutual authentication.
func ExternalAuthenticate(cla Class, data []byte, ne int) *CommandAPDU {
	ins := instruction(INS_EXTERNAL_AUTHENTICATE)
	return NewCommandAPDU(cla, ins, 0x00, 0x00, data, ne)
}

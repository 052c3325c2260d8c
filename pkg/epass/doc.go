// Package epass reads an ICAO 9303 electronic passport over ISO 7816-4.
//
// A Card drives one chip session: it selects the eMRTD application, runs
// Basic Access Control, reads elementary files through the length-prefixed
// chunked reader and hashes data groups for comparison with EF.SOD.
//
// The Card talks to a Transport. When the Transport also implements
// CryptoAttacher (SecureTransport does), the BAC context is handed to it and
// every command that follows a successful handshake is sent under secure
// messaging.
//
// Typical use:
//
//	st := epass.NewSecureTransport(iso7816.NewClient(card))
//	c := epass.NewCard(st, epass.WithLogger(logger))
//	if err := c.SelectIssuerApplication(); err != nil { ... }
//	ok, err := c.Authenticate(mrzInfo)
//	com, err := c.ReadEFCOM()
//
// A Card is not safe for concurrent use: the chip handles one command at a time.
package epass

/*
Package iso7816 implements data structures and logic to interact with smart cards according to the ISO/IEC 7816 standard.

This package provides the fundamental building blocks for APDU (Application Protocol Data Unit) communication, including Command and Response structures, Status Word (SW) analysis, and specialized parsers for File Control Information (FCI).

# Fundamentals

The communication with a smart card is strictly synchronous:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX: Success, but response data is still available (XX bytes).
  - 0x6CXX: Error, wrong length expectation (XX is the correct length).
  - Other: Various error conditions.

# File Selection and FCI

The response to a SELECT (0xA4) depends on its P2 parameter. Passport applets are
selected with P2 '0C' and return no data; diagnostics ask for FCI or FCP to learn
about the selected file. `SelectResult` and `ParseSelectData` decode:

  - FCP (File Control Parameters) - Tag '62', including the file size
  - FMD (File Management Data) - Tag '64'
  - FCI (File Control Information) - Tag '6F'
  - Proprietary Data - Tag 'C0' and above

# Usage Example: Sizing an Elementary File

	client := iso7816.NewClient(card)
	cls, _ := iso7816.NewClass(0x00)

	trace, err := client.Send(iso7816.SelectEFWithFCP(cls, []byte{0x01, 0x1E}))
	if err != nil {
	    log.Fatal(err)
	}

	result, err := iso7816.NewSelectResult(trace)
	if err != nil {
	    log.Fatal(err)
	}

	fci, err := result.FCI()
	if err != nil {
	    // A '6982' here means the chip wants Basic Access Control first.
	    log.Printf("Could not parse FCP: %v", err)
	    return
	}

	if size, ok := fci.FileSize(); ok {
	    fmt.Printf("EF.COM holds %d bytes\n", size)
	}

	fmt.Println(result.Describe())

# Passport Commands

`Client.Transmit` collapses a trace into the raw final response, which is what
secure messaging wraps and unwraps. GET CHALLENGE, EXTERNAL AUTHENTICATE and
READ BINARY builders cover the commands Basic Access Control and file reading use.
*/
package iso7816

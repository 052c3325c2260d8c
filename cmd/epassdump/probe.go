package main

import (
	"fmt"

	"github.com/gregLibert/epassport/pkg/epass"
	"github.com/gregLibert/epassport/pkg/iso7816"
	"github.com/gregLibert/epassport/pkg/lds"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// probeFiles are selected with an FCP request. Chips that enforce BAC
// answer '6982' for all of them.
var probeFiles = []lds.File{lds.EFCOM, lds.EFSOD, lds.DG1}

func probeAction(cCtx *cli.Context) error {
	s, err := connectToCard(cCtx.String(ReaderFlag))
	if err != nil {
		return err
	}
	defer s.Close()

	client := iso7816.NewClient(s.card)
	cls, _ := iso7816.NewClass(0x00)

	res, err := sendSelect(client, iso7816.SelectByAID(cls, epass.IssuerAID))
	if err != nil {
		return err
	}
	fmt.Println(res.Describe())
	if !res.IsSuccess() {
		return cli.Exit("no eMRTD application on this card", 1)
	}

	for _, f := range probeFiles {
		res, err := sendSelect(client, iso7816.SelectEFWithFCP(cls, f.FileID()))
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n%s\n", f, res.Describe())
		if res.Status().NeedsAuthentication() {
			fmt.Println("    (protected: Basic Access Control required)")
		}
	}

	// LDS1 short file identifiers equal the low byte of the file identifier.
	sfi := lds.EFCOM.FileID()[1]
	cmd, err := iso7816.ReadBinarySFI(cls, sfi, 0, 4)
	if err != nil {
		return err
	}
	trace, err := client.Send(cmd)
	if err != nil {
		return fmt.Errorf("reading EF.COM by SFI: %w", err)
	}
	fmt.Printf("\n=== READ BINARY SFI %02X ===\n    + Result:  %s\n", sfi, trace.Status().Verbose())
	if trace.IsSuccess() {
		fmt.Printf("    + Data:    %X\n", trace.Last().Response.Data)
	}

	return nil
}

func sendSelect(client *iso7816.Client, cmd *iso7816.CommandAPDU) (*iso7816.SelectResult, error) {
	trace, err := client.Send(cmd)
	if err != nil {
		return nil, fmt.Errorf("select failed: %w", err)
	}
	logger.Debug("select exchanged", zap.Int("steps", len(trace)))
	return iso7816.NewSelectResult(trace)
}

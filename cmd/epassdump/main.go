// Command epassdump reads an ICAO 9303 passport through a PC/SC reader.
//
//	epassdump probe
//	epassdump dump --document-number L898902C3 --birth-date 740812 --expiry-date 120415
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ebfe/scard"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	ReaderFlag         = "reader"
	DebugFlag          = "debug"
	DocumentNumberFlag = "document-number"
	BirthDateFlag      = "birth-date"
	ExpiryDateFlag     = "expiry-date"
	MRZInfoFlag        = "mrz-info"
	MRZFlag            = "mrz"
	HashFlag           = "hash"
	SODOutFlag         = "sod-out"
	FaceOutFlag        = "face-out"
)

var logger *zap.Logger

func main() {
	app := &cli.App{
		Name:  "epassdump",
		Usage: "Read the data groups of an electronic passport",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    ReaderFlag,
				Aliases: []string{"r"},
				Usage:   "PC/SC reader name (first reader when empty)",
			},
			&cli.BoolFlag{
				Name:  DebugFlag,
				Usage: "Log every protocol step",
			},
		},
		Before: func(cCtx *cli.Context) error {
			cfg := zap.NewDevelopmentConfig()
			if !cCtx.Bool(DebugFlag) {
				cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			logger = l
			return nil
		},
		After: func(cCtx *cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "dump",
				Usage: "Authenticate with BAC and dump EF.COM, DG1, DG2 and EF.SOD",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    DocumentNumberFlag,
						Aliases: []string{"n"},
						Usage:   "Document number as printed in the MRZ",
					},
					&cli.StringFlag{
						Name:    BirthDateFlag,
						Aliases: []string{"b"},
						Usage:   "Date of birth (YYMMDD)",
					},
					&cli.StringFlag{
						Name:    ExpiryDateFlag,
						Aliases: []string{"e"},
						Usage:   "Date of expiry (YYMMDD)",
					},
					&cli.StringFlag{
						Name:  MRZInfoFlag,
						Usage: "Ready-made MRZ information (number, birth and expiry dates with check digits)",
					},
					&cli.StringFlag{
						Name:  MRZFlag,
						Usage: "Full MRZ text, lines concatenated",
					},
					&cli.StringFlag{
						Name:  HashFlag,
						Usage: "Digest for the data group hashes (sha1, sha256, ...). Defaults to the EF.SOD algorithm",
					},
					&cli.PathFlag{
						Name:  SODOutFlag,
						Usage: "Write the raw EF.SOD to this file",
					},
					&cli.PathFlag{
						Name:  FaceOutFlag,
						Usage: "Write the facial image of DG2 to this file",
					},
				},
				Action: dumpAction,
			},
			{
				Name:   "probe",
				Usage:  "Select the eMRTD application and report what the chip discloses before BAC",
				Action: probeAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// session is an open PC/SC connection.
type session struct {
	ctx  *scard.Context
	card *scard.Card
}

// connectToCard establishes the PC/SC context and connects to the named
// reader, or the first one found.
func connectToCard(readerName string) (*session, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establishing context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		if relErr := ctx.Release(); relErr != nil {
			logger.Warn("failed to release context", zap.Error(relErr))
		}
		return nil, fmt.Errorf("no smart card reader found: %v", err)
	}

	reader := readers[0]
	if readerName != "" {
		reader = ""
		for _, r := range readers {
			if r == readerName {
				reader = r
				break
			}
		}
		if reader == "" {
			_ = ctx.Release()
			return nil, fmt.Errorf("reader %q not found (available: %q)", readerName, readers)
		}
	}
	logger.Info("using reader", zap.String("reader", reader))

	// Force T=0 or T=1 to avoid "Parameter Incorrect" errors (Error 57)
	card, err := ctx.Connect(reader, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		if relErr := ctx.Release(); relErr != nil {
			logger.Warn("failed to release context", zap.Error(relErr))
		}
		return nil, fmt.Errorf("connecting to card: %w", err)
	}

	return &session{ctx: ctx, card: card}, nil
}

func (s *session) Close() {
	if err := s.card.Disconnect(scard.LeaveCard); err != nil {
		logger.Warn("failed to disconnect card", zap.Error(err))
	}
	if err := s.ctx.Release(); err != nil {
		logger.Warn("failed to release context", zap.Error(err))
	}
}

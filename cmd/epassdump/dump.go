package main

import (
	"crypto"
	"errors"
	"fmt"
	"os"

	"github.com/gregLibert/epassport/pkg/epass"
	"github.com/gregLibert/epassport/pkg/iso7816"
	"github.com/gregLibert/epassport/pkg/lds"
	"github.com/gregLibert/epassport/pkg/mrz"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func dumpAction(cCtx *cli.Context) error {
	mrzInfo, err := resolveMRZInfo(cCtx)
	if err != nil {
		return cli.Exit(err, 2)
	}

	var hash crypto.Hash
	if name := cCtx.String(HashFlag); name != "" {
		if hash, err = lds.HashFromName(name); err != nil {
			return cli.Exit(err, 2)
		}
	}

	s, err := connectToCard(cCtx.String(ReaderFlag))
	if err != nil {
		return err
	}
	defer s.Close()

	transport := epass.NewSecureTransport(iso7816.NewClient(s.card))
	card := epass.NewCard(transport, epass.WithLogger(logger))

	if err := card.SelectIssuerApplication(); err != nil {
		return fmt.Errorf("selecting eMRTD application: %w", err)
	}

	ok, err := card.Authenticate(mrzInfo)
	if err != nil {
		return fmt.Errorf("basic access control: %w", err)
	}
	if !ok {
		return cli.Exit("basic access control rejected: check the MRZ data", 1)
	}
	fmt.Println(">> Basic Access Control established")

	com, err := card.ReadEFCOM()
	if err != nil {
		return err
	}
	fmt.Println(com.Describe())

	if com.Has(lds.DG1) {
		dg1, err := card.ReadDG1()
		if err != nil {
			return err
		}
		fmt.Println(dg1.Describe())
	}

	if com.Has(lds.DG2) {
		dg2, err := card.ReadDG2()
		if err != nil {
			return err
		}
		fmt.Println(dg2.Describe())

		if path := cCtx.Path(FaceOutFlag); path != "" {
			if err := writeFace(dg2, path); err != nil {
				return err
			}
		}
	}

	raw, sod, err := card.ReadSOD()
	if err != nil {
		return err
	}
	fmt.Println(sod.Describe())

	if path := cCtx.Path(SODOutFlag); path != "" {
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			return fmt.Errorf("writing EF.SOD: %w", err)
		}
		logger.Info("EF.SOD written", zap.String("path", path), zap.Int("bytes", len(raw)))
	}

	if hash == 0 {
		if hash, err = sod.Hash(); err != nil {
			return err
		}
	}
	card.UseHash(hash)

	return checkHashes(card, sod, hash)
}

// resolveMRZInfo builds the BAC key seed string from whichever MRZ flags
// were given.
func resolveMRZInfo(cCtx *cli.Context) (string, error) {
	if info := cCtx.String(MRZInfoFlag); info != "" {
		return info, nil
	}

	if text := cCtx.String(MRZFlag); text != "" {
		rec, err := mrz.Parse(text)
		if err != nil {
			return "", fmt.Errorf("parsing MRZ: %w", err)
		}
		return rec.KeyInfo()
	}

	number := cCtx.String(DocumentNumberFlag)
	birth := cCtx.String(BirthDateFlag)
	expiry := cCtx.String(ExpiryDateFlag)
	if number == "" || birth == "" || expiry == "" {
		return "", errors.New("missing MRZ data: set --mrz-info, --mrz or --document-number, --birth-date and --expiry-date")
	}
	return mrz.KeyInfo(number, birth, expiry)
}

func writeFace(dg2 *lds.DG2, path string) error {
	img, mime, err := dg2.FaceImage()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, img, 0o600); err != nil {
		return fmt.Errorf("writing face image: %w", err)
	}
	logger.Info("face image written", zap.String("path", path), zap.String("type", mime))
	return nil
}

// checkHashes recomputes the digest of every data group listed in EF.SOD
// and compares it with the stored value. Unreadable groups (EAC protected
// biometrics for instance) are reported and skipped.
func checkHashes(card *epass.Card, sod *lds.SOD, hash crypto.Hash) error {
	fmt.Printf("=== DATA GROUP HASHES (%s) ===\n", hash)

	mismatches := 0
	for _, v := range sod.Object.DataGroupHashValues {
		dg := lds.File(v.DataGroupNumber)

		sum, err := card.ComputeDataGroupHash(dg)
		if err != nil {
			fmt.Printf("    - %-5s [--] %v\n", dg, err)
			if !card.Authenticated() {
				return fmt.Errorf("session lost while reading %s: %w", dg, err)
			}
			continue
		}

		status := "[OK]"
		if !sod.Matches(dg, sum) {
			status = "[!!]"
			mismatches++
		}
		fmt.Printf("    - %-5s %s %X\n", dg, status, sum)
	}

	if mismatches > 0 {
		return cli.Exit(fmt.Sprintf("%d data group hash(es) do not match EF.SOD", mismatches), 1)
	}
	return nil
}

package epass

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/gregLibert/epassport/pkg/lds"
	"github.com/stretchr/testify/require"
)

func TestComputeDataGroupHash(t *testing.T) {
	chip := newPassportChip(t)

	sha1Sum := sha1.Sum(dg1Fixture)
	sha256Sum := sha256.Sum256(dg1Fixture)

	got, err := NewCard(chip).ComputeDataGroupHash(lds.DG1)
	require.NoError(t, err)
	require.Len(t, got, 20)
	require.Equal(t, sha1Sum[:], got)

	again, err := NewCard(chip).ComputeDataGroupHash(lds.DG1)
	require.NoError(t, err)
	require.Equal(t, got, again)

	got, err = NewCard(chip, WithHash(crypto.SHA256)).ComputeDataGroupHash(lds.DG1)
	require.NoError(t, err)
	require.Len(t, got, 32)
	require.Equal(t, sha256Sum[:], got)
}

func TestComputeDataGroupHash_DG2(t *testing.T) {
	sum := sha256.Sum256(dg2Fixture)

	got, err := NewCard(newPassportChip(t), WithHash(crypto.SHA256)).ComputeDataGroupHash(lds.DG2)
	require.NoError(t, err)
	require.Equal(t, sum[:], got)
}

func TestUseHash(t *testing.T) {
	sum := sha256.Sum256(dg1Fixture)

	card := NewCard(newPassportChip(t))
	card.UseHash(crypto.SHA256)

	got, err := card.ComputeDataGroupHash(lds.DG1)
	require.NoError(t, err)
	require.Equal(t, sum[:], got)
}

func TestComputeDataGroupHash_Errors(t *testing.T) {
	_, err := NewCard(newPassportChip(t), WithHash(crypto.Hash(0))).ComputeDataGroupHash(lds.DG1)
	require.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = NewCard(newPassportChip(t)).ComputeDataGroupHash(lds.DG3)
	require.ErrorIs(t, err, ErrProtocol)
}

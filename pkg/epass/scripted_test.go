package epass

import (
	"testing"

	"github.com/gregLibert/epassport/pkg/iso7816"
	"github.com/stretchr/testify/require"
)

type scriptStep struct {
	command  []byte
	response []byte
}

// scriptedTransport checks every APDU against an expected exchange.
type scriptedTransport struct {
	t     *testing.T
	steps []scriptStep
}

func (s *scriptedTransport) Transmit(cmd *iso7816.CommandAPDU) ([]byte, error) {
	s.t.Helper()
	require.NotEmpty(s.t, s.steps, "unexpected command %s", cmd)

	raw, err := cmd.Bytes()
	require.NoError(s.t, err)

	step := s.steps[0]
	s.steps = s.steps[1:]
	require.Equal(s.t, step.command, raw)

	return step.response, nil
}

package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/epassport/pkg/tlv"
)

// SelectResult wraps the trace of a SELECT exchange (including any GET
// RESPONSE or Le correction the Client performed) and exposes the parsed
// file control information.
type SelectResult struct {
	Trace
}

// NewSelectResult checks that t is the trace of a SELECT command.
func NewSelectResult(t Trace) (*SelectResult, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("cannot create result from empty trace")
	}
	if t[0].Command.Instruction.Raw != INS_SELECT {
		return nil, fmt.Errorf("trace must start with SELECT command (got %02X)", t[0].Command.Instruction.Raw)
	}
	return &SelectResult{Trace: t}, nil
}

// FCI parses the data returned by the card, interpreted with the P2 of the
// initial SELECT. It returns nil, nil when the card returned no data.
func (r *SelectResult) FCI() (*FileControlInfo, error) {
	if !r.IsSuccess() {
		return nil, &StatusError{Status: r.Status()}
	}
	return ParseSelectData(r.Last().Response.Data, r.Trace[0].Command.P2)
}

// Describe returns a line-oriented report of the selection.
func (r *SelectResult) Describe() string {
	var sb strings.Builder

	cmd := r.Trace[0].Command
	sb.WriteString("=== SELECT ===\n")
	fmt.Fprintf(&sb, "    + Method:  %02X -> %s\n", cmd.P1, SelectionMethod(cmd.P1))
	fmt.Fprintf(&sb, "    + Control: %02X -> %s | %s\n", cmd.P2, FileOccurrence(cmd.P2&0x03), SelectionControl(cmd.P2&0x0C))
	if len(cmd.Data) > 0 {
		fmt.Fprintf(&sb, "    + Target:  %X (%q)\n", cmd.Data, tlv.MakeSafeASCII(cmd.Data))
	}
	if len(r.Trace) > 1 {
		fmt.Fprintf(&sb, "    + Steps:   %d (first status %04X)\n", len(r.Trace), uint16(r.Trace[0].Response.Status))
	}

	sw := r.Status()
	if !sw.IsSuccess() {
		fmt.Fprintf(&sb, "    + Result:  %s", sw.Verbose())
		return sb.String()
	}
	fmt.Fprintf(&sb, "    + Result:  [%04X] OK", uint16(sw))

	fci, err := r.FCI()
	switch {
	case err != nil:
		fmt.Fprintf(&sb, "\n    - Unparsable data: %v", err)
	case fci == nil:
		sb.WriteString("\n    - No data returned")
	default:
		if size, ok := fci.FileSize(); ok {
			fmt.Fprintf(&sb, "\n    - File size: %d bytes", size)
		}
		tlv.WriteStructFields(&sb, "FCP", fci.FCP)
		tlv.WriteStructFields(&sb, "FMD", fci.FMD)
		if len(fci.Proprietary) > 0 {
			fmt.Fprintf(&sb, "\n    - Proprietary: %X", fci.Proprietary)
		}
	}
	return sb.String()
}

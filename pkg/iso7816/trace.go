package iso7816

// A logical command can take several exchanges on the wire: a '61XX' answer
// is followed by GET RESPONSE and a '6CXX' answer by the same command with
// the corrected Le. Client.Send records every exchange in a Trace.

// Transaction is one command and the response it got.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess reports whether the response exists and signals success.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is the chronological list of exchanges for one logical command.
type Trace []Transaction

// Last returns the final transaction, or nil for an empty trace.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// Status returns the status word that ended the exchange, or 0 when no
// response was recorded.
func (t Trace) Status() StatusWord {
	if last := t.Last(); last != nil && last.Response != nil {
		return last.Response.Status
	}
	return 0
}

// IsSuccess reports whether the final transaction succeeded. Intermediate
// '61XX' and '6CXX' answers do not count.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

package mixing

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// MaxEntryInputs bounds how many inputs a single participant may
// contribute to a round, matching PRIVATESEND_ENTRY_MAX_SIZE.
const MaxEntryInputs = 9

// EntryInput is one participant-supplied input, carrying the prevout
// data the coordinator has no chain view to look up itself.
type EntryInput struct {
	TxIn         wire.TxIn
	PrevValue    btcutil.Amount
	PrevPkScript []byte
	Signed       bool
}

// Entry is one participant's admitted contribution to a session,
// the coordinator-side analogue of CDarkSendEntry.
type Entry struct {
	Peer       PeerHandle
	Collateral *CollateralRef
	Inputs     []*EntryInput
	Outputs    []*wire.TxOut
}

func (e *Entry) inputValues() []btcutil.Amount {
	vals := make([]btcutil.Amount, len(e.Inputs))
	for i, in := range e.Inputs {
		vals[i] = in.PrevValue
	}
	return vals
}

func (e *Entry) outputValues() []int64 {
	vals := make([]int64, len(e.Outputs))
	for i, out := range e.Outputs {
		vals[i] = out.Value
	}
	return vals
}

// signaturesComplete reports whether every input of the entry carries a
// signature script.
func (e *Entry) signaturesComplete() bool {
	for _, in := range e.Inputs {
		if !in.Signed {
			return false
		}
	}
	return true
}

// validateInOuts is the coordinator-side equivalent of IsValidInOuts:
// every output must carry exactly the session's denomination and the
// claimed input values must cover the outputs. No minimum fee on top of
// the outputs is enforced.
func validateInOuts(denom Denomination, inputs []*EntryInput, outputs []*wire.TxOut) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: entry has no inputs", ErrInvalidInput)
	}
	if len(inputs) > MaxEntryInputs {
		return fmt.Errorf("%w: entry has %d inputs, max %d", ErrMaximum, len(inputs), MaxEntryInputs)
	}
	if len(outputs) == 0 {
		return fmt.Errorf("%w: entry has no outputs", ErrInvalidInput)
	}

	outVals := make([]int64, len(outputs))
	var totalOut btcutil.Amount
	for i, out := range outputs {
		outVals[i] = out.Value
		totalOut += btcutil.Amount(out.Value)
		if txscript.GetScriptClass(out.PkScript) == txscript.NonStandardTy {
			return fmt.Errorf("%w: non-standard output script", ErrInvalidScript)
		}
		if d, ok := AmountToDenom(btcutil.Amount(out.Value)); !ok || d != denom {
			return fmt.Errorf("%w: output amount %d is not the session denomination", ErrDenom, out.Value)
		}
	}
	if DenominationsFor(outVals) != denom {
		return fmt.Errorf("%w: entry outputs do not match session denomination", ErrDenom)
	}

	var totalIn btcutil.Amount
	for _, in := range inputs {
		totalIn += in.PrevValue
	}
	if totalIn < totalOut {
		return fmt.Errorf("%w: entry inputs %s do not cover outputs %s", ErrFees, totalIn, totalOut)
	}
	return nil
}

// applyScriptSig finds the input matching txin's prevout and, if it is
// still unsigned, attaches the signature script/witness carried on it.
func (e *Entry) applyScriptSig(txin wire.TxIn) (*EntryInput, bool) {
	for _, in := range e.Inputs {
		if in.TxIn.PreviousOutPoint == txin.PreviousOutPoint && !in.Signed {
			in.TxIn.SignatureScript = txin.SignatureScript
			in.TxIn.Witness = txin.Witness
			in.Signed = true
			return in, true
		}
	}
	return nil, false
}

// hasScriptSig reports whether any input across the entry already
// carries the given signature script bytes, used to reject replays.
func (e *Entry) hasScriptSig(sig []byte) bool {
	for _, in := range e.Inputs {
		if in.Signed && bytes.Equal(in.TxIn.SignatureScript, sig) {
			return true
		}
	}
	return false
}

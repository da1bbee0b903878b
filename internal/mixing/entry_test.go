package mixing

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
)

func oneCoinOutput(t *testing.T) *wire.TxOut {
	amt, ok := DenomToAmount(Denom1)
	assert.True(t, ok)
	return wire.NewTxOut(int64(amt), standardPkScript(t))
}

func TestValidateInOutsAcceptsMatchingDenomination(t *testing.T) {
	amt, _ := DenomToAmount(Denom1)
	inputs := []*EntryInput{{TxIn: *wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil), PrevValue: amt + 1000}}
	outputs := []*wire.TxOut{oneCoinOutput(t)}
	assert.NoError(t, validateInOuts(Denom1, inputs, outputs))
}

func TestValidateInOutsRejectsEmptyInputs(t *testing.T) {
	outputs := []*wire.TxOut{oneCoinOutput(t)}
	err := validateInOuts(Denom1, nil, outputs)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateInOutsRejectsEmptyOutputs(t *testing.T) {
	amt, _ := DenomToAmount(Denom1)
	inputs := []*EntryInput{{TxIn: *wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil), PrevValue: amt}}
	err := validateInOuts(Denom1, inputs, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateInOutsRejectsTooManyInputs(t *testing.T) {
	amt, _ := DenomToAmount(Denom1)
	inputs := make([]*EntryInput, MaxEntryInputs+1)
	for i := range inputs {
		inputs[i] = &EntryInput{TxIn: *wire.NewTxIn(&wire.OutPoint{Index: uint32(i)}, nil, nil), PrevValue: amt}
	}
	outputs := []*wire.TxOut{oneCoinOutput(t)}
	err := validateInOuts(Denom1, inputs, outputs)
	assert.ErrorIs(t, err, ErrMaximum)
}

func TestValidateInOutsRejectsMismatchedDenomination(t *testing.T) {
	amt, _ := DenomToAmount(Denom1)
	inputs := []*EntryInput{{TxIn: *wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil), PrevValue: amt}}
	outputs := []*wire.TxOut{oneCoinOutput(t)}
	err := validateInOuts(DenomTenth, inputs, outputs)
	assert.ErrorIs(t, err, ErrDenom)
}

func TestValidateInOutsRejectsInsufficientInputs(t *testing.T) {
	inputs := []*EntryInput{{TxIn: *wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil), PrevValue: btcutil.Amount(1)}}
	outputs := []*wire.TxOut{oneCoinOutput(t)}
	err := validateInOuts(Denom1, inputs, outputs)
	assert.ErrorIs(t, err, ErrFees)
}

func TestEntryApplyScriptSigMarksSigned(t *testing.T) {
	op := wire.OutPoint{Index: 0}
	e := &Entry{Inputs: []*EntryInput{{TxIn: *wire.NewTxIn(&op, nil, nil)}}}

	sig := wire.TxIn{PreviousOutPoint: op, SignatureScript: []byte{0xAA}}
	in, ok := e.applyScriptSig(sig)
	assert.True(t, ok)
	assert.True(t, in.Signed)
	assert.Equal(t, []byte{0xAA}, in.TxIn.SignatureScript)
	assert.True(t, e.signaturesComplete())
}

func TestEntryApplyScriptSigRejectsUnknownOutpoint(t *testing.T) {
	e := &Entry{Inputs: []*EntryInput{{TxIn: *wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil)}}}
	_, ok := e.applyScriptSig(wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 7}})
	assert.False(t, ok)
}

func TestEntryApplyScriptSigRejectsAlreadySigned(t *testing.T) {
	op := wire.OutPoint{Index: 0}
	e := &Entry{Inputs: []*EntryInput{{TxIn: *wire.NewTxIn(&op, nil, nil), Signed: true}}}
	_, ok := e.applyScriptSig(wire.TxIn{PreviousOutPoint: op, SignatureScript: []byte{0x01}})
	assert.False(t, ok)
}

func TestEntryHasScriptSig(t *testing.T) {
	op := wire.OutPoint{Index: 0}
	e := &Entry{Inputs: []*EntryInput{{TxIn: *wire.NewTxIn(&op, nil, nil)}}}
	assert.False(t, e.hasScriptSig([]byte{0xAA}))

	e.applyScriptSig(wire.TxIn{PreviousOutPoint: op, SignatureScript: []byte{0xAA}})
	assert.True(t, e.hasScriptSig([]byte{0xAA}))
	assert.False(t, e.hasScriptSig([]byte{0xBB}))
}

func TestEntrySignaturesCompleteRequiresAllInputs(t *testing.T) {
	e := &Entry{Inputs: []*EntryInput{
		{Signed: true},
		{Signed: false},
	}}
	assert.False(t, e.signaturesComplete())
}

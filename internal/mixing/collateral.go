package mixing

import (
	"fmt"
	"sync/atomic"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

const maxCollateralSerializeSize = 1000

// CollateralFee is the minimum net fee a collateral transaction must pay:
// 1/1000 of the smallest standard denomination.
func CollateralFee() btcutil.Amount {
	return SmallestDenomination() / 1000
}

// CollateralRef is a ref-counted handle on a collateral transaction.
// The count starts at zero and changes only through Retain and Release;
// Session shares the same *CollateralRef between its collateral list
// and the admitted Entry without calling either, and ConsumeCollateral
// broadcasts the underlying tx without touching the count.
type CollateralRef struct {
	tx   *wire.MsgTx
	refs int32
}

// NewCollateralRef wraps tx for tracking inside a session.
func NewCollateralRef(tx *wire.MsgTx) *CollateralRef {
	return &CollateralRef{tx: tx}
}

func (c *CollateralRef) Tx() *wire.MsgTx {
	return c.tx
}

func (c *CollateralRef) Hash() chainhash.Hash {
	return c.tx.TxHash()
}

func (c *CollateralRef) Retain() {
	atomic.AddInt32(&c.refs, 1)
}

// Release returns the number of remaining references.
func (c *CollateralRef) Release() int32 {
	return atomic.AddInt32(&c.refs, -1)
}

func (c *CollateralRef) Equal(other *CollateralRef) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Hash() == other.Hash()
}

// CollateralSubmission pairs a candidate collateral transaction with the
// amounts its inputs claim to spend, since wire.TxIn carries no value and
// the coordinator has no live UTXO view of its own to look them up in.
type CollateralSubmission struct {
	Tx          *wire.MsgTx
	InputValues []btcutil.Amount
}

// IsCollateralValid applies the structural checks privatesend-server.cpp
// runs before ever touching the mempool: non-empty inputs signed, a bounded
// serialized size, standard-looking outputs, and a net fee that clears
// CollateralFee. It never consults live chain or mempool state.
func IsCollateralValid(sub CollateralSubmission) error {
	tx := sub.Tx
	if tx == nil {
		return fmt.Errorf("mixing: nil collateral tx")
	}
	if len(tx.TxIn) == 0 {
		return fmt.Errorf("mixing: collateral has no inputs")
	}
	if len(tx.TxOut) == 0 {
		return fmt.Errorf("mixing: collateral has no outputs")
	}
	if len(sub.InputValues) != len(tx.TxIn) {
		return fmt.Errorf("mixing: collateral input value count mismatch")
	}
	if tx.SerializeSize() > maxCollateralSerializeSize {
		return fmt.Errorf("mixing: collateral exceeds %d bytes", maxCollateralSerializeSize)
	}
	for _, in := range tx.TxIn {
		if len(in.SignatureScript) == 0 && len(in.Witness) == 0 {
			return fmt.Errorf("mixing: collateral input %s is unsigned", in.PreviousOutPoint)
		}
	}

	var totalIn, totalOut btcutil.Amount
	for _, v := range sub.InputValues {
		totalIn += v
	}
	for _, out := range tx.TxOut {
		class := txscript.GetScriptClass(out.PkScript)
		if class == txscript.NonStandardTy {
			return fmt.Errorf("mixing: collateral output has non-standard script")
		}
		totalOut += btcutil.Amount(out.Value)
	}

	fee := totalIn - totalOut
	if fee < CollateralFee() {
		return fmt.Errorf("mixing: collateral fee %s below required %s", fee, CollateralFee())
	}
	return nil
}

package p2p

import (
	"context"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/privasend/coordinator/internal/mixing"
	"github.com/privasend/coordinator/internal/wireproto"

	"github.com/stretchr/testify/assert"
)

func TestPeerHandleSendWithoutNetworkIsPeerGone(t *testing.T) {
	ph := &PeerHandle{}
	env, err := wireproto.BuildDSC("dsc-1", wireproto.DSCPayload{SessionID: 1})
	require.NoError(t, err)

	err = ph.send(context.Background(), env)
	assert.ErrorIs(t, err, mixing.ErrPeerGone)
}

func TestToDSARequestConvertsPayload(t *testing.T) {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 1}, nil, nil))

	payload := wireproto.DSAPayload{
		ProtoVersion: 70208,
		Denom:        uint32(mixing.Denom1),
		Collateral:   *tx,
		InputValues:  []int64{100, 200},
	}

	req := toDSARequest(&PeerHandle{}, payload)
	assert.Equal(t, 70208, req.ProtoVersion)
	assert.Equal(t, mixing.Denom1, req.Denom)
	require.Len(t, req.Collateral.InputValues, 2)
	assert.EqualValues(t, 100, req.Collateral.InputValues[0])
	assert.Equal(t, tx.TxHash(), req.Collateral.Tx.TxHash())
}

func TestDsqRequestIDIsUniquePerCall(t *testing.T) {
	a := dsqRequestID()
	b := dsqRequestID()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "dsq-"))
}

func TestToDSIRequestConvertsInputsAndOutputs(t *testing.T) {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 1}, nil, nil))

	payload := wireproto.DSIPayload{
		Collateral:  *tx,
		InputValues: []int64{500},
		Inputs: []wireproto.DSIEntryInput{
			{TxIn: *wire.NewTxIn(&wire.OutPoint{Index: 2}, nil, nil), PrevValue: 500},
		},
		Outputs: []wire.TxOut{{Value: 400}},
	}

	req := toDSIRequest(&PeerHandle{}, payload)
	require.Len(t, req.Inputs, 1)
	assert.EqualValues(t, 500, req.Inputs[0].PrevValue)
	require.Len(t, req.Outputs, 1)
	assert.EqualValues(t, 400, req.Outputs[0].Value)
}

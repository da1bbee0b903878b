package mixing

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/stretchr/testify/assert"
)

func TestQueueSignAndCheckSignature(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	q := &Queue{Denom: Denom1, Coordinator: wire.OutPoint{Index: 3}, Timestamp: time.Now()}
	require.NoError(t, q.Sign(priv))
	assert.NotEmpty(t, q.Signature)
	assert.True(t, q.CheckSignature(priv.PubKey()))
}

func TestQueueCheckSignatureRejectsWrongKey(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	other, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	q := &Queue{Denom: Denom1, Coordinator: wire.OutPoint{Index: 3}, Timestamp: time.Now()}
	require.NoError(t, q.Sign(priv))
	assert.False(t, q.CheckSignature(other.PubKey()))
}

func TestQueueCheckSignatureRejectsFlippedReadyFlag(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	q := &Queue{Denom: Denom1, Coordinator: wire.OutPoint{Index: 3}, Timestamp: time.Now()}
	require.NoError(t, q.Sign(priv))

	q.Ready = true
	assert.False(t, q.CheckSignature(priv.PubKey()))
}

func TestQueueIsExpired(t *testing.T) {
	q := &Queue{Timestamp: time.Now().Add(-QueueTimeout - time.Second)}
	assert.True(t, q.IsExpired(time.Now()))

	fresh := &Queue{Timestamp: time.Now()}
	assert.False(t, fresh.IsExpired(time.Now()))
}

func TestQueueIsExpiredRejectsFarFutureTimestamp(t *testing.T) {
	q := &Queue{Timestamp: time.Now().Add(QueueTimeout + time.Second)}
	assert.True(t, q.IsExpired(time.Now()))
}

func TestQueueEqual(t *testing.T) {
	ts := time.Now()
	a := &Queue{Denom: Denom1, Coordinator: wire.OutPoint{Index: 1}, Timestamp: ts}
	b := &Queue{Denom: Denom1, Coordinator: wire.OutPoint{Index: 1}, Timestamp: ts}
	c := &Queue{Denom: DenomTenth, Coordinator: wire.OutPoint{Index: 1}, Timestamp: ts}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

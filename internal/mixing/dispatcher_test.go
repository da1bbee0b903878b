package mixing

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/stretchr/testify/assert"
)

func newTestDispatcher(relayer Relayer, broadcaster Broadcaster, reg Registry, chain ChainMonitor) (*Dispatcher, *Session) {
	s := newTestSession(relayer, broadcaster)
	d := NewDispatcher(s, NewLedger(), reg, chain, nil)
	return d, s
}

func runDispatcher(t *testing.T, d *Dispatcher) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	return cancel
}

func TestHandleDSAOpensRoundWhenSynced(t *testing.T) {
	d, s := newTestDispatcher(&fakeRelayer{}, &fakeBroadcaster{}, &fakeRegistry{size: 10}, &fakeChainMonitor{synced: true})
	stop := runDispatcher(t, d)
	defer stop()

	result := make(chan error, 1)
	d.HandleDSA(DSARequest{
		Peer:         &fakePeer{id: "p1"},
		ProtoVersion: MinPeerProtoVersion,
		Denom:        Denom1,
		Collateral:   validCollateralSubmission(t, CollateralFee()),
	}, result)

	require.NoError(t, <-result)
	assert.Equal(t, Queue, s.State())
}

func TestHandleDSARejectsOldProtocolVersion(t *testing.T) {
	d, _ := newTestDispatcher(&fakeRelayer{}, &fakeBroadcaster{}, &fakeRegistry{size: 10}, &fakeChainMonitor{synced: true})
	stop := runDispatcher(t, d)
	defer stop()

	result := make(chan error, 1)
	d.HandleDSA(DSARequest{
		Peer:         &fakePeer{id: "p1"},
		ProtoVersion: MinPeerProtoVersion - 1,
		Denom:        Denom1,
		Collateral:   validCollateralSubmission(t, CollateralFee()),
	}, result)

	assert.ErrorIs(t, <-result, ErrVersion)
}

func TestHandleDSARejectsWhenChainNotSynced(t *testing.T) {
	d, _ := newTestDispatcher(&fakeRelayer{}, &fakeBroadcaster{}, &fakeRegistry{size: 10}, &fakeChainMonitor{synced: false})
	stop := runDispatcher(t, d)
	defer stop()

	result := make(chan error, 1)
	d.HandleDSA(DSARequest{
		Peer:         &fakePeer{id: "p1"},
		ProtoVersion: MinPeerProtoVersion,
		Denom:        Denom1,
		Collateral:   validCollateralSubmission(t, CollateralFee()),
	}, result)

	assert.ErrorIs(t, <-result, ErrMode)
}

func TestHandleDSARejectsTooRecentCoordinator(t *testing.T) {
	d, s := newTestDispatcher(&fakeRelayer{}, &fakeBroadcaster{}, &fakeRegistry{size: 10}, &fakeChainMonitor{synced: true})
	stop := runDispatcher(t, d)
	defer stop()

	sub := validCollateralSubmission(t, CollateralFee())
	d.ledger.Stamp(s.Coordinator())

	result := make(chan error, 1)
	d.HandleDSA(DSARequest{
		Peer:         &fakePeer{id: "p1"},
		ProtoVersion: MinPeerProtoVersion,
		Denom:        Denom1,
		Collateral:   sub,
	}, result)

	assert.ErrorIs(t, <-result, ErrRecent)
	assert.Equal(t, Idle, s.State())
}

func TestHandleDSIAdmitsEntryAndAdvancesToSigning(t *testing.T) {
	relayer := &fakeRelayer{}
	broadcaster := &fakeBroadcaster{}
	d, s := newTestDispatcher(relayer, broadcaster, &fakeRegistry{size: 10}, &fakeChainMonitor{synced: true})
	stop := runDispatcher(t, d)
	defer stop()

	collSubs := make([]CollateralSubmission, MaxSessionParticipants)
	collSubs[0] = validCollateralSubmission(t, CollateralFee())
	for i := 1; i < MaxSessionParticipants; i++ {
		collSubs[i] = distinctCollateralSubmission(t, i)
	}

	dsaResult := make(chan error, 1)
	d.HandleDSA(DSARequest{
		Peer:         &fakePeer{id: "p0"},
		ProtoVersion: MinPeerProtoVersion,
		Denom:        Denom1,
		Collateral:   collSubs[0],
	}, dsaResult)
	require.NoError(t, <-dsaResult)

	for i := 1; i < MaxSessionParticipants; i++ {
		dsaResult := make(chan error, 1)
		d.HandleDSA(DSARequest{
			Peer:         &fakePeer{id: "p1"},
			ProtoVersion: MinPeerProtoVersion,
			Denom:        Denom1,
			Collateral:   collSubs[i],
		}, dsaResult)
		require.NoError(t, <-dsaResult)
	}

	require.Eventually(t, func() bool {
		return s.State() == AcceptingEntries
	}, time.Second, 10*time.Millisecond)

	amt, _ := DenomToAmount(Denom1)
	for i, collSub := range collSubs {
		op := wire.OutPoint{Index: uint32(100 + i)}
		entryInput := &EntryInput{TxIn: *wire.NewTxIn(&op, nil, nil), PrevValue: amt + 1000, PrevPkScript: standardPkScript(t)}

		dsiResult := make(chan error, 1)
		d.HandleDSI(DSIRequest{
			Peer:       &fakePeer{id: "p1"},
			Collateral: collSub,
			Inputs:     []*EntryInput{entryInput},
			Outputs:    []*wire.TxOut{oneCoinOutput(t)},
		}, dsiResult)
		require.NoError(t, <-dsiResult)
	}

	assert.Eventually(t, func() bool {
		return s.State() == Signing
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, MaxSessionParticipants, relayer.finalTxSent)
}

func TestHandleMaintenanceTimesOutStaleRound(t *testing.T) {
	d, s := newTestDispatcher(&fakeRelayer{}, &fakeBroadcaster{}, &fakeRegistry{size: 10}, &fakeChainMonitor{synced: true})
	stop := runDispatcher(t, d)
	defer stop()

	_, err := s.CreateNewSession(validCollateralSubmission(t, CollateralFee()), Denom1)
	require.NoError(t, err)
	s.openedAt = time.Now().Add(-QueueTimeout - time.Second)

	d.HandleMaintenance()

	assert.Eventually(t, func() bool {
		return s.State() == Idle
	}, time.Second, 10*time.Millisecond)
}

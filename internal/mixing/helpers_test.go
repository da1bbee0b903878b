package mixing

import (
	"context"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// fakeRNG is a deterministic stand-in for RNG: Intn always returns a
// fixed value, letting a test pin ChargeFees/ChargeRandomFees onto
// whichever branch it wants to exercise.
type fakeRNG struct {
	n int
}

func (f *fakeRNG) Intn(n int) int { return f.n }

func (f *fakeRNG) Shuffle(n int, swap func(i, j int)) {}

// fakePeer is a minimal PeerHandle.
type fakePeer struct {
	id string
}

func (p *fakePeer) ID() string { return p.id }

// fakeBroadcaster records every call a Session makes against the
// mempool-facing collaborator.
type fakeBroadcaster struct {
	mu sync.Mutex

	acceptErr    error
	relayErr     error
	prioritizeErr error

	accepted    []*wire.MsgTx
	relayed     []*wire.MsgTx
	prioritized []*wire.MsgTx
	bonuses     []btcutil.Amount
}

func (b *fakeBroadcaster) Accept(ctx context.Context, tx *wire.MsgTx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accepted = append(b.accepted, tx)
	return b.acceptErr
}

func (b *fakeBroadcaster) Relay(ctx context.Context, tx *wire.MsgTx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.relayed = append(b.relayed, tx)
	return b.relayErr
}

func (b *fakeBroadcaster) Prioritize(ctx context.Context, tx *wire.MsgTx, bonus btcutil.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prioritized = append(b.prioritized, tx)
	b.bonuses = append(b.bonuses, bonus)
	return b.prioritizeErr
}

// fakeRelayer records every outbound message a Session or Dispatcher
// pushes through the Relayer interface.
type fakeRelayer struct {
	mu sync.Mutex

	finalTxSent   int
	statusSent    int
	completesSent []ReasonCode
	queuesSent    []*Queue
	signedTxsSent []*SignedTx

	sendErr error
}

func (r *fakeRelayer) SendFinalTx(ctx context.Context, peer PeerHandle, sessionID uint32, tx *wire.MsgTx) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalTxSent++
	return r.sendErr
}

func (r *fakeRelayer) SendStatus(ctx context.Context, peer PeerHandle, update StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusSent++
	return r.sendErr
}

func (r *fakeRelayer) SendComplete(ctx context.Context, peer PeerHandle, sessionID uint32, reason ReasonCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completesSent = append(r.completesSent, reason)
	return r.sendErr
}

func (r *fakeRelayer) BroadcastQueue(ctx context.Context, q *Queue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queuesSent = append(r.queuesSent, q)
	return r.sendErr
}

func (r *fakeRelayer) BroadcastSignedTx(ctx context.Context, s *SignedTx) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signedTxsSent = append(r.signedTxsSent, s)
	return r.sendErr
}

// fakeFeeFetcher is a deterministic stand-in for FeeFetcher.
type fakeFeeFetcher struct {
	rate uint64
	err  error
}

func (f *fakeFeeFetcher) GetNetworkFeeRate(ctx context.Context) (uint64, error) {
	return f.rate, f.err
}

// fakeRegistry is a deterministic stand-in for Registry.
type fakeRegistry struct {
	size int
}

func (r *fakeRegistry) Size() int { return r.size }

// fakeChainMonitor is a deterministic stand-in for ChainMonitor.
type fakeChainMonitor struct {
	synced bool
}

func (c *fakeChainMonitor) Synced() bool { return c.synced }

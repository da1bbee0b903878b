package mixing

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
)

// MinPeerProtoVersion is the oldest protocol version this coordinator
// will accept a dsa from.
const MinPeerProtoVersion = 70206

// Registry is the deterministic, external coordinator directory:
// collateral outpoint to operator identity, and how many coordinators
// currently exist, the input the ledger's rate limit is scaled against.
// internal/registry provides the concrete implementation; mixing only
// depends on this interface to stay free of that package's storage
// choices.
type Registry interface {
	Size() int
}

// ChainMonitor reports whether the local chain view is caught up enough
// to responsibly coordinate a round. internal/chainsync implements this.
type ChainMonitor interface {
	Synced() bool
}

// inboxJob is one unit of dispatcher work, run sequentially by the
// actor loop so that the ledger's rate check and the session's state
// transition it gates never race against each other the way two
// separately-locked globals could.
type inboxJob func(ctx context.Context)

// Dispatcher is the message-handling layer in front of a Session: it
// applies protocol-version and rate/abuse gating, then either rejects a
// request outright or forwards it into the session state machine. It
// owns no mutex of its own; every incoming request is a closure pushed
// onto a single channel and drained by one goroutine, collapsing what
// would otherwise be two independently-locked globals (the ledger and
// the session) into one serialized ordering.
type Dispatcher struct {
	session    *Session
	ledger     *Ledger
	registry   Registry
	chain      ChainMonitor
	queueKey   *btcec.PrivateKey
	inbox      chan inboxJob
	logger     *log.Entry
}

// NewDispatcher wires a session to its rate-limiting and chain-sync
// collaborators. queueKey signs every dsq this coordinator advertises;
// a nil key leaves advertisements unsigned.
func NewDispatcher(session *Session, ledger *Ledger, registry Registry, chain ChainMonitor, queueKey *btcec.PrivateKey) *Dispatcher {
	return &Dispatcher{
		session:  session,
		ledger:   ledger,
		registry: registry,
		chain:    chain,
		queueKey: queueKey,
		inbox:    make(chan inboxJob, 256),
		logger:   log.WithFields(log.Fields{"module": "dispatcher"}),
	}
}

// Run drains the inbox until ctx is cancelled. Call it once from its own
// goroutine; every Handle* method is safe to call concurrently.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.inbox:
			job(ctx)
		}
	}
}

func (d *Dispatcher) enqueue(job inboxJob) {
	d.inbox <- job
}

// DSARequest is a decoded dsa message.
type DSARequest struct {
	Peer        PeerHandle
	ProtoVersion int
	Denom       Denomination
	Collateral  CollateralSubmission
}

// HandleDSA applies version gating, chain-sync gating, and the ledger's
// advertisement-recency throttle, then opens or joins a round.
func (d *Dispatcher) HandleDSA(req DSARequest, result chan<- error) {
	d.enqueue(func(ctx context.Context) {
		result <- d.handleDSA(ctx, req)
	})
}

func (d *Dispatcher) handleDSA(ctx context.Context, req DSARequest) error {
	if req.ProtoVersion < MinPeerProtoVersion {
		return ErrVersion
	}
	if d.chain != nil && !d.chain.Synced() {
		return fmt.Errorf("%w: chain not synced", ErrMode)
	}
	if err := d.session.IsAcceptableDSA(req.Denom); err != nil {
		return err
	}

	if d.session.IsJoinable() {
		_, advanced, err := d.session.AddUserToExistingSession(req.Collateral, req.Denom)
		if err == nil && advanced {
			if advErr := d.session.AdvertiseQueue(ctx, d.queueKey); advErr != nil {
				d.logger.Warnf("failed to advertise queue: %v", advErr)
			}
		}
		return err
	}
	if d.session.IsSessionReady() {
		return ErrQueueFull
	}

	coordOutpoint := d.session.Coordinator()
	if d.ledger != nil && d.registry != nil && d.ledger.TooRecent(coordOutpoint, d.registry.Size()) {
		return ErrRecent
	}

	_, err := d.session.CreateNewSession(req.Collateral, req.Denom)
	if err == nil {
		d.ledger.Stamp(coordOutpoint)
		if advErr := d.session.AdvertiseQueue(ctx, d.queueKey); advErr != nil {
			d.logger.Warnf("failed to advertise queue: %v", advErr)
		}
	}
	return err
}

// DSIRequest is a decoded dsi message.
type DSIRequest struct {
	Peer       PeerHandle
	Collateral CollateralSubmission
	Inputs     []*EntryInput
	Outputs    []*wire.TxOut
}

// HandleDSI admits an entry and, if it completes the round's queue,
// advances straight to signing.
func (d *Dispatcher) HandleDSI(req DSIRequest, result chan<- error) {
	d.enqueue(func(ctx context.Context) {
		_, err := d.session.AddEntry(ctx, req.Peer, req.Collateral, req.Inputs, req.Outputs)
		if err == nil {
			d.session.CheckForCompleteQueue(ctx)
		}
		result <- err
	})
}

// DSSRequest is a decoded dss message.
type DSSRequest struct {
	TxIn wire.TxIn
}

// HandleDSS attaches one participant's signature to the in-progress
// final transaction.
func (d *Dispatcher) HandleDSS(req DSSRequest, result chan<- error) {
	d.enqueue(func(ctx context.Context) {
		_, err := d.session.AddScriptSig(ctx, req.TxIn)
		result <- err
	})
}

// HandleMaintenance runs the session's periodic timeout/completion
// check on the dispatcher's serialized loop, skipping the tick while the
// chain is not synced.
func (d *Dispatcher) HandleMaintenance() {
	d.enqueue(func(ctx context.Context) {
		if d.chain != nil && !d.chain.Synced() {
			return
		}
		if d.session.DoMaintenance(ctx, time.Now()) {
			if advErr := d.session.AdvertiseQueue(ctx, d.queueKey); advErr != nil {
				d.logger.Warnf("failed to advertise queue: %v", advErr)
			}
		}
	})
}

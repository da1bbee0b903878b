package mixing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"

	"github.com/privasend/coordinator/internal/events"
)

// SigningTimeout bounds how long a session stays in Signing waiting on
// the last scriptSig.
const SigningTimeout = 15 * time.Second

// MaxSessionParticipants caps how many collaterals a single round admits,
// the coordinator-side equivalent of the small, fixed anonymity set a
// PrivateSend round mixes at once.
const MaxSessionParticipants = 5

// MinPoolParticipants is the fewest collaterals a round will open entries
// to once its queue has timed out without filling, trading anonymity set
// size for liveness rather than stalling forever waiting for stragglers.
const MinPoolParticipants = 3

// State is the coordinator's mixing round state machine.
type State int

const (
	Idle State = iota
	Queue
	AcceptingEntries
	Signing
	Error
	Success
)

func (st State) String() string {
	switch st {
	case Idle:
		return "IDLE"
	case Queue:
		return "QUEUE"
	case AcceptingEntries:
		return "ACCEPTING_ENTRIES"
	case Signing:
		return "SIGNING"
	case Error:
		return "ERROR"
	case Success:
		return "SUCCESS"
	default:
		return "UNKNOWN"
	}
}

// Broadcaster is the mempool-facing collaborator a session needs to
// submit and relay a finished transaction. internal/mempool implements
// this against btcd's rpcclient; tests supply a fake.
type Broadcaster interface {
	Accept(ctx context.Context, tx *wire.MsgTx) error
	Relay(ctx context.Context, tx *wire.MsgTx) error
	Prioritize(ctx context.Context, tx *wire.MsgTx, bonus btcutil.Amount) error
}

// FeeFetcher reports the going network fee rate, used to size the
// prioritization bonus a completed round's transaction gets so it
// doesn't linger behind ordinary traffic. internal/mempool implements
// this against mempool.space/the node's own estimator; a nil FeeFetcher
// on a Session simply skips prioritization.
type FeeFetcher interface {
	GetNetworkFeeRate(ctx context.Context) (satPerVByte uint64, err error)
}

// Session is one coordinator's in-flight mixing round: at most one
// denomination, one queue of admitted collaterals, one final transaction.
// Every mutation goes through s.mu, the "session mutex" the concurrency
// model calls out as independent from the registry/ledger mutex so a
// slow round never blocks unrelated coordinator bookkeeping.
type Session struct {
	mu sync.Mutex

	coordinator wire.OutPoint
	relayer     Relayer
	broadcaster Broadcaster
	journal     *SignedTxJournal
	rng         RNG
	fees        FeeFetcher
	events      *events.Bus
	logger      *log.Entry

	id          uint32
	state       State
	denom       Denomination
	collaterals []*CollateralRef
	entries     []*Entry
	finalTx     *wire.MsgTx

	openedAt  time.Time
	signingAt time.Time
}

// NewSession constructs an idle session bound to coordinator's own
// collateral outpoint identity.
func NewSession(coordinator wire.OutPoint, relayer Relayer, broadcaster Broadcaster, journal *SignedTxJournal, rng RNG) *Session {
	return &Session{
		coordinator: coordinator,
		relayer:     relayer,
		broadcaster: broadcaster,
		journal:     journal,
		rng:         rng,
		logger:      log.WithFields(log.Fields{"module": "mixing"}),
	}
}

// SetEventBus binds the round-lifecycle event bus, letting external
// observers (logging, a future dashboard) subscribe without coupling
// the session to any one consumer. Optional: nil skips publishing.
func (s *Session) SetEventBus(bus *events.Bus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = bus
}

func (s *Session) publish(ev events.RoundEvent) {
	if s.events == nil {
		return
	}
	s.events.Publish(ev)
}

// SetFeeFetcher binds the network-fee-rate collaborator used to size a
// completed round's prioritization bonus. Optional: a session with no
// FeeFetcher just skips the Prioritize call.
func (s *Session) SetFeeFetcher(fees FeeFetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fees = fees
}

// SetRelayer binds the peer-facing relayer after construction, breaking
// the construction cycle between a session and a p2p network that needs
// a dispatcher (and therefore a session) to exist first.
func (s *Session) SetRelayer(relayer Relayer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relayer = relayer
}

// IsSessionReady reports whether the round has moved past its queue
// phase (AcceptingEntries or Signing), the point past which the
// dispatcher refuses every new dsa with ErrQueueFull.
func (s *Session) IsSessionReady() bool {
	return s.state == AcceptingEntries || s.state == Signing
}

// IsJoinable reports whether the round is still in its queue phase,
// taking collateral from new participants but not yet entries.
func (s *Session) IsJoinable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Queue
}

// Coordinator returns this session's own collateral outpoint, the
// identity its dsq advertisements and the ledger's recency check key on.
func (s *Session) Coordinator() wire.OutPoint {
	return s.coordinator
}

// State returns the current state under lock.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setState transitions the round, logging the edge the way SetState did.
func (s *Session) setState(next State) {
	s.logger.WithFields(log.Fields{
		"session": s.id,
		"from":    s.state.String(),
		"to":      next.String(),
	}).Debug("session state transition")
	s.state = next
}

// IsAcceptableDSA validates a queue-join request against round identity
// alone; rate/abuse limits live one layer up, in the dispatcher.
func (s *Session) IsAcceptableDSA(denom Denomination) error {
	if !IsValidDenomination(denom) {
		return ErrDenom
	}
	if s.state != Idle && denom != s.denom {
		return ErrSession
	}
	return nil
}

// CreateNewSession opens a fresh round for denom, admitting collateral
// as the first participant. Fails if a round is already underway.
func (s *Session) CreateNewSession(collateral CollateralSubmission, denom Denomination) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return 0, fmt.Errorf("%w: round already underway", ErrSession)
	}
	if !IsValidDenomination(denom) {
		return 0, ErrDenom
	}
	if err := IsCollateralValid(collateral); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCollateral, err)
	}

	s.id = uint32(s.rng.Intn(999999) + 1)
	s.denom = denom
	s.collaterals = []*CollateralRef{NewCollateralRef(collateral.Tx)}
	s.entries = nil
	s.finalTx = nil
	s.openedAt = time.Now()
	s.setState(Queue)
	s.publish(events.RoundEvent{SessionID: s.id, Type: events.RoundOpened})
	s.tryAdvanceQueueLocked(s.openedAt)

	return s.id, nil
}

// tryAdvanceQueueLocked moves a Queue round into AcceptingEntries once its
// pool is full, or once it has timed out with at least MinPoolParticipants
// collaterals admitted. Reports whether it transitioned, the signal the
// dispatcher uses to decide whether a ready=true dsq needs re-advertising.
func (s *Session) tryAdvanceQueueLocked(now time.Time) bool {
	if s.state != Queue {
		return false
	}
	full := len(s.collaterals) >= MaxSessionParticipants
	timedOutWithQuorum := now.Sub(s.openedAt) > QueueTimeout && len(s.collaterals) >= MinPoolParticipants
	if !full && !timedOutWithQuorum {
		return false
	}
	s.setState(AcceptingEntries)
	s.openedAt = now
	return true
}

// AdvertiseQueue signs and gossips a dsq for the round currently open,
// the coordinator announcing its queue the way the original protocol's
// CommitToAnotherMixingQueue path broadcasts on session open. Signing
// is skipped when priv is nil, the unsigned-coordinator case tests use.
func (s *Session) AdvertiseQueue(ctx context.Context, priv *btcec.PrivateKey) error {
	s.mu.Lock()
	q := &Queue{
		Denom:       s.denom,
		Coordinator: s.coordinator,
		Timestamp:   time.Now(),
		Ready:       s.state == AcceptingEntries,
	}
	s.mu.Unlock()

	if priv != nil {
		if err := q.Sign(priv); err != nil {
			return err
		}
	}
	if s.relayer == nil {
		return nil
	}
	return s.relayer.BroadcastQueue(ctx, q)
}

// AddUserToExistingSession admits another participant's collateral into
// the round already open for denom, while it is still in its queue phase.
// The second return value reports whether admitting this collateral just
// advanced the round into AcceptingEntries, the cue to re-advertise the
// queue with ready=true.
func (s *Session) AddUserToExistingSession(collateral CollateralSubmission, denom Denomination) (uint32, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Queue {
		return 0, false, fmt.Errorf("%w: no round underway", ErrSession)
	}
	if denom != s.denom {
		return 0, false, ErrDenom
	}
	if len(s.collaterals) >= MaxSessionParticipants {
		return 0, false, ErrQueueFull
	}
	if err := IsCollateralValid(collateral); err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrInvalidCollateral, err)
	}
	for _, c := range s.collaterals {
		if c.Hash() == collateral.Tx.TxHash() {
			return 0, false, ErrAlreadyHave
		}
	}

	s.collaterals = append(s.collaterals, NewCollateralRef(collateral.Tx))
	advanced := s.tryAdvanceQueueLocked(time.Now())
	return s.id, advanced, nil
}

// CheckPool drives the Queue round's timeout-based advance into
// AcceptingEntries even when no fresh dsa is pushing it over the count
// threshold. Reports whether it transitioned.
func (s *Session) CheckPool(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tryAdvanceQueueLocked(now)
}

// findCollateral locates an admitted collateral by hash.
func (s *Session) findCollateral(hash [32]byte) *CollateralRef {
	for _, c := range s.collaterals {
		h := c.Hash()
		if h == hash {
			return c
		}
	}
	return nil
}

// AddEntry admits one participant's signed-collateral, unsigned-inputs
// submission into the round, the coordinator-side analogue of AddEntry.
func (s *Session) AddEntry(ctx context.Context, peer PeerHandle, collateral CollateralSubmission, inputs []*EntryInput, outputs []*wire.TxOut) (ReasonCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != AcceptingEntries {
		return ReasonMode, ErrMode
	}
	if len(s.entries) >= len(s.collaterals) {
		return ReasonEntriesFull, ErrEntriesFull
	}
	if err := IsCollateralValid(collateral); err != nil {
		return ReasonInvalidCollateral, fmt.Errorf("%w: %v", ErrInvalidCollateral, err)
	}
	ref := s.findCollateral(collateral.Tx.TxHash())
	if ref == nil {
		return ReasonInvalidCollateral, fmt.Errorf("%w: collateral not queued for this round", ErrInvalidCollateral)
	}
	for _, e := range s.entries {
		if e.Collateral.Hash() == ref.Hash() {
			return ReasonAlreadyHave, ErrAlreadyHave
		}
		for _, existing := range e.Inputs {
			for _, in := range inputs {
				if existing.TxIn.PreviousOutPoint == in.TxIn.PreviousOutPoint {
					return ReasonAlreadyHave, ErrAlreadyHave
				}
			}
		}
	}
	if err := validateInOuts(s.denom, inputs, outputs); err != nil {
		reason := ReasonFor(err)
		if reason == ReasonMaximum {
			s.ConsumeCollateral(ctx, ref)
		}
		return reason, err
	}

	s.entries = append(s.entries, &Entry{
		Peer:       peer,
		Collateral: ref,
		Inputs:     inputs,
		Outputs:    outputs,
	})
	s.publish(events.RoundEvent{SessionID: s.id, Type: events.EntryAdded})

	return ReasonEntriesAdded, nil
}

// CheckForCompleteQueue builds and relays the final transaction once
// every admitted collateral has a matching entry.
func (s *Session) CheckForCompleteQueue(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != AcceptingEntries || len(s.entries) == 0 || len(s.entries) != len(s.collaterals) {
		return false
	}

	s.finalTx = s.buildFinalTx()
	s.signingAt = time.Now()
	s.setState(Signing)
	s.publish(events.RoundEvent{SessionID: s.id, Type: events.SigningStarted})

	for _, e := range s.entries {
		if err := s.relayer.SendFinalTx(ctx, e.Peer, s.id, s.finalTx); err != nil {
			s.logger.WithError(err).Warn("failed to relay final transaction to participant")
		}
	}
	return true
}

// buildFinalTx assembles the round's unsigned transaction with the
// canonical BIP69-style ordering: inputs by (prev hash, prev index),
// outputs by (amount, script), so every participant independently
// derives the same signing target.
func (s *Session) buildFinalTx() *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	for _, e := range s.entries {
		for _, in := range e.Inputs {
			tx.AddTxIn(&wire.TxIn{
				PreviousOutPoint: in.TxIn.PreviousOutPoint,
				Sequence:         wire.MaxTxInSequenceNum,
			})
		}
		for _, out := range e.Outputs {
			tx.AddTxOut(out)
		}
	}
	sort.SliceStable(tx.TxIn, func(i, j int) bool {
		a, b := tx.TxIn[i].PreviousOutPoint, tx.TxIn[j].PreviousOutPoint
		if a.Hash != b.Hash {
			return lessHash(a.Hash, b.Hash)
		}
		return a.Index < b.Index
	})
	sort.SliceStable(tx.TxOut, func(i, j int) bool {
		if tx.TxOut[i].Value != tx.TxOut[j].Value {
			return tx.TxOut[i].Value < tx.TxOut[j].Value
		}
		return lessBytes(tx.TxOut[i].PkScript, tx.TxOut[j].PkScript)
	})
	return tx
}

func lessHash(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func lessBytes(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// findInputOwner locates the entry (and its EntryInput) that owns the
// given previous outpoint.
func (s *Session) findInputOwner(op wire.OutPoint) (*Entry, *EntryInput) {
	for _, e := range s.entries {
		for _, in := range e.Inputs {
			if in.TxIn.PreviousOutPoint == op {
				return e, in
			}
		}
	}
	return nil, nil
}

// AddScriptSig attaches one signed input to the final transaction, the
// coordinator-side analogue of AddScriptSig.
func (s *Session) AddScriptSig(ctx context.Context, txin wire.TxIn) (ReasonCode, error) {
	s.mu.Lock()
	if s.state != Signing || s.finalTx == nil {
		s.mu.Unlock()
		return ReasonMode, ErrMode
	}
	for _, e := range s.entries {
		if e.hasScriptSig(txin.SignatureScript) {
			s.mu.Unlock()
			return ReasonAlreadyHave, ErrAlreadyHave
		}
	}
	entry, in := s.findInputOwner(txin.PreviousOutPoint)
	if entry == nil || in == nil {
		s.mu.Unlock()
		return ReasonMissingTx, ErrMissingTx
	}
	idx := -1
	for i, txi := range s.finalTx.TxIn {
		if txi.PreviousOutPoint == txin.PreviousOutPoint {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ReasonMissingTx, ErrMissingTx
	}
	if err := verifyInputScript(s.finalTx, idx, in.PrevPkScript, int64(in.PrevValue)); err != nil {
		s.mu.Unlock()
		return ReasonInvalidScript, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}

	in.TxIn.SignatureScript = txin.SignatureScript
	in.TxIn.Witness = txin.Witness
	in.Signed = true
	s.finalTx.TxIn[idx].SignatureScript = txin.SignatureScript
	s.finalTx.TxIn[idx].Witness = txin.Witness

	complete := s.isSignaturesCompleteLocked()
	s.mu.Unlock()

	if complete {
		s.CommitFinalTransaction(ctx)
	}
	return ReasonSuccess, nil
}

func (s *Session) isSignaturesCompleteLocked() bool {
	for _, e := range s.entries {
		if !e.signaturesComplete() {
			return false
		}
	}
	return true
}

// IsSignaturesComplete reports whether every entry's inputs are signed.
func (s *Session) IsSignaturesComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSignaturesCompleteLocked()
}

// verifyInputScript runs the btcd script engine over one input of tx,
// the coordinator's replacement for trusting a client-reported signature.
func verifyInputScript(tx *wire.MsgTx, idx int, prevScript []byte, prevValue int64) error {
	engine, err := txscript.NewEngine(prevScript, tx, idx, txscript.StandardVerifyFlags, nil, nil, prevValue, nil)
	if err != nil {
		return err
	}
	return engine.Execute()
}

// CommitFinalTransaction submits the fully-signed transaction and winds
// the round back to Idle, the coordinator-side analogue of
// CommitFinalTransaction.
func (s *Session) CommitFinalTransaction(ctx context.Context) {
	s.mu.Lock()
	s.setState(Success)
	tx := s.finalTx
	entries := s.entries
	id := s.id
	s.mu.Unlock()

	if err := s.broadcaster.Accept(ctx, tx); err != nil {
		s.logger.WithError(err).Warn("final transaction rejected by mempool")
		s.relayCompleted(ctx, entries, id, ReasonInvalidTx)
		s.reset()
		return
	}

	if signed, added := s.journal.Add(tx); added {
		if err := s.broadcaster.Relay(ctx, tx); err != nil {
			s.logger.WithError(err).Warn("failed to relay final transaction to the network")
		}
		if err := s.relayer.BroadcastSignedTx(ctx, signed); err != nil {
			s.logger.WithError(err).Warn("failed to gossip signed transaction")
		}
		s.prioritize(ctx, tx)
	}

	s.relayCompleted(ctx, entries, id, ReasonSuccess)
	s.ChargeRandomFees(ctx)
	s.reset()
}

// prioritize bumps the mempool priority of a just-relayed final
// transaction by its going per-vbyte rate, so a merged transaction with
// many inputs doesn't sit behind smaller, higher-feerate traffic.
func (s *Session) prioritize(ctx context.Context, tx *wire.MsgTx) {
	if s.fees == nil {
		return
	}
	rate, err := s.fees.GetNetworkFeeRate(ctx)
	if err != nil {
		s.logger.WithError(err).Debug("failed to fetch network fee rate, skipping prioritization")
		return
	}
	bonus := btcutil.Amount(rate) * btcutil.Amount(tx.SerializeSize())
	if err := s.broadcaster.Prioritize(ctx, tx, bonus); err != nil {
		s.logger.WithError(err).Debug("failed to prioritize final transaction")
	}
}

func (s *Session) relayCompleted(ctx context.Context, entries []*Entry, id uint32, reason ReasonCode) {
	for _, e := range entries {
		if err := s.relayer.SendComplete(ctx, e.Peer, id, reason); err != nil {
			s.logger.WithError(err).Debug("participant unreachable for completion notice")
		}
	}

	evType := events.RoundCompleted
	if reason != ReasonSuccess {
		evType = events.RoundFailed
	}
	s.publish(events.RoundEvent{SessionID: id, Type: evType, Reason: reason.String()})
}

// PushStatus reports the round's current shape to one participant.
func (s *Session) PushStatus(ctx context.Context, peer PeerHandle, reason ReasonCode) error {
	s.mu.Lock()
	update := StatusUpdate{SessionID: s.id, State: s.state, Entries: len(s.entries), Reason: reason}
	s.mu.Unlock()
	return s.relayer.SendStatus(ctx, peer, update)
}

// RelayStatus pushes the round's current shape to every admitted entry.
func (s *Session) RelayStatus(ctx context.Context, reason ReasonCode) {
	s.mu.Lock()
	update := StatusUpdate{SessionID: s.id, State: s.state, Entries: len(s.entries), Reason: reason}
	entries := s.entries
	s.mu.Unlock()

	for _, e := range entries {
		if err := s.relayer.SendStatus(ctx, e.Peer, update); err != nil {
			s.logger.WithError(err).Debug("participant unreachable for status push")
		}
	}
}

// HasTimedOut reports whether the round has overstayed its current
// state's timeout budget.
func (s *Session) HasTimedOut(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasTimedOutLocked(now)
}

func (s *Session) hasTimedOutLocked(now time.Time) bool {
	switch s.state {
	case Queue, AcceptingEntries:
		return now.Sub(s.openedAt) > QueueTimeout
	case Signing:
		return now.Sub(s.signingAt) > SigningTimeout
	default:
		return false
	}
}

// CheckTimeout charges non-cooperating participants and resets the round
// if it has overstayed its budget. Returns whether it reset anything.
func (s *Session) CheckTimeout(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	if s.state == Idle || !s.hasTimedOutLocked(now) {
		s.mu.Unlock()
		return false
	}
	if s.state == Queue && len(s.collaterals) >= MinPoolParticipants {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	// Offenders are judged against the state the round timed out in.
	s.ChargeFees(ctx)

	s.mu.Lock()
	s.setState(Error)
	s.mu.Unlock()
	s.RelayStatus(ctx, ReasonRecent)
	s.reset()
	return true
}

// ChargeFees implements the non-cooperation penalty: with probability
// 2/3 do nothing; otherwise, if every-or-all-but-one collateral is an
// offender, with probability 2/3 do nothing anyway; otherwise pick one
// offender at random and consume its collateral. Offenders exist only in
// AcceptingEntries (no entry submitted) and Signing (an unsigned input).
func (s *Session) ChargeFees(ctx context.Context) {
	s.mu.Lock()
	if s.rng.Intn(100) > 33 {
		s.mu.Unlock()
		return
	}

	var offenders []*CollateralRef
	switch s.state {
	case AcceptingEntries:
		for _, c := range s.collaterals {
			hasEntry := false
			for _, e := range s.entries {
				if e.Collateral.Hash() == c.Hash() {
					hasEntry = true
					break
				}
			}
			if !hasEntry {
				offenders = append(offenders, c)
			}
		}
	case Signing:
		for _, e := range s.entries {
			if !e.signaturesComplete() {
				offenders = append(offenders, e.Collateral)
			}
		}
	}

	total := len(s.collaterals)
	s.mu.Unlock()

	if len(offenders) == 0 {
		return
	}
	if total > 0 && len(offenders) >= total-1 && s.rng.Intn(100) > 33 {
		return
	}

	s.rng.Shuffle(len(offenders), func(i, j int) { offenders[i], offenders[j] = offenders[j], offenders[i] })
	s.ConsumeCollateral(ctx, offenders[0])
}

// ChargeRandomFees independently gives each admitted collateral a 1/10
// chance of being consumed on a successful round, spreading the
// operating cost of running a coordinator across participants.
func (s *Session) ChargeRandomFees(ctx context.Context) {
	s.mu.Lock()
	collaterals := append([]*CollateralRef{}, s.collaterals...)
	s.mu.Unlock()

	for _, c := range collaterals {
		if s.rng.Intn(100) < 10 {
			s.ConsumeCollateral(ctx, c)
		}
	}
}

// ConsumeCollateral submits a collateral transaction to the mempool as
// the penalty for non-cooperation or the cost of participating.
func (s *Session) ConsumeCollateral(ctx context.Context, c *CollateralRef) {
	if err := s.broadcaster.Accept(ctx, c.Tx()); err != nil {
		s.logger.WithError(err).Debug("collateral consumption rejected by mempool")
		return
	}
	if err := s.broadcaster.Relay(ctx, c.Tx()); err != nil {
		s.logger.WithError(err).Debug("failed to relay consumed collateral")
	}
}

// reset winds the round back to Idle, the coordinator-side analogue of
// SetNull.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setState(Idle)
	s.id = 0
	s.entries = nil
	s.collaterals = nil
	s.finalTx = nil
}

// DoMaintenance runs the round's periodic housekeeping: timing it out if
// overstayed, otherwise advancing a timed-out-but-quorate queue into
// AcceptingEntries and checking whether entries have just completed.
// Reports whether the queue just advanced into AcceptingEntries, the cue
// to re-advertise with ready=true.
func (s *Session) DoMaintenance(ctx context.Context, now time.Time) bool {
	if s.CheckTimeout(ctx, now) {
		return false
	}
	advanced := s.CheckPool(now)
	s.CheckForCompleteQueue(ctx)
	return advanced
}

// JSONInfo is the coordinator-side analogue of GetJsonInfo, the shape the
// HTTP status endpoint serializes.
type JSONInfo struct {
	SessionID   uint32 `json:"session_id"`
	State       string `json:"state"`
	Denomination uint32 `json:"denomination"`
	Entries     int    `json:"entries"`
	Collaterals int    `json:"collaterals"`
}

// GetJSONInfo snapshots the round for the admin status endpoint.
func (s *Session) GetJSONInfo() JSONInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return JSONInfo{
		SessionID:    s.id,
		State:        s.state.String(),
		Denomination: uint32(s.denom),
		Entries:      len(s.entries),
		Collaterals:  len(s.collaterals),
	}
}

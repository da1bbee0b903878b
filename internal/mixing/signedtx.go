package mixing

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// SignedTx is a completed, broadcast mix transaction, kept around briefly
// so a duplicate dstx relay can be recognized as EXISTING_TX rather than
// resubmitted.
type SignedTx struct {
	Tx         *wire.MsgTx
	Hash       chainhash.Hash
	BroadcastAt time.Time
}

// SignedTxJournal tracks recently broadcast transactions under its own
// mutex, deliberately separate from a session's: relaying a finished tx
// has nothing to do with the next round's entry bookkeeping, and sharing
// one lock between them would only serialize unrelated work.
type SignedTxJournal struct {
	mu  sync.RWMutex
	txs map[chainhash.Hash]*SignedTx
}

func NewSignedTxJournal() *SignedTxJournal {
	return &SignedTxJournal{txs: make(map[chainhash.Hash]*SignedTx)}
}

// Add records tx as broadcast and returns false if it was already present.
func (j *SignedTxJournal) Add(tx *wire.MsgTx) (*SignedTx, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	hash := tx.TxHash()
	if existing, ok := j.txs[hash]; ok {
		return existing, false
	}
	entry := &SignedTx{Tx: tx, Hash: hash, BroadcastAt: time.Now()}
	j.txs[hash] = entry
	return entry, true
}

func (j *SignedTxJournal) Get(hash chainhash.Hash) (*SignedTx, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	entry, ok := j.txs[hash]
	return entry, ok
}

// Prune drops entries older than ttl, called from the maintenance loop.
func (j *SignedTxJournal) Prune(ttl time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	cutoff := time.Now().Add(-ttl)
	for h, entry := range j.txs {
		if entry.BroadcastAt.Before(cutoff) {
			delete(j.txs, h)
		}
	}
}

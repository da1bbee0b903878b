// Package registry provides the coordinator directory the dispatcher's
// rate limiter scales against: which collateral outpoints identify a
// known coordinator, and how many currently exist. Building and
// maintaining that directory (chain-scanning a masternode-style
// collateral list, or querying a federation contract) is explicitly out
// of scope; this package only defines the shape a coordinator consults.
package registry

import (
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
)

// Entry identifies one registered coordinator by its collateral
// outpoint and operator signing key.
type Entry struct {
	CollateralOutpoint wire.OutPoint
	OperatorPubKey     *btcec.PublicKey
}

// InMemory is a static, in-process registry, suitable for a single
// coordinator deployment or for tests; a production fleet would back
// this with whatever on-chain or federation source of truth lists
// coordinators.
type InMemory struct {
	mu      sync.RWMutex
	entries map[wire.OutPoint]Entry
}

// NewInMemory returns an empty registry.
func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[wire.OutPoint]Entry)}
}

// Put registers or replaces a coordinator entry.
func (r *InMemory) Put(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.CollateralOutpoint] = e
}

// Remove drops a coordinator, e.g. once its collateral is spent.
func (r *InMemory) Remove(outpoint wire.OutPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, outpoint)
}

// Lookup finds a coordinator by its collateral outpoint.
func (r *InMemory) Lookup(outpoint wire.OutPoint) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[outpoint]
	return e, ok
}

// Size reports how many coordinators are currently registered, the
// denominator the ledger's recency threshold is scaled against.
func (r *InMemory) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

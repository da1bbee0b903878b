package mixing

import (
	"sync"

	"github.com/btcsuite/btcd/wire"
)

// Ledger replaces the original's global dsq_counter / last_dsq_per_coord
// pair with an explicit, injectable component: a count of advertisements
// seen so far and, per coordinator, the count at which it last advertised.
// Rate limiting reduces to comparing the two under one mutex instead of
// reaching into package-level state.
type Ledger struct {
	mu       sync.Mutex
	total    int64
	lastSeen map[wire.OutPoint]int64
}

// NewLedger returns an empty advertisement ledger.
func NewLedger() *Ledger {
	return &Ledger{lastSeen: make(map[wire.OutPoint]int64)}
}

// Increment records one more advertisement having been observed.
func (l *Ledger) Increment() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total++
}

// Count returns the total advertisements observed so far.
func (l *Ledger) Count() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// LastFor returns the ledger count recorded the last time coord
// advertised, or 0 if it never has.
func (l *Ledger) LastFor(coord wire.OutPoint) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeen[coord]
}

// Stamp records coord as having advertised at the current count.
func (l *Ledger) Stamp(coord wire.OutPoint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total++
	l.lastSeen[coord] = l.total
}

// TooRecent reports whether coord advertised within the last
// registrySize/5 advertisements, the ledger-backed equivalent of the
// original's "nLastDsq != 0 && nLastDsq + mnList.size() / 5 > nDsqCount"
// throttle. A coordinator that has never advertised is never too recent.
func (l *Ledger) TooRecent(coord wire.OutPoint, registrySize int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	last, ok := l.lastSeen[coord]
	if !ok {
		return false
	}
	threshold := int64(registrySize / 5)
	return last+threshold > l.total
}

// Package maintenance runs the coordinator's periodic housekeeping: the
// ticker-driven loop privatesend-server.cpp ran from its own
// scheduler thread, adapted into a single goroutine keyed off a
// context the way internal/safebox ran its task loop.
package maintenance

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/privasend/coordinator/internal/mixing"
)

const tickInterval = 1 * time.Second
const journalPruneInterval = 10 * time.Minute
const journalTTL = 1 * time.Hour

// Runner periodically drives a session's timeout/completion checks and
// prunes the signed-tx journal, the coordinator-side analogue of
// DoMaintenance.
type Runner struct {
	dispatcher *mixing.Dispatcher
	journal    *mixing.SignedTxJournal
	chain      refresher
	logger     *log.Entry
	once       sync.Once
}

// refresher lets the maintenance loop poll chain sync status without
// internal/mixing needing to know chainsync exists.
type refresher interface {
	Refresh(ctx context.Context)
}

// NewRunner wires the maintenance loop to the pieces it ticks.
func NewRunner(dispatcher *mixing.Dispatcher, journal *mixing.SignedTxJournal, chain refresher) *Runner {
	return &Runner{
		dispatcher: dispatcher,
		journal:    journal,
		chain:      chain,
		logger:     log.WithFields(log.Fields{"module": "maintenance"}),
	}
}

func (r *Runner) Start(ctx context.Context) {
	go r.loop(ctx)
	r.logger.Info("maintenance runner started")

	<-ctx.Done()
	r.Stop()
	r.logger.Info("maintenance runner stopped")
}

func (r *Runner) Stop() {
	r.once.Do(func() {})
}

func (r *Runner) loop(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	pruneTicker := time.NewTicker(journalPruneInterval)
	defer pruneTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.dispatcher.HandleMaintenance()
			if r.chain != nil {
				r.chain.Refresh(ctx)
			}
		case <-pruneTicker.C:
			r.journal.Prune(journalTTL)
		}
	}
}

// Package chainsync tracks whether the coordinator's view of the chain
// is caught up enough to safely accept dsa requests. Actually following
// chain tip (header sync, reorg handling) is out of scope; this package
// only defines the flag the dispatcher gates on and a simple source for
// it backed by btcd's rpcclient.
package chainsync

import (
	"context"
	"sync/atomic"

	"github.com/btcsuite/btcd/rpcclient"
	log "github.com/sirupsen/logrus"
)

// Monitor reports whether the coordinator should currently accept new
// rounds.
type Monitor interface {
	Synced() bool
}

// Static is a Monitor whose value is set directly, useful for tests and
// for a coordinator that trusts an operator-supplied flag.
type Static struct {
	synced atomic.Bool
}

// NewStatic returns a Monitor initialized to synced.
func NewStatic(synced bool) *Static {
	s := &Static{}
	s.synced.Store(synced)
	return s
}

func (s *Static) Set(synced bool) { s.synced.Store(synced) }
func (s *Static) Synced() bool    { return s.synced.Load() }

// RPCMonitor polls a bitcoind-compatible node's own sync status.
type RPCMonitor struct {
	client *rpcclient.Client
	synced atomic.Bool
	logger *log.Entry
}

// NewRPCMonitor wraps an already-connected rpcclient.Client.
func NewRPCMonitor(client *rpcclient.Client) *RPCMonitor {
	return &RPCMonitor{
		client: client,
		logger: log.WithFields(log.Fields{"module": "chainsync"}),
	}
}

// Refresh queries getblockchaininfo and updates the cached sync flag.
// Intended to be called from the maintenance ticker rather than per
// request, so a dsa never blocks on an RPC round trip.
func (m *RPCMonitor) Refresh(ctx context.Context) {
	info, err := m.client.GetBlockChainInfo()
	if err != nil {
		m.logger.WithError(err).Warn("failed to refresh chain sync status")
		m.synced.Store(false)
		return
	}
	m.synced.Store(!info.InitialBlockDownload && info.Blocks == info.Headers)
}

func (m *RPCMonitor) Synced() bool {
	return m.synced.Load()
}

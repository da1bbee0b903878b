// Package mempool adapts the coordinator's mixing.Broadcaster interface
// onto a bitcoind-compatible RPC endpoint, the way internal/btc's
// rpc_service.go wraps rpcclient.Client for chain queries.
package mempool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"

	"github.com/privasend/coordinator/internal/mixing"
)

// RPCBroadcaster submits and relays transactions through a bitcoind RPC
// client, and satisfies mixing.Broadcaster.
type RPCBroadcaster struct {
	client *rpcclient.Client
	logger *log.Entry
}

// NewRPCBroadcaster wraps an already-connected rpcclient.Client.
func NewRPCBroadcaster(client *rpcclient.Client) *RPCBroadcaster {
	return &RPCBroadcaster{
		client: client,
		logger: log.WithFields(log.Fields{"module": "mempool"}),
	}
}

var _ mixing.Broadcaster = (*RPCBroadcaster)(nil)

// Accept submits tx for mempool admission.
func (b *RPCBroadcaster) Accept(ctx context.Context, tx *wire.MsgTx) error {
	hash, err := b.client.SendRawTransaction(tx, false)
	if err != nil {
		return fmt.Errorf("mempool: accept %s: %w", tx.TxHash(), err)
	}
	b.logger.WithField("tx", hash.String()).Debug("accepted final transaction")
	return nil
}

// Relay re-announces an already-accepted transaction to the network.
// bitcoind has no separate relay-only RPC; resubmitting is a no-op if
// the transaction is already in the mempool.
func (b *RPCBroadcaster) Relay(ctx context.Context, tx *wire.MsgTx) error {
	_, err := b.client.SendRawTransaction(tx, false)
	if err != nil && !alreadyInMempool(err) {
		return fmt.Errorf("mempool: relay %s: %w", tx.TxHash(), err)
	}
	return nil
}

// Prioritize nudges the fee-based ordering of an already-accepted
// transaction, the coordinator-side analogue of the
// PrioritiseTransaction call the original makes after relaying a
// completed mix, so a PrivateSend round isn't starved behind ordinary
// fee-market traffic. btcd's rpcclient has no typed helper for
// bitcoind's prioritisetransaction, so it is issued as a raw request.
func (b *RPCBroadcaster) Prioritize(ctx context.Context, tx *wire.MsgTx, bonus btcutil.Amount) error {
	hash := tx.TxHash()
	params := []interface{}{hash.String(), 0, int64(bonus)}
	raw := make([]json.RawMessage, len(params))
	for i, p := range params {
		encoded, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("mempool: encode prioritisetransaction param %d: %w", i, err)
		}
		raw[i] = encoded
	}
	_, err := b.client.RawRequest("prioritisetransaction", raw)
	if err != nil {
		return fmt.Errorf("mempool: prioritize %s: %w", hash, err)
	}
	return nil
}

func alreadyInMempool(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "already have transaction") || strings.Contains(msg, "txn-already-in-mempool")
}

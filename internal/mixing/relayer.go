package mixing

import (
	"context"

	"github.com/btcsuite/btcd/wire"
)

// PeerHandle is a typed, opaque reference to a connected participant.
// Package p2p implements it over a libp2p peer.ID; holding a handle
// rather than a raw identifier means a send can fail with ErrPeerGone
// instead of the session code ever scanning a live peer table itself.
type PeerHandle interface {
	ID() string
}

// StatusUpdate is the coordinator-side analogue of PoolStatusUpdate:
// a push to one participant describing the session's current state.
type StatusUpdate struct {
	SessionID uint32
	State     State
	Entries   int
	Reason    ReasonCode
}

// Relayer is everything Session and Dispatcher need from the transport
// layer: sending to one participant, and gossiping to everyone. Keeping
// it as an interface lets internal/mixing stay free of any p2p import,
// with internal/p2p implementing it against the real network.
type Relayer interface {
	SendFinalTx(ctx context.Context, peer PeerHandle, sessionID uint32, tx *wire.MsgTx) error
	SendStatus(ctx context.Context, peer PeerHandle, update StatusUpdate) error
	SendComplete(ctx context.Context, peer PeerHandle, sessionID uint32, reason ReasonCode) error
	BroadcastQueue(ctx context.Context, q *Queue) error
	BroadcastSignedTx(ctx context.Context, s *SignedTx) error
}

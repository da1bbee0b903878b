package p2p

import (
	"github.com/privasend/coordinator/internal/wireproto"
)

// TargetedEnvelope is what actually goes out over the gossip topic: a
// wireproto.Envelope plus an optional recipient. Peers other than the
// coordinator ignore anything not addressed to them or broadcast to
// everyone (an empty To), which is how PeerHandle.send simulates a
// direct message over a topology that only really offers broadcast.
type TargetedEnvelope struct {
	To string `json:"to,omitempty"`
	wireproto.Envelope
}

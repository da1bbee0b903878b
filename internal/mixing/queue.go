package mixing

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/wire"
)

// QueueTimeout bounds how long an advertised queue stays joinable.
const QueueTimeout = 30 * time.Second

// Queue is a coordinator's advertisement that it is ready to accept
// entries for a denomination, the wire-level analogue of CDarksendQueue.
type Queue struct {
	Denom       Denomination
	Coordinator wire.OutPoint
	Timestamp   time.Time
	Ready       bool
	Signature   []byte
}

// digest is the canonical byte serialization the advertisement is
// signed over: coordinator outpoint, denom, unix timestamp, and the
// ready flag, so flipping ready to true on the Queue->AcceptingEntries
// transition requires a fresh signature rather than reusing the
// ready=false one.
func (q *Queue) digest() [32]byte {
	buf := make([]byte, 0, 4+32+4+8+1)
	var b4 [4]byte
	binary.LittleEndian.PutUint32(b4[:], uint32(q.Denom))
	buf = append(buf, b4[:]...)
	buf = append(buf, q.Coordinator.Hash[:]...)
	binary.LittleEndian.PutUint32(b4[:], q.Coordinator.Index)
	buf = append(buf, b4[:]...)
	var b8 [8]byte
	binary.LittleEndian.PutUint64(b8[:], uint64(q.Timestamp.Unix()))
	buf = append(buf, b8[:]...)
	if q.Ready {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return sha256.Sum256(buf)
}

// Sign signs the advertisement with the coordinator's operator key.
func (q *Queue) Sign(priv *btcec.PrivateKey) error {
	digest := q.digest()
	sig := ecdsa.Sign(priv, digest[:])
	q.Signature = sig.Serialize()
	return nil
}

// CheckSignature verifies the advertisement against pub, the
// coordinator-side analogue of CDarksendQueue::CheckSignature.
func (q *Queue) CheckSignature(pub *btcec.PublicKey) bool {
	sig, err := ecdsa.ParseDERSignature(q.Signature)
	if err != nil {
		return false
	}
	digest := q.digest()
	return sig.Verify(digest[:], pub)
}

// IsExpired reports whether the advertisement has aged out, or was
// stamped implausibly far in the future.
func (q *Queue) IsExpired(now time.Time) bool {
	diff := now.Sub(q.Timestamp)
	if diff < 0 {
		diff = -diff
	}
	return diff > QueueTimeout
}

// Equal reports structural equality, used to drop duplicate dsq gossip.
func (q *Queue) Equal(other *Queue) bool {
	if q == nil || other == nil {
		return q == other
	}
	return q.Denom == other.Denom &&
		q.Coordinator == other.Coordinator &&
		q.Timestamp.Equal(other.Timestamp)
}

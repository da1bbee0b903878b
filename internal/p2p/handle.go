package p2p

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/privasend/coordinator/internal/config"
	"github.com/privasend/coordinator/internal/mixing"
	"github.com/privasend/coordinator/internal/wireproto"
)

const privKeyFile = "node_private_key.pem"

// loadOrCreatePrivateKey persists the coordinator's libp2p identity
// under the configured database directory, so restarts keep the same
// peer id.
func loadOrCreatePrivateKey(fileName string) (crypto.PrivKey, error) {
	dbDir := config.AppConfig.DbDir
	if err := os.MkdirAll(dbDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	pemPath := filepath.Join(dbDir, fileName)
	if _, err := os.Stat(pemPath); err == nil {
		raw, err := os.ReadFile(pemPath)
		if err != nil {
			return nil, err
		}
		return crypto.UnmarshalPrivateKey(raw)
	}

	priv, _, err := crypto.GenerateKeyPairWithReader(crypto.Ed25519, 2048, rand.Reader)
	if err != nil {
		return nil, err
	}
	raw, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(pemPath, raw, 0600); err != nil {
		return nil, err
	}
	return priv, nil
}

// PeerHandle is the libp2p-backed implementation of mixing.PeerHandle: a
// peer id plus the network used to reach it. It never scans a live peer
// table; send reports mixing.ErrPeerGone when the handle has no network
// or the publish fails. Because the envelope goes out over the shared
// topic, a recipient that has disconnected is not detected by send.
type PeerHandle struct {
	net *Network
	id  peer.ID
}

// NewPeerHandle wraps a peer id observed on the gossip topic.
func NewPeerHandle(net *Network, id peer.ID) *PeerHandle {
	return &PeerHandle{net: net, id: id}
}

func (p *PeerHandle) ID() string { return p.id.String() }

// send addresses env to this single peer over the shared gossip topic.
func (p *PeerHandle) send(ctx context.Context, env wireproto.Envelope) error {
	if p.net == nil {
		return mixing.ErrPeerGone
	}
	if err := p.net.publish(ctx, TargetedEnvelope{To: p.id.String(), Envelope: env}); err != nil {
		return fmt.Errorf("%w: %v", mixing.ErrPeerGone, err)
	}
	return nil
}

var _ mixing.Relayer = (*Network)(nil)

// SendFinalTx implements mixing.Relayer by wire-encoding and unicasting
// a dsf.
func (n *Network) SendFinalTx(ctx context.Context, peerHandle mixing.PeerHandle, sessionID uint32, tx *wire.MsgTx) error {
	env, err := wireproto.BuildDSF(fmt.Sprintf("dsf-%d", sessionID), wireproto.DSFPayload{SessionID: sessionID, FinalTx: *tx})
	if err != nil {
		return err
	}
	return n.sendTo(ctx, peerHandle, env)
}

// SendStatus implements mixing.Relayer by unicasting a dssu.
func (n *Network) SendStatus(ctx context.Context, peerHandle mixing.PeerHandle, update mixing.StatusUpdate) error {
	env, err := wireproto.BuildDSSU(fmt.Sprintf("dssu-%d", update.SessionID), wireproto.DSSUPayload{
		SessionID: update.SessionID,
		State:     int(update.State),
		Entries:   update.Entries,
		Reason:    int(update.Reason),
	})
	if err != nil {
		return err
	}
	return n.sendTo(ctx, peerHandle, env)
}

// SendComplete implements mixing.Relayer by unicasting a dsc.
func (n *Network) SendComplete(ctx context.Context, peerHandle mixing.PeerHandle, sessionID uint32, reason mixing.ReasonCode) error {
	env, err := wireproto.BuildDSC(fmt.Sprintf("dsc-%d", sessionID), wireproto.DSCPayload{SessionID: sessionID, Reason: int(reason)})
	if err != nil {
		return err
	}
	return n.sendTo(ctx, peerHandle, env)
}

func dsqRequestID() string {
	return "dsq-" + uuid.New().String()
}

// BroadcastQueue implements mixing.Relayer by gossiping a signed dsq to
// everyone.
func (n *Network) BroadcastQueue(ctx context.Context, q *mixing.Queue) error {
	env, err := wireproto.BuildDSQ(dsqRequestID(), wireproto.DSQPayload{
		Denom:       uint32(q.Denom),
		Coordinator: q.Coordinator,
		Timestamp:   q.Timestamp.Unix(),
		Ready:       q.Ready,
		Signature:   q.Signature,
	})
	if err != nil {
		return err
	}
	return n.publish(ctx, TargetedEnvelope{Envelope: env})
}

// BroadcastSignedTx implements mixing.Relayer by gossiping a dstx.
func (n *Network) BroadcastSignedTx(ctx context.Context, s *mixing.SignedTx) error {
	env, err := wireproto.BuildDSTX(s.Hash.String(), wireproto.DSTXPayload{Tx: *s.Tx})
	if err != nil {
		return err
	}
	return n.publish(ctx, TargetedEnvelope{Envelope: env})
}

func (n *Network) sendTo(ctx context.Context, peerHandle mixing.PeerHandle, env wireproto.Envelope) error {
	ph, ok := peerHandle.(*PeerHandle)
	if !ok {
		return fmt.Errorf("%w: not a p2p peer handle", mixing.ErrPeerGone)
	}
	return ph.send(ctx, env)
}

func toDSARequest(peerHandle *PeerHandle, p wireproto.DSAPayload) mixing.DSARequest {
	tx := p.Collateral
	values := make([]btcutil.Amount, len(p.InputValues))
	for i, v := range p.InputValues {
		values[i] = btcutil.Amount(v)
	}
	return mixing.DSARequest{
		Peer:         peerHandle,
		ProtoVersion: p.ProtoVersion,
		Denom:        mixing.Denomination(p.Denom),
		Collateral:   mixing.CollateralSubmission{Tx: &tx, InputValues: values},
	}
}

func toDSIRequest(peerHandle *PeerHandle, p wireproto.DSIPayload) mixing.DSIRequest {
	tx := p.Collateral
	values := make([]btcutil.Amount, len(p.InputValues))
	for i, v := range p.InputValues {
		values[i] = btcutil.Amount(v)
	}
	inputs := make([]*mixing.EntryInput, len(p.Inputs))
	for i, in := range p.Inputs {
		inputs[i] = &mixing.EntryInput{
			TxIn:         in.TxIn,
			PrevValue:    btcutil.Amount(in.PrevValue),
			PrevPkScript: in.PrevPkScript,
		}
	}
	outputs := make([]*wire.TxOut, len(p.Outputs))
	for i := range p.Outputs {
		out := p.Outputs[i]
		outputs[i] = &out
	}
	return mixing.DSIRequest{
		Peer:       peerHandle,
		Collateral: mixing.CollateralSubmission{Tx: &tx, InputValues: values},
		Inputs:     inputs,
		Outputs:    outputs,
	}
}

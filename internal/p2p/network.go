package p2p

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"

	log "github.com/sirupsen/logrus"

	"github.com/privasend/coordinator/internal/config"
	"github.com/privasend/coordinator/internal/mixing"
	"github.com/privasend/coordinator/internal/wireproto"
)

// Protocol constants, renamed to this coordinator's own namespace but
// otherwise the same shape the teacher network used: a direct-stream
// protocol id for handshakes and a single gossip topic everything else
// rides on.
const (
	ProtocolID   = "/privasend/coordinator/1.0.0"
	DiscoveryTag = "privasend-coordinator"
	GossipTopic  = "privasend-coordinator-mix"
)

// Network is the coordinator's gossip transport: a libp2p host, one
// pubsub topic, and the dispatcher every decoded envelope is routed
// into. It implements mixing.Relayer directly, so internal/mixing never
// needs to know libp2p exists.
type Network struct {
	dispatcher *mixing.Dispatcher
	logger     *log.Entry
	host       host.Host
	ps         *pubsub.PubSub
	topic      *pubsub.Topic
	ctx        context.Context
	cancel     context.CancelFunc

	mu    sync.RWMutex
	peers map[string]peer.ID
}

func displayPublicKey(h host.Host) {
	pub := h.Peerstore().PubKey(h.ID())
	if pub == nil {
		log.Errorf("public key not found in peerstore")
		return
	}
	raw, err := crypto.MarshalPublicKey(pub)
	if err != nil {
		log.Errorf("marshal public key error: %v", err)
		return
	}
	log.Debugf("Node PeerID: %s", h.ID().String())
	log.Debugf("Public Key hex: %s", hex.EncodeToString(raw))
}

// NewNetwork creates and initializes the gossip transport, joining the
// mix topic and wiring incoming envelopes into dispatcher.
func NewNetwork(dispatcher *mixing.Dispatcher) (*Network, error) {
	logger := log.WithFields(log.Fields{"module": "p2p"})

	priv, err := loadOrCreatePrivateKey(privKeyFile)
	if err != nil {
		return nil, err
	}
	options := []libp2p.Option{libp2p.Identity(priv)}
	listenAddr := fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", config.AppConfig.Libp2pPort)
	options = append(options, libp2p.ListenAddrStrings(listenAddr))

	addrsOpt := libp2p.AddrsFactory(func(in []multiaddr.Multiaddr) (out []multiaddr.Multiaddr) {
		for _, a := range in {
			if manet.IsPublicAddr(a) || manet.IsPrivateAddr(a) {
				if !manet.IsIPLoopback(a) && !manet.IsIP6LinkLocal(a) && !manet.IsIPUnspecified(a) {
					out = append(out, a)
				}
			}
		}
		for _, s := range strings.FieldsFunc(os.Getenv("EXTERNAL_P2P_ADDR"), func(r rune) bool { return r == ',' || r == ' ' }) {
			if m, err := multiaddr.NewMultiaddr(strings.TrimSpace(s)); err == nil {
				out = append(out, m)
			} else {
				log.Warnf("bad multiaddr %q: %v", s, err)
			}
		}
		return
	})
	options = append(options, addrsOpt)

	h, err := libp2p.New(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create libp2p host: %w", err)
	}
	displayPublicKey(h)

	h.SetStreamHandler(protocol.ID(ProtocolID), func(stream network.Stream) {
		defer stream.Close()
		logger.Debugf("Received protocol stream from %s", stream.Conn().RemotePeer())
	})

	ctx := context.Background()
	ps, err := pubsub.NewGossipSub(ctx, h,
		pubsub.WithMessageSignaturePolicy(pubsub.StrictSign),
		pubsub.WithPeerOutboundQueueSize(1000),
		pubsub.WithPeerExchange(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub: %w", err)
	}

	topic, err := ps.Join(GossipTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to join topic %s: %w", GossipTopic, err)
	}

	ctx, cancel := context.WithCancel(ctx)

	n := &Network{
		dispatcher: dispatcher,
		logger:     logger,
		host:       h,
		ps:         ps,
		topic:      topic,
		ctx:        ctx,
		cancel:     cancel,
		peers:      make(map[string]peer.ID),
	}

	go n.handlePubSubMessages()
	go n.startHeartbeat()

	logger.Infof("P2P network initialized with PubSub. Node ID: %s", n.host.ID())
	for _, addr := range n.host.Addrs() {
		logger.Infof("Listening on: %s/p2p/%s", addr, n.host.ID())
	}
	if externalAddr := os.Getenv("EXTERNAL_P2P_ADDR"); externalAddr != "" {
		logger.Infof("External P2P address configured: %s/p2p/%s", externalAddr, n.host.ID())
	} else {
		logger.Warnf("EXTERNAL_P2P_ADDR not configured. Other nodes may not be able to connect to this bootnode.")
	}

	return n, nil
}

func (n *Network) handlePubSubMessages() {
	sub, err := n.topic.Subscribe()
	if err != nil {
		n.logger.Errorf("Failed to subscribe to topic %s: %v", GossipTopic, err)
		return
	}
	defer sub.Cancel()

	for {
		msg, err := sub.Next(n.ctx)
		if err != nil {
			select {
			case <-n.ctx.Done():
				return
			default:
				n.logger.Errorf("Error receiving pubsub message: %v", err)
				continue
			}
		}
		if msg.GetFrom() == n.host.ID() {
			continue
		}

		n.mu.Lock()
		n.peers[msg.GetFrom().String()] = msg.GetFrom()
		n.mu.Unlock()

		var env TargetedEnvelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			n.logger.Errorf("Error unmarshaling pubsub message: %v", err)
			continue
		}
		if env.To != "" && env.To != n.host.ID().String() {
			continue
		}

		n.dispatch(msg.GetFrom(), env)
	}
}

// dispatch decodes one envelope's payload and forwards it into the
// mixing dispatcher, the coordinator-side fan-in every dsa/dsq/dsi/dss
// message passes through.
func (n *Network) dispatch(from peer.ID, env TargetedEnvelope) {
	peerHandle := NewPeerHandle(n, from)
	switch env.Command {
	case wireproto.CmdDSA:
		var p wireproto.DSAPayload
		if err := wireproto.Decode(env.Envelope, &p); err != nil {
			n.logger.WithError(err).Warn("bad dsa payload")
			return
		}
		result := make(chan error, 1)
		n.dispatcher.HandleDSA(toDSARequest(peerHandle, p), result)
	case wireproto.CmdDSI:
		var p wireproto.DSIPayload
		if err := wireproto.Decode(env.Envelope, &p); err != nil {
			n.logger.WithError(err).Warn("bad dsi payload")
			return
		}
		result := make(chan error, 1)
		n.dispatcher.HandleDSI(toDSIRequest(peerHandle, p), result)
	case wireproto.CmdDSS:
		var p wireproto.DSSPayload
		if err := wireproto.Decode(env.Envelope, &p); err != nil {
			n.logger.WithError(err).Warn("bad dss payload")
			return
		}
		result := make(chan error, 1)
		n.dispatcher.HandleDSS(mixing.DSSRequest{TxIn: p.TxIn}, result)
	case wireproto.CmdDSQ:
		n.logger.Debug("received queue advertisement")
	default:
		n.logger.Warnf("unknown or non-actionable command: %s", env.Command)
	}
}

// Initialize connects to bootstrap peers configured for this node.
func (n *Network) Initialize(ctx context.Context) error {
	bootNodeAddrs := strings.Split(config.AppConfig.Libp2pBootNodes, ",")
	if len(bootNodeAddrs) > 0 {
		if err := n.connectToBootstrapPeers(ctx); err != nil {
			return fmt.Errorf("failed to connect to bootstrap peers: %w", err)
		}
	}
	return nil
}

func (n *Network) ID() peer.ID { return n.host.ID() }

func (n *Network) Addrs() []string {
	addrs := n.host.Addrs()
	result := make([]string, len(addrs))
	for i, addr := range addrs {
		result[i] = addr.String()
	}
	return result
}

func (n *Network) Start() error {
	return n.Initialize(context.Background())
}

func (n *Network) Close() error {
	n.cancel()
	return n.host.Close()
}

// publish marshals and publishes a targeted envelope.
func (n *Network) publish(ctx context.Context, env TargetedEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := n.topic.Publish(ctx, data); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", GossipTopic, err)
	}
	return nil
}

func (n *Network) Connect(ctx context.Context, peerID peer.ID, addrs []string) error {
	var maddrs []multiaddr.Multiaddr
	for _, addr := range addrs {
		maddr, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			return fmt.Errorf("invalid multiaddr %s: %w", addr, err)
		}
		maddrs = append(maddrs, maddr)
	}
	return n.host.Connect(ctx, peer.AddrInfo{ID: peerID, Addrs: maddrs})
}

func (n *Network) GetPeers() []peer.ID {
	return n.host.Network().Peers()
}

func (n *Network) startHeartbeat() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			peers := n.GetPeers()
			topicPeers := []peer.ID{}
			if n.topic != nil {
				topicPeers = n.topic.ListPeers()
			}
			n.logger.Infof("Heartbeat: connected to %d peers, %d topic peers", len(peers), len(topicPeers))

			if len(peers) == 0 {
				n.logger.Warnf("No peers connected, attempting to reconnect to bootstrap peers...")
				if err := n.connectToBootstrapPeers(n.ctx); err != nil {
					n.logger.Debugf("reconnect attempt: %v", err)
				}
			}
		}
	}
}

func (n *Network) connectToBootstrapPeers(ctx context.Context) error {
	successfulConnections := 0
	bootNodeAddrs := strings.Split(config.AppConfig.Libp2pBootNodes, ",")

	var validAddrs []string
	for _, addr := range bootNodeAddrs {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			validAddrs = append(validAddrs, addr)
		}
	}
	if len(validAddrs) == 0 {
		return fmt.Errorf("no valid bootstrap peer addresses configured")
	}

	for _, peerAddr := range validAddrs {
		addr, err := multiaddr.NewMultiaddr(peerAddr)
		if err != nil {
			n.logger.Errorf("Failed to parse bootstrap peer address %s: %v", peerAddr, err)
			continue
		}
		peerInfo, err := peer.AddrInfoFromP2pAddr(addr)
		if err != nil {
			n.logger.Errorf("Failed to get peer info from address %s: %v", peerAddr, err)
			continue
		}
		if peerInfo.ID == n.host.ID() {
			continue
		}
		if err := n.host.Connect(ctx, *peerInfo); err != nil {
			n.logger.Errorf("Failed to connect to bootstrap peer %s: %v", peerInfo.ID, err)
			continue
		}
		n.logger.Infof("Successfully connected to bootstrap peer: %s", peerInfo.ID)
		successfulConnections++
	}

	if successfulConnections == 0 {
		return fmt.Errorf("failed to connect to any bootstrap peers")
	}
	return nil
}

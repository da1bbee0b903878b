package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"

	"github.com/privasend/coordinator/internal/chainsync"
	"github.com/privasend/coordinator/internal/config"
	"github.com/privasend/coordinator/internal/db"
	"github.com/privasend/coordinator/internal/events"
	"github.com/privasend/coordinator/internal/httpapi"
	"github.com/privasend/coordinator/internal/maintenance"
	"github.com/privasend/coordinator/internal/mempool"
	"github.com/privasend/coordinator/internal/mixing"
	"github.com/privasend/coordinator/internal/p2p"
	"github.com/privasend/coordinator/internal/registry"
)

// Application is the coordinator daemon's top-level wiring, the
// coordinator-domain equivalent of the relayer's own Application type:
// one struct holding every long-lived component, built once in
// NewApplication and started together in Run.
type Application struct {
	DatabaseManager *db.DatabaseManager
	Repository      *db.MixRepository
	Session         *mixing.Session
	Dispatcher      *mixing.Dispatcher
	Network         *p2p.Network
	HTTPServer      *httpapi.Server
	Maintenance     *maintenance.Runner
	ChainMonitor    *chainsync.RPCMonitor
}

func NewApplication() *Application {
	config.InitConfig()

	connConfig := &rpcclient.ConnConfig{
		Host:         config.AppConfig.BTCRPC,
		User:         config.AppConfig.BTCRPCUser,
		Pass:         config.AppConfig.BTCRPCPass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}
	btcClient, err := rpcclient.New(connConfig, nil)
	if err != nil {
		log.Fatalf("Failed to start bitcoin client: %v", err)
	}

	dbm := db.NewDatabaseManager()
	repo := db.NewMixRepository(dbm)

	journal := mixing.NewSignedTxJournal()
	if recs, err := repo.ListSignedTxs(); err != nil {
		log.Warnf("failed to rehydrate signed-tx journal: %v", err)
	} else {
		for _, rec := range recs {
			var tx wire.MsgTx
			if err := tx.Deserialize(bytes.NewReader(rec.RawTx)); err != nil {
				log.Warnf("skipping malformed persisted tx %s: %v", rec.TxHash, err)
				continue
			}
			journal.Add(&tx)
		}
	}

	reg := registry.NewInMemory()
	if recs, err := repo.ListRegistryEntries(); err != nil {
		log.Warnf("failed to rehydrate registry: %v", err)
	} else {
		for _, rec := range recs {
			hash, err := chainhash.NewHashFromStr(rec.CollateralTxHash)
			if err != nil {
				continue
			}
			pubBytes, err := hex.DecodeString(rec.OperatorPubKeyHex)
			if err != nil {
				continue
			}
			pub, err := btcec.ParsePubKey(pubBytes)
			if err != nil {
				continue
			}
			reg.Put(registry.Entry{
				CollateralOutpoint: wire.OutPoint{Hash: *hash, Index: rec.CollateralVout},
				OperatorPubKey:     pub,
			})
		}
	}

	chainMonitor := chainsync.NewRPCMonitor(btcClient)
	broadcaster := mempool.NewRPCBroadcaster(btcClient)
	rng := mixing.NewSystemRNG()

	coordinator := wire.OutPoint{Index: uint32(config.AppConfig.CoordinatorCollateralVout)}
	if config.AppConfig.CoordinatorCollateralTxID != "" {
		hash, err := chainhash.NewHashFromStr(config.AppConfig.CoordinatorCollateralTxID)
		if err != nil {
			log.Fatalf("invalid coordinator collateral txid: %v", err)
		}
		coordinator.Hash = *hash
	}

	session := mixing.NewSession(coordinator, nil, broadcaster, journal, rng)
	session.SetFeeFetcher(mempool.NewRPCFeeFetcher(btcClient, config.AppConfig.MempoolFeeURL))

	bus := events.NewBus()
	session.SetEventBus(bus)
	startEventLogger(bus)

	var queueKey *btcec.PrivateKey
	if config.AppConfig.OperatorPrivateKey != "" {
		raw, err := hex.DecodeString(config.AppConfig.OperatorPrivateKey)
		if err != nil {
			log.Fatalf("invalid operator private key: %v", err)
		}
		queueKey, _ = btcec.PrivKeyFromBytes(raw)
	}

	dispatcher := mixing.NewDispatcher(session, mixing.NewLedger(), reg, chainMonitor, queueKey)

	network, err := p2p.NewNetwork(dispatcher)
	if err != nil {
		log.Fatalf("Failed to start p2p network: %v", err)
	}
	session.SetRelayer(network)

	httpServer := httpapi.NewServer(session)
	maintRunner := maintenance.NewRunner(dispatcher, journal, chainMonitor)

	return &Application{
		DatabaseManager: dbm,
		Repository:      repo,
		Session:         session,
		Dispatcher:      dispatcher,
		Network:         network,
		HTTPServer:      httpServer,
		Maintenance:     maintRunner,
		ChainMonitor:    chainMonitor,
	}
}

func (app *Application) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	if err := app.Network.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize p2p network: %v", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.Dispatcher.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.Network.Start(); err != nil {
			log.Errorf("p2p network stopped: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.HTTPServer.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.Maintenance.Start(ctx)
	}()

	<-stop
	log.Info("Receiving exit signal...")
	cancel()
	if err := app.Network.Close(); err != nil {
		log.Warnf("error closing p2p network: %v", err)
	}

	wg.Wait()
	log.Info("Coordinator stopped")
}

// startEventLogger subscribes a background consumer to every round
// lifecycle event, standing in for the dashboard a registered operator
// would otherwise watch.
func startEventLogger(bus *events.Bus) {
	for _, t := range []events.EventType{
		events.RoundOpened, events.EntryAdded, events.SigningStarted,
		events.RoundCompleted, events.RoundFailed,
	} {
		ch := make(chan events.RoundEvent, 16)
		bus.Subscribe(t, ch)
		go func(t events.EventType, ch chan events.RoundEvent) {
			for ev := range ch {
				log.WithFields(log.Fields{"module": "events", "session": ev.SessionID, "type": t.String()}).Info(ev.Reason)
			}
		}(t, ch)
	}
}

func main() {
	app := NewApplication()
	app.Run()
}

package mempool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/rpcclient"
	log "github.com/sirupsen/logrus"
)

// NetworkFee is the fee-rate snapshot used to size the bonus a
// coordinator attaches to a final transaction via Prioritize.
type NetworkFee struct {
	FastestFee  uint64 // sat/vByte, ~1 block
	HalfHourFee uint64
	HourFee     uint64
}

// FeeFetcher reports the current network fee rate.
type FeeFetcher interface {
	GetNetworkFee() (*NetworkFee, error)
}

// mempoolFeesResp is the shape of mempool.space's recommended-fees API.
type mempoolFeesResp struct {
	FastestFee  uint64 `json:"fastestFee"`
	HalfHourFee uint64 `json:"halfHourFee"`
	HourFee     uint64 `json:"hourFee"`
}

// RPCFeeFetcher estimates the network fee rate. With a mempool.space URL
// configured it asks that API first and falls back to the connected btcd
// node's own estimate, with no further fallback. Without a URL it asks
// the node and falls back to a fixed regtest-sized default.
type RPCFeeFetcher struct {
	btcClient  *rpcclient.Client
	httpClient *http.Client
	mempoolURL string
}

// NewRPCFeeFetcher wraps an already-connected rpcclient.Client.
// mempoolURL may be empty, in which case only the node's own fee
// estimate is used.
func NewRPCFeeFetcher(client *rpcclient.Client, mempoolURL string) *RPCFeeFetcher {
	return &RPCFeeFetcher{
		btcClient:  client,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		mempoolURL: mempoolURL,
	}
}

func (f *RPCFeeFetcher) GetNetworkFee() (*NetworkFee, error) {
	if f.btcClient == nil {
		return nil, errors.New("btc client is not set")
	}
	if f.mempoolURL == "" {
		fee, err := f.fromNode()
		if err != nil {
			log.Warnf("failed to get fee rate from btc node, using regtest default: %v", err)
			return &NetworkFee{FastestFee: 3, HalfHourFee: 3, HourFee: 3}, nil
		}
		return fee, nil
	}

	fee, err := f.fromMempoolSpace()
	if err != nil {
		log.Errorf("failed to get fee rate from mempool.space, falling back to btc node: %v", err)
		return f.fromNode()
	}
	return fee, nil
}

func (f *RPCFeeFetcher) fromMempoolSpace() (*NetworkFee, error) {
	resp, err := f.httpClient.Get(f.mempoolURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var feeResp mempoolFeesResp
	if err := json.NewDecoder(resp.Body).Decode(&feeResp); err != nil {
		return nil, err
	}
	return &NetworkFee{
		FastestFee:  feeResp.FastestFee,
		HalfHourFee: feeResp.HalfHourFee,
		HourFee:     feeResp.HourFee,
	}, nil
}

func (f *RPCFeeFetcher) fromNode() (*NetworkFee, error) {
	fastest, err := estimateSatPerVByte(f.btcClient, 1)
	if err != nil {
		return nil, fmt.Errorf("estimate smart fee 1: %w", err)
	}
	halfHour, err := estimateSatPerVByte(f.btcClient, 3)
	if err != nil {
		return nil, fmt.Errorf("estimate smart fee 3: %w", err)
	}
	hour, err := estimateSatPerVByte(f.btcClient, 6)
	if err != nil {
		return nil, fmt.Errorf("estimate smart fee 6: %w", err)
	}
	return &NetworkFee{FastestFee: fastest, HalfHourFee: halfHour, HourFee: hour}, nil
}

func estimateSatPerVByte(client *rpcclient.Client, confTarget int64) (uint64, error) {
	estimate, err := client.EstimateSmartFee(confTarget, &btcjson.EstimateModeConservative)
	if err != nil || estimate == nil || estimate.FeeRate == nil {
		return 0, fmt.Errorf("no fee estimate for target %d: %v", confTarget, err)
	}
	return uint64((*estimate.FeeRate * 1e8) / 1000), nil
}

// GetNetworkFeeRate implements mixing.FeeFetcher, using the fastest-
// confirmation estimate as the bonus basis for a just-completed round.
func (f *RPCFeeFetcher) GetNetworkFeeRate(ctx context.Context) (uint64, error) {
	fee, err := f.GetNetworkFee()
	if err != nil {
		return 0, err
	}
	return fee.FastestFee, nil
}

package mempool

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/stretchr/testify/require"

	"github.com/stretchr/testify/assert"
)

// fakeBtcClient is a non-nil rpcclient.Client that never actually dials;
// btcd's HTTP-post-mode client only connects lazily on the first RPC
// call, so constructing one is enough to clear RPCFeeFetcher's nil guard
// without reaching the network.
func fakeBtcClient(t *testing.T) *rpcclient.Client {
	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         "127.0.0.1:0",
		User:         "u",
		Pass:         "p",
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestGetNetworkFeeUsesMempoolSpaceWhenURLConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(mempoolFeesResp{FastestFee: 12, HalfHourFee: 8, HourFee: 4})
	}))
	defer srv.Close()

	f := NewRPCFeeFetcher(fakeBtcClient(t), srv.URL)
	fee, err := f.GetNetworkFee()
	require.NoError(t, err)
	assert.EqualValues(t, 12, fee.FastestFee)
	assert.EqualValues(t, 8, fee.HalfHourFee)
	assert.EqualValues(t, 4, fee.HourFee)
}

func TestGetNetworkFeeErrorsWithoutABtcClient(t *testing.T) {
	f := NewRPCFeeFetcher(nil, "")
	_, err := f.GetNetworkFee()
	assert.Error(t, err)
}

func TestGetNetworkFeeRateReturnsFastestFee(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(mempoolFeesResp{FastestFee: 20})
	}))
	defer srv.Close()

	f := NewRPCFeeFetcher(fakeBtcClient(t), srv.URL)
	rate, err := f.GetNetworkFeeRate(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 20, rate)
}

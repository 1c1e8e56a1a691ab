package rpc_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Mohsinsiddi/rollupdash/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ep(url string, latency time.Duration, block uint64) rpc.Endpoint {
	return rpc.Endpoint{URL: url, Latency: latency, BlockNumber: block}
}

func TestPickerSelectsFastest(t *testing.T) {
	endpoints := []rpc.Endpoint{
		ep("http://slow.rpc", 200*time.Millisecond, 100),
		ep("http://fast.rpc", 30*time.Millisecond, 100),
		ep("http://medium.rpc", 80*time.Millisecond, 100),
	}

	winner, err := rpc.NewPicker(rpc.AlgorithmFastest).Pick(endpoints)
	require.NoError(t, err)
	assert.Equal(t, "http://fast.rpc", winner.URL)
}

func TestPickerDiscardsStaleNodes(t *testing.T) {
	endpoints := []rpc.Endpoint{
		ep("http://fresh.rpc", 50*time.Millisecond, 1000),
		ep("http://stale.rpc", 10*time.Millisecond, 990),
	}

	winner, err := rpc.NewPicker(rpc.AlgorithmFastest).Pick(endpoints)
	require.NoError(t, err)
	assert.Equal(t, "http://fresh.rpc", winner.URL, "stale node should be discarded even if faster")
}

func TestPickerSkipsFailedEndpoints(t *testing.T) {
	endpoints := []rpc.Endpoint{
		{URL: "http://down.rpc", Err: errors.New("refused")},
		ep("http://up.rpc", 90*time.Millisecond, 5),
	}

	for _, algo := range []rpc.Algorithm{rpc.AlgorithmFastest, rpc.AlgorithmFailover, rpc.AlgorithmRoundRobin} {
		winner, err := rpc.NewPicker(algo).Pick(endpoints)
		require.NoError(t, err)
		assert.Equal(t, "http://up.rpc", winner.URL, string(algo))
	}
}

func TestPickerRoundRobin(t *testing.T) {
	endpoints := []rpc.Endpoint{
		ep("http://rpc1", 0, 100),
		ep("http://rpc2", 0, 100),
		ep("http://rpc3", 0, 100),
	}

	picker := rpc.NewPicker(rpc.AlgorithmRoundRobin)
	var urls []string
	for range 4 {
		e, err := picker.Pick(endpoints)
		require.NoError(t, err)
		urls = append(urls, e.URL)
	}
	assert.Equal(t, []string{"http://rpc1", "http://rpc2", "http://rpc3", "http://rpc1"}, urls)
}

func TestPickerFailoverKeepsOrder(t *testing.T) {
	endpoints := []rpc.Endpoint{
		ep("http://primary", 300*time.Millisecond, 100),
		ep("http://backup", 10*time.Millisecond, 100),
	}
	winner, err := rpc.NewPicker(rpc.AlgorithmFailover).Pick(endpoints)
	require.NoError(t, err)
	assert.Equal(t, "http://primary", winner.URL)
}

func TestPickerNoEndpoints(t *testing.T) {
	_, err := rpc.NewPicker(rpc.AlgorithmFastest).Pick(nil)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)

	_, err = rpc.NewPicker(rpc.AlgorithmFastest).Pick([]rpc.Endpoint{{URL: "x", Err: errors.New("down")}})
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}

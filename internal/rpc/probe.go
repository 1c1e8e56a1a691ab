package rpc

import (
	"context"

	"github.com/Mohsinsiddi/rollupdash/internal/chain"
	"golang.org/x/sync/errgroup"
)

// Pinger measures one endpoint. Tests swap it out.
type Pinger func(ctx context.Context, url string) (Endpoint, error)

// pingEVM dials url and reads the latest block.
func pingEVM(ctx context.Context, url string) (Endpoint, error) {
	c, err := chain.NewEVMClient(url)
	if err != nil {
		return Endpoint{URL: url, Err: err}, err
	}
	defer c.Close()
	latency, block, err := c.Ping(ctx)
	return Endpoint{URL: url, Latency: latency, BlockNumber: block, Err: err}, err
}

// Probe pings every URL concurrently. The result keeps the order of urls;
// failed probes carry their error instead of aborting the others.
func Probe(ctx context.Context, urls []string, ping Pinger) []Endpoint {
	if ping == nil {
		ping = pingEVM
	}
	out := make([]Endpoint, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			ep, err := ping(ctx, u)
			ep.URL = u
			ep.Err = err
			out[i] = ep
			return nil
		})
	}
	g.Wait() //nolint:errcheck
	return out
}

// Select probes urls and returns the one chosen by algorithm. A single URL is
// returned without probing.
func Select(ctx context.Context, urls []string, algorithm string) (string, error) {
	return selectWith(ctx, urls, algorithm, pingEVM)
}

func selectWith(ctx context.Context, urls []string, algorithm string, ping Pinger) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}
	algo := Algorithm(algorithm)
	if algo == "" {
		algo = AlgorithmFastest
	}
	winner, err := NewPicker(algo).Pick(Probe(ctx, urls, ping))
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}

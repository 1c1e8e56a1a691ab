// Package rpc chooses a base-layer RPC endpoint when a chain lists several.
package rpc

import (
	"errors"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"
	AlgorithmFailover   Algorithm = "failover"

	// Nodes more than this many blocks behind the best are skipped.
	staleBlockThreshold = 3
)

// Endpoint is one probed RPC URL.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// Healthy reports whether the probe succeeded.
func (e Endpoint) Healthy() bool { return e.Err == nil }

// Picker selects an endpoint according to its algorithm. Round-robin keeps
// its position across calls, so share one Picker per chain.
type Picker struct {
	algo Algorithm

	mu   sync.Mutex
	next int
}

// NewPicker creates a Picker. An unknown algorithm behaves like fastest.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{algo: algo}
}

// Pick chooses among endpoints, ignoring failed and stale ones.
func (p *Picker) Pick(endpoints []Endpoint) (Endpoint, error) {
	live := fresh(endpoints)
	if len(live) == 0 {
		return Endpoint{}, ErrNoHealthyRPC
	}

	switch p.algo {
	case AlgorithmFailover:
		return live[0], nil
	case AlgorithmRoundRobin:
		p.mu.Lock()
		defer p.mu.Unlock()
		e := live[p.next%len(live)]
		p.next = (p.next + 1) % len(live)
		return e, nil
	default:
		best := live[0]
		for _, e := range live[1:] {
			if e.Latency < best.Latency {
				best = e
			}
		}
		return best, nil
	}
}

// fresh keeps healthy endpoints within staleBlockThreshold of the best block,
// preserving input order.
func fresh(endpoints []Endpoint) []Endpoint {
	var bestBlock uint64
	for _, e := range endpoints {
		if e.Healthy() && e.BlockNumber > bestBlock {
			bestBlock = e.BlockNumber
		}
	}
	var out []Endpoint
	for _, e := range endpoints {
		if !e.Healthy() {
			continue
		}
		if bestBlock-e.BlockNumber > staleBlockThreshold {
			continue
		}
		out = append(out, e)
	}
	return out
}

// check-rpcs: probes the built-in RPC endpoints of every chain in parallel
// and prints latency and head block per endpoint.
//
// Run from the module root:
//
//	go run ./scripts/check-rpcs [node-url]
//
// The node URL expands {node} templates of local chains; without it local
// chains are skipped.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/rollupdash/internal/chain"
	"github.com/Mohsinsiddi/rollupdash/internal/rpc"
)

const rpcTimeout = 12 * time.Second

type result struct {
	chain   string
	url     string
	latency string
	block   string
	note    string
}

func main() {
	nodeURL := ""
	if len(os.Args) > 1 {
		nodeURL = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	var results []result
	for _, c := range chain.NewRegistry().All() {
		urls := c.Endpoints(nodeURL)
		if len(urls) == 0 {
			continue
		}
		for _, ep := range rpc.Probe(ctx, urls, nil) {
			r := result{chain: c.Name, url: ep.URL, latency: "-", block: "-"}
			if ep.Healthy() {
				r.latency = ep.Latency.Round(time.Millisecond).String()
				r.block = fmt.Sprint(ep.BlockNumber)
			} else {
				r.note = shortErr(ep.Err)
			}
			results = append(results, r)
		}
	}

	printTable(results)
}

func printTable(results []result) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].chain < results[j].chain })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHAIN\tRPC\tLATENCY\tBLOCK\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 30)+"\t"+
		strings.Repeat("-", 8)+"\t"+
		strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 12))
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.chain, r.url, r.latency, r.block, r.note)
	}
	w.Flush()
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 40 {
		return s[:40] + "…"
	}
	return s
}

package config

import "time"

// Gas limits used when the node cannot estimate the transaction.
const (
	GasLimitAddInput      = uint64(150_000)
	GasLimitExecuteOutput = uint64(500_000)
)

// Timeout constants used across cmd and the dashboard.
const (
	RPCSelectTimeout   = 10 * time.Second // endpoint benchmark / selection
	TxConfirmTimeout   = 3 * time.Minute  // transaction confirmation wait
	NodeRequestTimeout = 15 * time.Second // single inspect or JSON-RPC call to the node
)

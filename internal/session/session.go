// Package session holds the transient state of one dashboard run: which
// chain and wallet are connected, which application and node are targeted,
// and the most recent data fetched from the node.
package session

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/rollupdash/internal/node"
)

// Kind identifies an independently refreshed piece of state.
type Kind int

const (
	KindReports Kind = iota
	KindOutputs
	KindLastAccepted
	KindChain
	KindAccount
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindReports:
		return "reports"
	case KindOutputs:
		return "outputs"
	case KindLastAccepted:
		return "last-accepted-epoch"
	case KindChain:
		return "chain"
	case KindAccount:
		return "account"
	}
	return "unknown"
}

// Ticket is handed out when a fetch starts. Results are only applied when
// the ticket is still the latest one issued for its kind.
type Ticket struct {
	kind Kind
	seq  uint64
}

// Kind returns the kind the ticket was issued for.
func (t Ticket) Kind() Kind { return t.kind }

// Snapshot is a copy of the session state safe to read without locking.
type Snapshot struct {
	Connected         bool
	ChainID           int64
	Wallet            string
	AppAddress        string
	NodeURL           string
	Reports           []node.Report
	Outputs           []node.Output
	LastAcceptedEpoch uint64
	Message           string
}

// Session is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	chainID int64
	wallet  string
	app     string
	nodeURL string

	reports      []node.Report
	outputs      []node.Output
	lastAccepted uint64
	message      string

	issued [kindCount]uint64
}

// New creates a disconnected session targeting app on nodeURL.
func New(app, nodeURL string) *Session {
	return &Session{app: app, nodeURL: nodeURL}
}

// Connect records a connected chain and wallet address.
func (s *Session) Connect(chainID int64, wallet string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chainID = chainID
	s.wallet = wallet
	s.message = ""
}

// Disconnect drops the connection and everything fetched under it. The
// application and node targets survive. Fetches in flight are invalidated.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnectLocked()
}

func (s *Session) disconnectLocked() {
	s.chainID = 0
	s.wallet = ""
	s.reports = nil
	s.outputs = nil
	s.lastAccepted = 0
	s.message = ""
	for i := range s.issued {
		s.issued[i]++
	}
}

// ChainChanged handles the RPC endpoint reporting a different chain. A
// connected session is dropped since its wallet, contracts and fetched data
// belong to the old chain. It reports whether the session disconnected.
func (s *Session) ChainChanged(chainID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chainID == 0 || s.chainID == chainID {
		return false
	}
	s.disconnectLocked()
	return true
}

// AccountChanged handles the connected wallet resolving to addr. An empty
// address means the wallet went away and the session disconnects. It
// reports whether anything changed.
func (s *Session) AccountChanged(addr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wallet == "" {
		return false
	}
	if strings.TrimSpace(addr) == "" {
		s.disconnectLocked()
		return true
	}
	if common.IsHexAddress(addr) {
		addr = common.HexToAddress(addr).Hex()
	}
	if addr == s.wallet {
		return false
	}
	s.wallet = addr
	return true
}

// BeginFetch issues a ticket for a new fetch of kind, superseding any
// earlier one.
func (s *Session) BeginFetch(kind Kind) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[kind]++
	return Ticket{kind: kind, seq: s.issued[kind]}
}

func (s *Session) currentLocked(t Ticket, kind Kind) bool {
	return t.kind == kind && t.seq == s.issued[kind]
}

// Current reports whether t is still the latest ticket of its kind. Errors
// from superseded fetches are dropped with it.
func (s *Session) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(t, t.kind)
}

// ApplyReports stores reports fetched under t. Stale results are dropped
// and false is returned.
func (s *Session) ApplyReports(t Ticket, reports []node.Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(t, KindReports) {
		return false
	}
	s.reports = reports
	return true
}

// ApplyOutputs stores outputs fetched under t. Stale results are dropped
// and false is returned.
func (s *Session) ApplyOutputs(t Ticket, outputs []node.Output) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(t, KindOutputs) {
		return false
	}
	s.outputs = outputs
	return true
}

// ApplyLastAccepted stores the last accepted epoch fetched under t.
func (s *Session) ApplyLastAccepted(t Ticket, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(t, KindLastAccepted) {
		return false
	}
	s.lastAccepted = epoch
	return true
}

// SetMessage sets the status line shown after an action.
func (s *Session) SetMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Connected:         s.chainID != 0 && s.wallet != "",
		ChainID:           s.chainID,
		Wallet:            s.wallet,
		AppAddress:        s.app,
		NodeURL:           s.nodeURL,
		Reports:           append([]node.Report(nil), s.reports...),
		Outputs:           append([]node.Output(nil), s.outputs...),
		LastAcceptedEpoch: s.lastAccepted,
		Message:           s.message,
	}
}

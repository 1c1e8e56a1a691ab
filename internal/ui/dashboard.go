package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/rollupdash/internal/config"
	"github.com/Mohsinsiddi/rollupdash/internal/node"
	"github.com/Mohsinsiddi/rollupdash/internal/rollups"
	"github.com/Mohsinsiddi/rollupdash/internal/session"
)

// DashboardSource is everything the dashboard reads from or acts on. The
// cmd package implements it over the node client and the base-layer
// contracts.
type DashboardSource interface {
	ChainID(ctx context.Context) (int64, error)
	// Account re-resolves the connected wallet. An empty address means it
	// was removed.
	Account(ctx context.Context) (string, error)
	Reports(ctx context.Context) ([]node.Report, error)
	Outputs(ctx context.Context) (*node.Snapshot, error)
	Validate(ctx context.Context, o node.Output) (string, error)
	Execute(ctx context.Context, o node.Output) (string, error)
	Inspect(ctx context.Context, payload []byte) (*node.InspectResult, error)
}

// ErrNotConnected is returned for actions that need a connected wallet.
var ErrNotConnected = errors.New("no wallet connected")

type dashTab int

const (
	tabReports dashTab = iota
	tabOutputs
	tabInspect
	tabCount
)

var tabNames = [tabCount]string{"Reports", "Outputs", "Inspect"}

// dashboardModel is the Bubble Tea model for the live rollup dashboard.
type dashboardModel struct {
	src      DashboardSource
	sess     *session.Session
	log      *zap.Logger
	interval time.Duration
	network  string

	tab        dashTab
	cursor     int
	input      textinput.Model
	inspecting bool
	hexMode    bool
	inspect    *node.InspectResult
	busy       bool

	lastUpdate time.Time
	err        string
	quitting   bool
}

type tickMsg time.Time

type chainMsg struct {
	ticket session.Ticket
	id     int64
	err    error
}

type accountMsg struct {
	ticket session.Ticket
	addr   string
	err    error
}

type reportsMsg struct {
	ticket  session.Ticket
	reports []node.Report
	err     error
}

type outputsMsg struct {
	outputs session.Ticket
	epoch   session.Ticket
	snap    *node.Snapshot
	err     error
}

type actionMsg struct {
	text    string
	err     error
	refresh bool
}

type inspectMsg struct {
	res *node.InspectResult
	err error
}

// DashboardOption configures the dashboard.
type DashboardOption func(*dashboardModel)

// WithDashboardLogger sets the logger. Logs must not go to the terminal the
// dashboard draws on.
func WithDashboardLogger(l *zap.Logger) DashboardOption {
	return func(m *dashboardModel) { m.log = l }
}

// WithNetworkName sets the chain name shown in the header.
func WithNetworkName(name string) DashboardOption {
	return func(m *dashboardModel) { m.network = name }
}

func newDashboardModel(src DashboardSource, sess *session.Session, interval time.Duration, opts ...DashboardOption) dashboardModel {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	in := textinput.New()
	in.Placeholder = "inspect payload"
	in.Prompt = "› "
	in.CharLimit = 4096
	m := dashboardModel{
		src:      src,
		sess:     sess,
		log:      zap.NewNop(),
		interval: interval,
		input:    in,
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// NewDashboard creates a Bubble Tea program for the live rollup dashboard.
// It refreshes every interval and drops the connection when the chain
// behind the RPC endpoint changes.
func NewDashboard(src DashboardSource, sess *session.Session, interval time.Duration, opts ...DashboardOption) *tea.Program {
	return tea.NewProgram(newDashboardModel(src, sess, interval, opts...), tea.WithAltScreen())
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick(m.interval))
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.Width = max(msg.Width-8, 20)

	case tea.KeyMsg:
		if m.inspecting {
			return m.updateInspectInput(msg)
		}
		return m.updateKeys(msg)

	case tickMsg:
		return m, tea.Batch(m.refresh(), tick(m.interval))

	case chainMsg:
		if !m.sess.Current(msg.ticket) {
			break
		}
		if msg.err != nil {
			m.err = "chain: " + msg.err.Error()
			break
		}
		from := m.sess.Snapshot().ChainID
		if m.sess.ChainChanged(msg.id) {
			m.log.Warn("chain changed, disconnecting",
				zap.Int64("from", from), zap.Int64("to", msg.id))
			m.sess.SetMessage(fmt.Sprintf("chain changed to %d: disconnected, reconnect with `rollupdash network connect`", msg.id))
			m.cursor = 0
		}

	case accountMsg:
		if !m.sess.Current(msg.ticket) {
			break
		}
		if msg.err != nil {
			m.log.Debug("wallet lookup failed", zap.Error(msg.err))
			break
		}
		if !m.sess.AccountChanged(msg.addr) {
			break
		}
		if msg.addr == "" {
			m.log.Warn("wallet removed, disconnecting")
			m.sess.SetMessage("wallet removed: disconnected")
			m.cursor = 0
		} else {
			m.log.Warn("wallet address changed", zap.String("to", msg.addr))
			m.sess.SetMessage("wallet now resolves to " + msg.addr)
		}

	case reportsMsg:
		if msg.err != nil {
			if !m.sess.Current(msg.ticket) {
				break
			}
			m.log.Debug("list reports failed", zap.Error(msg.err))
			m.err = "reports: " + msg.err.Error()
			break
		}
		if !m.sess.ApplyReports(msg.ticket, msg.reports) {
			m.log.Debug("dropping stale reports")
			break
		}
		m.err = ""
		m.lastUpdate = time.Now()

	case outputsMsg:
		if msg.err != nil {
			if !m.sess.Current(msg.outputs) {
				break
			}
			m.log.Debug("list outputs failed", zap.Error(msg.err))
			m.err = "outputs: " + msg.err.Error()
			break
		}
		if msg.snap == nil {
			msg.snap = &node.Snapshot{}
		}
		var outs []node.Output
		if msg.snap.Outputs != nil {
			outs = msg.snap.Outputs.Data
		}
		if !m.sess.ApplyOutputs(msg.outputs, outs) {
			m.log.Debug("dropping stale outputs")
			break
		}
		m.sess.ApplyLastAccepted(msg.epoch, msg.snap.LastAcceptedEpoch)
		m.err = ""
		m.lastUpdate = time.Now()

	case actionMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err.Error()
			m.sess.SetMessage("")
		} else {
			m.err = ""
			m.sess.SetMessage(msg.text)
		}
		if msg.refresh {
			return m, m.refresh()
		}

	case inspectMsg:
		m.busy = false
		if msg.err != nil {
			m.err = "inspect: " + msg.err.Error()
			break
		}
		m.err = ""
		m.inspect = msg.res
	}

	return m, nil
}

func (m dashboardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "tab":
		m.tab = (m.tab + 1) % tabCount
		m.cursor = 0
	case "shift+tab":
		m.tab = (m.tab + tabCount - 1) % tabCount
		m.cursor = 0
	case "r":
		return m, m.refresh()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.rowCount()-1 {
			m.cursor++
		}
	case "i":
		m.tab = tabInspect
		m.inspecting = true
		return m, m.input.Focus()
	case "v":
		return m.startAction(false)
	case "x":
		return m.startAction(true)
	}
	return m, nil
}

func (m dashboardModel) updateInspectInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.inspecting = false
		m.input.Blur()
		return m, nil
	case "ctrl+t":
		m.hexMode = !m.hexMode
		return m, nil
	case "enter":
		payload, err := rollups.EncodeInput(m.input.Value(), m.hexMode)
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.inspecting = false
		m.input.Blur()
		m.busy = true
		return m, m.inspectCmd(payload)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startAction validates (execute=false) or executes the selected output.
func (m dashboardModel) startAction(execute bool) (tea.Model, tea.Cmd) {
	if m.tab != tabOutputs || m.busy {
		return m, nil
	}
	views := m.outputViews()
	if m.cursor >= len(views) {
		return m, nil
	}
	v := views[m.cursor]

	var err error
	switch {
	case execute && v.Action != rollups.ActionExecute:
		err = v.Action.Err()
		if err == nil {
			err = rollups.ErrNotActionable
		}
	case !execute && v.Decoded.Type == rollups.TypeUnknown:
		err = rollups.ErrNotActionable
	case !execute && v.Action == rollups.ActionNotReady:
		err = rollups.ErrNotReady
	case execute && !m.sess.Snapshot().Connected:
		err = ErrNotConnected
	}
	if err != nil {
		m.err = fmt.Sprintf("output %d: %v", v.Index.Uint64(), err)
		return m, nil
	}

	m.busy = true
	m.err = ""
	if execute {
		m.sess.SetMessage(fmt.Sprintf("executing output %d...", v.Index.Uint64()))
		return m, m.executeCmd(v.Output)
	}
	m.sess.SetMessage(fmt.Sprintf("validating output %d...", v.Index.Uint64()))
	return m, m.validateCmd(v.Output)
}

func (m dashboardModel) outputViews() []OutputView {
	snap := m.sess.Snapshot()
	return NewOutputViews(snap.Outputs, snap.LastAcceptedEpoch)
}

func (m dashboardModel) rowCount() int {
	snap := m.sess.Snapshot()
	switch m.tab {
	case tabReports:
		return len(snap.Reports)
	case tabOutputs:
		return len(snap.Outputs)
	}
	return 0
}

func (m dashboardModel) View() string {
	if m.quitting {
		return ""
	}
	snap := m.sess.Snapshot()

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("⚡ Rollup Dashboard") + "\n")
	sb.WriteString(m.header(snap) + "\n\n")

	var tabs []string
	for i, name := range tabNames {
		if dashTab(i) == m.tab {
			tabs = append(tabs, StyleActiveTab.Render(name))
		} else {
			tabs = append(tabs, StyleTab.Render(name))
		}
	}
	sb.WriteString(strings.Join(tabs, "") + "\n\n")

	switch {
	case m.err != "":
		sb.WriteString(Err(m.err) + "\n\n")
	case snap.Message != "":
		sb.WriteString(Info(snap.Message) + "\n\n")
	}

	switch m.tab {
	case tabReports:
		if len(snap.Reports) == 0 {
			sb.WriteString(StyleMeta.Render("No reports.") + "\n")
		} else {
			sb.WriteString(ReportTable(snap.Reports, m.cursor).Render())
		}
	case tabOutputs:
		sb.WriteString(StyleMeta.Render(fmt.Sprintf("Last accepted epoch: %d", snap.LastAcceptedEpoch)) + "\n")
		if len(snap.Outputs) == 0 {
			sb.WriteString(StyleMeta.Render("No outputs.") + "\n")
		} else {
			sb.WriteString(OutputTable(NewOutputViews(snap.Outputs, snap.LastAcceptedEpoch), m.cursor).Render())
		}
	case tabInspect:
		sb.WriteString(m.inspectView())
	}

	sb.WriteString("\n" + StyleMeta.Render(m.help()) + "\n")
	return sb.String()
}

func (m dashboardModel) header(snap session.Snapshot) string {
	chain := StyleWarning.Render("disconnected")
	if snap.Connected {
		name := m.network
		if name == "" {
			name = "chain"
		}
		chain = ChainName(fmt.Sprintf("%s (%d)", name, snap.ChainID)) + "  " + Addr(snap.Wallet)
	}
	updated := "never"
	if !m.lastUpdate.IsZero() {
		updated = m.lastUpdate.Format("15:04:05")
	}
	return chain + "\n" +
		StyleMeta.Render("app ") + Addr(snap.AppAddress) +
		StyleMeta.Render("  node ") + Addr(snap.NodeURL) +
		StyleMeta.Render("  updated "+updated)
}

func (m dashboardModel) inspectView() string {
	var sb strings.Builder
	mode := "text"
	if m.hexMode {
		mode = "hex"
	}
	if m.inspecting {
		sb.WriteString(m.input.View() + "  " + StyleMeta.Render("["+mode+"]") + "\n\n")
	} else {
		sb.WriteString(StyleMeta.Render("Press i to inspect ("+mode+" mode).") + "\n\n")
	}
	if m.inspect == nil {
		return sb.String()
	}
	status := StyleSuccess.Render(m.inspect.Status)
	if !m.inspect.Accepted() {
		status = StyleError.Render(m.inspect.Status)
	}
	sb.WriteString("Status: " + status + "\n")
	if len(m.inspect.ExceptionPayload) > 0 {
		sb.WriteString("Exception: " + rollups.FormatReportPayload(m.inspect.ExceptionPayload) + "\n")
	}
	for i, r := range m.inspect.Reports {
		sb.WriteString(fmt.Sprintf("%s %s\n", StyleMeta.Render(fmt.Sprintf("#%d", i)),
			rollups.Truncate(rollups.FormatReportPayload(r.Payload), rollups.MaxPayloadDisplay)))
	}
	return sb.String()
}

func (m dashboardModel) help() string {
	if m.inspecting {
		return "[ enter ] send   [ ctrl+t ] text/hex   [ esc ] cancel"
	}
	if m.tab == tabOutputs {
		return "[ tab ] switch   [ ↑↓ / jk ] select   [ v ] validate   [ x ] execute   [ r ] reload   [ i ] inspect   [ q ] quit"
	}
	return "[ tab ] switch   [ ↑↓ / jk ] select   [ r ] reload   [ i ] inspect   [ q ] quit"
}

// refresh starts a fetch of every panel. Tickets are taken now so that a
// slower, older fetch cannot overwrite the result of a newer one.
func (m dashboardModel) refresh() tea.Cmd {
	reports := m.sess.BeginFetch(session.KindReports)
	outputs := m.sess.BeginFetch(session.KindOutputs)
	epoch := m.sess.BeginFetch(session.KindLastAccepted)
	chain := m.sess.BeginFetch(session.KindChain)
	src := m.src

	var account tea.Cmd
	if m.sess.Snapshot().Connected {
		tk := m.sess.BeginFetch(session.KindAccount)
		account = func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), config.NodeRequestTimeout)
			defer cancel()
			addr, err := src.Account(ctx)
			return accountMsg{ticket: tk, addr: addr, err: err}
		}
	}

	return tea.Batch(
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), config.NodeRequestTimeout)
			defer cancel()
			id, err := src.ChainID(ctx)
			return chainMsg{ticket: chain, id: id, err: err}
		},
		account,
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), config.NodeRequestTimeout)
			defer cancel()
			r, err := src.Reports(ctx)
			return reportsMsg{ticket: reports, reports: r, err: err}
		},
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), config.NodeRequestTimeout)
			defer cancel()
			snap, err := src.Outputs(ctx)
			return outputsMsg{outputs: outputs, epoch: epoch, snap: snap, err: err}
		},
	)
}

func (m dashboardModel) validateCmd(o node.Output) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.NodeRequestTimeout)
		defer cancel()
		text, err := src.Validate(ctx, o)
		return actionMsg{text: text, err: err}
	}
}

func (m dashboardModel) executeCmd(o node.Output) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.TxConfirmTimeout)
		defer cancel()
		text, err := src.Execute(ctx, o)
		return actionMsg{text: text, err: err, refresh: err == nil}
	}
}

func (m dashboardModel) inspectCmd(payload []byte) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.NodeRequestTimeout)
		defer cancel()
		res, err := src.Inspect(ctx, payload)
		return inspectMsg{res: res, err: err}
	}
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

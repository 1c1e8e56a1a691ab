package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/rollupdash/internal/node"
	"github.com/Mohsinsiddi/rollupdash/internal/session"
)

const testWallet = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

type fakeSource struct {
	chainID      int64
	reports      []node.Report
	outputs      []node.Output
	lastAccepted uint64
	inspectRes   *node.InspectResult
	err          error
	walletGone   bool
	account      string

	validated []uint64
	executed  []uint64
	inspected [][]byte
}

func (f *fakeSource) ChainID(context.Context) (int64, error) { return f.chainID, f.err }

func (f *fakeSource) Account(context.Context) (string, error) {
	switch {
	case f.walletGone:
		return "", nil
	case f.account != "":
		return f.account, nil
	}
	return testWallet, nil
}

func (f *fakeSource) Reports(context.Context) ([]node.Report, error) {
	return f.reports, f.err
}

func (f *fakeSource) Outputs(context.Context) (*node.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &node.Snapshot{
		Outputs:           &node.OutputList{Data: f.outputs},
		LastAcceptedEpoch: f.lastAccepted,
	}, nil
}

func (f *fakeSource) Validate(_ context.Context, o node.Output) (string, error) {
	f.validated = append(f.validated, o.Index.Uint64())
	return "Output is Valid!", nil
}

func (f *fakeSource) Execute(_ context.Context, o node.Output) (string, error) {
	f.executed = append(f.executed, o.Index.Uint64())
	return "executed", nil
}

func (f *fakeSource) Inspect(_ context.Context, payload []byte) (*node.InspectResult, error) {
	f.inspected = append(f.inspected, payload)
	return f.inspectRes, nil
}

// drain runs cmd and any batched commands and returns the produced messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func feed(m tea.Model, msgs ...tea.Msg) tea.Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func press(m tea.Model, keys ...string) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(key(k))
	}
	return m, cmd
}

func newTestDashboard(t *testing.T, src *fakeSource) (tea.Model, *session.Session) {
	t.Helper()
	sess := session.New("0xa966c86F18D463C90DA64940053B411Be671E77E", "http://127.0.0.1:6751")
	sess.Connect(13370, testWallet)
	m := newDashboardModel(src, sess, time.Second, WithNetworkName("cannon"))
	return feed(m, drain(m.refresh())...), sess
}

func TestDashboardRefreshLoadsData(t *testing.T) {
	src := &fakeSource{
		chainID:      13370,
		reports:      []node.Report{{Index: 0, RawData: []byte("a report")}},
		outputs:      []node.Output{noticeOutput(t, 0, 0, "a notice")},
		lastAccepted: 2,
	}
	m, sess := newTestDashboard(t, src)

	snap := sess.Snapshot()
	require.Len(t, snap.Reports, 1)
	require.Len(t, snap.Outputs, 1)
	assert.Equal(t, uint64(2), snap.LastAcceptedEpoch)
	assert.True(t, snap.Connected)

	view := m.View()
	assert.Contains(t, view, "cannon (13370)")
	assert.Contains(t, view, "a report")

	m, _ = press(m, "tab")
	assert.Contains(t, m.View(), "a notice")
	assert.Contains(t, m.View(), "Last accepted epoch: 2")
}

func TestDashboardDropsStaleFetch(t *testing.T) {
	src := &fakeSource{chainID: 13370, reports: []node.Report{{RawData: []byte("old")}}}
	sess := session.New("", "")
	var m tea.Model = newDashboardModel(src, sess, time.Second)

	older := m.(dashboardModel).refresh()
	oldMsgs := drain(older)

	src.reports = []node.Report{{RawData: []byte("new")}}
	newer := m.(dashboardModel).refresh()
	m = feed(m, drain(newer)...)
	m = feed(m, oldMsgs...)

	reports := sess.Snapshot().Reports
	require.Len(t, reports, 1)
	assert.Equal(t, "new", string(reports[0].RawData))
}

func TestDashboardDropsStaleFetchError(t *testing.T) {
	src := &fakeSource{chainID: 13370, err: errors.New("node down")}
	sess := session.New("", "")
	var m tea.Model = newDashboardModel(src, sess, time.Second)

	failed := drain(m.(dashboardModel).refresh())

	src.err = nil
	src.reports = []node.Report{{RawData: []byte("fresh")}}
	m = feed(m, drain(m.(dashboardModel).refresh())...)
	m = feed(m, failed...)

	assert.Empty(t, m.(dashboardModel).err)
	assert.NotContains(t, m.View(), "node down")
	require.Len(t, sess.Snapshot().Reports, 1)
}

func TestDashboardWalletRemovedDisconnects(t *testing.T) {
	src := &fakeSource{chainID: 13370}
	m, sess := newTestDashboard(t, src)
	require.True(t, sess.Snapshot().Connected)

	src.walletGone = true
	m = feed(m, drain(m.(dashboardModel).refresh())...)
	assert.False(t, sess.Snapshot().Connected)
	assert.Contains(t, m.View(), "wallet removed")
}

func TestDashboardWalletAddressChange(t *testing.T) {
	src := &fakeSource{chainID: 13370}
	m, sess := newTestDashboard(t, src)

	src.account = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	m = feed(m, drain(m.(dashboardModel).refresh())...)
	snap := sess.Snapshot()
	assert.True(t, snap.Connected)
	assert.Equal(t, src.account, snap.Wallet)
	assert.Contains(t, m.View(), "wallet now resolves to")
}

func TestDashboardChainChangeDisconnects(t *testing.T) {
	src := &fakeSource{chainID: 13370}
	m, sess := newTestDashboard(t, src)
	require.True(t, sess.Snapshot().Connected)

	m = feed(m, chainMsg{ticket: sess.BeginFetch(session.KindChain), id: 1})
	snap := sess.Snapshot()
	assert.False(t, snap.Connected)
	assert.Contains(t, snap.Message, "chain changed to 1")
	assert.Contains(t, m.View(), "disconnected")
}

func TestDashboardSameChainKeepsConnection(t *testing.T) {
	m, sess := newTestDashboard(t, &fakeSource{chainID: 13370})
	feed(m, chainMsg{ticket: sess.BeginFetch(session.KindChain), id: 13370})
	assert.True(t, sess.Snapshot().Connected)
}

func TestDashboardFetchErrorShown(t *testing.T) {
	m, _ := newTestDashboard(t, &fakeSource{err: errors.New("connection refused")})
	assert.Contains(t, m.View(), "connection refused")
}

func TestDashboardValidateSelectedNotice(t *testing.T) {
	src := &fakeSource{
		chainID: 13370,
		outputs: []node.Output{noticeOutput(t, 0, 0, "one"), noticeOutput(t, 1, 0, "two")},
	}
	m, sess := newTestDashboard(t, src)

	m, cmd := press(m, "tab", "down", "v")
	require.NotNil(t, cmd)
	m = feed(m, drain(cmd)...)

	assert.Equal(t, []uint64{1}, src.validated)
	assert.Equal(t, "Output is Valid!", sess.Snapshot().Message)
	assert.Contains(t, m.View(), "Output is Valid!")
}

func TestDashboardExecuteNotReady(t *testing.T) {
	src := &fakeSource{chainID: 13370, outputs: []node.Output{voucherOutput(t, 0, 3, false)}}
	m, _ := newTestDashboard(t, src)

	m, cmd := press(m, "tab", "x")
	assert.Nil(t, cmd)
	assert.Empty(t, src.executed)
	assert.Contains(t, m.View(), "not ready")
}

func TestDashboardExecuteReadyVoucher(t *testing.T) {
	src := &fakeSource{chainID: 13370, outputs: []node.Output{voucherOutput(t, 4, 1, false)}, lastAccepted: 1}
	m, _ := newTestDashboard(t, src)

	m, cmd := press(m, "tab", "x")
	require.NotNil(t, cmd)
	msgs := drain(cmd)
	require.Len(t, msgs, 1)
	assert.Equal(t, []uint64{4}, src.executed)

	_, refresh := m.Update(msgs[0])
	assert.NotNil(t, refresh, "a successful execution reloads the outputs")
}

func TestDashboardExecuteNeedsConnection(t *testing.T) {
	src := &fakeSource{chainID: 13370, outputs: []node.Output{voucherOutput(t, 0, 0, false)}}
	m, sess := newTestDashboard(t, src)
	sess.AccountChanged("")
	// Reload: disconnecting dropped the cached outputs.
	m = feed(m, drain(m.(dashboardModel).refresh())...)

	m, cmd := press(m, "tab", "x")
	assert.Nil(t, cmd)
	assert.Empty(t, src.executed)
	assert.Contains(t, m.View(), ErrNotConnected.Error())
}

func TestDashboardInspectText(t *testing.T) {
	src := &fakeSource{
		chainID:    13370,
		inspectRes: &node.InspectResult{Status: "Accepted", Reports: []node.InspectReport{{Payload: []byte("pong")}}},
	}
	m, _ := newTestDashboard(t, src)

	m, _ = press(m, "i", "p", "i", "n", "g", "q")
	assert.True(t, m.(dashboardModel).inspecting, "q is text while typing")

	m, cmd := press(m, "enter")
	require.NotNil(t, cmd)
	m = feed(m, drain(cmd)...)

	require.Len(t, src.inspected, 1)
	assert.Equal(t, "pingq", string(src.inspected[0]))
	view := m.View()
	assert.Contains(t, view, "Accepted")
	assert.Contains(t, view, "pong")
}

func TestDashboardInspectHex(t *testing.T) {
	src := &fakeSource{chainID: 13370, inspectRes: &node.InspectResult{Status: "Accepted"}}
	m, _ := newTestDashboard(t, src)

	m, _ = press(m, "i", "ctrl+t", "0", "x", "c", "a", "f", "e")
	_, cmd := press(m, "enter")
	drain(cmd)

	require.Len(t, src.inspected, 1)
	assert.Equal(t, []byte{0xca, 0xfe}, src.inspected[0])
}

func TestDashboardInspectBadHex(t *testing.T) {
	src := &fakeSource{chainID: 13370}
	m, _ := newTestDashboard(t, src)

	m, _ = press(m, "i", "ctrl+t", "z", "z")
	m, cmd := press(m, "enter")
	assert.Nil(t, cmd)
	assert.Empty(t, src.inspected)
	assert.Contains(t, m.View(), "invalid hex payload")
}

func TestDashboardStaleChainReplyIgnored(t *testing.T) {
	m, sess := newTestDashboard(t, &fakeSource{chainID: 13370})
	old := sess.BeginFetch(session.KindChain)
	sess.BeginFetch(session.KindChain)

	feed(m, chainMsg{ticket: old, id: 1})
	assert.True(t, sess.Snapshot().Connected)
}

func TestDashboardCtrlCQuitsWhileTyping(t *testing.T) {
	m, _ := newTestDashboard(t, &fakeSource{chainID: 13370})
	m, _ = press(m, "i", "a")
	require.True(t, m.(dashboardModel).inspecting)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}

func TestDashboardQuit(t *testing.T) {
	m, _ := newTestDashboard(t, &fakeSource{chainID: 13370})
	m, cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}

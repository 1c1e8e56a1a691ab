package ui

import (
	"errors"
	"time"

	"github.com/Mohsinsiddi/rollupdash/internal/node"
	"github.com/Mohsinsiddi/rollupdash/internal/rollups"
)

// OutputView is an output together with everything needed to show it: the
// decoded blob and the action currently available for it.
type OutputView struct {
	node.Output `yaml:",inline"`
	Decoded     rollups.Decoded `json:"decoded" yaml:"decoded"`
	Payload     string          `json:"payload_text" yaml:"payload_text"`
	Action      rollups.Action  `json:"action,omitempty" yaml:"action,omitempty"`
}

// NewOutputView classifies o and decides its action against lastAccepted.
// A blob that fails to decode is shown as unknown rather than dropped.
func NewOutputView(o node.Output, lastAccepted uint64) OutputView {
	d, err := rollups.Classify(o.RawData)
	if err != nil && !errors.Is(err, rollups.ErrUnknownOutput) {
		d = rollups.Decoded{Type: rollups.TypeUnknown, Payload: []byte(o.RawData)}
	}
	return OutputView{
		Output:  o,
		Decoded: d,
		Payload: rollups.Describe(d),
		Action:  rollups.ActionFor(d.Type, o.EpochIndex.Uint64(), lastAccepted, o.Executed()),
	}
}

// NewOutputViews maps NewOutputView over outputs.
func NewOutputViews(outputs []node.Output, lastAccepted uint64) []OutputView {
	views := make([]OutputView, 0, len(outputs))
	for _, o := range outputs {
		views = append(views, NewOutputView(o, lastAccepted))
	}
	return views
}

// Destination returns the voucher destination or "-".
func (v OutputView) Destination() string {
	if !v.Decoded.IsVoucher() {
		return "-"
	}
	return v.Decoded.Destination.Hex()
}

// Updated formats the node's last-update time of a row in UTC, falling back
// to the creation time. Unparseable values are shown as received.
func Updated(updatedAt, createdAt string) string {
	ts := updatedAt
	if ts == "" {
		ts = createdAt
	}
	if ts == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.UTC().Format(time.DateTime)
}

var updatedColumn = Column{Title: "Updated (UTC)", Width: 19}

var reportColumns = []Column{
	updatedColumn,
	{Title: "Epoch", Width: 6, Right: true},
	{Title: "Input", Width: 6, Right: true},
	{Title: "Index", Width: 6, Right: true},
	{Title: "Payload", Width: rollups.MaxPayloadDisplay + 3},
}

var outputColumns = []Column{
	updatedColumn,
	{Title: "Epoch", Width: 6, Right: true},
	{Title: "Input", Width: 6, Right: true},
	{Title: "Index", Width: 6, Right: true},
	{Title: "Type", Width: 20},
	{Title: "Destination", Width: 14},
	{Title: "Value", Width: 12, Right: true},
	{Title: "Payload", Width: 48},
	{Title: "Action", Width: 16},
}

// ReportTable builds the reports table. sel is the highlighted row or -1.
func ReportTable(reports []node.Report, sel int) *Table {
	t := NewTable(reportColumns)
	t.SelIdx = sel
	for _, r := range reports {
		t.AddRow(Row{
			Updated(r.UpdatedAt, r.CreatedAt),
			r.EpochIndex.String(),
			r.InputIndex.String(),
			r.Index.String(),
			rollups.Truncate(rollups.FormatReportPayload(r.RawData), rollups.MaxPayloadDisplay),
		})
	}
	return t
}

// OutputTable builds the outputs table. sel is the highlighted row or -1.
func OutputTable(views []OutputView, sel int) *Table {
	t := NewTable(outputColumns)
	t.SelIdx = sel
	for _, v := range views {
		dest := v.Destination()
		if dest != "-" {
			dest = Addr(TruncateAddr(dest))
		}
		t.AddRow(Row{
			Updated(v.UpdatedAt, v.CreatedAt),
			v.EpochIndex.String(),
			v.InputIndex.String(),
			v.Index.String(),
			string(v.Decoded.Type),
			dest,
			rollups.FormatValue(v.Decoded),
			v.Payload,
			ActionLabel(v.Action),
		})
	}
	return t
}

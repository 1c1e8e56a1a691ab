package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/Mohsinsiddi/rollupdash/internal/rollups"
)

func TestStatusLines(t *testing.T) {
	cases := map[string]struct {
		fn     func(string) string
		prefix string
	}{
		"Success": {Success, "✓ "},
		"Warn":    {Warn, "⚠ "},
		"Err":     {Err, "✗ "},
		"Info":    {Info, "ℹ "},
		"Hint":    {Hint, "💡 "},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, c.prefix+"input 3 sent", ansi.Strip(c.fn("input 3 sent")))
			assert.Equal(t, strings.TrimSpace(c.prefix), strings.TrimSpace(ansi.Strip(c.fn(""))))
		})
	}
	assert.NotEqual(t, Info("x"), Hint("x"))
}

func TestValueFormattersKeepText(t *testing.T) {
	for name, fn := range map[string]func(string) string{
		"Addr":      Addr,
		"Val":       Val,
		"Meta":      Meta,
		"ChainName": ChainName,
	} {
		assert.Equal(t, "cannon", ansi.Strip(fn("cannon")), name)
	}
}

func TestActionLabel(t *testing.T) {
	for _, a := range []rollups.Action{
		rollups.ActionExecute,
		rollups.ActionValidate,
		rollups.ActionNotReady,
		rollups.ActionAlreadyExecuted,
	} {
		assert.Contains(t, ActionLabel(a), string(a))
	}
	assert.Empty(t, ActionLabel(rollups.ActionNone))
}

func TestTruncateAddr(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"0x1234":     "0x1234",
		"0x12345678": "0x12345678",
		"0x1234567890abcdef1234567890abcdef12345678": "0x1234…5678",
	}
	for in, want := range cases {
		assert.Equal(t, want, TruncateAddr(in), in)
	}
}

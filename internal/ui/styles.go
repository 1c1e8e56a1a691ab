package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Mohsinsiddi/rollupdash/internal/rollups"
)

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // green: success, executable
	ColorWarning   = lipgloss.Color("#FFB800") // yellow: warning, not ready
	ColorError     = lipgloss.Color("#FF4444") // red: error, danger
	ColorAddress   = lipgloss.Color("#00B4D8") // cyan: addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF") // white bold: values
	ColorMeta      = lipgloss.Color("#555555") // dim gray: timestamps, metadata
	ColorBorder    = lipgloss.Color("#1E3A5F") // dark blue: UI chrome
	ColorChain     = lipgloss.Color("#9B5DE5") // purple: chain names
	ColorHighlight = lipgloss.Color("#F15BB5") // pink: selected rows
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleChain   = lipgloss.NewStyle().Foreground(ColorChain).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true).
			Underline(true)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorChain).
			Bold(true).
			MarginBottom(1)

	StyleTab = lipgloss.NewStyle().
			Foreground(ColorMeta).
			Padding(0, 2)

	StyleActiveTab = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true).
			Underline(true).
			Padding(0, 2)
)

// Banner returns the rollupdash banner.
func Banner() string {
	art := `
  ┬─┐┌─┐┬  ┬  ┬ ┬┌─┐┌┬┐┌─┐┌─┐┬ ┬
  ├┬┘│ ││  │  │ │├─┘ ││├─┤└─┐├─┤
  ┴└─└─┘┴─┘┴─┘└─┘┴  ─┴┘┴ ┴└─┘┴ ┴`

	tagline := StyleMeta.Render("  Cartesi rollups from the terminal")
	return StyleChain.Render(art) + "\n" + tagline + "\n"
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats an informational message.
func Info(msg string) string { return StyleAddress.Render("ℹ " + msg) }

// Hint formats a suggestion for the next command to run.
func Hint(msg string) string { return StyleMeta.Render("💡 " + msg) }

// Addr formats an address.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// ChainName formats a chain name.
func ChainName(c string) string { return StyleChain.Render(c) }

// ActionLabel colors an output action by whether it can be taken.
func ActionLabel(a rollups.Action) string {
	switch a {
	case rollups.ActionExecute, rollups.ActionValidate:
		return StyleSuccess.Render(string(a))
	case rollups.ActionNotReady:
		return StyleWarning.Render(string(a))
	case rollups.ActionAlreadyExecuted:
		return StyleMeta.Render(string(a))
	}
	return ""
}

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// PickerItem is one choice in a PickItem list. Value is what the caller gets
// back; Label and SubLabel are only displayed.
type PickerItem struct {
	Label    string
	SubLabel string
	Value    string
	Current  bool
}

func (it PickerItem) matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(it.Label), q) ||
		strings.Contains(strings.ToLower(it.SubLabel), q)
}

// pickerModel lists networks or wallets. Pressing "/" narrows the list by
// label or sub-label; esc leaves the filter before it cancels the picker.
type pickerModel struct {
	title     string
	items     []PickerItem
	visible   []int
	cursor    int
	query     string
	filtering bool
	chosen    string
	done      bool
	cancelled bool
}

func newPicker(title string, items []PickerItem) pickerModel {
	m := pickerModel{title: title, items: items}
	m.refilter()
	for pos, idx := range m.visible {
		if items[idx].Current {
			m.cursor = pos
			break
		}
	}
	return m
}

func (m *pickerModel) refilter() {
	m.visible = m.visible[:0]
	for i, it := range m.items {
		if it.matches(m.query) {
			m.visible = append(m.visible, i)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

// Result is the picked value, empty when the picker was cancelled.
func (m pickerModel) Result() string {
	if m.cancelled {
		return ""
	}
	return m.chosen
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.filtering {
		return m.updateFilter(km)
	}
	switch km.String() {
	case "q", "esc", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	case "/":
		m.filtering = true
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.visible)-1, 0)
	case "enter", " ":
		return m.choose()
	}
	return m, nil
}

func (m pickerModel) updateFilter(km tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch km.Type {
	case tea.KeyCtrlC:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyEsc:
		m.filtering = false
		m.query = ""
	case tea.KeyEnter:
		return m.choose()
	case tea.KeyUp:
		m.move(-1)
		return m, nil
	case tea.KeyDown:
		m.move(1)
		return m, nil
	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.query += string(km.Runes)
	default:
		return m, nil
	}
	m.refilter()
	return m, nil
}

func (m *pickerModel) move(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), max(len(m.visible)-1, 0))
}

func (m pickerModel) choose() (tea.Model, tea.Cmd) {
	if len(m.visible) == 0 {
		return m, nil
	}
	m.chosen = m.items[m.visible[m.cursor]].Value
	m.done = true
	return m, tea.Quit
}

func (m pickerModel) View() string {
	if m.cancelled || m.done {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n" + StyleTitle.Render("  "+m.title) + "\n")
	if m.filtering || m.query != "" {
		sb.WriteString(StyleMeta.Render("  filter: ") + m.query + "\n")
	}
	sb.WriteString("\n")

	if len(m.visible) == 0 {
		sb.WriteString(StyleMeta.Render("    no match") + "\n")
	}
	for pos, idx := range m.visible {
		it := m.items[idx]
		line := "    " + StyleValue.Render(it.Label)
		if pos == m.cursor {
			line = "  ▸ " + StyleValue.Render(it.Label)
		}
		if it.Current {
			line += " " + StyleSuccess.Render("●")
		}
		if it.SubLabel != "" {
			line += "  " + StyleMeta.Render(it.SubLabel)
		}
		if pos == m.cursor {
			line = StyleSelected.Render(line)
		}
		sb.WriteString(line + "\n")
	}

	help := "  ↑↓ jk move   / filter   enter select   q cancel"
	if m.filtering {
		help = "  type to filter   enter select   esc clear"
	}
	sb.WriteString("\n" + StyleMeta.Render(help) + "\n")
	return sb.String()
}

var errNothingToPick = errors.New("nothing to pick from")

// PickItem shows items and blocks until one is chosen. A cancelled picker
// returns "" and a nil error.
func PickItem(title string, items []PickerItem) (string, error) {
	if len(items) == 0 {
		return "", errNothingToPick
	}
	final, err := tea.NewProgram(newPicker(title, items)).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	return final.(pickerModel).Result(), nil
}

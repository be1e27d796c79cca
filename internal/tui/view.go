package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	cursorStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	statusStyle = lipgloss.NewStyle().Faint(true).Italic(true)
)

// groupTermColors maps browser group color names to terminal colors.
var groupTermColors = map[string]lipgloss.Color{
	"pink":   lipgloss.Color("212"),
	"blue":   lipgloss.Color("39"),
	"green":  lipgloss.Color("40"),
	"purple": lipgloss.Color("135"),
	"grey":   lipgloss.Color("245"),
	"gray":   lipgloss.Color("245"),
	"red":    lipgloss.Color("196"),
	"cyan":   lipgloss.Color("51"),
	"orange": lipgloss.Color("214"),
	"yellow": lipgloss.Color("226"),
}

func groupStyle(color string) lipgloss.Style {
	if c, ok := groupTermColors[color]; ok {
		return lipgloss.NewStyle().Bold(true).Foreground(c)
	}
	return headerStyle
}

func (m Model) View() string {
	if m.showPicker {
		return m.picker.view()
	}
	if m.showForm {
		return m.form.view()
	}

	var b strings.Builder

	title := "tabgruppen"
	switch {
	case m.mode == ModeLive && m.connected:
		title += " · live"
	case m.mode == ModeLive:
		title += " · waiting for extension"
	case m.profile.Name != "":
		title += " · " + m.profile.Name
	}
	b.WriteString(headerStyle.Render(title) + "\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View() + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("loading…") + "\n")
	case m.err != nil:
		b.WriteString(dimStyle.Render("error: "+m.err.Error()) + "\n")
	case len(m.rows) == 0:
		b.WriteString(dimStyle.Render("no tabs") + "\n")
	default:
		b.WriteString(m.renderRows())
	}

	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}

	hints := "↑↓ navigate · / search · g auto-group · m move uncategorized · a add group · r refresh · q quit"
	b.WriteString("\n" + dimStyle.Render(hints))

	return b.String()
}

// truncate shortens s to at most max bytes plus an ellipsis, backing up to
// a rune boundary so multibyte titles stay valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "…"
}

func (m Model) renderRows() string {
	var b strings.Builder
	for i, r := range m.rows {
		if r.header {
			count := 0
			for _, other := range m.rows {
				if !other.header && other.group == r.group {
					count++
				}
			}
			line := fmt.Sprintf("%s (%d)", r.group, count)
			b.WriteString(groupStyle(r.color).Render(line) + "\n")
			continue
		}

		tab := m.session.Tabs[r.tab]
		label := tab.Title
		if label == "" {
			label = tab.URL
		}
		if max := m.width - 6; max > 10 {
			label = truncate(label, max)
		}
		line := "  " + label
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

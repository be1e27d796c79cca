package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabgruppen/internal/rules"
)

// groupPicker selects the target group for the uncategorized-tab migration.
type groupPicker struct {
	groups []rules.Rule
	cursor int
}

func newGroupPicker(rs rules.Rules) groupPicker {
	return groupPicker{groups: rs}
}

func (p *groupPicker) moveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

func (p *groupPicker) moveDown() {
	if p.cursor < len(p.groups)-1 {
		p.cursor++
	}
}

func (p groupPicker) selected() string {
	if p.cursor >= 0 && p.cursor < len(p.groups) {
		return p.groups[p.cursor].Group
	}
	return ""
}

func (p groupPicker) view() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	selectedStyle := lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	normalStyle := lipgloss.NewStyle().Padding(0, 1)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Move uncategorized tabs to:") + "\n\n")

	for i, g := range p.groups {
		label := fmt.Sprintf("%s (%d domains)", g.Group, len(g.Domains))
		if i == p.cursor {
			label = selectedStyle.Render(label)
		} else {
			label = normalStyle.Render("  " + label)
		}
		b.WriteString(label + "\n")
	}

	b.WriteString("\n" + normalStyle.Render("↑↓ navigate · enter confirm · esc cancel"))

	return boxStyle.Render(b.String())
}

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// groupForm collects a new custom group: a name and a comma-separated
// domain list.
type groupForm struct {
	name    textinput.Model
	domains textinput.Model
	onName  bool
}

func newGroupForm() groupForm {
	name := textinput.New()
	name.Placeholder = "group name"
	name.CharLimit = 40

	domains := textinput.New()
	domains.Placeholder = "domains, comma separated"
	domains.CharLimit = 200

	return groupForm{name: name, domains: domains, onName: true}
}

func (f *groupForm) focus() tea.Cmd {
	return f.name.Focus()
}

func (f *groupForm) toggleFocus() tea.Cmd {
	f.onName = !f.onName
	if f.onName {
		f.domains.Blur()
		return f.name.Focus()
	}
	f.name.Blur()
	return f.domains.Focus()
}

func (f groupForm) update(msg tea.KeyMsg) (groupForm, tea.Cmd) {
	var cmd tea.Cmd
	if f.onName {
		f.name, cmd = f.name.Update(msg)
	} else {
		f.domains, cmd = f.domains.Update(msg)
	}
	return f, cmd
}

// values returns the trimmed name and the non-empty domains.
func (f groupForm) values() (string, []string) {
	name := strings.TrimSpace(f.name.Value())
	var domains []string
	for _, d := range strings.Split(f.domains.Value(), ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	return name, domains
}

func (f groupForm) view() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	normalStyle := lipgloss.NewStyle().Padding(0, 1)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2)

	var b strings.Builder
	b.WriteString(titleStyle.Render("New custom group") + "\n\n")
	b.WriteString(normalStyle.Render(f.name.View()) + "\n")
	b.WriteString(normalStyle.Render(f.domains.View()) + "\n")
	b.WriteString("\n" + normalStyle.Render("tab switch field · enter create · esc cancel"))

	return boxStyle.Render(b.String())
}

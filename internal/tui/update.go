package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

// row is one visible line: a group header or a tab.
type row struct {
	header bool
	group  string
	color  string
	tab    int // index into session.Tabs when !header
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case rulesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rules = msg.rules
		return m, nil

	case sessionLoadedMsg:
		m.loading = false
		var cmd tea.Cmd
		if msg.fromBridge {
			m.connected = true
			cmd = m.keepListening()
		}
		if msg.err != nil {
			m.err = msg.err
			return m, cmd
		}
		m.err = nil
		m.session = msg.session
		m.rebuildRows()
		return m, cmd

	case bridgeDisconnectedMsg:
		m.connected = false
		return m, nil

	case relayedCommandMsg:
		return m, tea.Batch(runDispatch(m.dispatcher, msg.command), m.keepListening())

	case installedMsg:
		// Seeding touches the database; keep it off the render loop.
		return m, tea.Batch(runInstalled(m.dispatcher), m.keepListening())

	case refreshTickMsg:
		return m, tea.Batch(m.refresh(), refreshTick())

	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.label + ": " + msg.err.Error()
		} else {
			m.status = msg.label
		}
		return m, tea.Batch(m.refresh(), loadRules(m.store))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// keepListening re-arms the bridge listener after a push message was
// consumed.
func (m Model) keepListening() tea.Cmd {
	if m.mode == ModeLive {
		return listenBridge(m.server)
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Overlays take the keyboard first.
	if m.showPicker {
		return m.handlePickerKey(msg)
	}
	if m.showForm {
		return m.handleFormKey(msg)
	}

	if m.searching {
		switch msg.String() {
		case "esc":
			m.searching = false
			m.search.Blur()
			m.search.SetValue("")
			m.rebuildRows()
			return m, nil
		case "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.rebuildRows()
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "/":
		m.searching = true
		return m, m.search.Focus()

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil

	case "r":
		m.status = ""
		return m, tea.Batch(m.refresh(), loadRules(m.store))

	case "g":
		if m.mode != ModeLive || !m.connected {
			m.status = "auto-group needs a connected extension"
			return m, nil
		}
		m.status = "grouping…"
		return m, runAutoGroup(m.eng)

	case "m":
		if m.mode != ModeLive || !m.connected {
			m.status = "move needs a connected extension"
			return m, nil
		}
		m.picker = newGroupPicker(m.rules)
		m.showPicker = true
		return m, nil

	case "a":
		m.form = newGroupForm()
		m.showForm = true
		return m, m.form.focus()
	}

	return m, nil
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showPicker = false
		return m, nil
	case "up", "k":
		m.picker.moveUp()
		return m, nil
	case "down", "j":
		m.picker.moveDown()
		return m, nil
	case "enter":
		m.showPicker = false
		target := m.picker.selected()
		if target == "" {
			return m, nil
		}
		m.status = "moving uncategorized tabs…"
		return m, runMove(m.eng, target)
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showForm = false
		return m, nil
	case "tab", "shift+tab":
		return m, m.form.toggleFocus()
	case "enter":
		name, domains := m.form.values()
		if name == "" || len(domains) == 0 {
			m.status = "group name and at least one domain required"
			return m, nil
		}
		m.showForm = false
		return m, runAddGroup(m.store, name, domains)
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

// rebuildRows recomputes the visible rows from the session and the search
// query.
func (m *Model) rebuildRows() {
	m.rows = nil
	if m.session == nil {
		return
	}

	visible := m.filterTabs()

	// Named groups in browser order, then the ungrouped remainder.
	for _, g := range m.session.Groups {
		var members []int
		for _, idx := range visible {
			if m.session.Tabs[idx].GroupID == g.ID {
				members = append(members, idx)
			}
		}
		if len(members) == 0 {
			continue
		}
		m.rows = append(m.rows, row{header: true, group: g.Title, color: g.Color})
		for _, idx := range members {
			m.rows = append(m.rows, row{group: g.Title, color: g.Color, tab: idx})
		}
	}

	var ungrouped []int
	for _, idx := range visible {
		if m.session.Tabs[idx].GroupID == 0 {
			ungrouped = append(ungrouped, idx)
		}
	}
	if len(ungrouped) > 0 {
		m.rows = append(m.rows, row{header: true, group: "Ungrouped", color: "grey"})
		for _, idx := range ungrouped {
			m.rows = append(m.rows, row{group: "Ungrouped", color: "grey", tab: idx})
		}
	}

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// filterTabs returns indices of tabs matching the search query, fuzzily,
// or all tabs when the query is empty.
func (m *Model) filterTabs() []int {
	query := strings.TrimSpace(m.search.Value())
	if query == "" {
		all := make([]int, len(m.session.Tabs))
		for i := range m.session.Tabs {
			all[i] = i
		}
		return all
	}

	haystack := make([]string, len(m.session.Tabs))
	for i, t := range m.session.Tabs {
		haystack[i] = t.Title + " " + t.URL
	}
	matches := fuzzy.Find(query, haystack)

	out := make([]int, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.Index)
	}
	return out
}

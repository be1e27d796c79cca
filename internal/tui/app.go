// Package tui is the terminal presentation layer: tabs-by-group with fuzzy
// search, grouping actions, and a periodic refresh.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lotas/tabgruppen/internal/bridge"
	"github.com/lotas/tabgruppen/internal/dispatch"
	"github.com/lotas/tabgruppen/internal/engine"
	"github.com/lotas/tabgruppen/internal/firefox"
	"github.com/lotas/tabgruppen/internal/rules"
	"github.com/lotas/tabgruppen/internal/types"
)

// SourceMode distinguishes live (extension bridge) vs offline (session file).
type SourceMode int

const (
	ModeOffline SourceMode = iota
	ModeLive
)

const refreshInterval = 5 * time.Second

// --- Messages ---

type sessionLoadedMsg struct {
	session *types.Session
	err     error

	// fromBridge marks a session pushed by the bridge listener. Only those
	// re-arm the listener; refresh responses must not, or each refresh
	// would park one more goroutine on the message channel.
	fromBridge bool
}

type bridgeDisconnectedMsg struct{}

type relayedCommandMsg struct{ command string }

type installedMsg struct{}

type actionDoneMsg struct {
	label string
	err   error
}

type refreshTickMsg time.Time

// Model is the top-level bubbletea model.
type Model struct {
	// Collaborators
	store      *rules.Store
	eng        *engine.Engine
	dispatcher *dispatch.Dispatcher
	server     *bridge.Server
	host       *bridge.Host
	profile    types.Profile

	// Data
	mode    SourceMode
	session *types.Session
	rules   rules.Rules

	// UI state
	search     textinput.Model
	searching  bool
	cursor     int
	rows       []row
	picker     groupPicker
	showPicker bool
	form       groupForm
	showForm   bool
	status     string
	loading    bool
	connected  bool
	err        error
	width      int
	height     int
}

// New builds the model. srv and host are nil in offline mode.
func New(store *rules.Store, eng *engine.Engine, dispatcher *dispatch.Dispatcher, srv *bridge.Server, host *bridge.Host, profile types.Profile, live bool) Model {
	search := textinput.New()
	search.Placeholder = "search tabs"
	search.Prompt = "/ "
	search.CharLimit = 80

	m := Model{
		store:      store,
		eng:        eng,
		dispatcher: dispatcher,
		server:     srv,
		host:       host,
		profile:    profile,
		search:     search,
		loading:    true,
	}
	if live {
		m.mode = ModeLive
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadRules(m.store), refreshTick()}
	if m.mode == ModeLive {
		cmds = append(cmds, startBridge(m.server), listenBridge(m.server))
	} else {
		cmds = append(cmds, loadSession(m.profile))
	}
	return tea.Batch(cmds...)
}

// --- Commands ---

type rulesLoadedMsg struct {
	rules rules.Rules
	err   error
}

func loadRules(store *rules.Store) tea.Cmd {
	return func() tea.Msg {
		rs, err := store.Get()
		return rulesLoadedMsg{rules: rs, err: err}
	}
}

func loadSession(profile types.Profile) tea.Cmd {
	return func() tea.Msg {
		session, err := firefox.ReadSession(profile.Path)
		if err != nil {
			return sessionLoadedMsg{err: err}
		}
		session.Profile = profile
		return sessionLoadedMsg{session: session}
	}
}

func startBridge(srv *bridge.Server) tea.Cmd {
	return func() tea.Msg {
		srv.ListenAndServe(context.Background())
		return bridgeDisconnectedMsg{}
	}
}

// listenBridge forwards one push message from the extension into the
// program; Update re-issues it to keep listening.
func listenBridge(srv *bridge.Server) tea.Cmd {
	return func() tea.Msg {
		for {
			msg, ok := <-srv.Messages()
			if !ok {
				return bridgeDisconnectedMsg{}
			}
			switch msg.Type {
			case "snapshot":
				session, err := bridge.ParseSnapshot(msg)
				if err != nil {
					continue
				}
				return sessionLoadedMsg{session: session, fromBridge: true}
			case "command":
				return relayedCommandMsg{command: msg.Command}
			case "installed":
				return installedMsg{}
			}
		}
	}
}

// queryLive pulls a fresh snapshot over the bridge.
func queryLive(host *bridge.Host) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		tabs, err := host.Tabs(ctx)
		if err != nil {
			return sessionLoadedMsg{err: err}
		}
		groups, err := host.Groups(ctx)
		if err != nil {
			return sessionLoadedMsg{err: err}
		}
		return sessionLoadedMsg{session: &types.Session{Tabs: tabs, Groups: groups, ParsedAt: time.Now()}}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func runAutoGroup(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		result, err := eng.AutoGroup(context.Background(), "tui")
		if err != nil {
			return actionDoneMsg{label: "auto-group", err: err}
		}
		return actionDoneMsg{label: fmt.Sprintf("grouped %d tabs into %d groups", result.TabCount, len(result.Groups))}
	}
}

func runMove(eng *engine.Engine, target string) tea.Cmd {
	return func() tea.Msg {
		result, err := eng.MoveUncategorized(context.Background(), target, "tui")
		if err != nil {
			return actionDoneMsg{label: "move", err: err}
		}
		return actionDoneMsg{label: fmt.Sprintf("moved %d tabs to %s", len(result.TabIDs), target)}
	}
}

func runAddGroup(store *rules.Store, name string, domains []string) tea.Cmd {
	return func() tea.Msg {
		if _, err := store.AddCustomGroup(name, domains); err != nil {
			return actionDoneMsg{label: "add group", err: err}
		}
		return actionDoneMsg{label: fmt.Sprintf("added group %s", name)}
	}
}

func runInstalled(d *dispatch.Dispatcher) tea.Cmd {
	return func() tea.Msg {
		if err := d.HandleInstalled(); err != nil {
			return actionDoneMsg{label: "initialize rules", err: err}
		}
		return actionDoneMsg{label: "rules ready"}
	}
}

func runDispatch(d *dispatch.Dispatcher, command string) tea.Cmd {
	return func() tea.Msg {
		if err := d.Handle(context.Background(), command); err != nil {
			return actionDoneMsg{label: command, err: err}
		}
		return actionDoneMsg{label: command}
	}
}

// refresh re-reads state from whichever source is active.
func (m Model) refresh() tea.Cmd {
	if m.mode == ModeLive {
		if m.server != nil && m.server.Connected() {
			return queryLive(m.host)
		}
		return nil
	}
	return loadSession(m.profile)
}

package bridge

import (
	"context"
	"time"

	"github.com/lotas/tabgruppen/internal/types"
)

const defaultRequestTimeout = 10 * time.Second

// Host adapts the bridge to the capability interfaces the engine and the
// navigation controller consume. Every method is one request/reply exchange
// with the extension.
type Host struct {
	srv     *Server
	timeout time.Duration
}

// NewHost wraps a bridge server. A zero timeout uses the default.
func NewHost(srv *Server, timeout time.Duration) *Host {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Host{srv: srv, timeout: timeout}
}

func (h *Host) request(ctx context.Context, msg OutgoingMsg) (IncomingMsg, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.srv.Request(ctx, msg)
}

// Tabs lists all open tabs across all windows.
func (h *Host) Tabs(ctx context.Context) ([]*types.Tab, error) {
	reply, err := h.request(ctx, OutgoingMsg{Action: "queryTabs"})
	if err != nil {
		return nil, err
	}
	return parseTabs(reply.Tabs)
}

// Groups lists all tab groups.
func (h *Host) Groups(ctx context.Context) ([]*types.TabGroup, error) {
	reply, err := h.request(ctx, OutgoingMsg{Action: "queryGroups"})
	if err != nil {
		return nil, err
	}
	if len(reply.Groups) == 0 {
		return nil, nil
	}
	return parseGroups(reply.Groups)
}

// ActiveTab returns the active tab of the current window, or nil.
func (h *Host) ActiveTab(ctx context.Context) (*types.Tab, error) {
	reply, err := h.request(ctx, OutgoingMsg{Action: "queryActiveTab"})
	if err != nil {
		return nil, err
	}
	return parseTab(reply.Tab)
}

// GroupTabs groups the given tab IDs together and returns the new group's
// ID.
func (h *Host) GroupTabs(ctx context.Context, tabIDs []int) (int, error) {
	reply, err := h.request(ctx, OutgoingMsg{Action: "groupTabs", TabIDs: tabIDs})
	if err != nil {
		return 0, err
	}
	return reply.GroupID, nil
}

// UpdateGroup sets a group's display title and color.
func (h *Host) UpdateGroup(ctx context.Context, groupID int, title, color string) error {
	_, err := h.request(ctx, OutgoingMsg{Action: "updateGroup", GroupID: groupID, Title: title, Color: color})
	return err
}

// ActivateTab focuses the given tab.
func (h *Host) ActivateTab(ctx context.Context, tabID int) error {
	_, err := h.request(ctx, OutgoingMsg{Action: "activateTab", TabID: tabID})
	return err
}

package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lotas/tabgruppen/internal/types"
)

type wireTab struct {
	ID           int    `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	FavIconURL   string `json:"favIconUrl"`
	GroupID      int    `json:"groupId"`
	WindowID     int    `json:"windowId"`
	Index        int    `json:"index"`
	Active       bool   `json:"active"`
	Pinned       bool   `json:"pinned"`
	LastAccessed int64  `json:"lastAccessed"`
}

type wireGroup struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	Collapsed bool   `json:"collapsed"`
}

func (wt wireTab) toTab() *types.Tab {
	groupID := wt.GroupID
	if groupID < 0 {
		// The tabs API reports -1 for ungrouped tabs.
		groupID = 0
	}
	return &types.Tab{
		BrowserID:    wt.ID,
		URL:          wt.URL,
		Title:        wt.Title,
		Favicon:      wt.FavIconURL,
		GroupID:      groupID,
		WindowID:     wt.WindowID,
		Index:        wt.Index,
		Active:       wt.Active,
		Pinned:       wt.Pinned,
		LastAccessed: time.UnixMilli(wt.LastAccessed),
	}
}

// parseTabs converts a raw JSON tab array.
func parseTabs(raw json.RawMessage) ([]*types.Tab, error) {
	var wire []wireTab
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("parse tabs: %w", err)
	}
	tabs := make([]*types.Tab, 0, len(wire))
	for _, wt := range wire {
		tabs = append(tabs, wt.toTab())
	}
	return tabs, nil
}

// parseGroups converts a raw JSON group array.
func parseGroups(raw json.RawMessage) ([]*types.TabGroup, error) {
	var wire []wireGroup
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("parse groups: %w", err)
	}
	groups := make([]*types.TabGroup, 0, len(wire))
	for _, wg := range wire {
		groups = append(groups, &types.TabGroup{
			ID:        wg.ID,
			Title:     wg.Title,
			Color:     wg.Color,
			Collapsed: wg.Collapsed,
		})
	}
	return groups, nil
}

// parseTab converts a single raw JSON tab. A null or empty payload yields
// nil (no such tab).
func parseTab(raw json.RawMessage) (*types.Tab, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var wt wireTab
	if err := json.Unmarshal(raw, &wt); err != nil {
		return nil, fmt.Errorf("parse tab: %w", err)
	}
	return wt.toTab(), nil
}

// ParseSnapshot converts a push message of type "snapshot" into a Session.
func ParseSnapshot(msg IncomingMsg) (*types.Session, error) {
	tabs, err := parseTabs(msg.Tabs)
	if err != nil {
		return nil, err
	}
	var groups []*types.TabGroup
	if len(msg.Groups) > 0 {
		groups, err = parseGroups(msg.Groups)
		if err != nil {
			return nil, err
		}
	}
	return &types.Session{
		Tabs:     tabs,
		Groups:   groups,
		ParsedAt: time.Now(),
	}, nil
}

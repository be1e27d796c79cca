package types

import "time"

// Tab represents a single browser tab as reported by the extension or the
// session file. Tabs are owned by the browser; this program only reads them
// and requests mutations by ID.
type Tab struct {
	BrowserID    int    // live tab ID; 0 in offline mode
	URL          string
	Title        string
	Favicon      string
	GroupID      int // browser tab-group ID; 0 if ungrouped
	WindowID     int
	Index        int // position within its window
	Active       bool
	Pinned       bool
	LastAccessed time.Time
}

// TabGroup represents a browser tab group.
type TabGroup struct {
	ID        int
	Title     string
	Color     string
	Collapsed bool
}

// Profile represents a Firefox profile on disk (offline mode).
type Profile struct {
	Name       string
	Path       string // absolute path to profile directory
	IsDefault  bool
	IsRelative bool
}

// Session holds a point-in-time view of the browser's tabs and groups,
// either pushed by the extension or parsed from a session file.
type Session struct {
	Tabs     []*Tab
	Groups   []*TabGroup
	Profile  Profile
	ParsedAt time.Time
}

// TabsInGroup returns the session's tabs belonging to the given group,
// in window index order.
func (s *Session) TabsInGroup(groupID int) []*Tab {
	var out []*Tab
	for _, t := range s.Tabs {
		if t.GroupID == groupID && groupID != 0 {
			out = append(out, t)
		}
	}
	return out
}

// ActiveTab returns the active tab of the session, or nil if none is marked.
func (s *Session) ActiveTab() *Tab {
	for _, t := range s.Tabs {
		if t.Active {
			return t
		}
	}
	return nil
}

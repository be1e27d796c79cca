// Package nav advances tab focus within and across tab groups.
package nav

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/lotas/tabgruppen/internal/applog"
	"github.com/lotas/tabgruppen/internal/types"
)

// Host is the browser capability surface navigation needs. State is read
// fresh on every call; nothing is cached between invocations.
type Host interface {
	Tabs(ctx context.Context) ([]*types.Tab, error)
	Groups(ctx context.Context) ([]*types.TabGroup, error)
	ActiveTab(ctx context.Context) (*types.Tab, error)
	ActivateTab(ctx context.Context, tabID int) error
}

// ErrNoHost is returned when no browser is connected.
var ErrNoHost = errors.New("no browser connected")

// Reason explains why a navigation call activated nothing.
type Reason string

const (
	ReasonNone      Reason = ""           // a tab was activated
	ReasonNoGroups  Reason = "no-groups"  // no tab groups exist
	ReasonUngrouped Reason = "ungrouped"  // active tab has no group (within-group only)
	ReasonEmpty     Reason = "empty"      // next group has no tabs
	ReasonSingleTab Reason = "single-tab" // group has only one tab
)

// Outcome reports what a navigation call did. Activated is 0 when the call
// was a no-op; Reason then says why.
type Outcome struct {
	Activated int
	Group     string
	Reason    Reason
}

// Controller drives tab focus through the host.
type Controller struct {
	host Host
}

func New(host Host) *Controller {
	return &Controller{host: host}
}

// Cycle activates the first tab of the group after the active tab's group,
// wrapping around. An ungrouped active tab lands on the first group.
func (c *Controller) Cycle(ctx context.Context) (Outcome, error) {
	if c.host == nil {
		return Outcome{}, ErrNoHost
	}

	groups, err := c.host.Groups(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list groups: %w", err)
	}
	if len(groups) == 0 {
		return Outcome{Reason: ReasonNoGroups}, nil
	}

	active, err := c.host.ActiveTab(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("active tab: %w", err)
	}

	current := -1
	if active != nil {
		for i, g := range groups {
			if g.ID == active.GroupID {
				current = i
				break
			}
		}
	}
	next := 0
	if current >= 0 {
		next = (current + 1) % len(groups)
	}

	tabs, err := c.host.Tabs(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list tabs: %w", err)
	}
	first := firstInGroup(tabs, groups[next].ID)
	if first == nil {
		return Outcome{Group: groups[next].Title, Reason: ReasonEmpty}, nil
	}

	if err := c.host.ActivateTab(ctx, first.BrowserID); err != nil {
		return Outcome{}, fmt.Errorf("activate tab %d: %w", first.BrowserID, err)
	}
	applog.Info("nav.cycle", "group", groups[next].Title, "tab", first.BrowserID)
	return Outcome{Activated: first.BrowserID, Group: groups[next].Title}, nil
}

// NextInGroup activates the tab after the active one within its group,
// wrapping around. Ungrouped active tabs and single-tab groups are no-ops.
func (c *Controller) NextInGroup(ctx context.Context) (Outcome, error) {
	if c.host == nil {
		return Outcome{}, ErrNoHost
	}

	active, err := c.host.ActiveTab(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("active tab: %w", err)
	}
	if active == nil || active.GroupID == 0 {
		return Outcome{Reason: ReasonUngrouped}, nil
	}

	tabs, err := c.host.Tabs(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list tabs: %w", err)
	}
	members := inGroup(tabs, active.GroupID)
	if len(members) <= 1 {
		return Outcome{Reason: ReasonSingleTab}, nil
	}

	current := 0
	for i, t := range members {
		if t.BrowserID == active.BrowserID {
			current = i
			break
		}
	}
	next := members[(current+1)%len(members)]

	if err := c.host.ActivateTab(ctx, next.BrowserID); err != nil {
		return Outcome{}, fmt.Errorf("activate tab %d: %w", next.BrowserID, err)
	}
	applog.Info("nav.next", "tab", next.BrowserID)
	return Outcome{Activated: next.BrowserID}, nil
}

// inGroup filters tabs to one group, ordered by window position.
func inGroup(tabs []*types.Tab, groupID int) []*types.Tab {
	var out []*types.Tab
	for _, t := range tabs {
		if t.GroupID == groupID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WindowID != out[j].WindowID {
			return out[i].WindowID < out[j].WindowID
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func firstInGroup(tabs []*types.Tab, groupID int) *types.Tab {
	members := inGroup(tabs, groupID)
	if len(members) == 0 {
		return nil
	}
	return members[0]
}

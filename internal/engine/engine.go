// Package engine partitions open tabs by their resolved group and applies
// the grouping to the browser.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lotas/tabgruppen/internal/applog"
	"github.com/lotas/tabgruppen/internal/classify"
	"github.com/lotas/tabgruppen/internal/rules"
	"github.com/lotas/tabgruppen/internal/storage"
	"github.com/lotas/tabgruppen/internal/types"
)

// Host is the browser capability surface the engine needs. The bridge
// implements it; tests use an in-memory fake.
type Host interface {
	// Tabs lists all open tabs across all windows.
	Tabs(ctx context.Context) ([]*types.Tab, error)
	// GroupTabs groups the given tab IDs together and returns the group ID.
	GroupTabs(ctx context.Context, tabIDs []int) (int, error)
	// UpdateGroup sets a group's display title and color.
	UpdateGroup(ctx context.Context, groupID int, title, color string) error
}

// ErrNoHost is returned when no browser is connected. Callers can tell a
// missing-capability no-op apart from an empty tab set or a real failure.
var ErrNoHost = errors.New("no browser connected")

// ErrUnknownGroup is returned by MoveUncategorized for a target group that
// does not exist in the stored rules.
var ErrUnknownGroup = errors.New("unknown group")

// GroupOutcome is the per-group result of an AutoGroup run. A non-nil Err
// means this group failed; the rest of the batch still ran.
type GroupOutcome struct {
	Name    string
	Color   string
	GroupID int
	TabIDs  []int
	Err     error
}

// Result is the outcome of one AutoGroup run.
type Result struct {
	Groups   []GroupOutcome
	TabCount int // tabs with a URL that were partitioned
}

// MoveResult is the outcome of one uncategorized-tab migration.
type MoveResult struct {
	Target     string
	Color      string
	GroupID    int
	TabIDs     []int
	NewDomains []string // hostnames learned into the target's rule
}

// Engine wires the rule store and the browser host together. The audit db
// may be nil (no run history recorded).
type Engine struct {
	host  Host
	store *rules.Store
	db    *sql.DB
}

func New(host Host, store *rules.Store, db *sql.DB) *Engine {
	return &Engine{host: host, store: store, db: db}
}

// AutoGroup enumerates all open tabs, partitions them by resolved group in
// rule order (Uncategorized last), and applies each partition: group the
// tab IDs, then set the group's title and color. A failure on one group is
// recorded in its outcome and does not abort the remaining groups.
func (e *Engine) AutoGroup(ctx context.Context, trigger string) (*Result, error) {
	if e.host == nil {
		applog.Info("engine.autogroup.skipped", "reason", "no host")
		return nil, ErrNoHost
	}

	tabs, err := e.host.Tabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}

	// A rule-store read failure downgrades to Uncategorized-only grouping
	// rather than aborting, matching the resolver's fallback policy.
	rs, err := e.store.Get()
	if err != nil {
		applog.Error("engine.rules", err)
		rs = nil
	}

	var urls []string
	var withURL []*types.Tab
	for _, t := range tabs {
		if t.URL == "" {
			continue
		}
		urls = append(urls, t.URL)
		withURL = append(withURL, t)
	}

	order, byGroup := classify.Partition(rs, urls)

	result := &Result{TabCount: len(withURL)}
	for _, name := range order {
		outcome := GroupOutcome{Name: name, Color: rules.ColorFor(name)}
		for _, idx := range byGroup[name] {
			if id := withURL[idx].BrowserID; id != 0 {
				outcome.TabIDs = append(outcome.TabIDs, id)
			}
		}
		if len(outcome.TabIDs) > 0 {
			outcome.GroupID, outcome.Err = e.apply(ctx, outcome.TabIDs, name, outcome.Color)
		}
		if outcome.Err != nil {
			applog.Error("engine.group", outcome.Err, "group", name)
		} else {
			applog.Info("engine.grouped", "group", name, "tabs", len(outcome.TabIDs))
		}
		result.Groups = append(result.Groups, outcome)
	}

	var rows []storage.RunGroup
	for _, o := range result.Groups {
		row := storage.RunGroup{Name: o.Name, Color: o.Color, TabCount: len(o.TabIDs)}
		if o.Err != nil {
			row.Error = o.Err.Error()
		}
		rows = append(rows, row)
	}
	e.recordRun(trigger, rows)
	return result, nil
}

// apply groups the tab IDs and sets the group's title and color.
func (e *Engine) apply(ctx context.Context, tabIDs []int, name, color string) (int, error) {
	groupID, err := e.host.GroupTabs(ctx, tabIDs)
	if err != nil {
		return 0, fmt.Errorf("group tabs for %q: %w", name, err)
	}
	if err := e.host.UpdateGroup(ctx, groupID, name, color); err != nil {
		return groupID, fmt.Errorf("update group %q: %w", name, err)
	}
	return groupID, nil
}

// MoveUncategorized collects all tabs currently resolving to Uncategorized,
// appends each new stripped hostname to the target group's domain list (so
// future resolutions route there directly), persists the rules once, and
// groups the collected tabs under the target.
//
// An unknown target returns ErrUnknownGroup with no storage write and no
// grouping call.
func (e *Engine) MoveUncategorized(ctx context.Context, target, trigger string) (*MoveResult, error) {
	if e.host == nil {
		applog.Info("engine.move.skipped", "reason", "no host")
		return nil, ErrNoHost
	}

	rs, err := e.store.Get()
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	idx := rs.Index(target)
	if idx < 0 {
		applog.Error("engine.move", ErrUnknownGroup, "target", target)
		return nil, fmt.Errorf("move to %q: %w", target, ErrUnknownGroup)
	}

	tabs, err := e.host.Tabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}

	known := make(map[string]bool, len(rs[idx].Domains))
	for _, d := range rs[idx].Domains {
		known[d] = true
	}

	result := &MoveResult{Target: target, Color: rules.ColorFor(target)}
	for _, t := range tabs {
		if t.URL == "" || classify.DetermineGroup(rs, t.URL) != rules.Uncategorized {
			continue
		}
		if t.BrowserID != 0 {
			result.TabIDs = append(result.TabIDs, t.BrowserID)
		}
		host := classify.Hostname(t.URL)
		if host != "" && !known[host] {
			known[host] = true
			rs[idx].Domains = append(rs[idx].Domains, host)
			result.NewDomains = append(result.NewDomains, host)
		}
	}

	if err := e.store.Replace(rs); err != nil {
		return nil, fmt.Errorf("persist learned domains: %w", err)
	}

	if len(result.TabIDs) > 0 {
		result.GroupID, err = e.apply(ctx, result.TabIDs, target, result.Color)
		if err != nil {
			applog.Error("engine.move", err, "target", target)
			return result, err
		}
	}

	applog.Info("engine.moved", "target", target, "tabs", len(result.TabIDs), "learned", len(result.NewDomains))
	e.recordRun(trigger, []storage.RunGroup{{
		Name:     target,
		Color:    result.Color,
		TabCount: len(result.TabIDs),
	}})
	return result, nil
}

// recordRun appends to the audit log, best effort.
func (e *Engine) recordRun(trigger string, rows []storage.RunGroup) {
	if e.db == nil {
		return
	}
	if _, err := storage.RecordRun(e.db, trigger, rows); err != nil {
		applog.Error("engine.audit", err, "trigger", trigger)
	}
}

package dispatch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lotas/tabgruppen/internal/engine"
	"github.com/lotas/tabgruppen/internal/nav"
	"github.com/lotas/tabgruppen/internal/rules"
	"github.com/lotas/tabgruppen/internal/storage"
	"github.com/lotas/tabgruppen/internal/types"
)

// fakeBrowser satisfies both the engine's and the navigator's host
// interfaces and counts what was called.
type fakeBrowser struct {
	tabs   []*types.Tab
	groups []*types.TabGroup

	groupedCalls  int
	activateCalls int
}

func (b *fakeBrowser) Tabs(ctx context.Context) ([]*types.Tab, error)        { return b.tabs, nil }
func (b *fakeBrowser) Groups(ctx context.Context) ([]*types.TabGroup, error) { return b.groups, nil }

func (b *fakeBrowser) ActiveTab(ctx context.Context) (*types.Tab, error) {
	for _, t := range b.tabs {
		if t.Active {
			return t, nil
		}
	}
	return nil, nil
}

func (b *fakeBrowser) ActivateTab(ctx context.Context, tabID int) error {
	b.activateCalls++
	return nil
}

func (b *fakeBrowser) GroupTabs(ctx context.Context, tabIDs []int) (int, error) {
	b.groupedCalls++
	return b.groupedCalls, nil
}

func (b *fakeBrowser) UpdateGroup(ctx context.Context, groupID int, title, color string) error {
	return nil
}

func testDispatcher(t *testing.T, browser *fakeBrowser) *Dispatcher {
	t.Helper()
	db, err := storage.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := rules.NewStore(db, nil)
	if err := store.Initialize(); err != nil {
		t.Fatalf("initialize store: %v", err)
	}

	return &Dispatcher{
		Engine:     engine.New(browser, store, db),
		Nav:        nav.New(browser),
		Rules:      store,
		MoveTarget: "News",
	}
}

func TestHandleAutoGroup(t *testing.T) {
	browser := &fakeBrowser{tabs: []*types.Tab{
		{BrowserID: 1, URL: "https://github.com/x"},
		{BrowserID: 2, URL: "https://gitlab.com/y"},
	}}
	d := testDispatcher(t, browser)

	if err := d.Handle(context.Background(), CmdAutoGroup); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if browser.groupedCalls != 1 {
		t.Errorf("groupedCalls = %d, want 1", browser.groupedCalls)
	}
}

func TestHandleCycle(t *testing.T) {
	browser := &fakeBrowser{
		tabs: []*types.Tab{
			{BrowserID: 1, GroupID: 10, Active: true},
			{BrowserID: 2, GroupID: 20},
		},
		groups: []*types.TabGroup{{ID: 10, Title: "A"}, {ID: 20, Title: "B"}},
	}
	d := testDispatcher(t, browser)

	if err := d.Handle(context.Background(), CmdCycleGroups); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if browser.activateCalls != 1 {
		t.Errorf("activateCalls = %d, want 1", browser.activateCalls)
	}
}

func TestHandleNavigateWithin(t *testing.T) {
	browser := &fakeBrowser{tabs: []*types.Tab{
		{BrowserID: 1, GroupID: 10, Index: 0, Active: true},
		{BrowserID: 2, GroupID: 10, Index: 1},
	}}
	d := testDispatcher(t, browser)

	if err := d.Handle(context.Background(), CmdNavigateWithin); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if browser.activateCalls != 1 {
		t.Errorf("activateCalls = %d, want 1", browser.activateCalls)
	}
}

func TestHandleMoveUncategorized(t *testing.T) {
	browser := &fakeBrowser{tabs: []*types.Tab{
		{BrowserID: 1, URL: "https://example.org/"},
	}}
	d := testDispatcher(t, browser)

	if err := d.Handle(context.Background(), CmdMoveUncategorized); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if browser.groupedCalls != 1 {
		t.Errorf("groupedCalls = %d, want 1", browser.groupedCalls)
	}
}

func TestHandleMoveWithoutTarget(t *testing.T) {
	browser := &fakeBrowser{tabs: []*types.Tab{
		{BrowserID: 1, URL: "https://example.org/"},
	}}
	d := testDispatcher(t, browser)
	d.MoveTarget = ""

	if err := d.Handle(context.Background(), CmdMoveUncategorized); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if browser.groupedCalls != 0 {
		t.Errorf("groupedCalls = %d, want a no-op", browser.groupedCalls)
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	d := testDispatcher(t, &fakeBrowser{})
	if err := d.Handle(context.Background(), "made-up"); err != nil {
		t.Errorf("unknown command returned %v, want nil", err)
	}
}

func TestHandleInstalled(t *testing.T) {
	d := testDispatcher(t, &fakeBrowser{})
	if err := d.HandleInstalled(); err != nil {
		t.Errorf("HandleInstalled: %v", err)
	}

	rs, err := d.Rules.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rs) == 0 {
		t.Error("rules not seeded")
	}
}

package rules

import (
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lotas/tabgruppen/internal/storage"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(testDB(t), nil)
	if err := store.Initialize(); err != nil {
		t.Fatalf("initialize store: %v", err)
	}
	return store
}

func TestInitializeSeedsDefaults(t *testing.T) {
	store := testStore(t)

	rs, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(rs, DefaultRules()) {
		t.Errorf("seeded rules = %v, want defaults", rs)
	}

	custom, err := store.CustomGroups()
	if err != nil {
		t.Fatalf("CustomGroups: %v", err)
	}
	if len(custom) != 0 {
		t.Errorf("custom groups = %v, want empty", custom)
	}
}

func TestInitializeIdempotent(t *testing.T) {
	store := testStore(t)

	if _, err := store.AddCustomGroup("Hobbies", []string{"reddit.com"}); err != nil {
		t.Fatalf("AddCustomGroup: %v", err)
	}

	// A second Initialize must not reset user data.
	if err := store.Initialize(); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}

	rs, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !rs.Has("Hobbies") {
		t.Error("custom group lost after re-initialize")
	}
}

func TestInitializeCustomSeed(t *testing.T) {
	seed := Rules{{Group: "Only", Domains: []string{"only.example"}}}
	store := NewStore(testDB(t), seed)
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	rs, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(rs, seed) {
		t.Errorf("rules = %v, want custom seed", rs)
	}
}

func TestAddCustomGroup(t *testing.T) {
	store := testStore(t)

	group, err := store.AddCustomGroup("Hobbies", []string{"reddit.com", "chess.com"})
	if err != nil {
		t.Fatalf("AddCustomGroup: %v", err)
	}
	if group.Name != "Hobbies" || group.Color != DefaultColor {
		t.Errorf("group = %+v, want Hobbies with default color", group)
	}

	rs, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := rs.Index("Hobbies"); got != len(DefaultRules()) {
		t.Errorf("new group at index %d, want appended after defaults", got)
	}

	custom, err := store.CustomGroups()
	if err != nil {
		t.Fatalf("CustomGroups: %v", err)
	}
	if len(custom) != 1 || custom[0].Name != "Hobbies" {
		t.Errorf("custom groups = %v, want [Hobbies]", custom)
	}
}

func TestAddCustomGroupNameTaken(t *testing.T) {
	store := testStore(t)

	for _, name := range []string{"Work Tools", Uncategorized} {
		_, err := store.AddCustomGroup(name, []string{"x.example"})
		if !errors.Is(err, ErrNameTaken) {
			t.Errorf("AddCustomGroup(%q) error = %v, want ErrNameTaken", name, err)
		}
	}

	// The rejected adds must leave stored state untouched.
	rs, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(rs, DefaultRules()) {
		t.Errorf("rules changed after rejected add: %v", rs)
	}

	if _, err := store.AddCustomGroup("Hobbies", nil); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err = store.AddCustomGroup("Hobbies", nil)
	if !errors.Is(err, ErrNameTaken) {
		t.Errorf("duplicate custom add error = %v, want ErrNameTaken", err)
	}
}

func TestReplace(t *testing.T) {
	store := testStore(t)

	rs, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	rs[0].Domains = append(rs[0].Domains, "mastodon.social")

	if err := store.Replace(rs); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := store.Get()
	if err != nil {
		t.Fatalf("Get after Replace: %v", err)
	}
	if !reflect.DeepEqual(got, rs) {
		t.Errorf("rules = %v, want %v", got, rs)
	}
}

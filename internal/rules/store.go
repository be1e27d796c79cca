package rules

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lotas/tabgruppen/internal/applog"
	"github.com/lotas/tabgruppen/internal/storage"
)

// Storage keys. Both values are JSON documents in the kv table.
const (
	keyRules        = "groupingRules"
	keyCustomGroups = "customGroups"
)

// ErrNameTaken is returned when a custom group name collides with an
// existing group, default or custom.
var ErrNameTaken = errors.New("group name already exists")

// Store persists grouping rules and custom groups. The seed is passed in at
// construction; it is only written on first run.
type Store struct {
	db   *sql.DB
	seed Rules
}

// NewStore creates a rule store backed by db. A nil seed uses the built-in
// default rules.
func NewStore(db *sql.DB, seed Rules) *Store {
	if seed == nil {
		seed = DefaultRules()
	}
	return &Store{db: db, seed: seed}
}

// Initialize seeds the store on first run. Idempotent — if rules already
// exist, nothing is written.
func (s *Store) Initialize() error {
	_, exists, err := storage.GetValue(s.db, keyRules)
	if err != nil {
		return fmt.Errorf("check existing rules: %w", err)
	}
	if exists {
		return nil
	}

	rulesJSON, err := json.Marshal(s.seed)
	if err != nil {
		return fmt.Errorf("marshal seed rules: %w", err)
	}
	if err := storage.SetValues(s.db, map[string]string{
		keyRules:        string(rulesJSON),
		keyCustomGroups: "[]",
	}); err != nil {
		return fmt.Errorf("seed rules: %w", err)
	}
	applog.Info("rules.seeded", "groups", len(s.seed))
	return nil
}

// Get returns the current rules in priority order.
func (s *Store) Get() (Rules, error) {
	value, exists, err := storage.GetValue(s.db, keyRules)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	var rs Rules
	if err := json.Unmarshal([]byte(value), &rs); err != nil {
		return nil, fmt.Errorf("parse stored rules: %w", err)
	}
	return rs, nil
}

// CustomGroups returns the user-defined groups in creation order.
func (s *Store) CustomGroups() ([]CustomGroup, error) {
	value, exists, err := storage.GetValue(s.db, keyCustomGroups)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	var groups []CustomGroup
	if err := json.Unmarshal([]byte(value), &groups); err != nil {
		return nil, fmt.Errorf("parse stored custom groups: %w", err)
	}
	return groups, nil
}

// AddCustomGroup creates a user-defined group. The name must not collide
// with any existing group (ErrNameTaken). On success the group is appended
// to the rule list and the custom-group list, and both are persisted in one
// transaction.
func (s *Store) AddCustomGroup(name string, domains []string) (CustomGroup, error) {
	rs, err := s.Get()
	if err != nil {
		return CustomGroup{}, fmt.Errorf("load rules: %w", err)
	}
	if rs.Has(name) || name == Uncategorized {
		applog.Info("rules.add.rejected", "name", name)
		return CustomGroup{}, fmt.Errorf("add group %q: %w", name, ErrNameTaken)
	}

	custom, err := s.CustomGroups()
	if err != nil {
		return CustomGroup{}, fmt.Errorf("load custom groups: %w", err)
	}
	for _, g := range custom {
		if g.Name == name {
			return CustomGroup{}, fmt.Errorf("add group %q: %w", name, ErrNameTaken)
		}
	}

	group := CustomGroup{Name: name, Domains: domains, Color: ColorFor(name)}
	rs = append(rs, Rule{Group: name, Domains: domains})
	custom = append(custom, group)

	rulesJSON, err := json.Marshal(rs)
	if err != nil {
		return CustomGroup{}, fmt.Errorf("marshal rules: %w", err)
	}
	customJSON, err := json.Marshal(custom)
	if err != nil {
		return CustomGroup{}, fmt.Errorf("marshal custom groups: %w", err)
	}
	if err := storage.SetValues(s.db, map[string]string{
		keyRules:        string(rulesJSON),
		keyCustomGroups: string(customJSON),
	}); err != nil {
		return CustomGroup{}, fmt.Errorf("persist group %q: %w", name, err)
	}

	applog.Info("rules.added", "name", name, "domains", len(domains))
	return group, nil
}

// Replace overwrites the rule list, preserving order. Used by the
// uncategorized-tab migration after it appends learned hostnames.
func (s *Store) Replace(rs Rules) error {
	rulesJSON, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	if err := storage.SetValue(s.db, keyRules, string(rulesJSON)); err != nil {
		return fmt.Errorf("persist rules: %w", err)
	}
	return nil
}

package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// RunGroup is the per-group outcome of a grouping run.
type RunGroup struct {
	Name     string
	Color    string
	TabCount int
	Error    string // empty if the group was applied cleanly
}

// Run is one recorded application of the grouping engine.
type Run struct {
	ID        int64
	Trigger   string // "cli", "command", "tui"
	TabCount  int
	CreatedAt time.Time
	Groups    []RunGroup
}

// RecordRun inserts a grouping run with its per-group outcomes in a single
// transaction and returns the run ID.
func RecordRun(db *sql.DB, trigger string, groups []RunGroup) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	tabCount := 0
	for _, g := range groups {
		tabCount += g.TabCount
	}

	res, err := tx.Exec(
		"INSERT INTO grouping_runs (trigger, tab_count) VALUES (?, ?)",
		trigger, tabCount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get run id: %w", err)
	}

	for _, g := range groups {
		if _, err := tx.Exec(
			"INSERT INTO run_groups (run_id, name, color, tab_count, error) VALUES (?, ?, ?, ?, ?)",
			runID, g.Name, g.Color, g.TabCount, g.Error,
		); err != nil {
			return 0, fmt.Errorf("insert run group %q: %w", g.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first, with their groups.
func ListRuns(db *sql.DB, limit int) ([]Run, error) {
	rows, err := db.Query(
		"SELECT id, trigger, tab_count, created_at FROM grouping_runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Trigger, &r.TabCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		groupRows, err := db.Query(
			"SELECT name, color, tab_count, error FROM run_groups WHERE run_id = ? ORDER BY id",
			runs[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("query run groups: %w", err)
		}
		for groupRows.Next() {
			var g RunGroup
			if err := groupRows.Scan(&g.Name, &g.Color, &g.TabCount, &g.Error); err != nil {
				groupRows.Close()
				return nil, fmt.Errorf("scan run group: %w", err)
			}
			runs[i].Groups = append(runs[i].Groups, g)
		}
		if err := groupRows.Err(); err != nil {
			groupRows.Close()
			return nil, fmt.Errorf("iterate run groups: %w", err)
		}
		groupRows.Close()
	}

	return runs, nil
}

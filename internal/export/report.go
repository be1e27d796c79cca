// Package export renders classification reports: what the grouping engine
// would do with the current tabs, as markdown or JSON.
package export

import (
	"time"

	"github.com/lotas/tabgruppen/internal/classify"
	"github.com/lotas/tabgruppen/internal/rules"
	"github.com/lotas/tabgruppen/internal/types"
)

// Report is the set of tabs bucketed by resolved group, in rule order with
// Uncategorized last.
type Report struct {
	Profile     string        `json:"profile,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Groups      []ReportGroup `json:"groups"`
}

// ReportGroup is one resolved group and its tabs.
type ReportGroup struct {
	Name  string       `json:"name"`
	Color string       `json:"color"`
	Tabs  []*ReportTab `json:"tabs"`
}

// ReportTab is the exported view of a tab.
type ReportTab struct {
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	LastAccessed time.Time `json:"lastAccessed,omitempty"`
}

// Build classifies the session's tabs against the rules and buckets them.
func Build(rs rules.Rules, session *types.Session) *Report {
	var urls []string
	var withURL []*types.Tab
	for _, t := range session.Tabs {
		if t.URL == "" {
			continue
		}
		urls = append(urls, t.URL)
		withURL = append(withURL, t)
	}

	order, byGroup := classify.Partition(rs, urls)

	report := &Report{
		Profile:     session.Profile.Name,
		GeneratedAt: time.Now(),
	}
	for _, name := range order {
		group := ReportGroup{Name: name, Color: rules.ColorFor(name)}
		for _, idx := range byGroup[name] {
			t := withURL[idx]
			group.Tabs = append(group.Tabs, &ReportTab{
				URL:          t.URL,
				Title:        t.Title,
				LastAccessed: t.LastAccessed,
			})
		}
		report.Groups = append(report.Groups, group)
	}
	return report
}

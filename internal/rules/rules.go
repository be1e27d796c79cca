// Package rules holds the persisted grouping rules: which domain substrings
// route a tab into which named group.
package rules

// Uncategorized is the fallback group for tabs no rule claims.
const Uncategorized = "Uncategorized"

// DefaultColor is used for groups without an entry in the color table,
// including all custom groups.
const DefaultColor = "grey"

// Rule maps a group name to an ordered list of domain substrings.
type Rule struct {
	Group   string   `json:"group"`
	Domains []string `json:"domains"`
}

// Rules is the ordered rule list. Rules are matched in slice order, so
// earlier entries win when a hostname matches more than one group. The
// order is persisted: built-in defaults first, custom groups appended.
type Rules []Rule

// Index returns the position of the named group, or -1.
func (rs Rules) Index(group string) int {
	for i, r := range rs {
		if r.Group == group {
			return i
		}
	}
	return -1
}

// Has reports whether the named group exists.
func (rs Rules) Has(group string) bool {
	return rs.Index(group) >= 0
}

// CustomGroup is a user-defined group.
type CustomGroup struct {
	Name    string   `json:"name"`
	Domains []string `json:"domains"`
	Color   string   `json:"color"`
}

var groupColors = map[string]string{
	"Social Media":  "pink",
	"Work Tools":    "blue",
	"News":          "green",
	"Entertainment": "purple",
	Uncategorized:   "grey",
}

// ColorFor maps a group name to its display color, falling back to
// DefaultColor for unknown names.
func ColorFor(group string) string {
	if c, ok := groupColors[group]; ok {
		return c
	}
	return DefaultColor
}

// DefaultRules returns a fresh copy of the built-in seed rules, used once
// on first run. Callers get their own slices and may mutate freely.
func DefaultRules() Rules {
	return Rules{
		{Group: "Social Media", Domains: []string{"facebook.com", "twitter.com", "instagram.com", "linkedin.com"}},
		{Group: "Work Tools", Domains: []string{"github.com", "gitlab.com", "stackoverflow.com", "atlassian.net"}},
		{Group: "News", Domains: []string{"cnn.com", "bbc.com", "nytimes.com", "theguardian.com"}},
		{Group: "Entertainment", Domains: []string{"youtube.com", "netflix.com", "spotify.com", "twitch.tv"}},
	}
}

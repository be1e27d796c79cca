// Package classify resolves tab URLs to group names using the stored
// grouping rules.
package classify

import (
	"net/url"
	"strings"

	"github.com/lotas/tabgruppen/internal/rules"
)

// Hostname extracts the hostname from a raw URL and strips one leading
// "www." prefix. Returns "" for unparsable URLs or URLs without a host
// (about:, data:, bare strings).
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		return ""
	}
	return strings.TrimPrefix(host, "www.")
}

// DetermineGroup resolves a URL to a group name. The first rule (in slice
// order) whose domain list contains a substring of the hostname wins.
// Unparsable URLs, hostless URLs, and unmatched hostnames all resolve to
// rules.Uncategorized — resolution never fails.
//
// Matching is substring containment, not suffix matching: "cnn.com" matches
// "edition.cnn.com" but also "cnn.com.example". That looseness is inherited
// behavior; see DESIGN.md.
func DetermineGroup(rs rules.Rules, rawURL string) string {
	host := Hostname(rawURL)
	if host == "" {
		return rules.Uncategorized
	}
	for _, r := range rs {
		for _, domain := range r.Domains {
			if domain != "" && strings.Contains(host, domain) {
				return r.Group
			}
		}
	}
	return rules.Uncategorized
}

// Partition buckets URLs by resolved group, preserving rule order and
// placing Uncategorized last. Only non-empty groups appear in the result.
func Partition(rs rules.Rules, urls []string) (order []string, byGroup map[string][]int) {
	byGroup = make(map[string][]int)
	for i, u := range urls {
		group := DetermineGroup(rs, u)
		byGroup[group] = append(byGroup[group], i)
	}

	for _, r := range rs {
		if len(byGroup[r.Group]) > 0 {
			order = append(order, r.Group)
		}
	}
	if len(byGroup[rules.Uncategorized]) > 0 {
		order = append(order, rules.Uncategorized)
	}
	return order, byGroup
}

// Package suggest fetches readable page content for uncategorized hostnames
// to help the user decide which group a domain belongs in.
package suggest

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/lotas/tabgruppen/internal/applog"
	"github.com/lotas/tabgruppen/internal/classify"
	"github.com/lotas/tabgruppen/internal/rules"
	"github.com/lotas/tabgruppen/internal/types"
)

var skipPrefixes = []string{"about:", "moz-extension:", "file:", "chrome:", "resource:", "data:"}

const (
	fetchTimeout = 15 * time.Second
	excerptLen   = 240
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Suggestion is one uncategorized hostname with fetched context.
type Suggestion struct {
	Host    string
	URL     string // the tab URL the host was seen on
	Title   string
	Excerpt string
	Err     error // fetch/extract failure; Title/Excerpt empty
}

// UncategorizedHosts returns the distinct hostnames of tabs resolving to
// Uncategorized, alphabetically, each paired with one representative URL.
func UncategorizedHosts(rs rules.Rules, tabs []*types.Tab) map[string]string {
	hosts := make(map[string]string)
	for _, t := range tabs {
		if t.URL == "" || skippable(t.URL) {
			continue
		}
		if classify.DetermineGroup(rs, t.URL) != rules.Uncategorized {
			continue
		}
		if host := classify.Hostname(t.URL); host != "" {
			if _, seen := hosts[host]; !seen {
				hosts[host] = t.URL
			}
		}
	}
	return hosts
}

// skippable reports whether the URL uses a non-HTTP scheme not worth
// fetching.
func skippable(url string) bool {
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// Run fetches each uncategorized host's page and extracts a readable title
// and excerpt. Per-host failures are recorded on the suggestion, never
// fatal. Results come back sorted by host.
func Run(rs rules.Rules, tabs []*types.Tab) []Suggestion {
	hosts := UncategorizedHosts(rs, tabs)

	var suggestions []Suggestion
	for host, url := range hosts {
		s := Suggestion{Host: host, URL: url}
		s.Title, s.Excerpt, s.Err = fetchReadable(url)
		if s.Err != nil {
			applog.Error("suggest.fetch", s.Err, "host", host)
		}
		suggestions = append(suggestions, s)
	}

	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].Host < suggestions[j].Host
	})
	return suggestions
}

// fetchReadable fetches a URL and extracts readable content.
func fetchReadable(url string) (title, excerpt string, err error) {
	client := &http.Client{Timeout: fetchTimeout}
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, nil)
	if err != nil {
		return "", "", fmt.Errorf("extract readable content from %s: %w", url, err)
	}

	return article.Title, Excerpt(article.TextContent), nil
}

// Excerpt collapses whitespace and truncates to a display-friendly length,
// backing up to a rune boundary so multibyte text stays valid UTF-8.
func Excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= excerptLen {
		return text
	}
	cut := excerptLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…"
}

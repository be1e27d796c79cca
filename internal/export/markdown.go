package export

import (
	"fmt"
	"strings"
	"time"
)

// Markdown formats a report as a markdown document.
func Markdown(r *Report) string {
	var b strings.Builder

	if r.Profile != "" {
		fmt.Fprintf(&b, "# Tab groups — %s\n", r.Profile)
	} else {
		b.WriteString("# Tab groups\n")
	}
	fmt.Fprintf(&b, "> Generated %s\n", r.GeneratedAt.Format("2006-01-02 15:04"))

	for _, g := range r.Groups {
		n := len(g.Tabs)
		noun := "tabs"
		if n == 1 {
			noun = "tab"
		}
		fmt.Fprintf(&b, "\n## %s (%d %s, %s)\n\n", g.Name, n, noun, g.Color)

		for _, tab := range g.Tabs {
			title := tab.Title
			if title == "" {
				title = tab.URL
			}
			if tab.LastAccessed.IsZero() || tab.LastAccessed.Unix() <= 0 {
				fmt.Fprintf(&b, "- [%s](%s)\n", title, tab.URL)
			} else {
				fmt.Fprintf(&b, "- [%s](%s) — %s\n", title, tab.URL, relativeTime(tab.LastAccessed))
			}
		}
	}

	return b.String()
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

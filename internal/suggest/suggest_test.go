package suggest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/lotas/tabgruppen/internal/rules"
	"github.com/lotas/tabgruppen/internal/types"
)

func TestUncategorizedHosts(t *testing.T) {
	rs := rules.DefaultRules()
	tabs := []*types.Tab{
		{URL: "https://github.com/x"},             // categorized, skipped
		{URL: "https://example.org/a"},
		{URL: "https://www.example.org/b"},        // same host after www strip
		{URL: "https://other.example/"},
		{URL: "about:blank"},
		{URL: "moz-extension://abc/popup.html"},
		{URL: ""},
	}

	hosts := UncategorizedHosts(rs, tabs)
	if len(hosts) != 2 {
		t.Fatalf("got %d hosts, want 2: %v", len(hosts), hosts)
	}
	// The first URL seen for a host is kept.
	if hosts["example.org"] != "https://example.org/a" {
		t.Errorf("example.org = %q", hosts["example.org"])
	}
	if hosts["other.example"] != "https://other.example/" {
		t.Errorf("other.example = %q", hosts["other.example"])
	}
}

func TestSkippable(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"about:blank", true},
		{"moz-extension://abc/", true},
		{"file:///tmp/x.html", true},
		{"data:text/html,hi", true},
		{"https://example.org/", false},
		{"http://example.org/", false},
	}
	for _, tt := range tests {
		if got := skippable(tt.url); got != tt.want {
			t.Errorf("skippable(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("  a\n\tb   c  "); got != "a b c" {
		t.Errorf("Excerpt = %q, want collapsed whitespace", got)
	}

	long := strings.Repeat("word ", 100)
	got := Excerpt(long)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("long text not truncated: %q", got)
	}
	if len(got) > excerptLen+len("…") {
		t.Errorf("excerpt too long: %d bytes", len(got))
	}

	// Truncation must not split a multibyte rune.
	multibyte := Excerpt(strings.Repeat("日本語テキスト", 50))
	if !utf8.ValidString(multibyte) {
		t.Errorf("multibyte excerpt is invalid UTF-8: %q", multibyte)
	}
	if !strings.HasSuffix(multibyte, "…") {
		t.Errorf("multibyte text not truncated: %q", multibyte)
	}
}

func TestRunFetchesUncategorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Test Page</title></head><body><article><p>`+
			strings.Repeat("Readable content here. ", 20)+
			`</p></article></body></html>`)
	}))
	defer ts.Close()

	tabs := []*types.Tab{{URL: ts.URL + "/page"}}
	suggestions := Run(rules.DefaultRules(), tabs)
	if len(suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(suggestions))
	}

	s := suggestions[0]
	if s.Err != nil {
		t.Fatalf("fetch failed: %v", s.Err)
	}
	if s.Title != "Test Page" {
		t.Errorf("Title = %q, want Test Page", s.Title)
	}
	if !strings.Contains(s.Excerpt, "Readable content") {
		t.Errorf("Excerpt = %q", s.Excerpt)
	}
}

func TestRunRecordsFetchError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer ts.Close()

	tabs := []*types.Tab{{URL: ts.URL + "/page"}}
	suggestions := Run(rules.DefaultRules(), tabs)
	if len(suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(suggestions))
	}
	if suggestions[0].Err == nil {
		t.Error("expected an error for HTTP 410")
	}
}

func TestRunNothingUncategorized(t *testing.T) {
	tabs := []*types.Tab{{URL: "https://github.com/x"}}
	if got := Run(rules.DefaultRules(), tabs); len(got) != 0 {
		t.Errorf("suggestions = %+v, want none", got)
	}
}

package firefox

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
)

// compressMozLz4 builds a mozlz4 blob the way Firefox writes them.
func compressMozLz4(t *testing.T, data []byte) []byte {
	t.Helper()

	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	out := make([]byte, 0, 12+n)
	out = append(out, mozLz4Magic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	return append(out, buf[:n]...)
}

func TestDecompressMozLz4RoundTrip(t *testing.T) {
	original := []byte(`{"windows":[{"tabs":[],"selected":0}]}`)

	decompressed, err := DecompressMozLz4(compressMozLz4(t, original))
	if err != nil {
		t.Fatalf("DecompressMozLz4: %v", err)
	}
	if string(decompressed) != string(original) {
		t.Errorf("got %q, want %q", decompressed, original)
	}
}

func TestDecompressMozLz4BadInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte("mozLz4")},
		{"wrong magic", append([]byte("notLz40\x00"), make([]byte, 8)...)},
		{"truncated block", append(append([]byte{}, mozLz4Magic...), 0xff, 0xff, 0xff, 0x7f)},
	}
	for _, tt := range tests {
		if _, err := DecompressMozLz4(tt.data); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

const sessionJSON = `{
  "windows": [
    {
      "selected": 2,
      "groups": [
        {"id": "grp-aaa", "name": "Work Tools", "color": "blue"},
        {"id": "grp-bbb", "name": "News", "color": "green", "collapsed": true}
      ],
      "tabs": [
        {
          "index": 1,
          "entries": [{"url": "https://github.com/lotas/tabgruppen", "title": "tabgruppen"}],
          "groupId": "grp-aaa"
        },
        {
          "index": 2,
          "entries": [
            {"url": "https://example.org/old", "title": "old"},
            {"url": "https://example.org/new", "title": "new"}
          ]
        },
        {"index": 1, "entries": []}
      ]
    },
    {
      "selected": 1,
      "tabs": [
        {"index": 1, "entries": [{"url": "https://bbc.com/", "title": "BBC"}], "groupId": "grp-zzz"}
      ]
    }
  ]
}`

func TestParseSession(t *testing.T) {
	session, err := ParseSession([]byte(sessionJSON))
	if err != nil {
		t.Fatalf("ParseSession: %v", err)
	}

	// The empty-entries tab is dropped.
	if len(session.Tabs) != 3 {
		t.Fatalf("got %d tabs, want 3: %+v", len(session.Tabs), session.Tabs)
	}
	if len(session.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(session.Groups))
	}

	// String group IDs become sequential ints in order of appearance.
	if session.Groups[0].ID != 1 || session.Groups[0].Title != "Work Tools" {
		t.Errorf("group 0 = %+v", session.Groups[0])
	}
	if session.Groups[1].ID != 2 || !session.Groups[1].Collapsed {
		t.Errorf("group 1 = %+v", session.Groups[1])
	}
	if session.Tabs[0].GroupID != 1 {
		t.Errorf("tab 0 GroupID = %d, want 1", session.Tabs[0].GroupID)
	}

	// The entry index is 1-based; index 2 selects the second entry.
	if session.Tabs[1].URL != "https://example.org/new" {
		t.Errorf("tab 1 URL = %q, want the current entry", session.Tabs[1].URL)
	}

	// selected=2 marks the second tab of the first window active.
	active := session.ActiveTab()
	if active == nil || active.URL != "https://example.org/new" {
		t.Errorf("ActiveTab = %+v", active)
	}

	// A groupId with no matching group definition falls back to ungrouped.
	if session.Tabs[2].GroupID != 0 {
		t.Errorf("orphan tab GroupID = %d, want 0", session.Tabs[2].GroupID)
	}
	if session.Tabs[2].WindowID != 1 {
		t.Errorf("second-window tab WindowID = %d, want 1", session.Tabs[2].WindowID)
	}
}

func TestParseSessionInvalidJSON(t *testing.T) {
	if _, err := ParseSession([]byte("{not json")); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestReadSession(t *testing.T) {
	profileDir := t.TempDir()
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	blob := compressMozLz4(t, []byte(sessionJSON))
	if err := os.WriteFile(filepath.Join(backupDir, "recovery.jsonlz4"), blob, 0o644); err != nil {
		t.Fatalf("write session file: %v", err)
	}

	session, err := ReadSession(profileDir)
	if err != nil {
		t.Fatalf("ReadSession: %v", err)
	}
	if len(session.Tabs) != 3 {
		t.Errorf("got %d tabs, want 3", len(session.Tabs))
	}
}

func TestReadSessionMissing(t *testing.T) {
	if _, err := ReadSession(t.TempDir()); err == nil {
		t.Error("expected an error for a profile without session files")
	}
}

package firefox

import (
	"os"
	"path/filepath"
	"testing"
)

// writeProfile creates a profile directory with a session file so the
// discovery code considers it usable.
func writeProfile(t *testing.T, firefoxDir, name string) {
	t.Helper()
	backupDir := filepath.Join(firefoxDir, name, "sessionstore-backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, "recovery.jsonlz4"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestParseProfilesINI(t *testing.T) {
	firefoxDir := t.TempDir()
	writeProfile(t, firefoxDir, "abc.default-release")
	writeProfile(t, firefoxDir, "xyz.work")

	ini := `[Install4F96D1932A9F858E]
Default=abc.default-release

[Profile1]
Name=work
IsRelative=1
Path=xyz.work

[Profile0]
Name=default-release
IsRelative=1
Path=abc.default-release
Default=1

[Profile2]
Name=stale
IsRelative=1
Path=gone.stale
`
	iniPath := filepath.Join(firefoxDir, "profiles.ini")
	if err := os.WriteFile(iniPath, []byte(ini), 0o644); err != nil {
		t.Fatalf("write profiles.ini: %v", err)
	}

	profiles, err := ParseProfilesINI(iniPath, firefoxDir)
	if err != nil {
		t.Fatalf("ParseProfilesINI: %v", err)
	}

	// The Install section and the profile without a session file are skipped.
	if len(profiles) != 2 {
		t.Fatalf("got %d profiles, want 2: %+v", len(profiles), profiles)
	}

	if profiles[0].Name != "work" || profiles[0].IsDefault {
		t.Errorf("profiles[0] = %+v", profiles[0])
	}
	if profiles[1].Name != "default-release" || !profiles[1].IsDefault {
		t.Errorf("profiles[1] = %+v", profiles[1])
	}

	// Relative paths are resolved against the Firefox directory.
	want := filepath.Join(firefoxDir, "xyz.work")
	if profiles[0].Path != want {
		t.Errorf("profiles[0].Path = %q, want %q", profiles[0].Path, want)
	}
}

func TestParseProfilesINIMissing(t *testing.T) {
	if _, err := ParseProfilesINI(filepath.Join(t.TempDir(), "profiles.ini"), t.TempDir()); err == nil {
		t.Error("expected an error for a missing profiles.ini")
	}
}

func TestSessionFilePathPreference(t *testing.T) {
	profileDir := t.TempDir()
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if got := sessionFilePath(profileDir); got != "" {
		t.Errorf("empty profile: got %q, want none", got)
	}

	previous := filepath.Join(backupDir, "previous.jsonlz4")
	if err := os.WriteFile(previous, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := sessionFilePath(profileDir); got != previous {
		t.Errorf("got %q, want %q", got, previous)
	}

	// The active session wins over the last closed one.
	recovery := filepath.Join(backupDir, "recovery.jsonlz4")
	if err := os.WriteFile(recovery, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := sessionFilePath(profileDir); got != recovery {
		t.Errorf("got %q, want %q", got, recovery)
	}
}

// Package firefox reads tabs from Firefox's on-disk session store, the
// offline counterpart to the live extension bridge.
package firefox

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/lotas/tabgruppen/internal/types"
)

// FindFirefoxDir returns the platform-specific Firefox profile directory.
func FindFirefoxDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "linux":
		return filepath.Join(home, ".mozilla", "firefox")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Firefox")
	default:
		return ""
	}
}

// ParseProfilesINI reads profiles.ini and returns the profiles that have a
// session file to read.
func ParseProfilesINI(iniPath, firefoxDir string) ([]types.Profile, error) {
	f, err := os.Open(iniPath)
	if err != nil {
		return nil, fmt.Errorf("open profiles.ini: %w", err)
	}
	defer f.Close()

	var profiles []types.Profile
	var current *types.Profile

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if current != nil {
				profiles = append(profiles, *current)
				current = nil
			}
			if strings.HasPrefix(line[1:len(line)-1], "Profile") {
				current = &types.Profile{}
			}
			continue
		}

		if current == nil {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch key {
		case "Name":
			current.Name = value
		case "Path":
			current.Path = value
		case "IsRelative":
			current.IsRelative = value == "1"
		case "Default":
			current.IsDefault = value == "1"
		}
	}

	if current != nil {
		profiles = append(profiles, *current)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan profiles.ini: %w", err)
	}

	for i := range profiles {
		if profiles[i].IsRelative {
			profiles[i].Path = filepath.Join(firefoxDir, profiles[i].Path)
		}
	}

	var usable []types.Profile
	for _, p := range profiles {
		if sessionFilePath(p.Path) != "" {
			usable = append(usable, p)
		}
	}
	return usable, nil
}

// DiscoverProfiles finds and parses Firefox profiles on this system.
func DiscoverProfiles() ([]types.Profile, error) {
	dir := FindFirefoxDir()
	if dir == "" {
		return nil, fmt.Errorf("could not find Firefox directory for %s", runtime.GOOS)
	}
	return ParseProfilesINI(filepath.Join(dir, "profiles.ini"), dir)
}

// ResolveProfile picks the named profile, or the default one when name is
// empty (falling back to the first discovered).
func ResolveProfile(name string) (types.Profile, error) {
	profiles, err := DiscoverProfiles()
	if err != nil {
		return types.Profile{}, fmt.Errorf("discover profiles: %w", err)
	}
	if len(profiles) == 0 {
		return types.Profile{}, fmt.Errorf("no Firefox profiles found")
	}

	if name != "" {
		for _, p := range profiles {
			if p.Name == name {
				return p, nil
			}
		}
		return types.Profile{}, fmt.Errorf("profile %q not found", name)
	}

	profile := profiles[0]
	for _, p := range profiles {
		if p.IsDefault {
			profile = p
			break
		}
	}
	return profile, nil
}

// sessionFilePath returns the profile's session file, preferring the active
// session over the last closed one. Empty if neither exists.
func sessionFilePath(profileDir string) string {
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	for _, name := range []string{"recovery.jsonlz4", "previous.jsonlz4"} {
		path := filepath.Join(backupDir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

package firefox

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lotas/tabgruppen/internal/types"
	"github.com/pierrec/lz4/v4"
)

// mozlz4 header: 8-byte magic "mozLz40\x00"
var mozLz4Magic = []byte("mozLz40\x00")

// DecompressMozLz4 decompresses data in Mozilla's mozlz4 format:
// 8-byte magic + 4-byte LE uint32 uncompressed size + lz4 block data.
func DecompressMozLz4(data []byte) ([]byte, error) {
	const headerSize = 12 // 8 magic + 4 size

	if len(data) < headerSize {
		return nil, fmt.Errorf("mozlz4: data too short (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:len(mozLz4Magic)], mozLz4Magic) {
		return nil, fmt.Errorf("mozlz4: invalid header magic")
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[8:12])

	dst := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data[headerSize:], dst)
	if err != nil {
		return nil, fmt.Errorf("mozlz4: decompress failed: %w", err)
	}
	return dst[:n], nil
}

// Raw JSON types for session file parsing.
type rawEntry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type rawTab struct {
	Entries      []rawEntry `json:"entries"`
	Index        int        `json:"index"`
	LastAccessed int64      `json:"lastAccessed"`
	Image        string     `json:"image"`
	Pinned       bool       `json:"pinned"`
	Group        string     `json:"groupId"`
}

type rawGroup struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Collapsed bool   `json:"collapsed"`
}

type rawWindow struct {
	Tabs     []rawTab   `json:"tabs"`
	Groups   []rawGroup `json:"groups"`
	Selected int        `json:"selected"` // 1-based index of the active tab
}

type rawSession struct {
	Windows []rawWindow `json:"windows"`
}

// ParseSession parses raw session JSON into a Session. The session file
// identifies groups by string ID; groups get sequential numeric IDs in
// order of appearance so offline data matches the live bridge's shape.
func ParseSession(data []byte) (*types.Session, error) {
	var raw rawSession
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse session JSON: %w", err)
	}

	session := &types.Session{ParsedAt: time.Now()}
	nextGroupID := 1

	for winIdx, window := range raw.Windows {
		groupIDs := make(map[string]int)
		for _, rg := range window.Groups {
			id := nextGroupID
			nextGroupID++
			groupIDs[rg.ID] = id
			session.Groups = append(session.Groups, &types.TabGroup{
				ID:        id,
				Title:     rg.Name,
				Color:     rg.Color,
				Collapsed: rg.Collapsed,
			})
		}

		for tabIdx, rt := range window.Tabs {
			if len(rt.Entries) == 0 {
				continue
			}

			// index is 1-based; the current page is entries[index-1].
			entryIdx := rt.Index - 1
			if entryIdx < 0 || entryIdx >= len(rt.Entries) {
				entryIdx = len(rt.Entries) - 1
			}
			entry := rt.Entries[entryIdx]

			session.Tabs = append(session.Tabs, &types.Tab{
				URL:          entry.URL,
				Title:        entry.Title,
				Favicon:      rt.Image,
				GroupID:      groupIDs[rt.Group], // 0 when ungrouped or group undefined
				WindowID:     winIdx,
				Index:        tabIdx,
				Active:       winIdx == 0 && tabIdx == window.Selected-1,
				Pinned:       rt.Pinned,
				LastAccessed: time.UnixMilli(rt.LastAccessed),
			})
		}
	}

	return session, nil
}

// ReadSession reads and parses the session file of a profile directory.
func ReadSession(profileDir string) (*types.Session, error) {
	path := sessionFilePath(profileDir)
	if path == "" {
		return nil, fmt.Errorf("no session file found in %s", profileDir)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	decompressed, err := DecompressMozLz4(data)
	if err != nil {
		return nil, fmt.Errorf("decompress session file: %w", err)
	}

	return ParseSession(decompressed)
}

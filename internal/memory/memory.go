// Package memory remembers which command satisfied which query, so an exact
// repeat can be answered without another model call. Only commands that ran
// successfully are remembered, and execution still passes the confirm gate.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/smadgulkar/spren/internal/appdirs"
)

const (
	storeFileName = "memory.json"
	maxEntries    = 200
)

type Entry struct {
	Query      string `json:"query"`
	Command    string `json:"command"`
	Dangerous  bool   `json:"dangerous,omitempty"`
	Uses       int    `json:"uses"`
	LastUsedAt string `json:"last_used_at"`
}

type Store struct {
	Entries []Entry `json:"entries"`
	path    string
}

func Load() (*Store, error) {
	path, err := appdirs.CacheFilePath(storeFileName)
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Store, error) {
	store := &Store{path: path}
	bytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read memory store: %w", err)
	}
	if err := json.Unmarshal(bytes, store); err != nil {
		return &Store{path: path}, nil
	}
	return store, nil
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// Lookup returns the remembered entry for an exact (normalized) query. The
// entry carries the danger flag the command was confirmed with, so a recall
// faces the same gate as the original suggestion.
func (s *Store) Lookup(query string) (Entry, bool) {
	key := normalizeQuery(query)
	if key == "" {
		return Entry{}, false
	}
	for _, entry := range s.Entries {
		if normalizeQuery(entry.Query) == key {
			return entry, true
		}
	}
	return Entry{}, false
}

// RememberSuccess records a query/command pair that executed successfully,
// along with whether the command was flagged dangerous when it ran.
func (s *Store) RememberSuccess(query, command string, dangerous bool) {
	query = strings.TrimSpace(query)
	command = strings.TrimSpace(command)
	if query == "" || command == "" {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)

	key := normalizeQuery(query)
	for i := range s.Entries {
		if normalizeQuery(s.Entries[i].Query) == key {
			s.Entries[i].Command = command
			s.Entries[i].Dangerous = dangerous
			s.Entries[i].Uses++
			s.Entries[i].LastUsedAt = now
			return
		}
	}
	s.Entries = append(s.Entries, Entry{Query: query, Command: command, Dangerous: dangerous, Uses: 1, LastUsedAt: now})
	s.trim()
}

// Forget drops the entry for a query, used when a remembered command fails.
func (s *Store) Forget(query string) {
	key := normalizeQuery(query)
	kept := s.Entries[:0]
	for _, entry := range s.Entries {
		if normalizeQuery(entry.Query) != key {
			kept = append(kept, entry)
		}
	}
	s.Entries = kept
}

// trim drops the least used entries past the size bound.
func (s *Store) trim() {
	if len(s.Entries) <= maxEntries {
		return
	}
	sort.SliceStable(s.Entries, func(i, j int) bool {
		if s.Entries[i].Uses != s.Entries[j].Uses {
			return s.Entries[i].Uses > s.Entries[j].Uses
		}
		return s.Entries[i].LastUsedAt > s.Entries[j].LastUsedAt
	})
	s.Entries = s.Entries[:maxEntries]
}

func (s *Store) Save() error {
	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("could not serialize memory store: %w", err)
	}
	dir := filepath.Dir(s.path)
	tempFile, err := os.CreateTemp(dir, ".spren-memory-*.json")
	if err != nil {
		return fmt.Errorf("could not create temp memory file: %w", err)
	}
	tempPath := tempFile.Name()
	if _, err := tempFile.Write(payload); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("could not write memory store: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("could not close temp memory file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("could not replace memory file: %w", err)
	}
	return nil
}

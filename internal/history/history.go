// Package history persists the user's past queries so both the REPL and
// the interactive mode can recall them across runs.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smadgulkar/spren/internal/appdirs"
)

const (
	storeFileName = "history.json"
	maxEntries    = 500
)

type Store struct {
	Queries []string `json:"queries"`
	path    string
}

// Load reads the history store, returning an empty one when none exists.
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
		return nil, fmt.Errorf("could not read history: %w", err)
	}
	if err := json.Unmarshal(bytes, store); err != nil {
		// A corrupt history file is not worth failing startup over.
		return &Store{path: path}, nil
	}
	return store, nil
}

// Append records a query, dropping consecutive duplicates and trimming the
// store to its size bound.
func (s *Store) Append(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	if n := len(s.Queries); n > 0 && s.Queries[n-1] == query {
		return
	}
	s.Queries = append(s.Queries, query)
	if len(s.Queries) > maxEntries {
		s.Queries = s.Queries[len(s.Queries)-maxEntries:]
	}
}

func (s *Store) Save() error {
	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("could not serialize history: %w", err)
	}
	dir := filepath.Dir(s.path)
	tempFile, err := os.CreateTemp(dir, ".spren-history-*.json")
	if err != nil {
		return fmt.Errorf("could not create temp history file: %w", err)
	}
	tempPath := tempFile.Name()
	if _, err := tempFile.Write(payload); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("could not write history: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("could not close temp history file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("could not replace history file: %w", err)
	}
	return nil
}

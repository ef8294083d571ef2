package numbers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the name of the numbers file inside the data directory.
const FileName = "extracted_numbers.txt"

// ErrNotExtracted is returned by Load when no extraction has been saved yet.
var ErrNotExtracted = errors.New("numbers: nothing extracted yet")

// Store persists extracted contact identifiers, one per line.
// Every Save replaces the whole file.
type Store struct {
	path string
}

// NewStore creates a store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, FileName)}
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Exists reports whether an extraction has been saved.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save overwrites the file with the distinct, non-empty ids and returns how
// many were written.
func (s *Store) Save(ids []string) (int, error) {
	ids = Dedupe(ids)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return 0, fmt.Errorf("create data dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strings.Join(ids, "\n")), 0o644); err != nil {
		return 0, fmt.Errorf("write numbers: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return 0, fmt.Errorf("replace numbers: %w", err)
	}
	return len(ids), nil
}

// Load reads every stored id.
func (s *Store) Load() ([]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExtracted
	}
	if err != nil {
		return nil, fmt.Errorf("read numbers: %w", err)
	}
	return Dedupe(strings.Split(string(raw), "\n")), nil
}

// Normalize strips the network suffix ("@s.whatsapp.net", "@c.us", ...) and any
// device part from a contact id.
func Normalize(id string) string {
	if i := strings.IndexByte(id, '@'); i >= 0 {
		id = id[:i]
	}
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[:i]
	}
	return strings.TrimSpace(id)
}

// Dedupe trims ids and drops empties and repeats, keeping first-seen order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Package state computes stable item identities and persists the set of
// already-notified identities between runs.
package state

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ID is the deduplication key for one item: the SHA-256 hex digest of
// "title|url" (both whitespace-trimmed), truncated to 16 characters.
// The truncated digest keeps the state file short; the collision risk at
// 64 bits is negligible for the item volumes involved.
type ID string

// idLen is the number of hex characters kept from the digest.
const idLen = 16

// ComputeID derives the identity of an item from its title and URL.
// It is deterministic and insensitive to leading/trailing whitespace.
func ComputeID(title, url string) ID {
	h := sha256.Sum256([]byte(strings.TrimSpace(title) + "|" + strings.TrimSpace(url)))
	return ID(fmt.Sprintf("%x", h)[:idLen])
}

// State is the in-memory set of identities that have already been notified.
type State struct {
	sent map[ID]struct{}
}

// NewState returns an empty state.
func NewState() *State {
	return &State{sent: make(map[ID]struct{})}
}

// Seen reports whether the identity was notified in a previous run.
func (s *State) Seen(id ID) bool {
	_, ok := s.sent[id]
	return ok
}

// MarkSent records that the identity was included in an outgoing notification.
func (s *State) MarkSent(id ID) {
	s.sent[id] = struct{}{}
}

// Len returns the number of recorded identities.
func (s *State) Len() int {
	return len(s.sent)
}

// stateFile is the on-disk JSON shape.
type stateFile struct {
	SentIDs []ID `json:"sent_ids"`
}

// Store reads and writes the persisted state file.
type Store struct {
	path string
}

// NewStore creates a Store backed by the file at the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted state. A missing file is not an error: it means
// this is the first-ever run, and an empty state is returned.
func (st *Store) Load() (*State, error) {
	data, err := os.ReadFile(st.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file %q: %w", st.path, err)
	}

	var f stateFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing state file %q: %w", st.path, err)
	}

	s := NewState()
	for _, id := range f.SentIDs {
		s.MarkSent(id)
	}
	return s, nil
}

// Save writes the full state back to disk, creating parent directories as
// needed. IDs are written sorted so the file is stable across runs.
func (st *Store) Save(s *State) error {
	ids := make([]ID, 0, len(s.sent))
	for id := range s.sent {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	data, err := json.MarshalIndent(stateFile{SentIDs: ids}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if dir := filepath.Dir(st.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating state directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(st.path, data, 0o644); err != nil {
		return fmt.Errorf("writing state file %q: %w", st.path, err)
	}
	return nil
}

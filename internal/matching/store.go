package matching

import (
	"encoding/json"
	"sort"
	"sync"
)

// NoAssignment is the explicit opt-out value. It is distinct from an absent
// key: it suppresses suggestions for the content type.
const NoAssignment = ""

// Store maps content type ids to documentation entry ids. It does not check
// that entry ids exist; stale ids surface as "not found" when read.
type Store struct {
	mu      sync.RWMutex
	matches map[string]string
}

// NewStore copies initial into a new store.
func NewStore(initial map[string]string) *Store {
	s := &Store{matches: make(map[string]string, len(initial))}
	for k, v := range initial {
		s.matches[k] = v
	}
	return s
}

// Get returns the assigned entry id. ok is false when the content type has
// never been assigned; an explicit opt-out returns ("", true).
func (s *Store) Get(contentTypeID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.matches[contentTypeID]
	return v, ok
}

// Has reports whether the content type has any value, opt-out included.
func (s *Store) Has(contentTypeID string) bool {
	_, ok := s.Get(contentTypeID)
	return ok
}

// Set assigns entryID to the content type.
func (s *Store) Set(contentTypeID, entryID string) {
	s.mu.Lock()
	s.matches[contentTypeID] = entryID
	s.mu.Unlock()
}

// Clear records an explicit opt-out.
func (s *Store) Clear(contentTypeID string) {
	s.Set(contentTypeID, NoAssignment)
}

// Len returns the number of keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

// Keys returns the content type ids in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.matches))
	for k := range s.matches {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the mapping.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.matches))
	for k, v := range s.matches {
		out[k] = v
	}
	return out
}

func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

func (s *Store) UnmarshalJSON(data []byte) error {
	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded == nil {
		decoded = map[string]string{}
	}
	s.mu.Lock()
	s.matches = decoded
	s.mu.Unlock()
	return nil
}

package session

import (
	"sync"
	"time"
)

type entry struct {
	user       *User
	result     CheckResult
	path       string
	generation uint64
	redirects  map[string]struct{}
	touched    time.Time
}

// Store is the process-wide session state, one entry per visitor. Only the
// Gate and the accounts service write to it; views read snapshots.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (s *Store) get(visitor string) *entry {
	e, ok := s.entries[visitor]
	if !ok {
		e = &entry{}
		s.entries[visitor] = e
	}
	e.touched = s.now()
	return e
}

// supersede starts a new generation; commits from older generations are dropped
func (e *entry) supersede() uint64 {
	e.generation++
	e.redirects = nil
	return e.generation
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		User:       e.user.clone(),
		Result:     e.result,
		Path:       e.path,
		Generation: e.generation,
	}
}

// Begin records a navigation to path and resets the check to Pending. The
// returned generation must be handed back to Commit.
func (s *Store) Begin(visitor, path string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.get(visitor)
	e.path = path
	e.result = Pending
	return e.supersede()
}

// Commit applies a check outcome if gen is still the visitor's latest
// generation. A stale commit changes nothing and returns false with the
// current snapshot.
func (s *Store) Commit(visitor string, gen uint64, user *User, result CheckResult) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.get(visitor)
	if gen != e.generation {
		return e.snapshot(), false
	}

	e.result = result
	if result == Success {
		e.user = user.clone()
	} else {
		e.user = nil
	}
	return e.snapshot(), true
}

// SetUser stores a freshly logged-in user and supersedes in-flight checks
func (s *Store) SetUser(visitor string, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.get(visitor)
	e.user = user.clone()
	e.supersede()
}

// Clear drops the visitor's user and supersedes in-flight checks
func (s *Store) Clear(visitor string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.get(visitor)
	e.user = nil
	e.supersede()
}

// Snapshot returns a copy of the visitor's current state
func (s *Store) Snapshot(visitor string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[visitor]
	if !ok {
		return Snapshot{}
	}
	return e.snapshot()
}

// ClaimRedirect returns true the first time a redirect to target is claimed
// for generation gen, and false for every later claim or a stale generation.
func (s *Store) ClaimRedirect(visitor string, gen uint64, target string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[visitor]
	if !ok || e.generation != gen {
		return false
	}
	if _, done := e.redirects[target]; done {
		return false
	}
	if e.redirects == nil {
		e.redirects = make(map[string]struct{})
	}
	e.redirects[target] = struct{}{}
	return true
}

// Sweep removes visitors not seen for longer than idle and returns how many
// were removed
func (s *Store) Sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	removed := 0
	for visitor, e := range s.entries {
		if e.touched.Before(cutoff) {
			delete(s.entries, visitor)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked visitors
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

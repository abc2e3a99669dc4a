// Package session owns the process-wide mapping from session code to live
// session state.
//
// A session is one isolated viewing context: its own disposition overrides,
// its own trajectory cursors and its own latest entity snapshot. The store is
// the only rendezvous point between the snapshot scheduler (writes the entity
// list), the disposition mutator (writes the override map) and the broadcast
// endpoints (read both), so all access is mutex-guarded per session.
package session

import (
	"math/rand"
	"sync"

	"github.com/opsdeck/tacscope/pkg/marker"
)

const (
	// CodeLength is the number of characters in a session code.
	CodeLength = 6

	// codeAlphabet is the fixed alphabet session codes are drawn from.
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxCodeAttempts bounds collision retries during code allocation.
	maxCodeAttempts = 100
)

// Session is the live state for one session code.
type Session struct {
	code string

	mu           sync.RWMutex
	dispositions map[string]marker.Disposition
	entities     []marker.Entity
	cursors      map[string]int

	stopOnce sync.Once
	stop     func()
}

// Code returns the session's 6-character code.
func (s *Session) Code() string {
	return s.code
}

// SetStopper registers the function that halts the session's scheduler.
// Called once, right after the scheduler is started.
func (s *Session) SetStopper(stop func()) {
	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
}

// Snapshot returns copies of the latest entity list and the full disposition
// map. Broadcast endpoints serialize exactly this pair on every push.
func (s *Session) Snapshot() ([]marker.Entity, map[string]marker.Disposition) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities := make([]marker.Entity, len(s.entities))
	copy(entities, s.entities)

	dispositions := make(map[string]marker.Disposition, len(s.dispositions))
	for id, d := range s.dispositions {
		dispositions[id] = d
	}
	return entities, dispositions
}

// Disposition resolves the classification for an entity id: the session
// override if one exists, fallback otherwise.
func (s *Session) Disposition(id string, fallback marker.Disposition) marker.Disposition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.dispositions[id]; ok {
		return d
	}
	return fallback
}

// NextCursor returns the cursor value for this tick and advances it by one,
// wrapping at length. The cursor advances whether or not the tick emits the
// entity, so idle padding consumes real ticks.
func (s *Session) NextCursor(id string, length int) int {
	if length <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.cursors[id]
	s.cursors[id] = (cur + 1) % length
	return cur
}

// stopScheduler halts the attached scheduler. Idempotent.
func (s *Session) stopScheduler() {
	s.mu.RLock()
	stop := s.stop
	s.mu.RUnlock()
	if stop != nil {
		s.stopOnce.Do(stop)
	}
}

// Store is the process-wide session registry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create allocates a fresh session seeded with the given disposition slots.
// Codes are drawn uniformly from [A-Z0-9]; on the rare collision a new code
// is generated rather than overwriting the existing session.
func (st *Store) Create(seed map[string]marker.Disposition) (*Session, error) {
	dispositions := make(map[string]marker.Disposition, len(seed))
	for id, d := range seed {
		dispositions[id] = d
	}

	sess := &Session{
		dispositions: dispositions,
		cursors:      make(map[string]int),
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := generateCode()
		if _, exists := st.sessions[code]; exists {
			continue
		}
		sess.code = code
		st.sessions[code] = sess
		return sess, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// Get returns the session for a code, or false if none exists.
func (st *Store) Get(code string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[code]
	return sess, ok
}

// SetSnapshot replaces the session's entity list. A no-op if the session has
// been destroyed: a scheduler racing its own teardown must not resurrect the
// session or fail.
func (st *Store) SetSnapshot(code string, entities []marker.Entity) {
	sess, ok := st.Get(code)
	if !ok {
		return
	}
	sess.mu.Lock()
	sess.entities = entities
	sess.mu.Unlock()
}

// UpdateDisposition applies a classification change. Only ids seeded into the
// session's slot map at creation accept updates; the override is visible to
// the very next scheduler tick.
func (st *Store) UpdateDisposition(code, id string, d marker.Disposition) error {
	sess, ok := st.Get(code)
	if !ok {
		return ErrSessionNotFound
	}
	if !d.Valid() {
		return ErrInvalidDisposition
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, ok := sess.dispositions[id]; !ok {
		return ErrEntityNotFound
	}
	sess.dispositions[id] = d
	return nil
}

// Destroy removes the session and stops its scheduler, reporting whether a
// session existed. Idempotent: destroying an unknown or already-destroyed
// code is a no-op returning false.
func (st *Store) Destroy(code string) bool {
	st.mu.Lock()
	sess, ok := st.sessions[code]
	if ok {
		delete(st.sessions, code)
	}
	st.mu.Unlock()

	// Stop outside the store lock; the scheduler's final tick may still be
	// calling SetSnapshot, which is now a harmless no-op.
	if ok {
		sess.stopScheduler()
	}
	return ok
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func generateCode() string {
	code := make([]byte, CodeLength)
	for i := range code {
		code[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(code)
}

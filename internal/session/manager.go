package session

import (
	"context"
	"errors"
	"sync"

	"github.com/pairview/pairview/internal/domain"
)

// ErrSuperseded is returned by Commit when a newer attempt was started for the
// same browser context after the committing attempt was issued. The response
// that carried the session must be discarded; the store is left untouched.
var ErrSuperseded = errors.New("session: auth attempt superseded by a newer action")

// Manager serializes session mutations per browser context using write
// generations. Every auth operation (login, register) and every invalidation
// (logout, stale-session sweep) allocates a generation when it is issued; a
// commit only applies if its generation is still the most recently issued one
// for that context. A response from a superseded attempt therefore can never
// overwrite a session established by a later action.
//
// Attempt lifecycle: each StartAttempt is closed by exactly one Commit or
// Abandon. State is tracked only while a context has open attempts, so the
// manager stays bounded by the number of in-flight auth operations.
//
// Reads go straight to the underlying store and need no coordination.
type Manager struct {
	store domain.SessionStore

	mu       sync.Mutex
	attempts map[string]*attemptState
}

// attemptState exists only while open > 0; the entry is pruned when the last
// in-flight attempt for the context finishes.
type attemptState struct {
	gen  uint64
	open int
}

// NewManager creates a Manager over the given store.
func NewManager(store domain.SessionStore) *Manager {
	return &Manager{
		store:    store,
		attempts: make(map[string]*attemptState),
	}
}

// Store exposes the underlying store for read paths (Get, IsValid).
func (m *Manager) Store() domain.SessionStore {
	return m.store
}

// StartAttempt allocates the next write generation for the context. Call it
// at the moment the user action is issued, before any network round trip.
func (m *Manager) StartAttempt(contextID string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.attempts[contextID]
	if st == nil {
		st = &attemptState{}
		m.attempts[contextID] = st
	}
	st.gen++
	st.open++
	return st.gen
}

// Commit writes the session for the context if gen is still the most recently
// started attempt, and closes the attempt either way. The lock is held across
// the store write so there is exactly one writer per context at a time and a
// superseding attempt can never interleave between the generation check and
// the write.
func (m *Manager) Commit(ctx context.Context, contextID string, gen uint64, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.attempts[contextID]
	if st == nil {
		return ErrSuperseded
	}
	defer m.finish(contextID, st)
	if st.gen != gen {
		return ErrSuperseded
	}
	return m.store.Set(ctx, contextID, s)
}

// Abandon closes an attempt that will never commit, such as one whose
// identity call failed. Abandoning a context with no open attempt is a no-op.
func (m *Manager) Abandon(contextID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st := m.attempts[contextID]; st != nil {
		m.finish(contextID, st)
	}
}

// Invalidate bumps the generation so any in-flight attempt is discarded, then
// clears the stored record. It is the single cleanup path shared by explicit
// logout and the route guard's expired-session sweep. A context with no open
// attempts needs no generation bump; only the store is cleared.
func (m *Manager) Invalidate(ctx context.Context, contextID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st := m.attempts[contextID]; st != nil {
		st.gen++
	}
	return m.store.Clear(ctx, contextID)
}

// finish closes one attempt and prunes the entry once none remain open.
// Callers hold m.mu.
func (m *Manager) finish(contextID string, st *attemptState) {
	st.open--
	if st.open <= 0 {
		delete(m.attempts, contextID)
	}
}

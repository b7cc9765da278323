// Package session holds per-user conversational state: the selected
// endpoint and the active multi-step flow. Everything lives in memory
// and is rebuilt from user interactions after a restart.
package session

import "sync"

// Session is one user's state. A session has at most one active flow.
type Session struct {
	Endpoint string
	Flow     Flow
}

type entry struct {
	mu sync.Mutex
	s  Session
}

// Store keys sessions by Telegram user id with single-writer-per-key
// semantics: operations on one user serialize on that user's entry lock,
// users never contend with each other. The store-level lock guards only
// map lookup and insert.
type Store struct {
	mu              sync.Mutex
	entries         map[int64]*entry
	defaultEndpoint string
}

// NewStore creates a Store; sessions are created lazily with the given
// default endpoint selected.
func NewStore(defaultEndpoint string) *Store {
	return &Store{
		entries:         make(map[int64]*entry),
		defaultEndpoint: defaultEndpoint,
	}
}

func (st *Store) entryFor(userID int64) *entry {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[userID]
	if !ok {
		e = &entry{s: Session{Endpoint: st.defaultEndpoint}}
		st.entries[userID] = e
	}
	return e
}

// Do runs fn with exclusive access to the user's session, creating it on
// first use. All mutations go through here.
func (st *Store) Do(userID int64, fn func(*Session)) {
	e := st.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.s)
}

// Get returns a snapshot of the user's session, creating it on first use.
func (st *Store) Get(userID int64) Session {
	var snap Session
	st.Do(userID, func(s *Session) { snap = *s })
	return snap
}

// SetFlow replaces the user's active flow; nil clears it.
func (st *Store) SetFlow(userID int64, f Flow) {
	st.Do(userID, func(s *Session) { s.Flow = f })
}

// SetEndpoint changes the user's selected endpoint.
func (st *Store) SetEndpoint(userID int64, name string) {
	st.Do(userID, func(s *Session) { s.Endpoint = name })
}

// Len reports how many sessions exist, for the ops status endpoint.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}

package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// Handle pairs a live session with the mutex that serializes its
// commands. The core itself is lock-free; the host guarantees each
// command runs to completion before the next one starts, and this is
// where that guarantee lives.
type Handle struct {
	ID string

	mu      sync.Mutex
	session *Session
}

// Do runs fn with exclusive access to the session.
func (h *Handle) Do(fn func(*Session) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.session)
}

// Registry keeps live sessions in memory, keyed by an opaque id.
// Field state is never persisted; only finished-round results go to
// the database, elsewhere.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Handle
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Handle)}
}

func newSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("session id generation: %v", err))
	}
	return hex.EncodeToString(b)
}

// Put registers a session and returns its handle.
func (r *Registry) Put(s *Session) *Handle {
	h := &Handle{ID: newSessionID(), session: s}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[h.ID] = h
	return h
}

func (r *Registry) Get(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.sessions[id]
	return h, ok
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

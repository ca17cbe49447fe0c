package api

import (
	"sync"
	"time"

	"github.com/tunnelhub/tunnelhub/internal/util"
)

// MemorySessionStore is a thread-safe in-memory SessionStore.
// Sessions are lost on server restart.
type MemorySessionStore struct {
	mu   sync.RWMutex
	data map[string]Session
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{data: make(map[string]Session)}
}

// Create inserts a new session under a fresh 256-bit token. Token
// generation and insertion share the critical section so a colliding
// token is regenerated rather than overwriting a live session.
func (s *MemorySessionStore) Create(isAdmin bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		token, err := util.SessionToken()
		if err != nil {
			return "", err
		}
		if _, exists := s.data[token]; exists {
			continue
		}
		s.data[token] = Session{
			Token:     token,
			IsAdmin:   isAdmin,
			CreatedAt: time.Now(),
		}
		return token, nil
	}
}

func (s *MemorySessionStore) Get(token string) (Session, bool) {
	s.mu.RLock()
	session, ok := s.data[token]
	s.mu.RUnlock()
	return session, ok
}

func (s *MemorySessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.data, token)
	s.mu.Unlock()
}

// Len reports the number of live sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

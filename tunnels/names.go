package tunnels

import "sync"

// NameStore maps tunnel IDs to operator-assigned display names.
type NameStore interface {
	// Get returns the custom name for a tunnel, if one is set.
	Get(tunnelID string) (string, bool)
	// Set assigns a custom name to a tunnel, replacing any previous one.
	Set(tunnelID, name string) error
}

// MemoryNameStore is a thread-safe in-memory NameStore.
// Names are lost on server restart.
type MemoryNameStore struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ NameStore = (*MemoryNameStore)(nil)

// NewMemoryNameStore creates an in-memory name store.
func NewMemoryNameStore() *MemoryNameStore {
	return &MemoryNameStore{data: make(map[string]string)}
}

func (s *MemoryNameStore) Get(tunnelID string) (string, bool) {
	s.mu.RLock()
	name, ok := s.data[tunnelID]
	s.mu.RUnlock()
	return name, ok
}

func (s *MemoryNameStore) Set(tunnelID, name string) error {
	s.mu.Lock()
	s.data[tunnelID] = name
	s.mu.Unlock()
	return nil
}

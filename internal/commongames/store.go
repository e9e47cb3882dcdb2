package commongames

import (
	"context"
	"sync"

	"github.com/park285/steam-common-games-bot/internal/domain"
)

// Store persists one Result per requester key. Save replaces any previous
// value and returns only once the write is durable; Load fails with
// ErrNotFound when nothing usable is stored under key.
type Store interface {
	Save(ctx context.Context, key string, r *Result) error
	Load(ctx context.Context, key string) (*Result, error)
	Page(r *Result, idx int) []domain.Game
}

// MemoryStore keeps results in process memory. Development and tests only:
// it does not survive a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Save(ctx context.Context, key string, r *Result) error {
	raw, err := r.MarshalJSON()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, key string) (*Result, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeResult(raw)
}

func (m *MemoryStore) Page(r *Result, idx int) []domain.Game { return Page(r, idx) }

// Clear drops every stored result.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	m.data = make(map[string][]byte)
	m.mu.Unlock()
}

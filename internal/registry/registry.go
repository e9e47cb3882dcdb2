package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	ErrNotRegistered = errors.New("discord user has no registered steam id")
	ErrInvalidArgs   = errors.New("invalid arguments")
)

// Registry maps a Discord user ID to the SteamID64 the user registered.
type Registry interface {
	Lookup(ctx context.Context, discordID string) (string, error)
	Store(ctx context.Context, discordID, steamID string) error
}

// memory is a development-only in-memory registry used when no DB is configured.
type memory struct {
	mu    sync.RWMutex
	links map[string]string
}

func NewMemory() Registry {
	return &memory{links: make(map[string]string)}
}

func (m *memory) Lookup(ctx context.Context, discordID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.links[strings.TrimSpace(discordID)]
	if !ok {
		return "", ErrNotRegistered
	}
	return id, nil
}

func (m *memory) Store(ctx context.Context, discordID, steamID string) error {
	discordID = strings.TrimSpace(discordID)
	steamID = strings.TrimSpace(steamID)
	if discordID == "" || steamID == "" {
		return ErrInvalidArgs
	}
	m.mu.Lock()
	m.links[discordID] = steamID
	m.mu.Unlock()
	return nil
}

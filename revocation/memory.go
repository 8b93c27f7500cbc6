package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process [Store]. The zero value is not usable; call [NewMemory].
type Memory struct {
	mu      sync.Mutex
	entries map[Digest]time.Time
}

// NewMemory returns an empty registry.
func NewMemory() *Memory {
	return &Memory{entries: make(map[Digest]time.Time)}
}

// Revoke inserts token. Revoking an already revoked token keeps the later
// expiry. A zero expiresAt never expires.
func (m *Memory) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	key := DigestOf(token)

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.entries[key]; ok && (prev.IsZero() || (!expiresAt.IsZero() && prev.After(expiresAt))) {
		return nil
	}
	m.entries[key] = expiresAt
	return nil
}

// IsRevoked reports membership.
func (m *Memory) IsRevoked(_ context.Context, token string) (bool, error) {
	key := DigestOf(token)

	m.mu.Lock()
	_, ok := m.entries[key]
	m.mu.Unlock()

	return ok, nil
}

// Consume revokes token and reports whether it was not revoked before.
func (m *Memory) Consume(_ context.Context, token string, expiresAt time.Time) (bool, error) {
	key := DigestOf(token)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; ok {
		return false, nil
	}
	m.entries[key] = expiresAt
	return true, nil
}

// Sweep drops entries whose token expired at or before now and returns how
// many were removed.
func (m *Memory) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, exp := range m.entries {
		if !exp.IsZero() && !now.Before(exp) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked tokens.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

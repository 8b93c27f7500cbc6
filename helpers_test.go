package tenantauth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("test-secret-0123456789")
	cfg.Password.BcryptCost = bcrypt.MinCost
	return cfg
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1700000000, 0).UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memUserStore struct {
	mu    sync.RWMutex
	users map[string]CredentialRecord
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]CredentialRecord{}}
}

func (s *memUserStore) put(rec CredentialRecord) {
	s.mu.Lock()
	s.users[rec.UserID] = rec
	s.mu.Unlock()
}

func (s *memUserStore) update(userID string, fn func(*CredentialRecord)) {
	s.mu.Lock()
	rec := s.users[userID]
	fn(&rec)
	s.users[userID] = rec
	s.mu.Unlock()
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.users {
		if strings.EqualFold(rec.Username, username) {
			return rec, nil
		}
	}
	return CredentialRecord{}, ErrUserNotFound
}

func (s *memUserStore) GetByID(_ context.Context, userID string) (CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[userID]
	if !ok {
		return CredentialRecord{}, ErrUserNotFound
	}
	return rec, nil
}

type testEngine struct {
	*Engine
	clock *testClock
	users *memUserStore
}

// newTestEngine builds an engine with one active admin "alice" in tenant
// "acme" and one user "bob" in tenant "globex", both with password
// "Passw0rd!".
func newTestEngine(t *testing.T, mutate ...func(*Builder)) *testEngine {
	t.Helper()

	clock := newTestClock()
	users := newMemUserStore()

	b := New().
		WithConfig(testConfig()).
		WithUserStore(users).
		WithClock(clock.Now)
	for _, fn := range mutate {
		fn(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	hash, err := engine.HashPassword("Passw0rd!")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	users.put(CredentialRecord{UserID: "u-alice", TenantID: "acme", Username: "alice", PasswordHash: hash, Role: RoleAdmin, IsActive: true})
	users.put(CredentialRecord{UserID: "u-bob", TenantID: "globex", Username: "bob", PasswordHash: hash, Role: RoleUser, IsActive: true})

	return &testEngine{Engine: engine, clock: clock, users: users}
}

func (te *testEngine) login(t *testing.T, username string) TokenPair {
	t.Helper()
	pair, err := te.Login(context.Background(), username, "Passw0rd!")
	if err != nil {
		t.Fatalf("login %s failed: %v", username, err)
	}
	return pair
}

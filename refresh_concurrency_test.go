package tenantauth

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRefreshConcurrencySingleWinner(t *testing.T) {
	te := newTestEngine(t)
	pair := te.login(t, "alice")

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	start := make(chan struct{})

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := te.Refresh(context.Background(), pair.RefreshToken)
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	success, revoked := 0, 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrTokenRevoked):
			revoked++
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}

	if success != 1 {
		t.Fatalf("expected exactly one refresh success, got %d", success)
	}
	if revoked != n-1 {
		t.Fatalf("expected %d revoked failures, got %d", n-1, revoked)
	}
	if got := te.MetricsSnapshot().Counters[MetricRefreshRevoked]; got != n-1 {
		t.Fatalf("expected %d reuse metrics, got %d", n-1, got)
	}
}

func TestRefreshTwiceWithSameToken(t *testing.T) {
	te := newTestEngine(t)
	pair := te.login(t, "alice")
	ctx := context.Background()

	next, err := te.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken || next.AccessToken == pair.AccessToken {
		t.Fatal("expected rotation to mint distinct tokens within the same second")
	}

	if _, err := te.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked on reuse, got %v", err)
	}
	if _, err := te.Refresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("expected the rotated token to work, got %v", err)
	}
}

func TestRefreshRereadsRole(t *testing.T) {
	te := newTestEngine(t)
	pair := te.login(t, "bob")
	ctx := context.Background()

	te.users.update("u-bob", func(r *CredentialRecord) { r.Role = RoleAdmin })

	next, err := te.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	p, err := te.ValidateAccess(ctx, next.AccessToken)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if p.Role != RoleAdmin {
		t.Fatalf("expected promoted role, got %q", p.Role)
	}
}

func TestRefreshRejectsInactiveOrMissingUser(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	bob := te.login(t, "bob")
	te.users.update("u-bob", func(r *CredentialRecord) { r.IsActive = false })
	if _, err := te.Refresh(ctx, bob.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for inactive user, got %v", err)
	}

	alice := te.login(t, "alice")
	te.users.mu.Lock()
	delete(te.users.users, "u-alice")
	te.users.mu.Unlock()
	if _, err := te.Refresh(ctx, alice.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for missing user, got %v", err)
	}

	// A failed user check leaves the token unconsumed.
	if _, err := te.ValidateRefresh(ctx, alice.RefreshToken); err != nil {
		t.Fatalf("expected token to remain valid, got %v", err)
	}
}

func TestRefreshWithAccessTokenIsWrongKind(t *testing.T) {
	te := newTestEngine(t)
	pair := te.login(t, "alice")

	if _, err := te.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("expected ErrWrongKind, got %v", err)
	}
}

package tenantauth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/tenantauth/revocation"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisTestEngine(t *testing.T) (*testEngine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	te := newTestEngine(t, func(b *Builder) {
		b.WithClock(time.Now).WithRevocationStore(revocation.NewRedis(client, "test:rv"))
	})
	return te, mr
}

func TestRedisRegistryRotation(t *testing.T) {
	te, mr := newRedisTestEngine(t)
	ctx := context.Background()

	pair := te.login(t, "alice")
	next, err := te.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, err := te.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked on reuse, got %v", err)
	}
	if _, err := te.ValidateRefresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("expected rotated token to be valid, got %v", err)
	}

	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected one registry key, got %v", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl <= 0 || ttl > 7*24*time.Hour {
		t.Fatalf("expected key TTL bounded by the refresh lifetime, got %v", ttl)
	}
	if stats := te.Sweep(time.Now().Add(30 * 24 * time.Hour)); stats.Revocations != 0 {
		t.Fatalf("expected redis registry to be left to key expiry, got %+v", stats)
	}
}

func TestRedisRegistryConcurrentRefreshSingleWinner(t *testing.T) {
	te, _ := newRedisTestEngine(t)
	pair := te.login(t, "bob")

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		success atomic.Int32
		revoked atomic.Int32
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := te.Refresh(context.Background(), pair.RefreshToken)
			switch {
			case err == nil:
				success.Add(1)
			case errors.Is(err, ErrTokenRevoked):
				revoked.Add(1)
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if success.Load() != 1 || revoked.Load() != 15 {
		t.Fatalf("expected 1 winner and 15 revoked, got %d and %d", success.Load(), revoked.Load())
	}
}

func TestRedisRegistryOutageFailsClosed(t *testing.T) {
	te, mr := newRedisTestEngine(t)
	pair := te.login(t, "alice")
	mr.Close()

	_, err := te.Refresh(context.Background(), pair.RefreshToken)
	if err == nil {
		t.Fatal("expected refresh to fail while the registry is down")
	}
	if !errors.Is(err, revocation.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if errors.Is(err, ErrUnauthenticated) {
		t.Fatal("expected a backend outage to be reported as a server error")
	}
}

package tenantauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAdmitSlidingWindow(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		adm, err := te.Admit(ctx, "u-alice", "GET /api/v1/users")
		if err != nil {
			t.Fatalf("request %d rejected: %v", i, err)
		}
		if adm.Remaining != 9-i || adm.Limit != 10 {
			t.Fatalf("request %d: unexpected admission %+v", i, adm)
		}
		te.clock.Advance(time.Second)
	}

	adm, err := te.Admit(ctx, "u-alice", "GET /api/v1/users")
	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) || !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if adm.Allowed {
		t.Fatal("expected admission to be denied")
	}
	// First request at t0, now t0+10s: 50s until it leaves the window.
	if rlErr.RetryAfter != 50*time.Second || rlErr.RetryAfterSeconds() != 50 {
		t.Fatalf("unexpected retry after %v", rlErr.RetryAfter)
	}

	if _, err := te.Admit(ctx, "u-alice", "POST /api/v1/users"); err != nil {
		t.Fatalf("expected a different operation to have its own window, got %v", err)
	}
	if _, err := te.Admit(ctx, "u-bob", "GET /api/v1/users"); err != nil {
		t.Fatalf("expected a different principal to have its own window, got %v", err)
	}

	te.clock.Advance(50 * time.Second)
	if _, err := te.Admit(ctx, "u-alice", "GET /api/v1/users"); err != nil {
		t.Fatalf("expected admission once the oldest request aged out, got %v", err)
	}

	snap := te.MetricsSnapshot()
	if snap.Counters[MetricAdmissionRejected] != 1 {
		t.Fatalf("expected 1 rejection metric, got %d", snap.Counters[MetricAdmissionRejected])
	}
}

func TestAdmitKeepsPairsWithSeparatorsApart(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := te.Admit(ctx, "a:b", "c"); err != nil {
			t.Fatalf("request %d rejected: %v", i, err)
		}
	}
	if _, err := te.Admit(ctx, "a:b", "c"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected the exhausted window to reject, got %v", err)
	}

	adm, err := te.Admit(ctx, "a", "b:c")
	if err != nil {
		t.Fatalf("expected (a, b:c) to have its own window, got %v", err)
	}
	if adm.Remaining != 9 {
		t.Fatalf("expected a fresh window, got remaining %d", adm.Remaining)
	}
	if admissionKey("a:b", "c") == admissionKey("a", "b:c") {
		t.Fatal("expected distinct keys")
	}
}

func TestRateLimitErrorRoundsUp(t *testing.T) {
	err := &RateLimitError{RetryAfter: 1500 * time.Millisecond}
	if err.RetryAfterSeconds() != 2 {
		t.Fatalf("expected 2, got %d", err.RetryAfterSeconds())
	}
	if (&RateLimitError{}).RetryAfterSeconds() != 1 {
		t.Fatal("expected minimum of one second")
	}
}

func TestSweepAndJanitor(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	pair := te.login(t, "alice")
	p, _ := te.ValidateAccess(ctx, pair.AccessToken)
	if err := te.Logout(ctx, p, pair.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := te.Admit(ctx, "u-alice", "GET /x"); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}

	stats := te.Sweep(te.clock.Now())
	if stats.Revocations != 0 || stats.RateWindows != 0 {
		t.Fatalf("expected nothing to sweep yet, got %+v", stats)
	}

	stats = te.Sweep(te.clock.Now().Add(8 * 24 * time.Hour))
	if stats.Revocations != 1 || stats.RateWindows != 1 {
		t.Fatalf("expected one of each swept, got %+v", stats)
	}
	snap := te.MetricsSnapshot()
	if snap.Counters[MetricRevocationSwept] != 1 || snap.Counters[MetricRateWindowsEvicted] != 1 {
		t.Fatalf("unexpected sweep metrics %v", snap.Counters)
	}

	jctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		te.RunJanitor(jctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected janitor to stop when its context is cancelled")
	}
}

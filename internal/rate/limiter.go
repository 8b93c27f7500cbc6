package rate

import (
	"errors"
	"sync"
	"time"
)

const (
	DefaultLimit  = 10
	DefaultWindow = time.Minute
)

// Config holds limiter tuning parameters.
type Config struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one Check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is zero when Allowed, otherwise at least one second.
	RetryAfter time.Duration
	// ResetAt is when the oldest recorded request leaves the window.
	ResetAt time.Time
}

type window struct {
	mu     sync.Mutex
	stamps []time.Time
	dead   bool
}

// Limiter is safe for concurrent use.
type Limiter struct {
	limit  int
	window time.Duration

	mu   sync.Mutex
	keys map[string]*window
}

// New validates cfg and returns a [Limiter]. Zero fields select the defaults.
func New(cfg Config) (*Limiter, error) {
	if cfg.Limit == 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Limit < 0 {
		return nil, errors.New("rate: limit must be > 0")
	}
	if cfg.Window < 0 {
		return nil, errors.New("rate: window must be > 0")
	}
	return &Limiter{
		limit:  cfg.Limit,
		window: cfg.Window,
		keys:   make(map[string]*window),
	}, nil
}

// Limit returns the configured per-window limit.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

func (l *Limiter) resolve(key string) *window {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.keys[key]
	if !ok {
		w = &window{}
		l.keys[key] = w
	}
	return w
}

// Check prunes the key's window, then admits and records now if there is room.
func (l *Limiter) Check(key string, now time.Time) Decision {
	for {
		w := l.resolve(key)
		w.mu.Lock()
		if w.dead {
			// Evicted by Sweep between resolve and lock.
			w.mu.Unlock()
			continue
		}
		d := l.checkLocked(w, now)
		w.mu.Unlock()
		return d
	}
}

func (l *Limiter) checkLocked(w *window, now time.Time) Decision {
	w.prune(now, l.window)

	d := Decision{Limit: l.limit}
	if len(w.stamps) < l.limit {
		w.stamps = append(w.stamps, now)
		d.Allowed = true
		d.Remaining = l.limit - len(w.stamps)
		d.ResetAt = w.oldest().Add(l.window)
		return d
	}

	d.ResetAt = w.oldest().Add(l.window)
	d.RetryAfter = ceilSeconds(d.ResetAt.Sub(now))
	return d
}

// prune drops stamps with now-ts >= window. Concurrent callers may record
// stamps slightly out of order, so every entry is checked.
func (w *window) prune(now time.Time, length time.Duration) {
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if now.Sub(ts) < length {
			kept = append(kept, ts)
		}
	}
	for i := len(kept); i < len(w.stamps); i++ {
		w.stamps[i] = time.Time{}
	}
	w.stamps = kept
}

func (w *window) oldest() time.Time {
	first := w.stamps[0]
	for _, ts := range w.stamps[1:] {
		if ts.Before(first) {
			first = ts
		}
	}
	return first
}

func ceilSeconds(d time.Duration) time.Duration {
	if d <= time.Second {
		return time.Second
	}
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	return secs * time.Second
}

// Sweep evicts keys whose windows hold no stamp inside the window at now and
// returns how many were evicted.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for key, w := range l.keys {
		w.mu.Lock()
		w.prune(now, l.window)
		if len(w.stamps) == 0 {
			w.dead = true
			delete(l.keys, key)
			evicted++
		}
		w.mu.Unlock()
	}
	return evicted
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

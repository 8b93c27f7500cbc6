package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ThrottleConfig configures [Throttle]. Zero values select the defaults.
type ThrottleConfig struct {
	// PerSecond is the steady refill rate per client IP.
	PerSecond float64
	// Burst is the bucket size.
	Burst int
	// IdleTTL is how long an unused bucket is kept.
	IdleTTL time.Duration
	// TrustForwardedFor reads the client IP from X-Forwarded-For.
	TrustForwardedFor bool
}

const (
	defaultThrottlePerSecond = 5
	defaultThrottleBurst     = 20
	defaultThrottleIdleTTL   = 5 * time.Minute
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// Throttler holds one token bucket per client IP.
type Throttler struct {
	cfg     ThrottleConfig
	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewThrottler returns a throttler for cfg.
func NewThrottler(cfg ThrottleConfig) *Throttler {
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = defaultThrottlePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultThrottleBurst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultThrottleIdleTTL
	}
	return &Throttler{cfg: cfg, buckets: make(map[string]*bucket)}
}

// Allow takes one token from ip's bucket.
func (t *Throttler) Allow(ip string, now time.Time) bool {
	t.mu.Lock()
	b, ok := t.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(t.cfg.PerSecond), t.cfg.Burst)}
		t.buckets[ip] = b
	}
	b.seen = now
	t.mu.Unlock()

	return b.lim.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than IdleTTL and reports how many.
func (t *Throttler) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for ip, b := range t.buckets {
		if now.Sub(b.seen) > t.cfg.IdleTTL {
			delete(t.buckets, ip)
			n++
		}
	}
	return n
}

// Len reports the number of tracked client IPs.
func (t *Throttler) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}

// Middleware answers 429 once the client's bucket is empty.
func (t *Throttler) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, t.cfg.TrustForwardedFor)
			if ip == "" {
				ip = "unknown"
			}
			if !t.Allow(ip, time.Now()) {
				w.Header().Set("Retry-After", "1")
				WriteJSON(w, http.StatusTooManyRequests, map[string]string{"detail": "Rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Throttle is shorthand for NewThrottler(cfg).Middleware().
func Throttle(cfg ThrottleConfig) Middleware {
	return NewThrottler(cfg).Middleware()
}

// ClientIP returns the remote host of r, or the first X-Forwarded-For entry
// when trustForwarded is set.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

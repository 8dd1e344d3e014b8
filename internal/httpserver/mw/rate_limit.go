package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/panelshop/internal/utils"
)

// rateLimitMessage is the body of every 429.
const rateLimitMessage = "Too many requests, please slow down."

type RateLimitConfig struct {
	Burst         int              // bucket capacity per client IP
	PerMinute     int              // refill rate per client IP
	MaxEntries    int              // forces a sweep when the table reaches this size, 0 = unbounded
	SweepInterval time.Duration    // defaults to 1m
	IdleTTL       time.Duration    // buckets untouched this long are dropped, defaults to 15m
	TrustProxy    bool             // resolve the client IP from proxy headers
	Now           func() time.Time // defaults to time.Now
}

type bucket struct {
	tokens   float64
	updated  time.Time
	lastSeen time.Time
}

// decision is the outcome of one take.
type decision struct {
	allowed    bool
	remaining  int
	retryAfter int // seconds, only when !allowed
}

type limiter struct {
	cfg       RateLimitConfig
	perSecond float64
	capacity  float64

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	cfg.Burst = max(cfg.Burst, 1)
	cfg.PerMinute = max(cfg.PerMinute, 1)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &limiter{
		cfg:       cfg,
		perSecond: float64(cfg.PerMinute) / 60,
		capacity:  float64(cfg.Burst),
		buckets:   make(map[string]*bucket),
		lastSweep: cfg.Now(),
	}
}

// take refills key's bucket for the time elapsed and spends one token.
func (l *limiter) take(key string, now time.Time) decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval ||
		(l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries) {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, updated: now}
		l.buckets[key] = b
	}
	if elapsed := now.Sub(b.updated).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.perSecond)
		b.updated = now
	}
	b.lastSeen = now

	if b.tokens < 1 {
		wait := math.Ceil((1 - b.tokens) / l.perSecond)
		return decision{retryAfter: max(int(wait), 1)}
	}
	b.tokens--
	return decision{allowed: true, remaining: int(b.tokens)}
}

// sweep drops idle buckets. Callers hold l.mu.
func (l *limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// RateLimit is a per-client-IP token bucket. Rejections get a JSON body and
// Retry-After.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.take(utils.ClientIP(r, l.cfg.TrustProxy), l.cfg.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
			if !d.allowed {
				h.Set("Retry-After", strconv.Itoa(d.retryAfter))
				writeError(w, http.StatusTooManyRequests, rateLimitMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

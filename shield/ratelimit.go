package shield

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig tunes the fixed-window per-IP limiter.
type RateLimitConfig struct {
	// MaxRequests per window per client IP. Default: 120.
	MaxRequests int
	// Window length. Default: 1m.
	Window time.Duration
	// ExcludePrefixes lists path prefixes exempt from limiting (health
	// checks, metrics).
	ExcludePrefixes []string
}

func (c *RateLimitConfig) applyDefaults() {
	if c.MaxRequests <= 0 {
		c.MaxRequests = 120
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
}

type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// RateLimiter enforces a fixed-window request budget per client IP. Buckets
// live in memory; expired ones are garbage collected by StartGC.
type RateLimiter struct {
	cfg     RateLimitConfig
	buckets sync.Map
}

// NewRateLimiter creates a limiter from config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	cfg.applyDefaults()
	return &RateLimiter{cfg: cfg}
}

// StartGC starts a background sweep of expired buckets every 5 minutes.
// Stops when done is closed.
func (rl *RateLimiter) StartGC(done <-chan struct{}) {
	tick := time.NewTicker(5 * time.Minute)
	go func() {
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				rl.gc()
			}
		}
	}()
}

func (rl *RateLimiter) gc() {
	now := time.Now()
	rl.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		expired := now.After(b.resetAt)
		b.mu.Unlock()
		if expired {
			rl.buckets.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()
	val, _ := rl.buckets.LoadOrStore(ip, &bucket{})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()
	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(rl.cfg.Window)
	}
	b.count++
	return b.count <= rl.cfg.MaxRequests
}

// Middleware enforces the limit and answers 429 JSON when exceeded.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range rl.cfg.ExcludePrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		ip := ExtractIP(r)
		if rl.allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		GetLogger(r.Context()).Warn("ratelimit: request blocked", "ip", ip, "path", r.URL.Path)
		w.Header().Set("Retry-After", "60")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
	})
}

// ExtractIP returns the client IP from X-Forwarded-For or RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Package ratelimit provides keyed token-bucket limiters for the HTTP layer.
//
// Two instances are wired in main: one keyed by client IP in front of login
// (brute-force protection) and one keyed by user ID in front of message
// creation (spam protection).
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// staleAfter is how long an idle key keeps its bucket.
const staleAfter = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one rate.Limiter per key.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter allowing burst events at once and refilling at
// limit events per second. A background goroutine evicts idle keys until
// Stop is called.
func New(limit rate.Limit, burst int) *KeyedLimiter {
	kl := &KeyedLimiter{
		limiters: make(map[string]*entry),
		limit:    limit,
		burst:    burst,
		stop:     make(chan struct{}),
	}
	go kl.cleanupLoop()
	return kl
}

// Every is a shorthand for New(rate.Every(interval), burst).
func Every(interval time.Duration, burst int) *KeyedLimiter {
	return New(rate.Every(interval), burst)
}

func (kl *KeyedLimiter) get(key string) *rate.Limiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	if e, ok := kl.limiters[key]; ok {
		e.lastSeen = time.Now()
		return e.limiter
	}
	l := rate.NewLimiter(kl.limit, kl.burst)
	kl.limiters[key] = &entry{limiter: l, lastSeen: time.Now()}
	return l
}

// Allow reports whether one more event for key may happen now.
func (kl *KeyedLimiter) Allow(key string) bool {
	return kl.get(key).Allow()
}

// RetryAfterSeconds returns how long key has to wait for the next token,
// rounded up to whole seconds (minimum 1).
func (kl *KeyedLimiter) RetryAfterSeconds(key string) int {
	l := kl.get(key)
	r := l.Reserve()
	delay := r.Delay()
	r.Cancel()

	secs := int(math.Ceil(delay.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Reset forgets key, giving it a full bucket again.
func (kl *KeyedLimiter) Reset(key string) {
	kl.mu.Lock()
	delete(kl.limiters, key)
	kl.mu.Unlock()
}

// Stop ends the cleanup goroutine.
func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() { close(kl.stop) })
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			kl.cleanup()
		case <-kl.stop:
			return
		}
	}
}

func (kl *KeyedLimiter) cleanup() {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	for key, e := range kl.limiters {
		if time.Since(e.lastSeen) > staleAfter {
			delete(kl.limiters, key)
		}
	}
}

// ExtractIP returns the client IP, preferring X-Forwarded-For (first hop)
// and X-Real-IP over the socket address.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

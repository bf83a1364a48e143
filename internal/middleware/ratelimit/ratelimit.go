// Package ratelimit throttles state changing requests per client address
// with a fixed one minute window.
package ratelimit

import (
	"net/http"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window   = time.Minute
	staleAge = 10 * time.Minute
)

type Limiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	now     func() time.Time

	limit           int
	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once

	rejected atomic.Int64
}

type bucket struct {
	start time.Time
	last  time.Time
	count int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter starts a limiter and its cleanup goroutine; call Stop to end it.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	l := &Limiter{
		clients:         make(map[string]*bucket),
		now:             time.Now,
		limit:           config.RequestsPerMinute,
		cleanupInterval: config.CleanupInterval,
		stop:            make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow records one request from key and reports whether it fits the window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= window {
		l.clients[key] = &bucket{start: now, last: now, count: 1}
		return true
	}
	w.count++
	w.last = now
	if w.count > l.limit {
		l.rejected.Add(1)
		return false
	}
	return true
}

// Remaining is the number of requests key may still make in its window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.clients[key]
	if !ok || l.now().Sub(w.start) >= window {
		return l.limit
	}
	return max(l.limit-w.count, 0)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-staleAge)
	n := 0
	for key, w := range l.clients {
		if w.last.Before(cutoff) {
			delete(l.clients, key)
			n++
		}
	}
	return n
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Rejected counts requests refused since start.
func (l *Limiter) Rejected() int64 { return l.rejected.Load() }

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware rejects requests over the limit. Only the methods listed are
// counted; with none listed every request is.
func (l *Limiter) Middleware(key func(*http.Request) string, onLimit http.HandlerFunc, methods ...string) func(http.Handler) http.Handler {
	counted := func(m string) bool {
		return len(methods) == 0 || slices.Contains(methods, m)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if counted(r.Method) && !l.Allow(key(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				if onLimit != nil {
					onLimit(w, r)
					return
				}
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

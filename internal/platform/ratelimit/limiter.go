// Package ratelimit keeps one request in flight per client and spaces requests out.
package ratelimit

import (
	"errors"
	"sync"
	"time"
)

// Reasons Acquire turns a request away.
var (
	ErrBusy    = errors.New("ratelimit: previous request still running")
	ErrTooSoon = errors.New("ratelimit: interval not elapsed")
)

// Limiter restricts request frequency and concurrency per client key.
type Limiter struct {
	mu   sync.Mutex
	last map[string]time.Time
	busy map[string]struct{}
	rate time.Duration
	now  func() time.Time
}

// New creates limiter with given minimum interval between requests of one client.
func New(rate time.Duration) *Limiter {
	return &Limiter{
		last: make(map[string]time.Time),
		busy: make(map[string]struct{}),
		rate: rate,
		now:  time.Now,
	}
}

// Allow returns false if the client hits the interval limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowLocked(key)
}

func (l *Limiter) allowLocked(key string) bool {
	now := l.now()
	if t, ok := l.last[key]; ok && now.Sub(t) < l.rate {
		return false
	}
	l.last[key] = now
	return true
}

// Acquire admits a request when the client has nothing in flight and is within
// the interval limit, and otherwise reports ErrBusy or ErrTooSoon. The returned
// release must be called when the request ends; calling it more than once is safe.
func (l *Limiter) Acquire(key string) (release func(), err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.busy[key]; busy {
		return func() {}, ErrBusy
	}
	if !l.allowLocked(key) {
		return func() {}, ErrTooSoon
	}
	l.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.busy, key)
			l.mu.Unlock()
		})
	}, nil
}

// Prune forgets idle clients last seen more than idle ago and reports how many were removed.
func (l *Limiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idle)
	n := 0
	for k, t := range l.last {
		if _, busy := l.busy[k]; busy {
			continue
		}
		if t.Before(cutoff) {
			delete(l.last, k)
			n++
		}
	}
	return n
}

// Len reports how many clients are tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}

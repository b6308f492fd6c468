package ratelimiter

import (
	"sync"
	"time"
)

// bucket is a token bucket for one identity
type bucket struct {
	tokens     float64
	capacity   float64
	rate       float64 // tokens per second
	lastRefill time.Time
	lastSeen   time.Time
	mu         sync.Mutex // guards every field above plus timer
	timer      *time.Timer
	identity   string
	parent     *UserRateLimiter
}

// UserRateLimiter keeps one bucket per identity (user id, sender email, ip).
// Buckets idle for longer than expirationTime are dropped.
type UserRateLimiter struct {
	buckets        map[string]*bucket
	mu             sync.RWMutex
	rate           float64
	capacity       float64
	expirationTime time.Duration
}

// New creates a limiter refilling rate tokens per second up to capacity.
func New(rate float64, capacity float64, expirationTime time.Duration) *UserRateLimiter {
	return &UserRateLimiter{
		buckets:        make(map[string]*bucket),
		rate:           rate,
		capacity:       capacity,
		expirationTime: expirationTime,
	}
}

// PerMinute allows n requests per minute per identity with a burst of one.
func PerMinute(n float64) *UserRateLimiter {
	return New(n/60, 1, time.Hour)
}

// forget drops b if it is still the identity's bucket and nobody touched it since the timer was armed.
// Lock order is l.mu then b.mu.
func (l *UserRateLimiter) forget(b *bucket) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.buckets[b.identity] != b {
		return
	}
	b.mu.Lock()
	idle := time.Since(b.lastSeen) >= l.expirationTime
	b.mu.Unlock()
	if idle {
		delete(l.buckets, b.identity)
	}
}

func (b *bucket) touch() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSeen = time.Now()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.parent.expirationTime, func() {
		b.parent.forget(b)
	})
}

func (l *UserRateLimiter) bucketFor(identity string) *bucket {
	l.mu.RLock()
	b, exists := l.buckets[identity]
	l.mu.RUnlock()

	if exists {
		b.touch()
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	b, exists = l.buckets[identity]
	if exists {
		b.touch()
		return b
	}

	b = &bucket{
		tokens:     l.capacity,
		capacity:   l.capacity,
		rate:       l.rate,
		lastRefill: time.Now(),
		identity:   identity,
		parent:     l,
	}
	l.buckets[identity] = b
	b.touch()

	return b
}

func (b *bucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Allow takes a token from identity's bucket.
func (l *UserRateLimiter) Allow(identity string) bool {
	return l.bucketFor(identity).allow()
}

// Stop cancels all expiration timers.
func (l *UserRateLimiter) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range l.buckets {
		b.mu.Lock()
		if b.timer != nil {
			b.timer.Stop()
		}
		b.mu.Unlock()
	}
}

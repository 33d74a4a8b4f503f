// Package ratelimit implements the fixed-window counter that throttles
// one-time-code requests per email address.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Result reports a single limiter decision. RetryAfter is the number of
// whole seconds until the window resets, rounded up; it is zero when the
// request was allowed.
type Result struct {
	Allowed    bool
	RetryAfter int
}

type window struct {
	count   int
	startAt time.Time
}

// Limiter counts requests per key inside a fixed window that starts at the
// key's first request. Counting and checking happen in one step so two
// concurrent requests can never both claim the last slot.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	limit    int
	span     time.Duration
	nowTime  func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

type Option func(*Limiter)

// WithNowTime injects the clock, used by tests to step time.
func WithNowTime(nowFunc func() time.Time) Option {
	return func(l *Limiter) {
		l.nowTime = nowFunc
	}
}

func New(limit int, span time.Duration, options ...Option) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		span:    span,
		nowTime: time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Allow records one request against the key and reports whether it fits in
// the current window. A request past the window span starts a fresh window.
func (l *Limiter) Allow(key string) Result {
	now := l.nowTime()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.startAt) >= l.span {
		l.windows[key] = &window{count: 1, startAt: now}
		return Result{Allowed: true}
	}

	if w.count >= l.limit {
		remaining := l.span - now.Sub(w.startAt)
		return Result{RetryAfter: int(math.Ceil(remaining.Seconds()))}
	}
	w.count++
	return Result{Allowed: true}
}

// Start launches a goroutine that evicts stale windows. Close stops it.
// Allow already resets stale windows on read; the sweeper only bounds the
// map size.
func (l *Limiter) Start(every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep()
			case <-l.done:
				return
			}
		}
	}()
}

func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *Limiter) sweep() {
	now := l.nowTime()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.Sub(w.startAt) >= l.span {
			delete(l.windows, key)
		}
	}
}

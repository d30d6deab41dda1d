// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

// Package ratelimit throttles requests per key with a sliding-window log.
package ratelimit

import (
	"sync"
	"time"
)

// Rule is a limit of admitted events per trailing window.
type Rule struct {
	// Limit is the maximum number of admitted events within Window.
	Limit int `mapstructure:"limit" validate:"gte=0"`
	// Window is the trailing time span the limit applies to.
	Window time.Duration `mapstructure:"window" validate:"gte=0"`
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithNow overrides the clock.
func WithNow(
	fn func() time.Time,
) Option {
	return func(l *Limiter) {
		l.now = fn
	}
}

type bucket struct {
	mu      sync.Mutex
	events  []time.Time
	window  time.Duration
	denials int
	dead    bool
}

// Limiter keeps one bucket per key. Each bucket has its own mutex so
// throttling one key never stalls another.
type Limiter struct {
	buckets sync.Map
	now     func() time.Time
}

// New creates an empty Limiter.
func New(
	opts ...Option,
) *Limiter {
	l := &Limiter{
		now: time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// lock returns the live bucket for key with its mutex held. A bucket
// removed by Prune is marked dead and skipped.
func (l *Limiter) lock(
	key string,
) *bucket {
	for {
		v, ok := l.buckets.Load(key)
		if !ok {
			v, _ = l.buckets.LoadOrStore(key, &bucket{})
		}
		b := v.(*bucket)

		b.mu.Lock()
		if !b.dead {
			return b
		}
		b.mu.Unlock()
	}
}

// evict drops events at or before now minus window. Callers hold b.mu.
func (b *bucket) evict(
	now time.Time,
	window time.Duration,
) {
	cutoff := now.Add(-window)

	i := 0
	for i < len(b.events) && !b.events[i].After(cutoff) {
		i++
	}

	if i > 0 {
		b.events = append(b.events[:0], b.events[i:]...)
	}
}

// Allow admits the event and records it when fewer than limit events were
// admitted for key within the trailing window. Denied attempts are not
// recorded. A limit of zero or less never admits; a window of zero or less
// retains no history.
func (l *Limiter) Allow(
	key string,
	limit int,
	window time.Duration,
) bool {
	now := l.now()
	b := l.lock(key)
	defer b.mu.Unlock()

	if limit <= 0 {
		b.denials++
		return false
	}

	if window <= 0 {
		b.events = b.events[:0]
		b.denials = 0
		return true
	}

	b.evict(now, window)
	b.window = window

	if len(b.events) >= limit {
		b.denials++
		return false
	}

	b.events = append(b.events, now)
	b.denials = 0

	return true
}

// Remaining returns how many more events key may admit within window
// without mutating state.
func (l *Limiter) Remaining(
	key string,
	limit int,
	window time.Duration,
) int {
	if limit <= 0 {
		return 0
	}

	if window <= 0 {
		return limit
	}

	v, ok := l.buckets.Load(key)
	if !ok {
		return limit
	}
	b := v.(*bucket)
	cutoff := l.now().Add(-window)

	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	for _, t := range b.events {
		if t.After(cutoff) {
			count++
		}
	}

	if count >= limit {
		return 0
	}

	return limit - count
}

// RetryAfter returns how long until key admits another event under limit
// and window, or zero when it would admit now.
func (l *Limiter) RetryAfter(
	key string,
	limit int,
	window time.Duration,
) time.Duration {
	if limit <= 0 || window <= 0 {
		return window
	}

	v, ok := l.buckets.Load(key)
	if !ok {
		return 0
	}
	b := v.(*bucket)
	now := l.now()
	cutoff := now.Add(-window)

	b.mu.Lock()
	defer b.mu.Unlock()

	live := make([]time.Time, 0, len(b.events))
	for _, t := range b.events {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}

	if len(live) < limit {
		return 0
	}

	// The oldest event that must expire before a slot frees up.
	oldest := live[len(live)-limit]

	return oldest.Add(window).Sub(now)
}

// Denials returns the number of consecutive denials for key since its last
// admitted event.
func (l *Limiter) Denials(
	key string,
) int {
	v, ok := l.buckets.Load(key)
	if !ok {
		return 0
	}
	b := v.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.denials
}

// Reset clears the history for key.
func (l *Limiter) Reset(
	key string,
) {
	v, ok := l.buckets.Load(key)
	if !ok {
		return
	}
	b := v.(*bucket)

	b.mu.Lock()
	b.dead = true
	l.buckets.CompareAndDelete(key, v)
	b.mu.Unlock()
}

// Prune drops buckets whose whole history lies outside their last window.
// It returns the number dropped.
func (l *Limiter) Prune() int {
	now := l.now()
	n := 0

	l.buckets.Range(func(k, v any) bool {
		b := v.(*bucket)

		b.mu.Lock()
		b.evict(now, b.window)
		if len(b.events) == 0 {
			b.dead = true
			l.buckets.CompareAndDelete(k, v)
			n++
		}
		b.mu.Unlock()

		return true
	})

	return n
}

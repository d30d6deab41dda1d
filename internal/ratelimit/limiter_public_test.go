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

package ratelimit_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/retr0h/gatehouse/internal/ratelimit"
)

type LimiterPublicTestSuite struct {
	suite.Suite

	mu  sync.Mutex
	now time.Time
}

func (s *LimiterPublicTestSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *LimiterPublicTestSuite) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.now
}

func (s *LimiterPublicTestSuite) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = s.now.Add(d)
}

func (s *LimiterPublicTestSuite) newLimiter() *ratelimit.Limiter {
	return ratelimit.New(ratelimit.WithNow(s.clock))
}

func (s *LimiterPublicTestSuite) TestAllow() {
	const window = 300 * time.Second

	tests := []struct {
		name         string
		validateFunc func(l *ratelimit.Limiter)
	}{
		{
			name: "when limit calls are admitted and the next is denied",
			validateFunc: func(l *ratelimit.Limiter) {
				for i := range 5 {
					s.True(l.Allow("alice:login", 5, window), "call %d", i+1)
					s.advance(time.Second)
				}
				s.False(l.Allow("alice:login", 5, window))
				s.Equal(0, l.Remaining("alice:login", 5, window))
			},
		},
		{
			name: "when the full window passes the key admits again",
			validateFunc: func(l *ratelimit.Limiter) {
				for range 5 {
					s.True(l.Allow("alice:login", 5, window))
				}
				s.False(l.Allow("alice:login", 5, window))

				s.advance(window)
				s.True(l.Allow("alice:login", 5, window))
			},
		},
		{
			name: "when the window slides only the oldest event expires",
			validateFunc: func(l *ratelimit.Limiter) {
				s.True(l.Allow("k", 2, 10*time.Second))
				s.advance(6 * time.Second)
				s.True(l.Allow("k", 2, 10*time.Second))
				s.advance(5 * time.Second)

				s.True(l.Allow("k", 2, 10*time.Second))
				s.False(l.Allow("k", 2, 10*time.Second))
			},
		},
		{
			name: "when denied attempts are not recorded",
			validateFunc: func(l *ratelimit.Limiter) {
				s.True(l.Allow("k", 1, 10*time.Second))
				for range 10 {
					s.advance(time.Second / 2)
					s.False(l.Allow("k", 1, 10*time.Second))
				}
				s.advance(5 * time.Second)
				s.True(l.Allow("k", 1, 10*time.Second))
			},
		},
		{
			name: "when keys are independent",
			validateFunc: func(l *ratelimit.Limiter) {
				s.True(l.Allow("alice:query:execute", 1, window))
				s.False(l.Allow("alice:query:execute", 1, window))
				s.True(l.Allow("bob:query:execute", 1, window))
			},
		},
		{
			name: "when limit is zero it never admits",
			validateFunc: func(l *ratelimit.Limiter) {
				s.False(l.Allow("k", 0, window))
				s.False(l.Allow("k", -1, window))
				s.Equal(0, l.Remaining("k", 0, window))
			},
		},
		{
			name: "when window is zero no history is retained",
			validateFunc: func(l *ratelimit.Limiter) {
				for range 10 {
					s.True(l.Allow("k", 1, 0))
				}
				s.Equal(1, l.Remaining("k", 1, 0))
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			tt.validateFunc(s.newLimiter())
		})
	}
}

func (s *LimiterPublicTestSuite) TestRemaining() {
	l := s.newLimiter()
	window := time.Minute

	s.Equal(3, l.Remaining("k", 3, window))
	s.True(l.Allow("k", 3, window))
	s.Equal(2, l.Remaining("k", 3, window))
	s.Equal(2, l.Remaining("k", 3, window))
	s.True(l.Allow("k", 3, window))
	s.True(l.Allow("k", 3, window))
	s.Equal(0, l.Remaining("k", 3, window))

	s.advance(window)
	s.Equal(3, l.Remaining("k", 3, window))
}

func (s *LimiterPublicTestSuite) TestRetryAfter() {
	l := s.newLimiter()
	window := time.Minute

	s.Equal(time.Duration(0), l.RetryAfter("k", 2, window))
	s.True(l.Allow("k", 2, window))
	s.advance(20 * time.Second)
	s.True(l.Allow("k", 2, window))
	s.False(l.Allow("k", 2, window))

	s.Equal(40*time.Second, l.RetryAfter("k", 2, window))
	s.Equal(window, l.RetryAfter("k", 0, window))
}

func (s *LimiterPublicTestSuite) TestDenialsAndReset() {
	l := s.newLimiter()
	window := time.Minute

	s.True(l.Allow("k", 1, window))
	s.False(l.Allow("k", 1, window))
	s.False(l.Allow("k", 1, window))
	s.Equal(2, l.Denials("k"))

	l.Reset("k")
	s.Equal(0, l.Denials("k"))
	s.True(l.Allow("k", 1, window))
	s.Equal(0, l.Denials("k"))
	s.Equal(0, l.Denials("unknown"))
}

func (s *LimiterPublicTestSuite) TestPrune() {
	l := s.newLimiter()
	s.True(l.Allow("short", 5, time.Second))
	s.True(l.Allow("long", 5, time.Hour))

	s.advance(time.Minute)

	s.Equal(1, l.Prune())
	s.Equal(4, l.Remaining("long", 5, time.Hour))
	s.True(l.Allow("short", 5, time.Second))
}

func (s *LimiterPublicTestSuite) TestConcurrentAllowNeverExceedsLimit() {
	l := s.newLimiter()
	const limit = 25

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared", limit, time.Hour) {
				admitted.Add(1)
			}
		}()
	}
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Allow(fmt.Sprintf("other-%d", i), 1, time.Hour)
			_ = l.Prune()
		}()
	}
	wg.Wait()

	s.Equal(int64(limit), admitted.Load())
}

func TestLimiterPublicTestSuite(t *testing.T) {
	suite.Run(t, new(LimiterPublicTestSuite))
}

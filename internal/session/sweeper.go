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

package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the sweep once a minute.
const DefaultSweepSchedule = "@every 1m"

// Pruner drops stale state and returns how many entries were removed.
type Pruner interface {
	Prune() int
}

// Sweeper periodically removes expired sessions and prunes any additional
// ephemeral state. It exists for memory hygiene only; expiry is enforced by
// Validate regardless.
type Sweeper struct {
	logger   *slog.Logger
	cron     *cron.Cron
	sessions *Registry
	pruners  []Pruner
}

// NewSweeper creates a Sweeper running on schedule, a cron spec or
// descriptor such as "@every 1m".
func NewSweeper(
	logger *slog.Logger,
	schedule string,
	sessions *Registry,
	pruners ...Pruner,
) (*Sweeper, error) {
	s := &Sweeper{
		logger:   logger,
		cron:     cron.New(),
		sessions: sessions,
		pruners:  pruners,
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.Run() }); err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Start begins running the schedule in the background.
func (s *Sweeper) Start() {
	s.logger.Debug("starting session sweeper")
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish or ctx
// to be done.
func (s *Sweeper) Stop(
	ctx context.Context,
) {
	done := s.cron.Stop()

	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("session sweeper stop timed out")
	}
}

// Run performs one sweep and returns the number of sessions and pruned
// entries removed.
func (s *Sweeper) Run() (int, int) {
	expired := s.sessions.Sweep()

	pruned := 0
	for _, p := range s.pruners {
		pruned += p.Prune()
	}

	if expired > 0 || pruned > 0 {
		s.logger.Debug(
			"sweep complete",
			slog.Int("expired_sessions", expired),
			slog.Int("pruned", pruned),
		)
	}

	return expired, pruned
}

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

package session_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/retr0h/gatehouse/internal/session"
)

type fakePruner struct {
	calls int
	n     int
}

func (p *fakePruner) Prune() int {
	p.calls++
	return p.n
}

type SweeperPublicTestSuite struct {
	suite.Suite

	logger *slog.Logger
}

func (s *SweeperPublicTestSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func (s *SweeperPublicTestSuite) TestNewSweeper() {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{
			name:     "when schedule is a descriptor",
			schedule: session.DefaultSweepSchedule,
		},
		{
			name:     "when schedule is a cron spec",
			schedule: "*/5 * * * *",
		},
		{
			name:     "when schedule is invalid",
			schedule: "every so often",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := session.NewSweeper(s.logger, tt.schedule, session.New())
			if tt.wantErr {
				s.Error(err)
				s.Contains(err.Error(), "parse sweep schedule")
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *SweeperPublicTestSuite) TestRun() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := session.New(session.WithNow(func() time.Time { return now }))
	_, _ = r.Issue("alice", "viewer", time.Minute, nil)
	_, _ = r.Issue("bob", "viewer", time.Hour, nil)
	pruner := &fakePruner{n: 3}

	sw, err := session.NewSweeper(s.logger, session.DefaultSweepSchedule, r, pruner)
	s.Require().NoError(err)

	now = now.Add(2 * time.Minute)
	expired, pruned := sw.Run()

	s.Equal(1, expired)
	s.Equal(3, pruned)
	s.Equal(1, pruner.calls)
	s.Equal(1, r.Len())
}

func (s *SweeperPublicTestSuite) TestStartStop() {
	sw, err := session.NewSweeper(s.logger, session.DefaultSweepSchedule, session.New())
	s.Require().NoError(err)

	sw.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sw.Stop(ctx)
	s.NoError(ctx.Err())
}

func TestSweeperPublicTestSuite(t *testing.T) {
	suite.Run(t, new(SweeperPublicTestSuite))
}

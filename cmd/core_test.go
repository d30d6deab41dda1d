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

package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"

	"github.com/retr0h/gatehouse/internal/authz"
	"github.com/retr0h/gatehouse/internal/config"
)

type CoreTestSuite struct {
	suite.Suite

	cfg     config.Config
	savedFs afero.Fs
	logger  *slog.Logger
}

func (s *CoreTestSuite) SetupSuite() {
	s.savedFs = appFs
}

func (s *CoreTestSuite) TearDownSuite() {
	appFs = s.savedFs
}

func (s *CoreTestSuite) SetupTest() {
	appFs = afero.NewMemMapFs()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load(viper.New(), appFs, "")
	s.Require().NoError(err)
	cfg.Credentials.Path = "/var/lib/gatehouse/users.yaml"
	cfg.Credentials.Iterations = 1000
	cfg.Audit.Path = "/var/log/gatehouse/audit.jsonl"
	cfg.Bootstrap.Password = "Core!Test2026"
	s.cfg = cfg
}

func (s *CoreTestSuite) TestOpenCore() {
	tests := []struct {
		name         string
		setup        func()
		validateFunc func(c *core, err error)
	}{
		{
			name: "when every component opens",
			validateFunc: func(c *core, err error) {
				s.Require().NoError(err)
				defer c.Close()

				created, err := c.access.Bootstrap(context.Background())
				s.Require().NoError(err)
				s.True(created)

				events, err := c.log.Tail(10)
				s.Require().NoError(err)
				s.NotEmpty(events)
				s.True(c.roles.HasRole(authz.RoleAdmin))
			},
		},
		{
			name: "when configured roles form a cycle",
			setup: func() {
				s.cfg.Roles = map[string]config.Role{
					"a": {Inherits: []string{"b"}},
					"b": {Inherits: []string{"a"}},
				}
			},
			validateFunc: func(_ *core, err error) {
				s.ErrorIs(err, authz.ErrCycle)
			},
		},
		{
			name: "when the credential table is corrupt",
			setup: func() {
				s.Require().NoError(appFs.MkdirAll("/var/lib/gatehouse", 0o700))
				s.Require().NoError(
					afero.WriteFile(appFs, s.cfg.Credentials.Path, []byte("{{{"), 0o600),
				)
			},
			validateFunc: func(_ *core, err error) {
				s.ErrorContains(err, "open credentials")
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			if tc.setup != nil {
				tc.setup()
			}

			c, err := openCore(context.Background(), s.logger, &s.cfg)
			tc.validateFunc(c, err)
		})
	}
}

func (s *CoreTestSuite) TestWriteMaskedConfig() {
	tests := []struct {
		name         string
		asJSON       bool
		validateFunc func(out string, err error)
	}{
		{
			name: "when rendering yaml",
			validateFunc: func(out string, err error) {
				s.Require().NoError(err)
				s.NotContains(out, "Core!Test2026")
				s.Contains(out, "audit.jsonl")
			},
		},
		{
			name:   "when rendering json",
			asJSON: true,
			validateFunc: func(out string, err error) {
				s.Require().NoError(err)
				s.NotContains(out, "Core!Test2026")
				s.Contains(out, "users.yaml")
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			var buf bytes.Buffer
			err := writeMaskedConfig(&buf, &s.cfg, tc.asJSON)
			tc.validateFunc(buf.String(), err)
		})
	}
}

func TestCoreTestSuite(t *testing.T) {
	suite.Run(t, new(CoreTestSuite))
}

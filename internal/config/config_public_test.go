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

package config_test

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"

	"github.com/retr0h/gatehouse/internal/authz"
	"github.com/retr0h/gatehouse/internal/config"
	"github.com/retr0h/gatehouse/internal/credential"
)

const testConfigPath = "/etc/gatehouse/gatehouse.yaml"

type ConfigPublicTestSuite struct {
	suite.Suite

	appFs afero.Fs
}

func (s *ConfigPublicTestSuite) SetupTest() {
	s.appFs = afero.NewMemMapFs()
}

func (s *ConfigPublicTestSuite) TestLoad() {
	tests := []struct {
		name         string
		content      string
		env          map[string]string
		validateFunc func(cfg config.Config, err error)
	}{
		{
			name: "when file is missing defaults apply",
			validateFunc: func(cfg config.Config, err error) {
				s.Require().NoError(err)
				s.Equal(8080, cfg.API.Server.Port)
				s.Equal(30*time.Minute, cfg.Sessions.TTL)
				s.Equal(5, cfg.RateLimits.Login.Limit)
				s.Equal(300*time.Second, cfg.RateLimits.Login.Window)
				s.Equal(credential.DefaultIterations, cfg.Credentials.Iterations)
				s.Equal(credential.DefaultBootstrapPassword, cfg.Bootstrap.Password)
				s.Equal(authz.RoleAdmin, cfg.Bootstrap.Role)
				s.Equal("/metrics", cfg.Telemetry.Metrics.Path)
			},
		},
		{
			name: "when file overrides values",
			content: `
api:
  server:
    port: 9443
sessions:
  ttl: 15m
rate_limits:
  query:
    limit: 10
    window: 30s
roles:
  auditor:
    permissions:
      - audit:read
    inherits:
      - viewer
query:
  denylist:
    - grant
`,
			validateFunc: func(cfg config.Config, err error) {
				s.Require().NoError(err)
				s.Equal(9443, cfg.API.Server.Port)
				s.Equal(15*time.Minute, cfg.Sessions.TTL)
				s.Equal(10, cfg.RateLimits.Query.Limit)
				s.Equal(30*time.Second, cfg.RateLimits.Query.Window)
				s.Equal([]string{"audit:read"}, cfg.Roles["auditor"].Permissions)
				s.Equal([]string{"grant"}, cfg.Query.Denylist)
				s.Equal(5, cfg.RateLimits.Login.Limit)
			},
		},
		{
			name: "when environment overrides the file",
			content: `
api:
  server:
    port: 9443
`,
			env: map[string]string{
				"GATEHOUSE_API_SERVER_PORT": "7000",
				"GATEHOUSE_SESSIONS_TTL":    "2h",
			},
			validateFunc: func(cfg config.Config, err error) {
				s.Require().NoError(err)
				s.Equal(7000, cfg.API.Server.Port)
				s.Equal(2*time.Hour, cfg.Sessions.TTL)
			},
		},
		{
			name: "when debug is set tracing is enabled",
			content: `
debug: true
`,
			validateFunc: func(cfg config.Config, err error) {
				s.Require().NoError(err)
				s.True(cfg.Telemetry.Tracing.Enabled)
			},
		},
		{
			name: "when yaml is malformed",
			content: `
api: [
`,
			validateFunc: func(_ config.Config, err error) {
				s.Error(err)
				s.Contains(err.Error(), "read config")
			},
		},
		{
			name: "when bootstrap password is weak",
			content: `
bootstrap:
  password: password
`,
			validateFunc: func(_ config.Config, err error) {
				s.Error(err)
				s.Contains(err.Error(), "strong_password")
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			if tt.content != "" {
				s.Require().NoError(afero.WriteFile(s.appFs, testConfigPath, []byte(tt.content), 0o600))
			}
			for k, v := range tt.env {
				s.T().Setenv(k, v)
			}

			cfg, err := config.Load(viper.New(), s.appFs, testConfigPath)
			tt.validateFunc(cfg, err)
		})
	}
}

func (s *ConfigPublicTestSuite) TestValidate() {
	valid := func() config.Config {
		cfg, err := config.Load(viper.New(), afero.NewMemMapFs(), "")
		s.Require().NoError(err)
		return cfg
	}

	tests := []struct {
		name        string
		mutate      func(cfg *config.Config)
		expectError bool
		errContains string
	}{
		{
			name:   "valid config",
			mutate: func(_ *config.Config) {},
		},
		{
			name:        "missing credentials path",
			mutate:      func(cfg *config.Config) { cfg.Credentials.Path = "" },
			expectError: true,
			errContains: "Path",
		},
		{
			name:        "invalid port",
			mutate:      func(cfg *config.Config) { cfg.API.Server.Port = 70000 },
			expectError: true,
			errContains: "Port",
		},
		{
			name:        "zero session ttl",
			mutate:      func(cfg *config.Config) { cfg.Sessions.TTL = 0 },
			expectError: true,
			errContains: "TTL",
		},
		{
			name:        "invalid bootstrap username",
			mutate:      func(cfg *config.Config) { cfg.Bootstrap.Username = "a b" },
			expectError: true,
			errContains: "Username",
		},
		{
			name:        "unknown tracing exporter",
			mutate:      func(cfg *config.Config) { cfg.Telemetry.Tracing.Exporter = "zipkin" },
			expectError: true,
			errContains: "Exporter",
		},
		{
			name: "role inherits itself",
			mutate: func(cfg *config.Config) {
				cfg.Roles = map[string]config.Role{"loop": {Inherits: []string{"loop"}}}
			},
			expectError: true,
			errContains: "inherits itself",
		},
		{
			name: "nats url without subject",
			mutate: func(cfg *config.Config) {
				cfg.Audit.NATS.URL = "nats://localhost:4222"
				cfg.Audit.NATS.Subject = ""
			},
			expectError: true,
			errContains: "Subject",
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			cfg := valid()
			tc.mutate(&cfg)

			err := config.Validate(&cfg)
			if tc.expectError {
				s.Error(err)
				s.Contains(err.Error(), tc.errContains)
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *ConfigPublicTestSuite) TestRoleDefinitions() {
	cfg := config.Config{
		Roles: map[string]config.Role{
			"auditor": {Permissions: []string{"audit:read"}, Inherits: []string{"viewer"}},
			"viewer":  {Permissions: []string{"events:read"}},
		},
	}

	defs := cfg.RoleDefinitions()

	s.Contains(defs, authz.RoleAdmin)
	s.Equal([]string{"audit:read"}, defs["auditor"].Permissions)
	s.Equal([]string{"events:read"}, defs["viewer"].Permissions)

	_, err := authz.New(defs)
	s.NoError(err)
}

func TestConfigPublicTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigPublicTestSuite))
}

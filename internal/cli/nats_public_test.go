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

package cli_test

import (
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/suite"

	"github.com/retr0h/gatehouse/internal/cli"
	"github.com/retr0h/gatehouse/internal/config"
)

type NATSPublicTestSuite struct {
	suite.Suite
}

func (s *NATSPublicTestSuite) TestNATSOptions() {
	tests := []struct {
		name        string
		auth        config.NATSAuth
		wantCount   int
		errContains string
	}{
		{
			name:      "when auth is unset",
			auth:      config.NATSAuth{},
			wantCount: 2,
		},
		{
			name:      "when auth is none",
			auth:      config.NATSAuth{Type: "none"},
			wantCount: 2,
		},
		{
			name: "when auth is user_pass",
			auth: config.NATSAuth{
				Type:     "user_pass",
				Username: "audit",
				Password: "secret",
			},
			wantCount: 3,
		},
		{
			name: "when nkey seed file is missing",
			auth: config.NATSAuth{
				Type:     "nkey",
				NKeyFile: "/nonexistent/audit.nk",
			},
			errContains: "load nkey seed",
		},
		{
			name:        "when auth type is unknown",
			auth:        config.NATSAuth{Type: "token"},
			errContains: "unsupported nats auth type",
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			opts, err := cli.NATSOptions("gatehouse-test", tc.auth)
			if tc.errContains != "" {
				s.Error(err)
				s.Contains(err.Error(), tc.errContains)

				return
			}

			s.NoError(err)
			s.Len(opts, tc.wantCount)
		})
	}
}

func (s *NATSPublicTestSuite) TestConnectNATS() {
	srv, err := natsserver.NewServer(&natsserver.Options{
		Host:     "127.0.0.1",
		Port:     natsserver.RANDOM_PORT,
		Username: "audit",
		Password: "secret",
		NoLog:    true,
		NoSigs:   true,
	})
	s.Require().NoError(err)

	go srv.Start()
	defer srv.Shutdown()
	s.Require().True(srv.ReadyForConnections(5 * time.Second))

	tests := []struct {
		name    string
		cfg     config.AuditNATS
		wantErr bool
	}{
		{
			name: "when credentials are valid connects",
			cfg: config.AuditNATS{
				URL:     srv.ClientURL(),
				Subject: "gatehouse.audit",
				Auth: config.NATSAuth{
					Type:     "user_pass",
					Username: "audit",
					Password: "secret",
				},
			},
		},
		{
			name: "when credentials are wrong fails",
			cfg: config.AuditNATS{
				URL:     srv.ClientURL(),
				Subject: "gatehouse.audit",
				Auth: config.NATSAuth{
					Type:     "user_pass",
					Username: "audit",
					Password: "wrong",
				},
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			nc, err := cli.ConnectNATS("gatehouse-test", tc.cfg)
			if tc.wantErr {
				s.Error(err)
				return
			}

			s.Require().NoError(err)
			defer nc.Close()
			s.True(nc.IsConnected())
		})
	}
}

func TestNATSPublicTestSuite(t *testing.T) {
	suite.Run(t, new(NATSPublicTestSuite))
}

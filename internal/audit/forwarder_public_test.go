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

package audit_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/suite"

	"github.com/retr0h/gatehouse/internal/audit"
	"github.com/retr0h/gatehouse/internal/audit/mocks"
)

type ForwarderPublicTestSuite struct {
	suite.Suite

	logger *slog.Logger
	srv    *server.Server
	nc     *nats.Conn
}

func (s *ForwarderPublicTestSuite) SetupSuite() {
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

	srv, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   server.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	s.Require().NoError(err)

	go srv.Start()
	s.Require().True(srv.ReadyForConnections(5 * time.Second))
	s.srv = srv

	nc, err := nats.Connect(srv.ClientURL())
	s.Require().NoError(err)
	s.nc = nc
}

func (s *ForwarderPublicTestSuite) TearDownSuite() {
	s.nc.Close()
	s.srv.Shutdown()
}

func (s *ForwarderPublicTestSuite) TestForwardOverNATS() {
	sub, err := s.nc.SubscribeSync("gatehouse.audit.>")
	s.Require().NoError(err)
	defer func() { _ = sub.Unsubscribe() }()
	s.Require().NoError(s.nc.Flush())

	fwd := audit.NewNATSForwarder(s.logger, s.nc, "gatehouse.audit")
	event := audit.Event{
		ID:     "2f7c9a8e-1d2b-4c3a-9e8f-0a1b2c3d4e5f",
		Seq:    1,
		Actor:  "alice",
		Action: audit.ActionAuthzDenied,
		Status: audit.StatusDenied,
		Level:  audit.LevelInfo,
	}

	s.Require().NoError(fwd.Forward(context.Background(), event))

	msg, err := sub.NextMsg(2 * time.Second)
	s.Require().NoError(err)
	s.Equal("gatehouse.audit.authz.denied", msg.Subject)
	s.Equal(event.ID, msg.Header.Get("Gatehouse-Event-Id"))

	var got audit.Event
	s.Require().NoError(json.Unmarshal(msg.Data, &got))
	s.Equal(event.ID, got.ID)
	s.Equal(audit.StatusDenied, got.Status)
}

func (s *ForwarderPublicTestSuite) TestForward() {
	tests := []struct {
		name         string
		ctx          func() context.Context
		setupMock    func(m *mocks.MockPublisher)
		validateFunc func(err error)
	}{
		{
			name: "when publish succeeds",
			ctx:  context.Background,
			setupMock: func(m *mocks.MockPublisher) {
				m.EXPECT().
					PublishMsg(gomock.Any()).
					DoAndReturn(func(msg *nats.Msg) error {
						s.Equal("audit.auth.login", msg.Subject)
						s.Equal("x", msg.Header.Get("Gatehouse-Event-Id"))
						return nil
					})
			},
			validateFunc: func(err error) {
				s.NoError(err)
			},
		},
		{
			name: "when publish fails",
			ctx:  context.Background,
			setupMock: func(m *mocks.MockPublisher) {
				m.EXPECT().
					PublishMsg(gomock.Any()).
					Return(fmt.Errorf("connection closed"))
			},
			validateFunc: func(err error) {
				s.Error(err)
				s.Contains(err.Error(), "publish audit event to audit.auth.login")
			},
		},
		{
			name: "when context is cancelled",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			setupMock: func(_ *mocks.MockPublisher) {},
			validateFunc: func(err error) {
				s.ErrorIs(err, context.Canceled)
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			ctrl := gomock.NewController(s.T())
			defer ctrl.Finish()

			pub := mocks.NewMockPublisher(ctrl)
			tt.setupMock(pub)

			fwd := audit.NewNATSForwarder(s.logger, pub, "audit")
			err := fwd.Forward(tt.ctx(), audit.Event{ID: "x", Action: audit.ActionAuthLogin})
			tt.validateFunc(err)
		})
	}
}

func TestForwarderPublicTestSuite(t *testing.T) {
	suite.Run(t, new(ForwarderPublicTestSuite))
}

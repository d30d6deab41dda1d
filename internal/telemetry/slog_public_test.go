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

package telemetry_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/retr0h/gatehouse/internal/telemetry"
)

type ContextPublicTestSuite struct {
	suite.Suite

	ctx context.Context
	tp  *sdktrace.TracerProvider
}

func (s *ContextPublicTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.tp = sdktrace.NewTracerProvider()
	otel.SetTracerProvider(s.tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
}

func (s *ContextPublicTestSuite) TearDownTest() {
	_ = s.tp.Shutdown(s.ctx)
}

func (s *ContextPublicTestSuite) TestHandlerAttributes() {
	tests := []struct {
		name         string
		ctxFunc      func() (context.Context, func())
		validateFunc func(out string)
	}{
		{
			name: "when no span or actor leaves record untouched",
			ctxFunc: func() (context.Context, func()) {
				return s.ctx, func() {}
			},
			validateFunc: func(out string) {
				s.NotContains(out, "trace_id=")
				s.NotContains(out, "actor=")
			},
		},
		{
			name: "when span is active adds trace and span ids",
			ctxFunc: func() (context.Context, func()) {
				ctx, span := s.tp.Tracer("test").Start(s.ctx, "op")
				return ctx, func() { span.End() }
			},
			validateFunc: func(out string) {
				s.Contains(out, "trace_id=")
				s.Contains(out, "span_id=")
			},
		},
		{
			name: "when actor is set adds actor",
			ctxFunc: func() (context.Context, func()) {
				return telemetry.WithActor(s.ctx, "alice"), func() {}
			},
			validateFunc: func(out string) {
				s.Contains(out, "actor=alice")
			},
		},
		{
			name: "when actor is empty omits actor",
			ctxFunc: func() (context.Context, func()) {
				return telemetry.WithActor(s.ctx, ""), func() {}
			},
			validateFunc: func(out string) {
				s.NotContains(out, "actor=")
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			var buf bytes.Buffer
			logger := slog.New(
				telemetry.NewContextHandler(slog.NewTextHandler(&buf, nil)),
			).With(slog.String("component", "test")).WithGroup("g")

			ctx, done := tc.ctxFunc()
			defer done()

			logger.InfoContext(ctx, "hello")
			tc.validateFunc(buf.String())
		})
	}
}

func (s *ContextPublicTestSuite) TestHandlerEnabled() {
	h := telemetry.NewContextHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)

	s.False(h.Enabled(s.ctx, slog.LevelInfo))
	s.True(h.Enabled(s.ctx, slog.LevelError))
}

func (s *ContextPublicTestSuite) TestInjectHeader() {
	tests := []struct {
		name         string
		withSpan     bool
		validateFunc func(header http.Header, span trace.Span)
	}{
		{
			name:     "when a span is active writes its trace context",
			withSpan: true,
			validateFunc: func(header http.Header, span trace.Span) {
				value := header.Get("Traceparent")
				s.Contains(value, span.SpanContext().TraceID().String())
				s.Contains(value, span.SpanContext().SpanID().String())
			},
		},
		{
			name: "when no span is active writes nothing",
			validateFunc: func(header http.Header, _ trace.Span) {
				s.Empty(header.Get("Traceparent"))
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			ctx := s.ctx
			var span trace.Span
			if tc.withSpan {
				ctx, span = s.tp.Tracer("test").Start(s.ctx, "publish")
				defer span.End()
			}

			header := http.Header{}
			telemetry.InjectHeader(ctx, header)
			tc.validateFunc(header, span)
		})
	}
}

func TestContextPublicTestSuite(t *testing.T) {
	suite.Run(t, new(ContextPublicTestSuite))
}

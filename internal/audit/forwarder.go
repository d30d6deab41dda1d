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

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nats-io/nats.go"

	"github.com/retr0h/gatehouse/internal/telemetry"
)

// Forwarder ships a recorded event to an external collector.
type Forwarder interface {
	Forward(
		ctx context.Context,
		event Event,
	) error
}

// Publisher publishes a message. *nats.Conn satisfies it.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// ensure NATSForwarder implements Forwarder at compile time.
var _ Forwarder = (*NATSForwarder)(nil)

// NATSForwarder publishes each event as JSON to a NATS subject. The event
// action is appended to the subject so collectors can filter with
// wildcards, e.g. "gatehouse.audit.>".
type NATSForwarder struct {
	logger  *slog.Logger
	pub     Publisher
	subject string
}

// NewNATSForwarder creates a NATSForwarder publishing under subject.
func NewNATSForwarder(
	logger *slog.Logger,
	pub Publisher,
	subject string,
) *NATSForwarder {
	return &NATSForwarder{
		logger:  logger,
		pub:     pub,
		subject: subject,
	}
}

// Forward publishes event to "<subject>.<action>" with the caller's trace
// context in the message headers.
func (f *NATSForwarder) Forward(
	ctx context.Context,
	event Event,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	msg := nats.NewMsg(f.subject + "." + event.Action)
	msg.Data = data
	msg.Header.Set("Gatehouse-Event-Id", event.ID)
	telemetry.InjectHeader(ctx, http.Header(msg.Header))

	subject := msg.Subject
	if err := f.pub.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish audit event to %s: %w", subject, err)
	}

	f.logger.Debug(
		"forwarded audit event",
		slog.String("subject", subject),
		slog.String("id", event.ID),
	)

	return nil
}

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

// Package cli provides shared helpers for gatehouse commands.
package cli

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/retr0h/gatehouse/internal/config"
)

// NATSOptions converts the configured client auth into connection options.
func NATSOptions(
	name string,
	auth config.NATSAuth,
) ([]nats.Option, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
	}

	switch auth.Type {
	case "user_pass":
		opts = append(opts, nats.UserInfo(auth.Username, auth.Password))
	case "nkey":
		opt, err := nats.NkeyOptionFromSeed(auth.NKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load nkey seed %s: %w", auth.NKeyFile, err)
		}
		opts = append(opts, opt)
	case "", "none":
	default:
		return nil, fmt.Errorf("unsupported nats auth type: %q", auth.Type)
	}

	return opts, nil
}

// ConnectNATS dials the audit forwarding server described by cfg.
func ConnectNATS(
	name string,
	cfg config.AuditNATS,
) (*nats.Conn, error) {
	opts, err := NATSOptions(name, cfg.Auth)
	if err != nil {
		return nil, err
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", cfg.URL, err)
	}

	return nc, nil
}

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
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/retr0h/gatehouse/internal/access"
	"github.com/retr0h/gatehouse/internal/audit"
	"github.com/retr0h/gatehouse/internal/authz"
	"github.com/retr0h/gatehouse/internal/config"
	"github.com/retr0h/gatehouse/internal/credential"
	"github.com/retr0h/gatehouse/internal/querysafe"
	"github.com/retr0h/gatehouse/internal/ratelimit"
	"github.com/retr0h/gatehouse/internal/session"
)

// core holds the opened components and the orchestrator composed over them.
type core struct {
	roles    *authz.Registry
	creds    *credential.Store
	sessions *session.Registry
	limiter  *ratelimit.Limiter
	log      *audit.FileLog
	access   *access.Service
}

// openCore builds every component from cfg. The credential table and the
// audit log are opened concurrently.
func openCore(
	ctx context.Context,
	logger *slog.Logger,
	cfg *config.Config,
	auditOpts ...audit.Option,
) (*core, error) {
	roles, err := authz.New(cfg.RoleDefinitions())
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	c := &core{
		roles:    roles,
		sessions: session.New(),
		limiter:  ratelimit.New(),
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		creds, err := credential.Open(
			logger,
			appFs,
			cfg.Credentials.Path,
			credential.WithIterations(cfg.Credentials.Iterations),
			credential.WithRoleChecker(roles),
		)
		if err != nil {
			return fmt.Errorf("open credentials: %w", err)
		}
		c.creds = creds
		return nil
	})
	g.Go(func() error {
		log, err := audit.Open(logger, appFs, cfg.Audit.Path, auditOpts...)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		c.log = log
		return nil
	})
	if err := g.Wait(); err != nil {
		c.Close()
		return nil, err
	}

	sanitizer := querysafe.New(
		querysafe.WithMaxLength(cfg.Query.MaxLength),
		querysafe.WithExtraKeywords(cfg.Query.Denylist...),
	)

	svc, err := access.New(logger, access.SettingsFromConfig(cfg), access.Components{
		Credentials: c.creds,
		Sessions:    c.sessions,
		Roles:       c.roles,
		Limiter:     c.limiter,
		Sanitizer:   sanitizer,
		Audit:       c.log,
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	c.access = svc

	return c, nil
}

// Close releases the audit log.
func (c *core) Close() {
	if c.log != nil {
		_ = c.log.Close()
	}
}

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

package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/retr0h/gatehouse/internal/audit"
	"github.com/retr0h/gatehouse/internal/authz"
	"github.com/retr0h/gatehouse/internal/credential"
	"github.com/retr0h/gatehouse/internal/querysafe"
	"github.com/retr0h/gatehouse/internal/ratelimit"
	"github.com/retr0h/gatehouse/internal/session"
	"github.com/retr0h/gatehouse/internal/telemetry"
)

// Components are the stateful collaborators a Service composes.
type Components struct {
	Credentials *credential.Store
	Sessions    *session.Registry
	Roles       *authz.Registry
	Limiter     *ratelimit.Limiter
	Sanitizer   *querysafe.Sanitizer
	Audit       audit.Recorder
}

// Service is the access orchestrator. It is safe for concurrent use.
type Service struct {
	logger   *slog.Logger
	settings Settings

	creds     *credential.Store
	sessions  *session.Registry
	roles     *authz.Registry
	limiter   *ratelimit.Limiter
	sanitizer *querysafe.Sanitizer
	audit     audit.Recorder

	tracer  trace.Tracer
	metrics *instruments
}

// New returns a Service over the given components.
func New(
	logger *slog.Logger,
	settings Settings,
	c Components,
) (*Service, error) {
	if c.Credentials == nil || c.Sessions == nil || c.Roles == nil ||
		c.Limiter == nil || c.Sanitizer == nil || c.Audit == nil {
		return nil, errors.New("access: all components are required")
	}

	if settings.SessionTTL <= 0 {
		return nil, fmt.Errorf("access: %w", session.ErrInvalidTTL)
	}

	if settings.AuditThreshold < 1 {
		settings.AuditThreshold = 1
	}

	metrics, err := newInstruments(telemetry.Meter())
	if err != nil {
		return nil, fmt.Errorf("access: create instruments: %w", err)
	}

	return &Service{
		logger:    logger.With(slog.String("component", "access")),
		settings:  settings,
		creds:     c.Credentials,
		sessions:  c.Sessions,
		roles:     c.Roles,
		limiter:   c.Limiter,
		sanitizer: c.Sanitizer,
		audit:     c.Audit,
		tracer:    telemetry.Tracer(),
		metrics:   metrics,
	}, nil
}

// ExtractBearer returns the token from an "Authorization: Bearer <token>"
// header value.
func ExtractBearer(
	header string,
) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", reject(KindUnauthorized, "missing bearer token", ErrUnauthorized, nil)
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" ||
		strings.ContainsAny(token, " \t") {
		return "", reject(KindUnauthorized, "malformed bearer token", ErrUnauthorized, nil)
	}

	return token, nil
}

// Authorize resolves the session behind req.Authorization, checks the
// required permission, applies the optional rate limit and sanitizes the
// optional input. Every allow and deny decision past session resolution is
// recorded in the audit log.
func (s *Service) Authorize(
	ctx context.Context,
	req Request,
) (grant *Grant, err error) {
	ctx, span := s.tracer.Start(ctx, "access.Authorize", trace.WithAttributes(
		attribute.String("access.permission", req.Permission),
	))
	defer func() { s.finish(ctx, span, "authorize", err) }()

	token, err := ExtractBearer(req.Authorization)
	if err != nil {
		return nil, err
	}

	if _, ok := s.sessions.Validate(token); !ok {
		return nil, reject(KindUnauthorized, "invalid or expired session", ErrUnauthorized, nil)
	}

	sess, err := s.sessions.Touch(token, s.settings.SessionTTL)
	if err != nil {
		return nil, reject(KindUnauthorized, "invalid or expired session", ErrUnauthorized, err)
	}

	ctx = telemetry.WithActor(ctx, sess.Username)
	span.SetAttributes(attribute.String("access.role", sess.Role))

	if req.Permission != "" {
		if err := s.roles.Require(sess.Role, req.Permission); err != nil {
			_ = s.record(ctx, sess.Username, audit.ActionAuthzDenied, audit.StatusDenied, audit.LevelInfo,
				map[string]string{
					"permission": req.Permission,
					"role":       sess.Role,
				})

			rej := reject(
				KindForbidden,
				fmt.Sprintf("role %q lacks permission %q", sess.Role, req.Permission),
				ErrPermissionDenied,
				err,
			)
			rej.Permission = req.Permission

			return nil, rej
		}
	}

	if rule := req.RateLimit; rule != nil {
		key := sess.Username + ":" + req.Permission
		if !s.limiter.Allow(key, rule.Limit, rule.Window) {
			return nil, s.throttled(ctx, sess.Username, key, *rule)
		}
	}

	grant = &Grant{Session: sess}

	if req.Input != nil {
		clean, err := s.sanitizer.Sanitize(*req.Input)
		if err != nil {
			reason := querysafe.Reason(err)
			_ = s.record(ctx, sess.Username, audit.ActionQueryRejected, audit.StatusDenied, audit.LevelInfo,
				map[string]string{
					"reason":     reason,
					"permission": req.Permission,
				})

			return nil, reject(KindBadRequest, reason, ErrUnsafeInput, err)
		}

		grant.Input = clean
	}

	if err := s.record(ctx, sess.Username, audit.ActionAuthzGranted, audit.StatusSuccess, audit.LevelInfo,
		map[string]string{"permission": req.Permission}); err != nil {
		return nil, reject(KindInternal, "audit log unavailable", ErrInternal, err)
	}

	return grant, nil
}

// throttled logs a rate limit denial and audits it once the key's
// consecutive denials reach the configured threshold.
func (s *Service) throttled(
	ctx context.Context,
	actor string,
	key string,
	rule ratelimit.Rule,
) *Rejection {
	denials := s.limiter.Denials(key)

	s.logger.WarnContext(ctx, "rate limit exceeded",
		slog.String("key", key),
		slog.Int("denials", denials),
	)

	if denials == s.settings.AuditThreshold {
		_ = s.record(ctx, actor, audit.ActionRateLimitExceeded, audit.StatusDenied, audit.LevelWarning,
			map[string]string{
				"key":      key,
				"denials":  strconv.Itoa(denials),
				"limit":    strconv.Itoa(rule.Limit),
				"window":   rule.Window.String(),
				"retry_in": s.limiter.RetryAfter(key, rule.Limit, rule.Window).String(),
			})
	}

	rej := reject(
		KindTooManyRequests,
		fmt.Sprintf("limit of %d per %s reached", rule.Limit, rule.Window),
		ErrRateLimitExceeded,
		nil,
	)
	rej.RetryAfter = rule.Window

	return rej
}

// record appends an audit event, logging rather than returning the failure
// detail to callers that cannot act on it.
func (s *Service) record(
	ctx context.Context,
	actor string,
	action string,
	status audit.Status,
	level audit.Level,
	details map[string]string,
) error {
	_, err := s.audit.RecordEvent(ctx, audit.Event{
		Actor:   actor,
		Action:  action,
		Status:  status,
		Level:   level,
		Details: details,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record audit event",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}

	return err
}

// classify converts an error from a core component into a Rejection.
func classify(
	err error,
) *Rejection {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej
	}

	switch {
	case errors.Is(err, credential.ErrAlreadyExists), errors.Is(err, authz.ErrAlreadyExists):
		return reject(KindConflict, err.Error(), ErrAlreadyExists, err)
	case errors.Is(err, credential.ErrNotFound):
		return reject(KindNotFound, err.Error(), ErrNotFound, err)
	case errors.Is(err, credential.ErrUnknownRole), errors.Is(err, authz.ErrUnknownRole):
		return reject(KindBadRequest, err.Error(), ErrUnknownRole, err)
	case errors.Is(err, credential.ErrWeakPassword),
		errors.Is(err, credential.ErrInvalidUsername),
		errors.Is(err, authz.ErrCycle),
		errors.Is(err, authz.ErrInvalidArgument),
		errors.Is(err, session.ErrInvalidTTL):
		return reject(KindBadRequest, err.Error(), ErrInvalidInput, err)
	default:
		return reject(KindInternal, "internal error", ErrInternal, err)
	}
}

func (s *Service) finish(
	ctx context.Context,
	span trace.Span,
	operation string,
	err error,
) {
	outcome := "allowed"
	if err != nil {
		outcome = string(KindInternal)

		var rej *Rejection
		if errors.As(err, &rej) {
			outcome = string(rej.Kind)
		}

		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(attribute.String("access.outcome", outcome))
	span.End()

	s.metrics.decision(ctx, operation, outcome)
}

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

// Package access composes the credential, session, permission, rate limit,
// sanitation and audit components into per-request authorization decisions.
package access

import (
	"errors"
	"fmt"
	"time"

	"github.com/retr0h/gatehouse/internal/config"
	"github.com/retr0h/gatehouse/internal/ratelimit"
	"github.com/retr0h/gatehouse/internal/session"
)

// Sentinel errors matched with errors.Is against a *Rejection.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrUnsafeInput       = errors.New("unsafe input")
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrUnknownRole       = errors.New("unknown role")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
)

// Kind classifies a rejection for the caller.
type Kind string

// Rejection kinds.
const (
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindTooManyRequests Kind = "too_many_requests"
	KindBadRequest      Kind = "bad_request"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

// Rejection is the typed failure returned by every Service operation.
type Rejection struct {
	// Kind classifies the failure.
	Kind Kind
	// Reason is a short human readable explanation.
	Reason string
	// Permission is the permission that was missing, for KindForbidden.
	Permission string
	// RetryAfter is the advisory wait, for KindTooManyRequests.
	RetryAfter time.Duration
	// Err wraps the access sentinel and the underlying cause.
	Err error
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	if r.Reason == "" {
		return string(r.Kind)
	}

	return fmt.Sprintf("%s: %s", r.Kind, r.Reason)
}

// Unwrap exposes Err to errors.Is and errors.As.
func (r *Rejection) Unwrap() error {
	return r.Err
}

func reject(
	kind Kind,
	reason string,
	sentinel error,
	cause error,
) *Rejection {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}

	return &Rejection{
		Kind:   kind,
		Reason: reason,
		Err:    err,
	}
}

// Request describes one authorization check.
type Request struct {
	// Authorization is the raw Authorization header value.
	Authorization string
	// Permission is required of the session's role. Empty skips the check.
	Permission string
	// RateLimit throttles the identity and permission pair when set.
	RateLimit *ratelimit.Rule
	// Input is free text that must pass sanitation when set.
	Input *string
}

// Grant is the result of a successful authorization.
type Grant struct {
	// Session is the resolved session with its expiry extended.
	Session session.Session
	// Input is the sanitized form of Request.Input.
	Input string
}

// Settings are the orchestrator's tunables.
type Settings struct {
	// SessionTTL is the sliding session lifetime.
	SessionTTL time.Duration
	// Login throttles authentication attempts per username.
	Login ratelimit.Rule
	// AuditThreshold is the consecutive denial count at which throttling
	// is recorded in the audit log.
	AuditThreshold int
	// BootstrapUsername is the administrator created on first start.
	BootstrapUsername string
	// BootstrapPassword is that administrator's initial password.
	BootstrapPassword string
	// BootstrapRole is the role that counts as administrative.
	BootstrapRole string
}

// SettingsFromConfig extracts Settings from the loaded configuration.
func SettingsFromConfig(
	cfg *config.Config,
) Settings {
	return Settings{
		SessionTTL:        cfg.Sessions.TTL,
		Login:             cfg.RateLimits.Login,
		AuditThreshold:    cfg.RateLimits.AuditThreshold,
		BootstrapUsername: cfg.Bootstrap.Username,
		BootstrapPassword: cfg.Bootstrap.Password,
		BootstrapRole:     cfg.Bootstrap.Role,
	}
}

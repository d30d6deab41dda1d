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

// Package audit provides an append-only, hash-chained audit log.
package audit

import (
	"context"
	"time"
)

const (
	// ActorSystem is the actor recorded for actions taken by the process itself.
	ActorSystem = "system"
	// ActorAnonymous is recorded when the caller's claimed identity is not
	// a well-formed username.
	ActorAnonymous = "anonymous"
)

// Status is the outcome of an audited decision.
type Status string

// Outcome statuses.
const (
	StatusSuccess Status = "success"
	StatusDenied  Status = "denied"
	StatusError   Status = "error"
)

// Level is the severity of an audit event.
type Level string

// Severity levels.
const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Action names.
const (
	ActionAuthLogin         = "auth.login"
	ActionAuthLogout        = "auth.logout"
	ActionAuthzGranted      = "authz.granted"
	ActionAuthzDenied       = "authz.denied"
	ActionQueryRejected     = "query.rejected"
	ActionRateLimitExceeded = "ratelimit.exceeded"
	ActionUserCreated       = "user.created"
	ActionPasswordChanged   = "user.password_changed"
	ActionBootstrapAdmin    = "bootstrap.admin_created"
	ActionDefaultPassword   = "bootstrap.default_password"
	ActionBootstrapSkipped  = "bootstrap.skipped"
	ActionRoleChanged       = "role.changed"
)

// Event is a single immutable audit record.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`
	// Seq is the 1-based position of the event in the log.
	Seq uint64 `json:"seq"`
	// Timestamp is when the event was recorded.
	Timestamp time.Time `json:"timestamp"`
	// Actor is the identity that triggered the event, or ActorSystem.
	Actor string `json:"actor"`
	// Action names what happened.
	Action string `json:"action"`
	// Status is the outcome.
	Status Status `json:"status"`
	// Level is the severity.
	Level Level `json:"level"`
	// Details carries free-form context.
	Details map[string]string `json:"details,omitempty"`
	// PrevHash is the Hash of the preceding event.
	PrevHash string `json:"prev_hash,omitempty"`
	// Hash is the SHA-256 of this event encoded with an empty Hash.
	Hash string `json:"hash,omitempty"`
}

// Recorder appends audit events.
type Recorder interface {
	Record(
		ctx context.Context,
		actor string,
		action string,
		status Status,
		details map[string]string,
	) (Event, error)
	RecordEvent(
		ctx context.Context,
		event Event,
	) (Event, error)
}

// Reader reads recorded audit events.
type Reader interface {
	Tail(n int) ([]Event, error)
	IterateAll(fn func(Event) error) error
	List(
		ctx context.Context,
		limit int,
		offset int,
	) ([]Event, int, error)
}

// Store records and reads audit events.
type Store interface {
	Recorder
	Reader
}

// VerifyResult reports the outcome of a hash chain check.
type VerifyResult struct {
	// Events is the number of well-formed events read.
	Events int `json:"events"`
	// Skipped is the number of malformed lines ignored.
	Skipped int `json:"skipped"`
	// Intact is true when every event links to its predecessor.
	Intact bool `json:"intact"`
	// BrokenAt is the sequence number of the first event that fails the
	// check, or zero when the chain is intact.
	BrokenAt uint64 `json:"broken_at,omitempty"`
	// Reason describes the first failure.
	Reason string `json:"reason,omitempty"`
}

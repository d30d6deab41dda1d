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

// Package session issues and validates opaque, time-bounded session tokens.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"
)

const tokenBytes = 32

var (
	// ErrNotFound is returned when a token is unknown or expired.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidTTL is returned when a ttl is not positive.
	ErrInvalidTTL = errors.New("session ttl must be positive")
)

// Session is one authenticated, time-bounded grant.
type Session struct {
	// Token is the opaque bearer token.
	Token string `json:"-"`
	// Username is the owning identity.
	Username string `json:"username"`
	// Role is the role captured at issuance.
	Role string `json:"role"`
	// Metadata is free-form client context.
	Metadata map[string]string `json:"metadata,omitempty"`
	// IssuedAt is when the session was created.
	IssuedAt time.Time `json:"issued_at"`
	// ExpiresAt is when the session stops validating.
	ExpiresAt time.Time `json:"expires_at"`
}

// Option configures a Registry.
type Option func(*Registry)

// WithNow overrides the clock.
func WithNow(
	fn func() time.Time,
) Option {
	return func(r *Registry) {
		r.now = fn
	}
}

// Registry owns the token to session map. Validate takes the read lock;
// mutations take the write lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// New creates an empty Registry.
func New(
	opts ...Option,
) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Issue creates a session for username expiring ttl from now.
func (r *Registry) Issue(
	username string,
	role string,
	ttl time.Duration,
	metadata map[string]string,
) (Session, error) {
	if ttl <= 0 {
		return Session{}, ErrInvalidTTL
	}

	token, err := newToken()
	if err != nil {
		return Session{}, err
	}

	now := r.now()
	sess := &Session{
		Token:     token,
		Username:  username,
		Role:      role,
		Metadata:  maps.Clone(metadata),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	r.mu.Lock()
	r.sessions[token] = sess
	r.mu.Unlock()

	return sess.copy(), nil
}

// Validate returns the session for token when it exists and has not
// expired. It does not extend the expiry.
func (r *Registry) Validate(
	token string,
) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[token]
	if !ok || !r.now().Before(sess.ExpiresAt) {
		return Session{}, false
	}

	return sess.copy(), true
}

// Touch sets the expiry of an active session to now plus ttl. Expired
// sessions are never revived.
func (r *Registry) Touch(
	token string,
	ttl time.Duration,
) (Session, error) {
	if ttl <= 0 {
		return Session{}, ErrInvalidTTL
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	sess, ok := r.sessions[token]
	if !ok || !now.Before(sess.ExpiresAt) {
		return Session{}, ErrNotFound
	}

	sess.ExpiresAt = now.Add(ttl)

	return sess.copy(), nil
}

// Revoke removes token. Revoking an unknown token is a no-op.
func (r *Registry) Revoke(
	token string,
) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}

// RevokeUser removes every session owned by username and returns how many
// were removed.
func (r *Registry) RevokeUser(
	username string,
) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for token, sess := range r.sessions {
		if sess.Username == username {
			delete(r.sessions, token)
			n++
		}
	}

	return n
}

// Sweep removes expired sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for token, sess := range r.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(r.sessions, token)
			n++
		}
	}

	return n
}

// Len returns the number of stored sessions, expired ones included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

func (s *Session) copy() Session {
	out := *s
	out.Metadata = maps.Clone(s.Metadata)

	return out
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

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
	"log/slog"
	"strconv"
	"strings"

	"github.com/retr0h/gatehouse/internal/audit"
	"github.com/retr0h/gatehouse/internal/authz"
	"github.com/retr0h/gatehouse/internal/credential"
	"github.com/retr0h/gatehouse/internal/session"
	"github.com/retr0h/gatehouse/internal/telemetry"
	"github.com/retr0h/gatehouse/internal/validation"
)

// Login authenticates username and issues a session. Attempts are throttled
// per username before credentials are checked, so a throttled caller learns
// nothing about the password.
func (s *Service) Login(
	ctx context.Context,
	username string,
	password string,
	metadata map[string]string,
) (sess session.Session, err error) {
	ctx, span := s.tracer.Start(ctx, "access.Login")
	defer func() { s.finish(ctx, span, "login", err) }()

	// a malformed name never reaches the limiter keys or the audit actor
	if !validation.IsValidUsername(username) {
		_ = s.record(ctx, audit.ActorAnonymous, audit.ActionAuthLogin, audit.StatusDenied, audit.LevelInfo,
			map[string]string{"reason": "malformed username"})

		return session.Session{}, reject(KindUnauthorized, "invalid credentials", ErrUnauthorized, nil)
	}

	ctx = telemetry.WithActor(ctx, username)

	key := username + ":login"
	rule := s.settings.Login
	if !s.limiter.Allow(key, rule.Limit, rule.Window) {
		return session.Session{}, s.throttled(ctx, username, key, rule)
	}

	if !s.creds.Authenticate(username, password) {
		_ = s.record(ctx, username, audit.ActionAuthLogin, audit.StatusDenied, audit.LevelInfo,
			map[string]string{"reason": "invalid credentials"})

		return session.Session{}, reject(KindUnauthorized, "invalid credentials", ErrUnauthorized, nil)
	}

	role, ok := s.creds.RoleOf(username)
	if !ok {
		return session.Session{}, reject(KindUnauthorized, "invalid credentials", ErrUnauthorized, nil)
	}

	sess, err = s.sessions.Issue(username, role, s.settings.SessionTTL, metadata)
	if err != nil {
		return session.Session{}, classify(err)
	}

	_ = s.record(ctx, username, audit.ActionAuthLogin, audit.StatusSuccess, audit.LevelInfo,
		map[string]string{"role": role})

	s.logger.InfoContext(ctx, "session issued", slog.String("role", role))

	return sess, nil
}

// Logout revokes the session behind token. An unknown or expired token is
// still revoked and reported as unauthorized.
func (s *Service) Logout(
	ctx context.Context,
	token string,
) (err error) {
	ctx, span := s.tracer.Start(ctx, "access.Logout")
	defer func() { s.finish(ctx, span, "logout", err) }()

	sess, ok := s.sessions.Validate(token)
	s.sessions.Revoke(token)
	if !ok {
		return reject(KindUnauthorized, "invalid or expired session", ErrUnauthorized, nil)
	}

	_ = s.record(ctx, sess.Username, audit.ActionAuthLogout, audit.StatusSuccess, audit.LevelInfo, nil)

	return nil
}

// Register creates an identity on behalf of actor.
func (s *Service) Register(
	ctx context.Context,
	actor string,
	username string,
	password string,
	role string,
) (id credential.Identity, err error) {
	ctx, span := s.tracer.Start(ctx, "access.Register")
	defer func() { s.finish(ctx, span, "register", err) }()

	ctx = telemetry.WithActor(ctx, actor)

	id, err = s.creds.Register(username, password, role)
	if err != nil {
		rej := classify(err)
		_ = s.record(ctx, actor, audit.ActionUserCreated, statusOf(rej), audit.LevelInfo,
			map[string]string{
				"username": username,
				"role":     role,
				"reason":   rej.Reason,
			})

		return credential.Identity{}, rej
	}

	_ = s.record(ctx, actor, audit.ActionUserCreated, audit.StatusSuccess, audit.LevelInfo,
		map[string]string{
			"username": username,
			"role":     role,
		})

	return id, nil
}

// ChangePassword replaces username's password on behalf of actor and
// revokes every session the user holds.
func (s *Service) ChangePassword(
	ctx context.Context,
	actor string,
	username string,
	newPassword string,
) (err error) {
	ctx, span := s.tracer.Start(ctx, "access.ChangePassword")
	defer func() { s.finish(ctx, span, "change_password", err) }()

	ctx = telemetry.WithActor(ctx, actor)

	if err := s.creds.ChangePassword(username, newPassword); err != nil {
		rej := classify(err)
		_ = s.record(ctx, actor, audit.ActionPasswordChanged, statusOf(rej), audit.LevelInfo,
			map[string]string{
				"username": username,
				"reason":   rej.Reason,
			})

		return rej
	}

	revoked := s.sessions.RevokeUser(username)

	_ = s.record(ctx, actor, audit.ActionPasswordChanged, audit.StatusSuccess, audit.LevelInfo,
		map[string]string{
			"username":         username,
			"sessions_revoked": strconv.Itoa(revoked),
		})

	return nil
}

// Bootstrap creates the administrator identity when no identity holds the
// administrative role. It reports whether an identity was created. Leaving
// the built-in default password in place is flagged with a warning event.
func (s *Service) Bootstrap(
	ctx context.Context,
) (created bool, err error) {
	ctx, span := s.tracer.Start(ctx, "access.Bootstrap")
	defer func() { s.finish(ctx, span, "bootstrap", err) }()

	role := s.settings.BootstrapRole
	if s.creds.HasRole(role) {
		return false, nil
	}

	username := s.settings.BootstrapUsername
	if existing, ok := s.creds.RoleOf(username); ok {
		_ = s.record(ctx, audit.ActorSystem, audit.ActionBootstrapSkipped, audit.StatusDenied, audit.LevelWarning,
			map[string]string{
				"username":      username,
				"role":          role,
				"existing_role": existing,
			})

		s.logger.WarnContext(ctx, "bootstrap username is taken by a non-administrative identity; no administrator created",
			slog.String("username", username),
			slog.String("existing_role", existing),
		)

		return false, nil
	}

	if _, err := s.creds.Register(username, s.settings.BootstrapPassword, role); err != nil {
		return false, classify(err)
	}

	_ = s.record(ctx, audit.ActorSystem, audit.ActionBootstrapAdmin, audit.StatusSuccess, audit.LevelInfo,
		map[string]string{
			"username": username,
			"role":     role,
		})

	s.logger.InfoContext(ctx, "bootstrap administrator created",
		slog.String("username", username),
		slog.String("role", role),
	)

	if s.settings.BootstrapPassword == credential.DefaultBootstrapPassword {
		_ = s.record(ctx, audit.ActorSystem, audit.ActionDefaultPassword, audit.StatusSuccess, audit.LevelWarning,
			map[string]string{
				"username": username,
				"message":  "bootstrap administrator uses the default password; rotate it",
			})

		s.logger.WarnContext(ctx, "bootstrap administrator uses the default password; rotate it",
			slog.String("username", username),
		)
	}

	return true, nil
}

// ApplyRoleCommand mutates the permission registry on behalf of actor.
// Changes are held in memory only.
func (s *Service) ApplyRoleCommand(
	ctx context.Context,
	actor string,
	cmd authz.Command,
) (err error) {
	ctx, span := s.tracer.Start(ctx, "access.ApplyRoleCommand")
	defer func() { s.finish(ctx, span, "role_command", err) }()

	ctx = telemetry.WithActor(ctx, actor)

	details := describeCommand(cmd)
	if err := s.roles.Apply(cmd); err != nil {
		rej := classify(err)
		details["reason"] = rej.Reason
		_ = s.record(ctx, actor, audit.ActionRoleChanged, statusOf(rej), audit.LevelInfo, details)

		return rej
	}

	_ = s.record(ctx, actor, audit.ActionRoleChanged, audit.StatusSuccess, audit.LevelInfo, details)

	return nil
}

// Identities lists every identity without secret material.
func (s *Service) Identities() []credential.Identity {
	return s.creds.List()
}

// Roles describes every role with its effective permissions.
func (s *Service) Roles() []authz.RoleInfo {
	return s.roles.Describe()
}

func describeCommand(
	cmd authz.Command,
) map[string]string {
	details := map[string]string{"command": cmd.Kind()}

	switch c := cmd.(type) {
	case authz.AddRole:
		details["role"] = c.Name
		details["permissions"] = strings.Join(c.Permissions, ",")
		details["inherits"] = strings.Join(c.Inherits, ",")
	case authz.Grant:
		details["role"] = c.Role
		details["permission"] = c.Permission
	case authz.Revoke:
		details["role"] = c.Role
		details["permission"] = c.Permission
	}

	return details
}

func statusOf(
	rej *Rejection,
) audit.Status {
	if errors.Is(rej, ErrInternal) {
		return audit.StatusError
	}

	return audit.StatusDenied
}

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

// Package api is the HTTP boundary in front of the access orchestrator.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/retr0h/gatehouse/internal/access"
	"github.com/retr0h/gatehouse/internal/audit"
	"github.com/retr0h/gatehouse/internal/authz"
	"github.com/retr0h/gatehouse/internal/config"
	"github.com/retr0h/gatehouse/internal/credential"
	"github.com/retr0h/gatehouse/internal/ratelimit"
)

// MaxBodySize caps request bodies.
const MaxBodySize = "64K"

// Verifier checks the integrity of the audit log.
type Verifier interface {
	Verify() (audit.VerifyResult, error)
}

// Server is the echo server exposing gatehouse over HTTP.
type Server struct {
	Echo *echo.Echo

	logger    *slog.Logger
	appConfig config.Config
	access    *access.Service
	reader    audit.Reader
	verifier  Verifier
	queryRule *ratelimit.Rule

	metricsHandler http.Handler
	metricsPath    string
}

// Option configures a Server.
type Option func(*Server)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error      string `json:"error"`
	Reason     string `json:"reason,omitempty"`
	Permission string `json:"permission,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse describes a session. The token is only set on login.
type SessionResponse struct {
	Token     string    `json:"token,omitempty"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"required"`
}

// ChangePasswordRequest is the body of PUT /users/:username/password.
type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// AddRoleRequest is the body of POST /roles.
type AddRoleRequest struct {
	Name        string   `json:"name"        validate:"required"`
	Permissions []string `json:"permissions" validate:"dive,required"`
	Inherits    []string `json:"inherits"    validate:"dive,required"`
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse acknowledges a screened query.
type QueryResponse struct {
	Query  string `json:"query"`
	Status string `json:"status"`
}

// UserListResponse is the body of GET /users.
type UserListResponse struct {
	Users []credential.Identity `json:"users"`
}

// RoleListResponse is the body of GET /roles.
type RoleListResponse struct {
	Roles []authz.RoleInfo `json:"roles"`
}

// AuditListResponse is the body of GET /audit.
type AuditListResponse struct {
	Events []audit.Event `json:"events"`
	Total  int           `json:"total"`
}

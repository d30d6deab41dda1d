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

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"github.com/unrolled/secure"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/retr0h/gatehouse/internal/access"
	"github.com/retr0h/gatehouse/internal/audit"
	"github.com/retr0h/gatehouse/internal/authz"
	"github.com/retr0h/gatehouse/internal/config"
	"github.com/retr0h/gatehouse/internal/ratelimit"
)

// WithAuditReader exposes GET /audit.
func WithAuditReader(
	r audit.Reader,
) Option {
	return func(s *Server) {
		s.reader = r
	}
}

// WithAuditVerifier exposes GET /audit/verify.
func WithAuditVerifier(
	v Verifier,
) Option {
	return func(s *Server) {
		s.verifier = v
	}
}

// WithQueryLimit throttles POST /query per identity.
func WithQueryLimit(
	rule ratelimit.Rule,
) Option {
	return func(s *Server) {
		s.queryRule = &rule
	}
}

// WithMetrics serves handler at path without authentication.
func WithMetrics(
	handler http.Handler,
	path string,
) Option {
	return func(s *Server) {
		s.metricsHandler = handler
		s.metricsPath = path
	}
}

// New builds the echo server and registers every route.
func New(
	appConfig config.Config,
	logger *slog.Logger,
	svc *access.Service,
	opts ...Option,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	corsConfig := middleware.CORSConfig{}
	if origins := appConfig.API.Server.CORS.AllowOrigins; len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	}

	headers := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'",
	})

	e.Use(otelecho.Middleware("gatehouse-api"))
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(MaxBodySize))
	e.Use(middleware.CORSWithConfig(corsConfig))
	e.Use(echo.WrapMiddleware(headers.Handler))

	if flood := appConfig.API.Server.Flood; flood.Limit > 0 && flood.Window > 0 {
		e.Use(echo.WrapMiddleware(httprate.LimitByIP(flood.Limit, flood.Window)))
	}

	s := &Server{
		Echo:      e,
		logger:    logger,
		appConfig: appConfig,
		access:    svc,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.routes()

	return s
}

func (s *Server) routes() {
	e := s.Echo

	e.GET("/health", s.getHealth)
	if s.metricsHandler != nil {
		e.GET(s.metricsPath, echo.WrapHandler(s.metricsHandler))
	}

	e.POST("/auth/login", s.postLogin)
	e.POST("/auth/logout", s.postLogout)
	e.GET("/auth/session", s.getSession, s.authorize(""))

	e.GET("/users", s.getUsers, s.authorize(authz.PermUsersRead))
	e.POST("/users", s.postUser, s.authorize(authz.PermUsersCreate))
	e.PUT("/users/:username/password", s.putPassword, s.authorize(authz.PermUsersUpdate))

	e.GET("/roles", s.getRoles, s.authorize(authz.PermRolesRead))
	e.POST("/roles", s.postRole, s.authorize(authz.PermRolesManage))
	e.PUT("/roles/:role/permissions/:permission", s.putRolePermission, s.authorize(authz.PermRolesManage))
	e.DELETE("/roles/:role/permissions/:permission", s.deleteRolePermission, s.authorize(authz.PermRolesManage))

	e.POST("/query", s.postQuery)

	if s.reader != nil {
		e.GET("/audit", s.getAudit, s.authorize(authz.PermAuditRead))
	}
	if s.verifier != nil {
		e.GET("/audit/verify", s.getAuditVerify, s.authorize(authz.PermAuditRead))
	}
}

// Start serves on the configured port in the background.
func (s *Server) Start() {
	go func() {
		addr := fmt.Sprintf(":%d", s.appConfig.API.Server.Port)
		s.logger.Info("starting server", slog.String("addr", addr))

		if err := s.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
			s.logger.Error(
				"failed to start server",
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(
	ctx context.Context,
) {
	s.logger.Info("stopping server")

	if err := s.Echo.Shutdown(ctx); err != nil {
		s.logger.Error(
			"server shutdown failed",
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("server stopped gracefully")
}

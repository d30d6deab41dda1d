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
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/retr0h/gatehouse/internal/access"
	"github.com/retr0h/gatehouse/internal/telemetry"
	"github.com/retr0h/gatehouse/internal/validation"
)

const contextKeyGrant = "access.grant"

// authorize runs the access check for permission before the handler and
// stores the resulting grant on the echo context.
func (s *Server) authorize(
	permission string,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			grant, err := s.access.Authorize(req.Context(), access.Request{
				Authorization: req.Header.Get(echo.HeaderAuthorization),
				Permission:    permission,
			})
			if err != nil {
				return s.reject(c, err)
			}

			s.bindGrant(c, grant)

			return next(c)
		}
	}
}

func (s *Server) bindGrant(
	c echo.Context,
	grant *access.Grant,
) {
	c.Set(contextKeyGrant, grant)
	ctx := telemetry.WithActor(c.Request().Context(), grant.Session.Username)
	c.SetRequest(c.Request().WithContext(ctx))
}

func grantFrom(
	c echo.Context,
) *access.Grant {
	grant, _ := c.Get(contextKeyGrant).(*access.Grant)

	return grant
}

// statusFor maps a rejection kind onto an HTTP status code.
func statusFor(
	kind access.Kind,
) int {
	switch kind {
	case access.KindUnauthorized:
		return http.StatusUnauthorized
	case access.KindForbidden:
		return http.StatusForbidden
	case access.KindTooManyRequests:
		return http.StatusTooManyRequests
	case access.KindBadRequest:
		return http.StatusBadRequest
	case access.KindNotFound:
		return http.StatusNotFound
	case access.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// reject writes err as an ErrorResponse. Errors that are not rejections
// are logged and reported as internal.
func (s *Server) reject(
	c echo.Context,
	err error,
) error {
	var rej *access.Rejection
	if !errors.As(err, &rej) {
		s.logger.ErrorContext(c.Request().Context(), "unhandled request error",
			slog.String("error", err.Error()),
		)
		rej = &access.Rejection{Kind: access.KindInternal, Reason: "internal error"}
	}

	switch rej.Kind {
	case access.KindUnauthorized:
		c.Response().Header().Set("WWW-Authenticate", `Bearer realm="gatehouse"`)
	case access.KindTooManyRequests:
		secs := int(math.Ceil(rej.RetryAfter.Seconds()))
		c.Response().Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
	}

	return c.JSON(statusFor(rej.Kind), ErrorResponse{
		Error:      rej.Error(),
		Reason:     rej.Reason,
		Permission: rej.Permission,
	})
}

// bind decodes and validates the request body into v.
func (s *Server) bind(
	c echo.Context,
	v any,
) error {
	if err := c.Bind(v); err != nil {
		return &access.Rejection{
			Kind:   access.KindBadRequest,
			Reason: "malformed request body",
			Err:    access.ErrInvalidInput,
		}
	}

	if msg, ok := validation.Struct(v); !ok {
		return &access.Rejection{
			Kind:   access.KindBadRequest,
			Reason: msg,
			Err:    access.ErrInvalidInput,
		}
	}

	return nil
}

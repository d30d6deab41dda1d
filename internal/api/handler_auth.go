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
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retr0h/gatehouse/internal/access"
	"github.com/retr0h/gatehouse/internal/session"
)

func sessionResponse(
	sess session.Session,
	withToken bool,
) SessionResponse {
	resp := SessionResponse{
		Username:  sess.Username,
		Role:      sess.Role,
		IssuedAt:  sess.IssuedAt,
		ExpiresAt: sess.ExpiresAt,
	}
	if withToken {
		resp.Token = sess.Token
	}

	return resp
}

func (s *Server) postLogin(
	c echo.Context,
) error {
	var body LoginRequest
	if err := s.bind(c, &body); err != nil {
		return s.reject(c, err)
	}

	sess, err := s.access.Login(c.Request().Context(), body.Username, body.Password, map[string]string{
		"remote_ip":  c.RealIP(),
		"user_agent": c.Request().UserAgent(),
	})
	if err != nil {
		return s.reject(c, err)
	}

	return c.JSON(http.StatusOK, sessionResponse(sess, true))
}

func (s *Server) postLogout(
	c echo.Context,
) error {
	token, err := access.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return s.reject(c, err)
	}

	if err := s.access.Logout(c.Request().Context(), token); err != nil {
		return s.reject(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getSession(
	c echo.Context,
) error {
	return c.JSON(http.StatusOK, sessionResponse(grantFrom(c).Session, false))
}

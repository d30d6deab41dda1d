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
)

func (s *Server) getUsers(
	c echo.Context,
) error {
	return c.JSON(http.StatusOK, UserListResponse{Users: s.access.Identities()})
}

func (s *Server) postUser(
	c echo.Context,
) error {
	var body CreateUserRequest
	if err := s.bind(c, &body); err != nil {
		return s.reject(c, err)
	}

	id, err := s.access.Register(
		c.Request().Context(),
		grantFrom(c).Session.Username,
		body.Username,
		body.Password,
		body.Role,
	)
	if err != nil {
		return s.reject(c, err)
	}

	return c.JSON(http.StatusCreated, id)
}

func (s *Server) putPassword(
	c echo.Context,
) error {
	var body ChangePasswordRequest
	if err := s.bind(c, &body); err != nil {
		return s.reject(c, err)
	}

	err := s.access.ChangePassword(
		c.Request().Context(),
		grantFrom(c).Session.Username,
		c.Param("username"),
		body.Password,
	)
	if err != nil {
		return s.reject(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

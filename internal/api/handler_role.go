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

	"github.com/retr0h/gatehouse/internal/authz"
)

func (s *Server) getRoles(
	c echo.Context,
) error {
	return c.JSON(http.StatusOK, RoleListResponse{Roles: s.access.Roles()})
}

func (s *Server) postRole(
	c echo.Context,
) error {
	var body AddRoleRequest
	if err := s.bind(c, &body); err != nil {
		return s.reject(c, err)
	}

	err := s.access.ApplyRoleCommand(c.Request().Context(), grantFrom(c).Session.Username, authz.AddRole{
		Name:        body.Name,
		Permissions: body.Permissions,
		Inherits:    body.Inherits,
	})
	if err != nil {
		return s.reject(c, err)
	}

	for _, info := range s.access.Roles() {
		if info.Name == body.Name {
			return c.JSON(http.StatusCreated, info)
		}
	}

	return c.NoContent(http.StatusCreated)
}

func (s *Server) putRolePermission(
	c echo.Context,
) error {
	return s.roleCommand(c, authz.Grant{
		Role:       c.Param("role"),
		Permission: c.Param("permission"),
	})
}

func (s *Server) deleteRolePermission(
	c echo.Context,
) error {
	return s.roleCommand(c, authz.Revoke{
		Role:       c.Param("role"),
		Permission: c.Param("permission"),
	})
}

func (s *Server) roleCommand(
	c echo.Context,
	cmd authz.Command,
) error {
	if err := s.access.ApplyRoleCommand(
		c.Request().Context(),
		grantFrom(c).Session.Username,
		cmd,
	); err != nil {
		return s.reject(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

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
	"github.com/retr0h/gatehouse/internal/authz"
)

// postQuery screens a free-text query. Interpretation happens downstream;
// this endpoint only admits or rejects the text.
func (s *Server) postQuery(
	c echo.Context,
) error {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if _, err := access.ExtractBearer(header); err != nil {
		return s.reject(c, err)
	}

	var body QueryRequest
	if err := s.bind(c, &body); err != nil {
		return s.reject(c, err)
	}

	grant, err := s.access.Authorize(c.Request().Context(), access.Request{
		Authorization: header,
		Permission:    authz.PermQueryExecute,
		RateLimit:     s.queryRule,
		Input:         &body.Query,
	})
	if err != nil {
		return s.reject(c, err)
	}

	return c.JSON(http.StatusOK, QueryResponse{
		Query:  grant.Input,
		Status: "accepted",
	})
}

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
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/retr0h/gatehouse/internal/access"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 1000
)

func queryInt(
	c echo.Context,
	name string,
	def int,
) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}

	return n, true
}

func (s *Server) getAudit(
	c echo.Context,
) error {
	limit, okLimit := queryInt(c, "limit", defaultAuditLimit)
	offset, okOffset := queryInt(c, "offset", 0)
	if !okLimit || !okOffset || limit == 0 {
		return s.reject(c, &access.Rejection{
			Kind:   access.KindBadRequest,
			Reason: "limit and offset must be non-negative integers and limit must be positive",
			Err:    access.ErrInvalidInput,
		})
	}

	events, total, err := s.reader.List(c.Request().Context(), min(limit, maxAuditLimit), offset)
	if err != nil {
		return s.reject(c, err)
	}

	return c.JSON(http.StatusOK, AuditListResponse{
		Events: events,
		Total:  total,
	})
}

func (s *Server) getAuditVerify(
	c echo.Context,
) error {
	result, err := s.verifier.Verify()
	if err != nil {
		return s.reject(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

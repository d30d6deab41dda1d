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

package export

import (
	"context"
	"time"

	"github.com/retr0h/gatehouse/internal/audit"
)

// Fetcher returns up to limit events starting at offset, plus the total
// number of events available.
type Fetcher func(
	ctx context.Context,
	limit int,
	offset int,
) ([]audit.Event, int, error)

// Exporter receives events from Run.
type Exporter interface {
	Open(ctx context.Context) error
	Write(ctx context.Context, event audit.Event) error
	Close(ctx context.Context) error
}

// Filter selects which events are exported. Zero fields match anything.
type Filter struct {
	// Actor matches the event actor exactly.
	Actor string
	// Action matches the event action exactly.
	Action string
	// Status matches the event status exactly.
	Status audit.Status
	// Since excludes events recorded before it.
	Since time.Time
}

// Match reports whether event passes the filter.
func (f Filter) Match(
	event audit.Event,
) bool {
	if f.Actor != "" && event.Actor != f.Actor {
		return false
	}
	if f.Action != "" && event.Action != f.Action {
		return false
	}
	if f.Status != "" && event.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && event.Timestamp.Before(f.Since) {
		return false
	}

	return true
}

// Result summarizes an export run.
type Result struct {
	// TotalEntries is the number of events the fetcher reported.
	TotalEntries int
	// ExportedEntries is the number of events written to the exporter.
	ExportedEntries int
	// FilteredEntries is the number of events excluded by the filter.
	FilteredEntries int
}

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

package cli

import (
	"context"
	"time"
)

// ShutdownTimeout bounds graceful shutdown in RunServer.
const ShutdownTimeout = 10 * time.Second

// Lifecycle is a long-running server or background worker.
type Lifecycle interface {
	// Start begins serving without blocking.
	Start()
	// Stop drains in-flight work until ctx expires.
	Stop(ctx context.Context)
}

// RunServer starts every server, blocks until ctx is cancelled, stops them
// in reverse order within ShutdownTimeout and then runs cleanup functions.
func RunServer(
	ctx context.Context,
	servers []Lifecycle,
	cleanupFns ...func(),
) {
	for _, s := range servers {
		s.Start()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	for i := len(servers) - 1; i >= 0; i-- {
		servers[i].Stop(shutdownCtx)
	}

	for _, fn := range cleanupFns {
		fn()
	}
}

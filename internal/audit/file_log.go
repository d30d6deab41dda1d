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

package audit

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	// maxLineSize bounds a single audit line when reading. Longer lines
	// are skipped.
	maxLineSize = 1 << 20

	readBufferSize = 64 * 1024
)

// ErrClosed is returned when recording to a closed log.
var ErrClosed = errors.New("audit log closed")

// ensure FileLog implements Store at compile time.
var _ Store = (*FileLog)(nil)

// Option configures a FileLog.
type Option func(*FileLog)

// WithForwarder publishes every recorded event to f after it is durable.
func WithForwarder(
	f Forwarder,
) Option {
	return func(l *FileLog) {
		l.forwarder = f
	}
}

// WithNow overrides the clock.
func WithNow(
	fn func() time.Time,
) Option {
	return func(l *FileLog) {
		l.now = fn
	}
}

// FileLog is a Store backed by a JSON lines file. Appends are serialized
// by a single writer mutex and issued as one write to a file opened with
// O_APPEND, then synced.
type FileLog struct {
	logger    *slog.Logger
	appFs     afero.Fs
	path      string
	forwarder Forwarder
	now       func() time.Time

	mu       sync.Mutex
	file     afero.File
	seq      uint64
	lastHash string
}

// Open opens the audit log at path for appending, creating it when missing,
// and resumes the hash chain from the last well-formed event.
func Open(
	logger *slog.Logger,
	appFs afero.Fs,
	path string,
	opts ...Option,
) (*FileLog, error) {
	l := &FileLog{
		logger: logger,
		appFs:  appFs,
		path:   path,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := appFs.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create audit directory: %w", err)
		}
	}

	err := l.IterateAll(func(e Event) error {
		l.seq = e.Seq
		l.lastHash = e.Hash
		return nil
	})
	if err != nil {
		return nil, err
	}

	f, err := appFs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	if err := terminateTail(appFs, path, f); err != nil {
		_ = f.Close()
		return nil, err
	}
	l.file = f

	logger.Debug(
		"opened audit log",
		slog.String("path", path),
		slog.Uint64("seq", l.seq),
	)

	return l, nil
}

// Record appends an info-level event.
func (l *FileLog) Record(
	ctx context.Context,
	actor string,
	action string,
	status Status,
	details map[string]string,
) (Event, error) {
	return l.RecordEvent(ctx, Event{
		Actor:   actor,
		Action:  action,
		Status:  status,
		Level:   LevelInfo,
		Details: details,
	})
}

// RecordEvent appends event. ID, Seq, Timestamp, PrevHash and Hash are
// assigned by the log; Level defaults to info.
func (l *FileLog) RecordEvent(
	ctx context.Context,
	event Event,
) (Event, error) {
	event.Details = maps.Clone(event.Details)
	if event.Level == "" {
		event.Level = LevelInfo
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	l.mu.Lock()
	if l.file == nil {
		l.mu.Unlock()
		return Event{}, ErrClosed
	}

	event.Seq = l.seq + 1
	event.Timestamp = l.now().UTC()
	event.PrevHash = l.lastHash

	hash, err := computeHash(event)
	if err != nil {
		l.mu.Unlock()
		return Event{}, err
	}
	event.Hash = hash

	data, err := json.Marshal(event)
	if err != nil {
		l.mu.Unlock()
		return Event{}, fmt.Errorf("marshal audit event: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		l.mu.Unlock()
		return Event{}, fmt.Errorf("append audit event: %w", err)
	}

	if err := l.file.Sync(); err != nil {
		l.mu.Unlock()
		return Event{}, fmt.Errorf("sync audit log: %w", err)
	}

	l.seq = event.Seq
	l.lastHash = event.Hash
	l.mu.Unlock()

	if l.forwarder != nil {
		if err := l.forwarder.Forward(ctx, event); err != nil {
			l.logger.Warn(
				"failed to forward audit event",
				slog.String("id", event.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return event, nil
}

// IterateAll calls fn for every well-formed event in write order. Malformed
// lines are skipped. Iteration stops at the first error returned by fn.
func (l *FileLog) IterateAll(
	fn func(Event) error,
) error {
	_, err := l.scan(fn)

	return err
}

// Tail returns the n most recent events in write order.
func (l *FileLog) Tail(
	n int,
) ([]Event, error) {
	if n <= 0 {
		return []Event{}, nil
	}

	ring := make([]Event, 0, n)
	start := 0
	_, err := l.scan(func(e Event) error {
		if len(ring) < n {
			ring = append(ring, e)
			return nil
		}
		ring[start] = e
		start = (start + 1) % n
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(ring))
	out = append(out, ring[start:]...)
	out = append(out, ring[:start]...)

	return out, nil
}

// List returns up to limit events starting at offset in write order, along
// with the total number of events.
func (l *FileLog) List(
	ctx context.Context,
	limit int,
	offset int,
) ([]Event, int, error) {
	events := make([]Event, 0, max(limit, 0))
	total := 0

	_, err := l.scan(func(e Event) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if total >= offset && len(events) < limit {
			events = append(events, e)
		}
		total++
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// Verify recomputes every event hash and checks that each event links to
// its predecessor.
func (l *FileLog) Verify() (VerifyResult, error) {
	result := VerifyResult{Intact: true}

	var prev *Event
	skipped, err := l.scan(func(e Event) error {
		result.Events++
		if !result.Intact {
			return nil
		}

		fail := func(reason string) {
			result.Intact = false
			result.BrokenAt = e.Seq
			result.Reason = reason
		}

		want, err := computeHash(e)
		switch {
		case err != nil:
			fail(err.Error())
		case want != e.Hash:
			fail("hash mismatch")
		case prev == nil && e.PrevHash != "":
			fail("first event links to a missing predecessor")
		case prev != nil && e.PrevHash != prev.Hash:
			fail("previous hash mismatch")
		case prev != nil && e.Seq != prev.Seq+1:
			fail(fmt.Sprintf("sequence gap after %d", prev.Seq))
		}

		ev := e
		prev = &ev
		return nil
	})
	if err != nil {
		return VerifyResult{}, err
	}

	result.Skipped = skipped

	return result, nil
}

// Close closes the underlying file. Further records fail with ErrClosed.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	err := l.file.Close()
	l.file = nil

	return err
}

// scan reads the log front to back, calling fn for each well-formed event,
// and returns the number of skipped lines. A missing file has no events.
func (l *FileLog) scan(
	fn func(Event) error,
) (int, error) {
	f, err := l.appFs.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()

	return scanLines(l.logger, f, fn)
}

func scanLines(
	logger *slog.Logger,
	r io.Reader,
	fn func(Event) error,
) (int, error) {
	br := bufio.NewReaderSize(r, readBufferSize)

	skipped := 0
	line := 0
	buf := make([]byte, 0, readBufferSize)
	oversized := false

	for {
		chunk, err := br.ReadSlice('\n')
		if err != nil && !errors.Is(err, bufio.ErrBufferFull) && !errors.Is(err, io.EOF) {
			return skipped, fmt.Errorf("read audit log: %w", err)
		}

		if !oversized {
			if len(buf)+len(chunk) > maxLineSize {
				oversized = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}

		// the line continues past the reader's buffer
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		eof := errors.Is(err, io.EOF)
		if eof && len(buf) == 0 && !oversized {
			return skipped, nil
		}

		line++
		raw := bytes.TrimRight(buf, "\r\n")
		tooLong := oversized
		buf = buf[:0]
		oversized = false

		switch {
		case tooLong:
			skipped++
			logger.Debug(
				"skipping oversized audit line",
				slog.Int("line", line),
				slog.Int("max_bytes", maxLineSize),
			)
		case len(raw) == 0:
		default:
			var e Event
			if err := json.Unmarshal(raw, &e); err != nil || e.ID == "" || e.Seq == 0 {
				skipped++
				logger.Debug(
					"skipping malformed audit line",
					slog.Int("line", line),
				)
				break
			}

			if err := fn(e); err != nil {
				return skipped, err
			}
		}

		if eof {
			return skipped, nil
		}
	}
}

// terminateTail appends a newline when the log ends in a partial line, so
// the next event starts on a line of its own.
func terminateTail(
	appFs afero.Fs,
	path string,
	w afero.File,
) error {
	r, err := appFs.Open(path)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = r.Close() }()

	info, err := r.Stat()
	if err != nil {
		return fmt.Errorf("stat audit log: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := r.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read audit log tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}

	if _, err := w.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("terminate partial audit line: %w", err)
	}

	return w.Sync()
}

// computeHash returns the hex SHA-256 of e encoded with an empty Hash.
func computeHash(
	e Event,
) (string, error) {
	e.Hash = ""

	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal audit event: %w", err)
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}

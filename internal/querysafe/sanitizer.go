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

// Package querysafe normalises free-text input and rejects strings that
// carry destructive or comment-injection tokens.
package querysafe

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength bounds sanitized input when no limit is configured.
const DefaultMaxLength = 1024

// Rejection reasons.
const (
	ReasonEmpty        = "empty"
	ReasonTooLong      = "too_long"
	ReasonUnsafeTokens = "unsafe_tokens"
)

// ErrUnsafeInput is wrapped by every RejectError.
var ErrUnsafeInput = errors.New("unsafe input")

// DefaultKeywords are rejected as whole words, case-insensitively.
var DefaultKeywords = []string{
	"drop",
	"delete",
	"truncate",
	"shutdown",
	"alter",
	"exec",
	"kill",
}

// markers are rejected wherever they appear.
var markers = []string{"--", "/*", "*/", ";"}

var whitespaceRe = regexp.MustCompile(`\s+`)

// RejectError describes why input was refused.
type RejectError struct {
	// Reason is one of the Reason constants.
	Reason string
	// Matched is the offending token, when there is one.
	Matched string
}

// Error implements error.
func (e *RejectError) Error() string {
	if e.Matched != "" {
		return fmt.Sprintf("%s: %s (%q)", ErrUnsafeInput, e.Reason, e.Matched)
	}

	return fmt.Sprintf("%s: %s", ErrUnsafeInput, e.Reason)
}

// Unwrap returns ErrUnsafeInput.
func (e *RejectError) Unwrap() error {
	return ErrUnsafeInput
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithMaxLength sets the maximum sanitized length in runes.
func WithMaxLength(
	n int,
) Option {
	return func(s *Sanitizer) {
		if n > 0 {
			s.maxLength = n
		}
	}
}

// WithExtraKeywords adds whole-word keywords to the denylist.
func WithExtraKeywords(
	words ...string,
) Option {
	return func(s *Sanitizer) {
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				s.keywords = append(s.keywords, w)
			}
		}
	}
}

// Sanitizer normalises and screens free-text input. It is safe for
// concurrent use.
type Sanitizer struct {
	maxLength int
	keywords  []string
	keywordRe *regexp.Regexp
}

// New creates a Sanitizer with the default denylist.
func New(
	opts ...Option,
) *Sanitizer {
	s := &Sanitizer{
		maxLength: DefaultMaxLength,
		keywords:  append([]string(nil), DefaultKeywords...),
	}

	for _, opt := range opts {
		opt(s)
	}

	quoted := make([]string, 0, len(s.keywords))
	for _, k := range s.keywords {
		quoted = append(quoted, regexp.QuoteMeta(k))
	}
	s.keywordRe = regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)

	return s
}

// normalise applies NFKC and removes invisible format characters such as
// zero-width spaces and soft hyphens. Chained transformers hold state, so
// one is built per call.
func normalise(
	raw string,
) (string, error) {
	t := transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Cf)))
	out, _, err := transform.String(t, raw)

	return out, err
}

// Sanitize returns the normalised form of raw or a *RejectError. Input is
// NFKC-normalised with format characters removed, whitespace runs collapse
// to a single space, and trailing statement terminators are stripped
// before screening.
func (s *Sanitizer) Sanitize(
	raw string,
) (string, error) {
	out, err := normalise(raw)
	if err != nil {
		return "", &RejectError{Reason: ReasonUnsafeTokens}
	}
	out = whitespaceRe.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)

	for strings.HasSuffix(out, ";") {
		out = strings.TrimSpace(strings.TrimSuffix(out, ";"))
	}

	if out == "" {
		return "", &RejectError{Reason: ReasonEmpty}
	}

	if len([]rune(out)) > s.maxLength {
		return "", &RejectError{Reason: ReasonTooLong}
	}

	for _, m := range markers {
		if strings.Contains(out, m) {
			return "", &RejectError{Reason: ReasonUnsafeTokens, Matched: m}
		}
	}

	if match := s.keywordRe.FindString(out); match != "" {
		return "", &RejectError{Reason: ReasonUnsafeTokens, Matched: strings.ToLower(match)}
	}

	return out, nil
}

// Reason extracts the rejection reason from err, or "" when err is not a
// RejectError.
func Reason(
	err error,
) string {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Reason
	}

	return ""
}

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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrPasswordMismatch is returned when the confirmation differs.
var ErrPasswordMismatch = errors.New("passwords do not match")

// PasswordReader reads a secret from a terminal or a pipe.
type PasswordReader struct {
	in     *os.File
	out    io.Writer
	piped  *bufio.Reader
	isTerm func(fd int) bool
}

// NewPasswordReader reads from in and prompts on out. Input that is not a
// terminal is read line by line without echo control.
func NewPasswordReader(
	in *os.File,
	out io.Writer,
) *PasswordReader {
	return &PasswordReader{
		in:     in,
		out:    out,
		isTerm: term.IsTerminal,
	}
}

func (p *PasswordReader) read(
	prompt string,
) (string, error) {
	_, _ = fmt.Fprint(p.out, prompt)

	if p.isTerm(int(p.in.Fd())) {
		b, err := term.ReadPassword(int(p.in.Fd()))
		_, _ = fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}

		return string(b), nil
	}

	if p.piped == nil {
		p.piped = bufio.NewReader(p.in)
	}

	line, err := p.piped.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// ReadNew prompts twice and returns the password when both entries match.
func (p *PasswordReader) ReadNew() (string, error) {
	first, err := p.read("New password: ")
	if err != nil {
		return "", err
	}

	second, err := p.read("Confirm password: ")
	if err != nil {
		return "", err
	}

	if first != second {
		return "", ErrPasswordMismatch
	}

	return first, nil
}

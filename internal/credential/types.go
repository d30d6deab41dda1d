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

// Package credential stores identity records and verifies passwords.
package credential

import (
	"errors"
	"time"
)

var (
	// ErrAlreadyExists is returned when registering a username that is taken.
	ErrAlreadyExists = errors.New("identity already exists")
	// ErrNotFound is returned when an identity does not exist.
	ErrNotFound = errors.New("identity not found")
	// ErrUnknownRole is returned when a role is not known to the registry.
	ErrUnknownRole = errors.New("unknown role")
	// ErrWeakPassword is returned when a password fails the strength policy.
	ErrWeakPassword = errors.New("password does not meet strength policy")
	// ErrInvalidUsername is returned when a username has an invalid format.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrPersist is returned when the identity table cannot be written.
	ErrPersist = errors.New("persist identity table")
)

// Record is the stored form of one identity. Salt and Verifier are hex
// encoded; Verifier is derived with Iterations rounds of PBKDF2-HMAC-SHA256.
type Record struct {
	Username   string    `yaml:"username"`
	Salt       string    `yaml:"salt"`
	Verifier   string    `yaml:"verifier"`
	Iterations int       `yaml:"iterations"`
	Role       string    `yaml:"role"`
	CreatedAt  time.Time `yaml:"created_at"`
	UpdatedAt  time.Time `yaml:"updated_at"`
}

// Identity is the public view of a Record. It never carries password
// material.
type Identity struct {
	// Username is the unique, immutable identifier.
	Username string `json:"username"`
	// Role is the assigned role name.
	Role string `json:"role"`
	// CreatedAt is when the identity was registered.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the password was last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleChecker reports whether a role name is known.
type RoleChecker interface {
	HasRole(name string) bool
}

// table is the on-disk document.
type table struct {
	Users map[string]Record `yaml:"users"`
}

func (r *Record) identity() Identity {
	return Identity{
		Username:  r.Username,
		Role:      r.Role,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

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

package authz

import "fmt"

// Command is a role-management operation. The set of commands is closed:
// AddRole, Grant and Revoke.
type Command interface {
	// Kind names the command for logging and auditing.
	Kind() string
	apply(r *Registry) error
}

// AddRole defines a new role that may inherit existing roles.
type AddRole struct {
	Name        string
	Permissions []string
	Inherits    []string
}

// Grant adds a permission to a role's own set.
type Grant struct {
	Role       string
	Permission string
}

// Revoke removes a permission from a role's own set.
type Revoke struct {
	Role       string
	Permission string
}

// Kind implements Command.
func (AddRole) Kind() string { return "role.add" }

// Kind implements Command.
func (Grant) Kind() string { return "role.grant" }

// Kind implements Command.
func (Revoke) Kind() string { return "role.revoke" }

// Apply runs cmd under the registry's write lock.
func (r *Registry) Apply(
	cmd Command,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return cmd.apply(r)
}

// apply can only reference existing roles as parents, so adding a role never
// introduces a cycle.
func (c AddRole) apply(
	r *Registry,
) error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty role name", ErrInvalidArgument)
	}

	if _, ok := r.own[c.Name]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, c.Name)
	}

	for _, p := range c.Inherits {
		if _, ok := r.own[p]; !ok {
			return fmt.Errorf("%w: %q inherits %q", ErrUnknownRole, c.Name, p)
		}
	}

	perms := make(map[string]struct{}, len(c.Permissions))
	for _, p := range c.Permissions {
		if p == "" {
			return fmt.Errorf("%w: empty permission", ErrInvalidArgument)
		}
		perms[p] = struct{}{}
	}

	r.own[c.Name] = perms
	r.parents[c.Name] = append([]string(nil), c.Inherits...)

	return nil
}

func (c Grant) apply(
	r *Registry,
) error {
	perms, ok := r.own[c.Role]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRole, c.Role)
	}

	if c.Permission == "" {
		return fmt.Errorf("%w: empty permission", ErrInvalidArgument)
	}

	perms[c.Permission] = struct{}{}

	return nil
}

func (c Revoke) apply(
	r *Registry,
) error {
	perms, ok := r.own[c.Role]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRole, c.Role)
	}

	delete(perms, c.Permission)

	return nil
}

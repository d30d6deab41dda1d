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

// Package authz resolves role permissions through an acyclic inheritance
// graph.
package authz

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownRole is returned when a role is not defined.
	ErrUnknownRole = errors.New("unknown role")
	// ErrCycle is returned when role inheritance forms a cycle.
	ErrCycle = errors.New("role inheritance cycle")
	// ErrAlreadyExists is returned when adding a role that is defined.
	ErrAlreadyExists = errors.New("role already exists")
	// ErrPermissionDenied is returned by Require when a role lacks a
	// permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidArgument is returned for empty role or permission names.
	ErrInvalidArgument = errors.New("invalid argument")
)

// RoleInfo describes one role for listings.
type RoleInfo struct {
	// Name is the role name.
	Name string `json:"name"`
	// Inherits are the directly inherited roles.
	Inherits []string `json:"inherits"`
	// Permissions are the role's own permissions.
	Permissions []string `json:"permissions"`
	// Effective is the resolved permission set including inherited roles.
	Effective []string `json:"effective"`
}

// Registry owns the role graph. Reads take the read lock; commands take the
// write lock.
type Registry struct {
	mu      sync.RWMutex
	own     map[string]map[string]struct{}
	parents map[string][]string
}

// New builds a registry from defs, validating that every inherited role is
// defined and that inheritance is acyclic.
func New(
	defs map[string]RoleDefinition,
) (*Registry, error) {
	r := &Registry{
		own:     make(map[string]map[string]struct{}, len(defs)),
		parents: make(map[string][]string, len(defs)),
	}

	for name, def := range defs {
		if name == "" {
			return nil, fmt.Errorf("%w: empty role name", ErrInvalidArgument)
		}

		perms := make(map[string]struct{}, len(def.Permissions))
		for _, p := range def.Permissions {
			if p == "" {
				return nil, fmt.Errorf("%w: empty permission in role %q", ErrInvalidArgument, name)
			}
			perms[p] = struct{}{}
		}

		r.own[name] = perms
		r.parents[name] = append([]string(nil), def.Inherits...)
	}

	for name, parents := range r.parents {
		for _, p := range parents {
			if _, ok := r.own[p]; !ok {
				return nil, fmt.Errorf("%w: %q inherits %q", ErrUnknownRole, name, p)
			}
		}
	}

	if err := r.checkAcyclic(); err != nil {
		return nil, err
	}

	return r, nil
}

// NewDefault builds a registry holding the built-in roles.
func NewDefault() *Registry {
	r, err := New(DefaultRoles())
	if err != nil {
		panic(fmt.Sprintf("built-in roles are invalid: %v", err))
	}

	return r
}

func (r *Registry) checkAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, len(r.own))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w: %v", ErrCycle, append(path, name))
		case done:
			return nil
		}

		state[name] = visiting
		for _, p := range r.parents[name] {
			if err := visit(p, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done

		return nil
	}

	for _, name := range sortedKeys(r.own) {
		if err := visit(name, nil); err != nil {
			return err
		}
	}

	return nil
}

// PermissionsOf returns the sorted permission set of role. When
// includeInherited is true the sets of all transitively inherited roles are
// included.
func (r *Registry) PermissionsOf(
	role string,
	includeInherited bool,
) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.own[role]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	if !includeInherited {
		return sortedKeys(r.own[role]), nil
	}

	return sortedKeys(r.resolve(role)), nil
}

// resolve unions role's own set with every inherited role's set. Callers
// hold at least the read lock.
func (r *Registry) resolve(
	role string,
) map[string]struct{} {
	out := make(map[string]struct{})
	seen := make(map[string]bool)

	stack := []string{role}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[name] {
			continue
		}
		seen[name] = true

		for p := range r.own[name] {
			out[p] = struct{}{}
		}
		stack = append(stack, r.parents[name]...)
	}

	return out
}

// Has reports whether role holds permission directly or through
// inheritance. Unknown roles hold nothing.
func (r *Registry) Has(
	role string,
	permission string,
) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.own[role]; !ok {
		return false
	}

	seen := make(map[string]bool)
	stack := []string{role}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[name] {
			continue
		}
		seen[name] = true

		if _, ok := r.own[name][permission]; ok {
			return true
		}
		stack = append(stack, r.parents[name]...)
	}

	return false
}

// Require returns ErrPermissionDenied when role does not hold permission.
func (r *Registry) Require(
	role string,
	permission string,
) error {
	if !r.Has(role, permission) {
		return fmt.Errorf("%w: role %q lacks %q", ErrPermissionDenied, role, permission)
	}

	return nil
}

// HasRole reports whether name is a defined role.
func (r *Registry) HasRole(
	name string,
) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.own[name]

	return ok
}

// Roles returns the sorted role names.
func (r *Registry) Roles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortedKeys(r.own)
}

// Describe returns every role with its own and effective permissions,
// sorted by name.
func (r *Registry) Describe() []RoleInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := sortedKeys(r.own)
	out := make([]RoleInfo, 0, len(names))
	for _, name := range names {
		inherits := append([]string{}, r.parents[name]...)
		sort.Strings(inherits)

		out = append(out, RoleInfo{
			Name:        name,
			Inherits:    inherits,
			Permissions: sortedKeys(r.own[name]),
			Effective:   sortedKeys(r.resolve(name)),
		})
	}

	return out
}

// AddRole defines a new role.
func (r *Registry) AddRole(
	name string,
	permissions []string,
	inherits []string,
) error {
	return r.Apply(AddRole{Name: name, Permissions: permissions, Inherits: inherits})
}

// Grant adds permission to role's own set.
func (r *Registry) Grant(
	role string,
	permission string,
) error {
	return r.Apply(Grant{Role: role, Permission: permission})
}

// Revoke removes permission from role's own set. Inherited permissions are
// unaffected.
func (r *Registry) Revoke(
	role string,
	permission string,
) error {
	return r.Apply(Revoke{Role: role, Permission: permission})
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

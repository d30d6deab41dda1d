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

package authz_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/retr0h/gatehouse/internal/authz"
)

type RegistryPublicTestSuite struct {
	suite.Suite
}

func (s *RegistryPublicTestSuite) TestNew() {
	tests := []struct {
		name         string
		defs         map[string]authz.RoleDefinition
		validateFunc func(r *authz.Registry, err error)
	}{
		{
			name: "when built-in roles are valid",
			defs: authz.DefaultRoles(),
			validateFunc: func(r *authz.Registry, err error) {
				s.NoError(err)
				s.Equal([]string{"admin", "analyst", "viewer"}, r.Roles())
			},
		},
		{
			name: "when parent role is undefined",
			defs: map[string]authz.RoleDefinition{
				"auditor": {Permissions: []string{"audit:read"}, Inherits: []string{"ghost"}},
			},
			validateFunc: func(_ *authz.Registry, err error) {
				s.ErrorIs(err, authz.ErrUnknownRole)
				s.Contains(err.Error(), "ghost")
			},
		},
		{
			name: "when inheritance is a direct cycle",
			defs: map[string]authz.RoleDefinition{
				"a": {Inherits: []string{"b"}},
				"b": {Inherits: []string{"a"}},
			},
			validateFunc: func(_ *authz.Registry, err error) {
				s.ErrorIs(err, authz.ErrCycle)
			},
		},
		{
			name: "when role inherits itself",
			defs: map[string]authz.RoleDefinition{
				"a": {Inherits: []string{"a"}},
			},
			validateFunc: func(_ *authz.Registry, err error) {
				s.ErrorIs(err, authz.ErrCycle)
			},
		},
		{
			name: "when inheritance is a diamond",
			defs: map[string]authz.RoleDefinition{
				"base":  {Permissions: []string{"events:read"}},
				"left":  {Permissions: []string{"left:read"}, Inherits: []string{"base"}},
				"right": {Permissions: []string{"right:read"}, Inherits: []string{"base"}},
				"top":   {Inherits: []string{"left", "right"}},
			},
			validateFunc: func(r *authz.Registry, err error) {
				s.Require().NoError(err)
				perms, err := r.PermissionsOf("top", true)
				s.NoError(err)
				s.Equal([]string{"events:read", "left:read", "right:read"}, perms)
			},
		},
		{
			name: "when permission is empty",
			defs: map[string]authz.RoleDefinition{
				"a": {Permissions: []string{""}},
			},
			validateFunc: func(_ *authz.Registry, err error) {
				s.ErrorIs(err, authz.ErrInvalidArgument)
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			r, err := authz.New(tt.defs)
			tt.validateFunc(r, err)
		})
	}
}

func (s *RegistryPublicTestSuite) TestHas() {
	r := authz.NewDefault()

	tests := []struct {
		name          string
		role          string
		expectPerms   []string
		expectMissing []string
	}{
		{
			name:        "when admin inherits every built-in permission",
			role:        authz.RoleAdmin,
			expectPerms: authz.AllPermissions,
		},
		{
			name: "when analyst inherits viewer",
			role: authz.RoleAnalyst,
			expectPerms: []string{
				authz.PermEventsRead,
				authz.PermDashboardsRead,
				authz.PermQueryExecute,
				authz.PermEventsExport,
			},
			expectMissing: []string{
				authz.PermUsersCreate,
				authz.PermAuditRead,
			},
		},
		{
			name: "when viewer holds only read permissions",
			role: authz.RoleViewer,
			expectPerms: []string{
				authz.PermEventsRead,
				authz.PermDashboardsRead,
			},
			expectMissing: []string{
				authz.PermQueryExecute,
				authz.PermUsersCreate,
			},
		},
		{
			name:          "when role is unknown",
			role:          "ghost",
			expectMissing: authz.AllPermissions,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			for _, p := range tt.expectPerms {
				s.True(r.Has(tt.role, p), "expected %s to hold %s", tt.role, p)
			}
			for _, p := range tt.expectMissing {
				s.False(r.Has(tt.role, p), "expected %s to lack %s", tt.role, p)
			}
		})
	}
}

func (s *RegistryPublicTestSuite) TestPermissionsOf() {
	r := authz.NewDefault()

	tests := []struct {
		name             string
		role             string
		includeInherited bool
		validateFunc     func(perms []string, err error)
	}{
		{
			name:             "when own permissions only",
			role:             authz.RoleAnalyst,
			includeInherited: false,
			validateFunc: func(perms []string, err error) {
				s.NoError(err)
				s.Equal([]string{authz.PermEventsExport, authz.PermQueryExecute}, perms)
			},
		},
		{
			name:             "when inherited permissions are included",
			role:             authz.RoleAnalyst,
			includeInherited: true,
			validateFunc: func(perms []string, err error) {
				s.NoError(err)
				s.Equal([]string{
					authz.PermDashboardsRead,
					authz.PermEventsExport,
					authz.PermEventsRead,
					authz.PermQueryExecute,
				}, perms)
			},
		},
		{
			name:             "when role is unknown",
			role:             "ghost",
			includeInherited: true,
			validateFunc: func(_ []string, err error) {
				s.ErrorIs(err, authz.ErrUnknownRole)
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			perms, err := r.PermissionsOf(tt.role, tt.includeInherited)
			tt.validateFunc(perms, err)
		})
	}
}

func (s *RegistryPublicTestSuite) TestRequire() {
	r := authz.NewDefault()

	tests := []struct {
		name       string
		role       string
		permission string
		wantErr    bool
	}{
		{
			name:       "when admin requires users:create",
			role:       authz.RoleAdmin,
			permission: authz.PermUsersCreate,
			wantErr:    false,
		},
		{
			name:       "when viewer requires users:create",
			role:       authz.RoleViewer,
			permission: authz.PermUsersCreate,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := r.Require(tt.role, tt.permission)
			if tt.wantErr {
				s.ErrorIs(err, authz.ErrPermissionDenied)
				s.Contains(err.Error(), tt.permission)
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *RegistryPublicTestSuite) TestApply() {
	tests := []struct {
		name         string
		cmds         []authz.Command
		validateFunc func(r *authz.Registry, err error)
	}{
		{
			name: "when adding a role inheriting viewer",
			cmds: []authz.Command{
				authz.AddRole{
					Name:        "auditor",
					Permissions: []string{authz.PermAuditRead},
					Inherits:    []string{authz.RoleViewer},
				},
			},
			validateFunc: func(r *authz.Registry, err error) {
				s.NoError(err)
				s.True(r.HasRole("auditor"))
				s.True(r.Has("auditor", authz.PermAuditRead))
				s.True(r.Has("auditor", authz.PermEventsRead))
				s.False(r.Has("auditor", authz.PermQueryExecute))
			},
		},
		{
			name: "when adding a role that exists",
			cmds: []authz.Command{
				authz.AddRole{Name: authz.RoleViewer},
			},
			validateFunc: func(_ *authz.Registry, err error) {
				s.ErrorIs(err, authz.ErrAlreadyExists)
			},
		},
		{
			name: "when adding a role with an unknown parent",
			cmds: []authz.Command{
				authz.AddRole{Name: "auditor", Inherits: []string{"ghost"}},
			},
			validateFunc: func(r *authz.Registry, err error) {
				s.ErrorIs(err, authz.ErrUnknownRole)
				s.False(r.HasRole("auditor"))
			},
		},
		{
			name: "when granting reaches inheriting roles",
			cmds: []authz.Command{
				authz.Grant{Role: authz.RoleViewer, Permission: "reports:read"},
			},
			validateFunc: func(r *authz.Registry, err error) {
				s.NoError(err)
				s.True(r.Has(authz.RoleViewer, "reports:read"))
				s.True(r.Has(authz.RoleAdmin, "reports:read"))
			},
		},
		{
			name: "when granting to an unknown role",
			cmds: []authz.Command{
				authz.Grant{Role: "ghost", Permission: "reports:read"},
			},
			validateFunc: func(_ *authz.Registry, err error) {
				s.ErrorIs(err, authz.ErrUnknownRole)
			},
		},
		{
			name: "when revoking removes from inheriting roles",
			cmds: []authz.Command{
				authz.Revoke{Role: authz.RoleViewer, Permission: authz.PermDashboardsRead},
			},
			validateFunc: func(r *authz.Registry, err error) {
				s.NoError(err)
				s.False(r.Has(authz.RoleViewer, authz.PermDashboardsRead))
				s.False(r.Has(authz.RoleAdmin, authz.PermDashboardsRead))
				s.True(r.Has(authz.RoleViewer, authz.PermEventsRead))
			},
		},
		{
			name: "when revoking from an unknown role",
			cmds: []authz.Command{
				authz.Revoke{Role: "ghost", Permission: authz.PermEventsRead},
			},
			validateFunc: func(_ *authz.Registry, err error) {
				s.ErrorIs(err, authz.ErrUnknownRole)
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := authz.NewDefault()

			var err error
			for _, cmd := range tt.cmds {
				if err = r.Apply(cmd); err != nil {
					break
				}
			}
			tt.validateFunc(r, err)
		})
	}
}

func (s *RegistryPublicTestSuite) TestNamedWrappers() {
	r := authz.NewDefault()

	s.Require().NoError(r.AddRole("auditor", []string{authz.PermAuditRead}, nil))
	s.Require().NoError(r.Grant("auditor", authz.PermEventsRead))
	s.True(r.Has("auditor", authz.PermEventsRead))
	s.Require().NoError(r.Revoke("auditor", authz.PermEventsRead))
	s.False(r.Has("auditor", authz.PermEventsRead))
	s.Equal("role.add", authz.AddRole{}.Kind())
	s.Equal("role.grant", authz.Grant{}.Kind())
	s.Equal("role.revoke", authz.Revoke{}.Kind())
}

func (s *RegistryPublicTestSuite) TestDescribe() {
	infos := authz.NewDefault().Describe()

	s.Require().Len(infos, 3)
	s.Equal(authz.RoleAdmin, infos[0].Name)
	s.Equal([]string{authz.RoleAnalyst}, infos[0].Inherits)
	s.Len(infos[0].Effective, len(authz.AllPermissions))
	s.Equal(authz.RoleViewer, infos[2].Name)
	s.Empty(infos[2].Inherits)
}

func (s *RegistryPublicTestSuite) TestConcurrentReadsAndCommands() {
	r := authz.NewDefault()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Grant(authz.RoleViewer, fmt.Sprintf("extra:%d", i))
		}()
		go func() {
			defer wg.Done()
			s.True(r.Has(authz.RoleAdmin, authz.PermEventsRead))
		}()
	}
	wg.Wait()

	perms, err := r.PermissionsOf(authz.RoleViewer, false)
	s.NoError(err)
	s.Len(perms, 52)
}

func TestRegistryPublicTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryPublicTestSuite))
}

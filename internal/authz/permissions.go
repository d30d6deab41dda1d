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

// Permission represents a fine-grained resource:verb permission.
type Permission = string

// Permission constants using resource:verb format.
const (
	PermEventsRead     Permission = "events:read"
	PermEventsExport   Permission = "events:export"
	PermDashboardsRead Permission = "dashboards:read"
	PermQueryExecute   Permission = "query:execute"
	PermUsersCreate    Permission = "users:create"
	PermUsersRead      Permission = "users:read"
	PermUsersUpdate    Permission = "users:update"
	PermRolesRead      Permission = "roles:read"
	PermRolesManage    Permission = "roles:manage"
	PermAuditRead      Permission = "audit:read"
	PermSystemConfig   Permission = "system:config"
)

// Built-in role names.
const (
	RoleViewer  = "viewer"
	RoleAnalyst = "analyst"
	RoleAdmin   = "admin"
)

// AllPermissions is the full set of built-in permissions.
var AllPermissions = []Permission{
	PermEventsRead,
	PermEventsExport,
	PermDashboardsRead,
	PermQueryExecute,
	PermUsersCreate,
	PermUsersRead,
	PermUsersUpdate,
	PermRolesRead,
	PermRolesManage,
	PermAuditRead,
	PermSystemConfig,
}

// RoleDefinition is a role's own permissions and the roles it inherits.
type RoleDefinition struct {
	Permissions []string
	Inherits    []string
}

// DefaultRoles returns the built-in role graph: viewer is inherited by
// analyst, which is inherited by admin.
func DefaultRoles() map[string]RoleDefinition {
	return map[string]RoleDefinition{
		RoleViewer: {
			Permissions: []string{
				PermEventsRead,
				PermDashboardsRead,
			},
		},
		RoleAnalyst: {
			Permissions: []string{
				PermQueryExecute,
				PermEventsExport,
			},
			Inherits: []string{RoleViewer},
		},
		RoleAdmin: {
			Permissions: []string{
				PermUsersCreate,
				PermUsersRead,
				PermUsersUpdate,
				PermRolesRead,
				PermRolesManage,
				PermAuditRead,
				PermSystemConfig,
			},
			Inherits: []string{RoleAnalyst},
		},
	}
}

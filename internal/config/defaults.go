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

package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/retr0h/gatehouse/internal/authz"
	"github.com/retr0h/gatehouse/internal/credential"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "/etc/gatehouse/gatehouse.yaml"

// EnvPrefix prefixes environment overrides, e.g. GATEHOUSE_API_SERVER_PORT.
const EnvPrefix = "gatehouse"

// SetDefaults registers the built-in value of every key on v.
func SetDefaults(
	v *viper.Viper,
) {
	v.SetDefault("api.server.port", 8080)
	v.SetDefault("api.server.cors.allow_origins", []string{})
	v.SetDefault("api.server.flood.limit", 100)
	v.SetDefault("api.server.flood.window", time.Minute)

	v.SetDefault("credentials.path", "/var/lib/gatehouse/users.yaml")
	v.SetDefault("credentials.iterations", credential.DefaultIterations)

	v.SetDefault("sessions.ttl", 30*time.Minute)
	v.SetDefault("sessions.sweep_schedule", "@every 1m")

	v.SetDefault("rate_limits.login.limit", 5)
	v.SetDefault("rate_limits.login.window", 300*time.Second)
	v.SetDefault("rate_limits.query.limit", 30)
	v.SetDefault("rate_limits.query.window", time.Minute)
	v.SetDefault("rate_limits.audit_threshold", 3)

	v.SetDefault("audit.path", "/var/log/gatehouse/audit.jsonl")
	v.SetDefault("audit.nats.url", "")
	v.SetDefault("audit.nats.subject", "gatehouse.audit")
	v.SetDefault("audit.nats.auth.type", "none")
	v.SetDefault("audit.nats.auth.username", "")
	v.SetDefault("audit.nats.auth.password", "")
	v.SetDefault("audit.nats.auth.nkey_file", "")

	v.SetDefault("bootstrap.username", "admin")
	v.SetDefault("bootstrap.password", credential.DefaultBootstrapPassword)
	v.SetDefault("bootstrap.role", authz.RoleAdmin)

	v.SetDefault("query.max_length", 1024)
	v.SetDefault("query.denylist", []string{})

	v.SetDefault("telemetry.tracing.enabled", false)
	v.SetDefault("telemetry.tracing.exporter", "")
	v.SetDefault("telemetry.tracing.otlp_endpoint", "")
	v.SetDefault("telemetry.metrics.path", "/metrics")

	v.SetDefault("debug", false)
}

// RoleDefinitions returns the built-in roles with the configured roles
// layered on top. A configured role replaces a built-in of the same name.
func (c *Config) RoleDefinitions() map[string]authz.RoleDefinition {
	defs := authz.DefaultRoles()
	for name, r := range c.Roles {
		defs[name] = authz.RoleDefinition{
			Permissions: append([]string(nil), r.Permissions...),
			Inherits:    append([]string(nil), r.Inherits...),
		}
	}

	return defs
}

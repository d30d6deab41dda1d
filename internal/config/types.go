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

	"github.com/retr0h/gatehouse/internal/ratelimit"
)

// Config represents the root structure of the YAML configuration file.
// This struct is used to unmarshal configuration data from Viper.
type Config struct {
	API         API             `mapstructure:"api"`
	Credentials Credentials     `mapstructure:"credentials"`
	Sessions    Sessions        `mapstructure:"sessions"`
	RateLimits  RateLimits      `mapstructure:"rate_limits"`
	Audit       Audit           `mapstructure:"audit"       mask:"struct"`
	Bootstrap   Bootstrap       `mapstructure:"bootstrap"   mask:"struct"`
	Roles       map[string]Role `mapstructure:"roles"       validate:"dive"`
	Query       Query           `mapstructure:"query"`
	Telemetry   Telemetry       `mapstructure:"telemetry"`
	// Debug enable or disable debug option set from CLI.
	Debug bool `mapstructure:"debug"`
}

// API configuration settings.
type API struct {
	Server Server `mapstructure:"server"`
}

// Server configuration settings.
type Server struct {
	// Port the server will bind to.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
	// CORS Cross-Origin Resource Sharing (CORS) settings for the server.
	CORS CORS `mapstructure:"cors"`
	// Flood is the per-IP request guard applied before authentication.
	Flood ratelimit.Rule `mapstructure:"flood"`
}

// CORS represents the CORS (Cross-Origin Resource Sharing) settings.
type CORS struct {
	// List of origins allowed to access the server (e.g., "foo").
	AllowOrigins []string `mapstructure:"allow_origins,omitempty"`
}

// Credentials configures the identity table.
type Credentials struct {
	// Path is the YAML file holding identity records.
	Path string `mapstructure:"path" validate:"required"`
	// Iterations is the PBKDF2 round count for new verifiers.
	Iterations int `mapstructure:"iterations" validate:"min=1"`
}

// Sessions configures session lifetime.
type Sessions struct {
	// TTL is the sliding session lifetime.
	TTL time.Duration `mapstructure:"ttl" validate:"gt=0"`
	// SweepSchedule is the cron spec for removing expired sessions.
	// Empty disables the sweeper.
	SweepSchedule string `mapstructure:"sweep_schedule"`
}

// RateLimits configures per-identity throttling.
type RateLimits struct {
	// Login limits authentication attempts per username.
	Login ratelimit.Rule `mapstructure:"login"`
	// Query limits query submissions per identity.
	Query ratelimit.Rule `mapstructure:"query"`
	// AuditThreshold is the number of consecutive denials for one key at
	// which throttling is recorded in the audit log.
	AuditThreshold int `mapstructure:"audit_threshold" validate:"min=1"`
}

// Audit configures the audit log.
type Audit struct {
	// Path is the JSON lines audit file.
	Path string `mapstructure:"path" validate:"required"`
	// NATS optionally forwards events to a NATS subject.
	NATS AuditNATS `mapstructure:"nats" mask:"struct"`
}

// AuditNATS configures audit forwarding. Forwarding is disabled when URL is
// empty.
type AuditNATS struct {
	// URL is the NATS server URL, e.g. "nats://localhost:4222".
	URL string `mapstructure:"url"`
	// Subject is the subject prefix events are published under.
	Subject string `mapstructure:"subject" validate:"required_with=URL"`
	// Auth holds client-side authentication configuration.
	Auth NATSAuth `mapstructure:"auth" mask:"struct"`
}

// NATSAuth holds client-side authentication settings for connecting to NATS.
type NATSAuth struct {
	// Type is the auth method: "none", "user_pass", or "nkey".
	Type string `mapstructure:"type" validate:"omitempty,oneof=none user_pass nkey"`
	// Username for user_pass auth.
	Username string `mapstructure:"username"`
	// Password for user_pass auth.
	Password string `mapstructure:"password"  mask:"password"`
	// NKeyFile path to the NKey seed file for nkey auth.
	NKeyFile string `mapstructure:"nkey_file"`
}

// Bootstrap configures the administrator created on first start.
type Bootstrap struct {
	// Username of the bootstrap administrator.
	Username string `mapstructure:"username" validate:"required,username"`
	// Password of the bootstrap administrator.
	Password string `mapstructure:"password" validate:"required,strong_password" mask:"password"`
	// Role assigned to the bootstrap administrator.
	Role string `mapstructure:"role" validate:"required"`
}

// Role defines a custom role or overrides a built-in one.
type Role struct {
	// Permissions granted directly to this role.
	Permissions []string `mapstructure:"permissions" validate:"dive,required"`
	// Inherits lists roles whose permissions this role also holds.
	Inherits []string `mapstructure:"inherits" validate:"dive,required"`
}

// Query configures free-text input screening.
type Query struct {
	// MaxLength is the maximum sanitized input length in characters.
	MaxLength int `mapstructure:"max_length" validate:"min=1"`
	// Denylist adds whole-word keywords to the built-in denylist.
	Denylist []string `mapstructure:"denylist"`
}

// Telemetry configuration settings.
type Telemetry struct {
	Tracing TracingConfig `mapstructure:"tracing,omitempty"`
	Metrics MetricsConfig `mapstructure:"metrics,omitempty"`
}

// MetricsConfig configuration settings for Prometheus metrics.
type MetricsConfig struct {
	// Path is the HTTP path for the Prometheus scrape endpoint.
	// Defaults to "/metrics" when empty.
	Path string `mapstructure:"path"`
}

// TracingConfig configuration settings for distributed tracing.
type TracingConfig struct {
	// Enabled enables or disables tracing.
	Enabled bool `mapstructure:"enabled"`
	// Exporter selects the trace exporter: "stdout" or "otlp".
	Exporter string `mapstructure:"exporter" validate:"omitempty,oneof=none stdout otlp"`
	// OTLPEndpoint is the gRPC endpoint for the OTLP exporter (e.g., "localhost:4317").
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

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
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/retr0h/gatehouse/internal/validation"
)

// Load reads path from appFs into a Config. Defaults apply to every key,
// GATEHOUSE_* environment variables override the file, and a missing file
// is not an error.
func Load(
	v *viper.Viper,
	appFs afero.Fs,
	path string,
) (Config, error) {
	var cfg Config

	v.SetFs(appFs)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	// Auto-enable tracing in debug mode so trace_id appears in log lines.
	if cfg.Debug && !cfg.Telemetry.Tracing.Enabled {
		cfg.Telemetry.Tracing.Enabled = true
	}

	if err := Validate(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func isNotExist(
	err error,
) bool {
	var notFound viper.ConfigFileNotFoundError

	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
}

// Validate checks cfg against its struct tags and cross-field rules.
func Validate(
	cfg *Config,
) error {
	if msg, ok := validation.Struct(cfg); !ok {
		return fmt.Errorf("invalid config: %s", msg)
	}

	for name, role := range cfg.Roles {
		for _, parent := range role.Inherits {
			if parent == name {
				return fmt.Errorf("invalid config: role %q inherits itself", name)
			}
		}
	}

	return nil
}

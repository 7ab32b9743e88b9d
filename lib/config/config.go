// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/nix-installer-action/lib/buildevent"
	"github.com/bureau-foundation/nix-installer-action/lib/failuresummary"
	"github.com/bureau-foundation/nix-installer-action/lib/logcache"
	"github.com/bureau-foundation/nix-installer-action/lib/timeline"
)

// EnvironmentVariable names the variable Load reads the config file
// path from.
const EnvironmentVariable = "NIX_INSTALLER_ACTION_CONFIG"

// Config is the configuration of the action's reporting steps.
type Config struct {
	// Daemon configures access to determinate-nixd.
	Daemon DaemonConfig `yaml:"daemon"`

	// Summary configures the failure section of the job summary.
	Summary SummaryConfig `yaml:"summary"`

	// Timeline configures the build timeline chart.
	Timeline TimelineConfig `yaml:"timeline"`

	// Logs configures how failed build logs are read.
	Logs LogsConfig `yaml:"logs"`

	// Annotations configures hash mismatch annotations.
	Annotations AnnotationsConfig `yaml:"annotations"`
}

// DaemonConfig configures access to determinate-nixd.
type DaemonConfig struct {
	// SocketPath is the daemon's HTTP API socket.
	// Default: /nix/var/determinate/determinate-nixd.socket
	SocketPath string `yaml:"socket_path"`
}

// SummaryConfig configures the job summary.
type SummaryConfig struct {
	// Enabled turns the whole job summary on or off. The "summarize"
	// action input overrides it.
	Enabled bool `yaml:"enabled"`

	// MaxMarkdownLength bounds the failure logs section in bytes.
	// Default: 995000
	MaxMarkdownLength int `yaml:"max_markdown_length"`
}

// TimelineConfig configures the build timeline chart.
type TimelineConfig struct {
	Enabled bool `yaml:"enabled"`

	// MaxDiagramLength is the size the chart is pruned to fit.
	// Mermaid rejects diagrams over 50000 characters.
	// Default: 49900
	MaxDiagramLength int `yaml:"max_diagram_length"`
}

// LogsConfig configures how failed build logs are read.
type LogsConfig struct {
	// CacheDirectory enables the on-disk log cache when set.
	// Supports ${VAR} and ${VAR:-default}, e.g.
	// "${RUNNER_TEMP:-/tmp}/nix-build-logs".
	CacheDirectory string `yaml:"cache_dir"`

	// CacheCompression is one of zstd, lz4, none.
	// Default: zstd
	CacheCompression string `yaml:"cache_compression"`

	// FetchTimeout bounds each "nix log" invocation, as a Go duration.
	// Default: 60s
	FetchTimeout string `yaml:"fetch_timeout"`
}

// AnnotationsConfig configures hash mismatch annotations.
type AnnotationsConfig struct {
	// Enabled turns annotations on or off. The "annotate-hashes"
	// action input overrides it.
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Daemon: DaemonConfig{
			SocketPath: buildevent.DefaultSocketPath,
		},
		Summary: SummaryConfig{
			Enabled:           true,
			MaxMarkdownLength: failuresummary.DefaultMaxMarkdownLength,
		},
		Timeline: TimelineConfig{
			Enabled:          true,
			MaxDiagramLength: timeline.MaxDiagramLength,
		},
		Logs: LogsConfig{
			CacheCompression: "zstd",
			FetchTimeout:     "60s",
		},
		Annotations: AnnotationsConfig{
			Enabled: true,
		},
	}
}

// Load loads the file named by NIX_INSTALLER_ACTION_CONFIG, or returns
// Default when the variable is not set. Actions run with no
// configuration at all, so the defaults must be complete.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Fields the
// file does not mention keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":        os.Getenv("HOME"),
		"RUNNER_TEMP": os.Getenv("RUNNER_TEMP"),
	}

	c.Daemon.SocketPath = expandVars(c.Daemon.SocketPath, vars)
	c.Logs.CacheDirectory = expandVars(c.Logs.CacheDirectory, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// FetchTimeoutDuration returns Logs.FetchTimeout parsed. An empty value
// means no timeout. Validate reports unparseable values.
func (c *Config) FetchTimeoutDuration() time.Duration {
	if c.Logs.FetchTimeout == "" {
		return 0
	}
	duration, err := time.ParseDuration(c.Logs.FetchTimeout)
	if err != nil {
		return 0
	}
	return duration
}

// CacheCompression returns Logs.CacheCompression parsed. Validate
// reports unknown names.
func (c *Config) CacheCompression() logcache.Compression {
	compression, err := logcache.ParseCompression(c.Logs.CacheCompression)
	if err != nil {
		return logcache.CompressionZstd
	}
	return compression
}

// Validate checks the configuration for errors, reporting all of them.
func (c *Config) Validate() error {
	var errs []error

	if c.Daemon.SocketPath == "" {
		errs = append(errs, fmt.Errorf("daemon.socket_path is required"))
	}

	if c.Summary.MaxMarkdownLength <= 0 {
		errs = append(errs, fmt.Errorf("summary.max_markdown_length must be positive, got %d", c.Summary.MaxMarkdownLength))
	}

	if c.Timeline.MaxDiagramLength <= 0 {
		errs = append(errs, fmt.Errorf("timeline.max_diagram_length must be positive, got %d", c.Timeline.MaxDiagramLength))
	}

	if _, err := logcache.ParseCompression(c.Logs.CacheCompression); err != nil {
		errs = append(errs, fmt.Errorf("logs.cache_compression: %w", err))
	}

	if c.Logs.FetchTimeout != "" {
		duration, err := time.ParseDuration(c.Logs.FetchTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("logs.fetch_timeout: %w", err))
		} else if duration < 0 {
			errs = append(errs, fmt.Errorf("logs.fetch_timeout must not be negative, got %s", c.Logs.FetchTimeout))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

package config

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/canonical"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/extract"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, in load order.
	Files []string
}

// Default values.
const (
	DefaultLogDir        = "~/.specsync"
	DefaultWorkers       = 4
	DefaultMaxInputBytes = extract.DefaultMaxBytes
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// Config holds the full configuration for specsync.
type Config struct {
	// Output
	OutputDir string `toml:"output_dir"`

	// Validation
	Validate    bool   `toml:"validate"`
	SchemaFile  string `toml:"schema_file"`
	SpecVersion string `toml:"spec_version"`

	// Limits and batching
	MaxInputBytes int64 `toml:"max_input_bytes"`
	Workers       int   `toml:"workers"`
	Cache         bool  `toml:"cache"`

	// Hooks
	HookCommand string `toml:"hook_command"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

var validLogLevels = []string{"debug", "info", "warn", "warning", "error", "fatal"}

var validLogFormats = []string{"text", "json", "logfmt"}

// Check reports configuration values that cannot be used.
func (c *Config) Check() error {
	var problems []string
	if c.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must be >= 0, got %d", c.Workers))
	}
	if _, err := semver.NewVersion(c.SpecVersion); err != nil {
		problems = append(problems, fmt.Sprintf("spec_version %q is not a version", c.SpecVersion))
	}
	if !oneOf(strings.ToLower(c.LogLevel), validLogLevels) {
		problems = append(problems, fmt.Sprintf("log_level %q (expected one of %s)", c.LogLevel, strings.Join(validLogLevels, ", ")))
	}
	if !oneOf(strings.ToLower(c.LogFormat), validLogFormats) {
		problems = append(problems, fmt.Sprintf("log_format %q (expected one of %s)", c.LogFormat, strings.Join(validLogFormats, ", ")))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func oneOf(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.OutputDir = ""
	cfg.Validate = false
	cfg.SchemaFile = ""
	cfg.SpecVersion = canonical.DefaultSpecVersion
	cfg.MaxInputBytes = DefaultMaxInputBytes
	cfg.Workers = DefaultWorkers
	cfg.Cache = true
	cfg.LogDir = DefaultLogDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// configFields returns the configurable field names for source tracking.
func configFields() []string {
	return []string{
		"output_dir",
		"validate",
		"schema_file",
		"spec_version",
		"max_input_bytes",
		"workers",
		"cache",
		"hook_command",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

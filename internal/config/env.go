package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment variable specsync reads.
const EnvPrefix = "SPECSYNC_"

// loadFromEnv overrides config from SPECSYNC_* environment variables and
// records each override in sources. Malformed numbers are reported.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	set := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}

	if v := os.Getenv(EnvPrefix + "OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
		set("output_dir")
	}
	if v := os.Getenv(EnvPrefix + "VALIDATE"); v != "" {
		cfg.Validate = boolFromString(v)
		set("validate")
	}
	if v := os.Getenv(EnvPrefix + "SCHEMA"); v != "" {
		cfg.SchemaFile = v
		set("schema_file")
	}
	if v := os.Getenv(EnvPrefix + "SPEC_VERSION"); v != "" {
		cfg.SpecVersion = v
		set("spec_version")
	}
	if v := os.Getenv(EnvPrefix + "MAX_INPUT_BYTES"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_INPUT_BYTES: %w", EnvPrefix, err)
		}
		cfg.MaxInputBytes = n
		set("max_input_bytes")
	}
	if v := os.Getenv(EnvPrefix + "WORKERS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sWORKERS: %w", EnvPrefix, err)
		}
		cfg.Workers = n
		set("workers")
	}
	if v := os.Getenv(EnvPrefix + "CACHE"); v != "" {
		cfg.Cache = boolFromString(v)
		set("cache")
	}
	if v := os.Getenv(EnvPrefix + "HOOK"); v != "" {
		cfg.HookCommand = v
		set("hook_command")
	}

	// Logging configuration
	if v := os.Getenv(EnvPrefix + "LOG_DIR"); v != "" {
		cfg.LogDir = v
		set("log_dir")
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
		set("log_level")
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
		set("log_format")
	}
	if v := os.Getenv(EnvPrefix + "LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		set("log_timestamps")
	}
	if v := os.Getenv(EnvPrefix + "LOG_CALLER"); v != "" {
		cfg.LogCaller = boolFromString(v)
		set("log_caller")
	}
	return nil
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

package config

import (
	"fmt"
	"runtime"
)

// EffectiveWorkers returns the batch worker count, using one worker per CPU
// when Workers is zero.
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Value returns the display form of a config field by its TOML key.
// Unknown keys return false.
func (c *Config) Value(field string) (string, bool) {
	switch field {
	case "output_dir":
		return c.OutputDir, true
	case "validate":
		return fmt.Sprint(c.Validate), true
	case "schema_file":
		return c.SchemaFile, true
	case "spec_version":
		return c.SpecVersion, true
	case "max_input_bytes":
		return fmt.Sprint(c.MaxInputBytes), true
	case "workers":
		return fmt.Sprint(c.Workers), true
	case "cache":
		return fmt.Sprint(c.Cache), true
	case "hook_command":
		return c.HookCommand, true
	case "log_dir":
		return c.LogDir, true
	case "log_level":
		return c.LogLevel, true
	case "log_format":
		return c.LogFormat, true
	case "log_timestamps":
		return fmt.Sprint(c.LogTimestamps), true
	case "log_caller":
		return fmt.Sprint(c.LogCaller), true
	}
	return "", false
}

// Fields returns the configurable TOML keys in display order.
func Fields() []string {
	return configFields()
}

// Source returns where field got its value, SourceDefault if untracked.
func (cws *ConfigWithSources) Source(field string) ConfigSource {
	if src, ok := cws.Sources[field]; ok {
		return src
	}
	return SourceDefault
}

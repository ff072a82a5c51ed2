package config

import (
	"flag"
)

// flagFields maps flag names to the config field they set.
var flagFields = map[string]string{
	"output-dir":      "output_dir",
	"validate":        "validate",
	"schema":          "schema_file",
	"spec-version":    "spec_version",
	"max-input-bytes": "max_input_bytes",
	"workers":         "workers",
	"cache":           "cache",
	"hook":            "hook_command",
	"log-dir":         "log_dir",
	"log-level":       "log_level",
	"log-format":      "log_format",
	"log-timestamps":  "log_timestamps",
	"log-caller":      "log_caller",
}

// RegisterFlags binds the global flags to cfg. The current field values
// become the flag defaults, so register after lower layers have loaded.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	// Output and validation
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Directory for generated YAML (default: next to the input)")
	fs.BoolVar(&cfg.Validate, "validate", cfg.Validate, "Validate documents before writing")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "JSON Schema file overriding the embedded record schema")
	fs.StringVar(&cfg.SpecVersion, "spec-version", cfg.SpecVersion, "spec_version stamped into generated documents")

	// Limits and batching
	fs.Int64Var(&cfg.MaxInputBytes, "max-input-bytes", cfg.MaxInputBytes, "Maximum markdown input size in bytes (0 = built-in limit, negative = unlimited)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel workers for batch translation")
	fs.BoolVar(&cfg.Cache, "cache", cfg.Cache, "Reuse extraction results for identical inputs")

	// Hooks
	fs.StringVar(&cfg.HookCommand, "hook", cfg.HookCommand, "Command to run after each written document")

	// Logging
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Run log directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error, fatal")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text, json, logfmt")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in console logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in console logs")
}

// parseFlags registers the global flags on fs, parses args and marks every
// explicitly set flag as a flag-sourced value.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("specsync", flag.ContinueOnError)
	}
	RegisterFlags(fs, cfg)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagFields[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}
	return nil
}

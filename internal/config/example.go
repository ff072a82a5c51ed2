package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# specsync configuration file
# Values can be overridden by SPECSYNC_* environment variables or CLI flags

# Directory for generated YAML; empty writes next to each markdown input
# output_dir = "specs/canonical"

# Validate documents before writing them
validate = false

# JSON Schema overriding the embedded record schema (relative to project root)
# schema_file = "canonical.schema.json"

# spec_version stamped into metadata; validation accepts ^spec_version
spec_version = "1.0"

# Largest markdown input accepted, in bytes (0 = built-in limit, negative = unlimited)
max_input_bytes = 10485760

# Parallel workers for batch translation (0 = one per CPU)
workers = 4

# Reuse extraction results for identical inputs within a run
cache = true

# Hook command run after each written document:
#   <hook> <output.yaml> <spec-id> <status> <input.md>
# hook_command = "/path/to/hook.sh"

# Run log directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.specsync"

# Console logging
log_level = "info"        # debug, info, warn, error, fatal
log_format = "text"       # text, json, logfmt
log_timestamps = false
log_caller = false
`
}

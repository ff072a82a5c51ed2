// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.specsync/specsync.toml or OS-specific config directory)
// 3. Project config file (specsync.toml or .specsync.toml in the working directory)
// 4. Environment variables (SPECSYNC_*)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// User-level config locations:
// - ~/.specsync/specsync.toml (preferred)
// - Windows: %APPDATA%\specsync\specsync.toml
// - macOS: ~/Library/Application Support/specsync/specsync.toml
// - Linux/BSD: $XDG_CONFIG_HOME/specsync/specsync.toml or ~/.config/specsync/specsync.toml
//
// Project-level config locations (overrides user config):
// - ./specsync.toml (preferred)
// - ./.specsync.toml
package config

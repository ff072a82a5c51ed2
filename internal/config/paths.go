package config

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// resolvePaths expands every path-valued setting. A relative schema file is
// anchored at the project root; output and log directories stay relative to
// the invocation directory.
func resolvePaths(cfg *Config) {
	for _, p := range []*string{&cfg.LogDir, &cfg.OutputDir, &cfg.SchemaFile} {
		*p = expandPath(*p)
	}
	if cfg.SchemaFile != "" && !filepath.IsAbs(cfg.SchemaFile) {
		cfg.SchemaFile = filepath.Join(cfg.ProjectRoot, cfg.SchemaFile)
	}
}

// expandPath replaces $VAR and ${VAR} references (and %VAR% on Windows),
// then a leading "~" with the user's home directory.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if runtime.GOOS == "windows" {
		p = windowsEnvRe.ReplaceAllStringFunc(p, func(ref string) string {
			if val, ok := os.LookupEnv(ref[1 : len(ref)-1]); ok {
				return val
			}
			return ref
		})
	}
	return expandHome(p)
}

// Unset %VAR% references are left untouched, as cmd.exe does.
var windowsEnvRe = regexp.MustCompile(`%[^%\s]+%`)

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !(runtime.GOOS == "windows" && strings.HasPrefix(p, `~\`)) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}

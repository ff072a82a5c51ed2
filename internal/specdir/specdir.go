// Package specdir provides constants and path helpers for specsync's
// on-disk layout.
package specdir

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

const (
	// Dir is the name of the specsync state directory.
	Dir = ".specsync"

	// DefaultConfigFile is the project config file name.
	DefaultConfigFile = "specsync.toml"

	// HiddenConfigFile is the alternative project config file name.
	HiddenConfigFile = ".specsync.toml"

	// OutputExt is the extension of generated canonical documents.
	OutputExt = ".yaml"
)

// DirPath returns the full path to the .specsync directory within a work directory.
func DirPath(workDir string) string {
	if workDir == "." || workDir == "" {
		return Dir
	}
	return filepath.Join(workDir, Dir)
}

// ConfigPaths returns the project config candidates in priority order.
func ConfigPaths(workDir string) []string {
	if workDir == "" {
		workDir = "."
	}
	return []string{
		filepath.Join(workDir, DefaultConfigFile),
		filepath.Join(workDir, HiddenConfigFile),
	}
}

// OutputPath returns where the canonical document for input is written.
// With an empty outputDir the document sits next to its source.
func OutputPath(input, outputDir string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input)) + OutputExt
	if outputDir == "" {
		return base
	}
	return filepath.Join(outputDir, filepath.Base(base))
}

// RepoRoot returns the worktree root of the git repository containing dir.
func RepoRoot(dir string) (string, bool) {
	if dir == "" {
		dir = "."
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", false
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", false
	}
	return wt.Filesystem.Root(), true
}

// Locator returns the source locator recorded in a document's provenance:
// the path relative to the enclosing repository with forward slashes, or
// the cleaned path itself outside a repository.
func Locator(path string) string {
	fallback := filepath.ToSlash(filepath.Clean(path))

	abs, err := filepath.Abs(path)
	if err != nil {
		return fallback
	}
	root, ok := RepoRoot(filepath.Dir(abs))
	if !ok {
		return fallback
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fallback
	}
	return filepath.ToSlash(rel)
}

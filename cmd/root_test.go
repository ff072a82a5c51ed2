// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/canonical"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specerr"
)

const checkoutSpec = `# Spec: Checkout

**Spec ID**: spec-001
**Created**: 2025-01-01
**Updated**: 2025-01-02
**Status**: draft

### 1.3 Acceptance Criteria
- [ ] **AC-1**: Cart totals are correct

### 2.2 Components
#### Component 1: Cart
**Links to**: AC-1

### 3.1 Tasks
- [x] **task-1**: Build cart
  - **Links to**: AC-1

### 4.1 Test Cases
- [ ] **tc-1**: Cart totals
`

const noIDSpec = `# Spec: Broken

**Created**: 2025-01-01
**Updated**: 2025-01-02
**Status**: draft
`

var badStatusSpec = strings.Replace(checkoutSpec, "**Status**: draft", "**Status**: shipped", 1)

// setupProject isolates config and logs in temp dirs, changes into a
// fresh project directory and writes files into it.
func setupProject(t *testing.T, files map[string]string) string {
	t.Helper()
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, name := range []string{
		"OUTPUT_DIR", "VALIDATE", "SCHEMA", "SPEC_VERSION", "MAX_INPUT_BYTES",
		"WORKERS", "CACHE", "HOOK", "LOG_LEVEL", "LOG_FORMAT", "LOG_TIMESTAMPS", "LOG_CALLER",
	} {
		t.Setenv("SPECSYNC_"+name, "")
	}
	t.Setenv("SPECSYNC_LOG_DIR", filepath.Join(home, "logs"))
	testChdir(t, project)

	for name, content := range files {
		if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return project
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return captureStdout(t, func() error {
		return Run(context.Background(), args)
	})
}

func loadDocument(t *testing.T, path string) *canonical.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	doc, err := canonical.Parse(data)
	if err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return doc
}

// TestRun tests the main Run function.
func TestRun(t *testing.T) {
	setupProject(t, nil)

	tests := []struct {
		name    string
		args    []string
		wantOut string
		wantErr string
	}{
		{name: "help flag", args: []string{"--help"}, wantOut: "Commands:"},
		{name: "short help flag", args: []string{"-h"}, wantOut: "Commands:"},
		{name: "help command", args: []string{"help"}, wantOut: "Global Options:"},
		{name: "version flag", args: []string{"--version"}, wantOut: "specsync version dev"},
		{name: "short version flag", args: []string{"-v"}, wantOut: "specsync version dev"},
		{name: "version command", args: []string{"version"}, wantOut: "specsync version"},
		{name: "no command", args: nil, wantErr: "no command given"},
		{name: "unknown command", args: []string{"unknown-command"}, wantErr: "unknown command"},
		{name: "bad global flag value", args: []string{"-log-level", "loud", "version"}, wantErr: "loading config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("output missing %q:\n%s", tt.wantOut, out)
			}
		})
	}
}

func TestTranslateCommand(t *testing.T) {
	setupProject(t, map[string]string{"specs/checkout.md": checkoutSpec})

	out, err := runCLI(t, "translate", "specs/checkout.md")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !strings.Contains(out, "specs/checkout.md -> specs/checkout.yaml (spec spec-001)") {
		t.Errorf("unexpected output: %q", out)
	}

	doc := loadDocument(t, filepath.Join("specs", "checkout.yaml"))
	if doc.SpecID != "spec-001" || doc.Status != "draft" {
		t.Errorf("document identity: got %s/%s", doc.SpecID, doc.Status)
	}
	if !strings.HasSuffix(doc.Metadata.MarkdownLocation, "specs/checkout.md") {
		t.Errorf("markdown_location: got %q", doc.Metadata.MarkdownLocation)
	}
	if !doc.Metadata.GeneratedFromMarkdown {
		t.Error("generated_from_markdown should be true")
	}
}

func TestTranslateCommandOptions(t *testing.T) {
	setupProject(t, map[string]string{"checkout.md": checkoutSpec})

	if _, err := runCLI(t, "translate", "-validate", "-o", "out/nested/doc.yaml", "checkout.md"); err != nil {
		t.Fatalf("translate: %v", err)
	}
	if _, err := os.Stat(filepath.Join("out", "nested", "doc.yaml")); err != nil {
		t.Errorf("explicit output not written: %v", err)
	}

	if _, err := runCLI(t, "-output-dir", "gen", "translate", "checkout.md"); err != nil {
		t.Fatalf("translate with output dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join("gen", "checkout.yaml")); err != nil {
		t.Errorf("output dir not used: %v", err)
	}

	// A bare markdown path is shorthand for translate.
	if _, err := runCLI(t, "checkout.md"); err != nil {
		t.Fatalf("shorthand translate: %v", err)
	}
	if _, err := os.Stat("checkout.yaml"); err != nil {
		t.Errorf("shorthand output not written: %v", err)
	}
}

func TestTranslateCommandFailures(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		args     []string
		sentinel error
		output   string
	}{
		{
			name:     "missing input",
			args:     []string{"translate", "nope.md"},
			sentinel: specerr.ErrNotFound,
			output:   "nope.yaml",
		},
		{
			name:     "missing spec id",
			files:    map[string]string{"broken.md": noIDSpec},
			args:     []string{"translate", "broken.md"},
			sentinel: specerr.ErrStructural,
			output:   "broken.yaml",
		},
		{
			name:     "invalid status",
			files:    map[string]string{"bad.md": badStatusSpec},
			args:     []string{"translate", "-validate", "bad.md"},
			sentinel: specerr.ErrValidation,
			output:   "bad.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupProject(t, tt.files)
			_, err := runCLI(t, tt.args...)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}
			if _, statErr := os.Stat(tt.output); !os.IsNotExist(statErr) {
				t.Errorf("%s should not exist after a failure", tt.output)
			}
		})
	}

	t.Run("argument count", func(t *testing.T) {
		setupProject(t, nil)
		if _, err := runCLI(t, "translate"); err == nil {
			t.Error("expected error without input")
		}
		if _, err := runCLI(t, "translate", "a.md", "b.md"); err == nil {
			t.Error("expected error with two inputs")
		}
	})
}

func TestValidateCommand(t *testing.T) {
	setupProject(t, map[string]string{"checkout.md": checkoutSpec, "bad.md": badStatusSpec})

	if _, err := runCLI(t, "translate", "checkout.md"); err != nil {
		t.Fatalf("translate: %v", err)
	}
	out, err := runCLI(t, "validate", "checkout.yaml")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, want := range []string{"checkout.yaml: valid", "spec_id: spec-001", "status: draft", "spec_version: 1.0", "generated_from_markdown: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("validate output missing %q:\n%s", want, out)
		}
	}

	// Without -validate the bad status is written and caught afterwards.
	if _, err := runCLI(t, "translate", "bad.md"); err != nil {
		t.Fatalf("translate bad.md: %v", err)
	}
	_, err = runCLI(t, "validate", "bad.yaml")
	if !errors.Is(err, specerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid status") {
		t.Errorf("error should name the status: %v", err)
	}

	_, err = runCLI(t, "validate", "missing.yaml")
	if !errors.Is(err, specerr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestWatchCommand(t *testing.T) {
	setupProject(t, nil)

	_, err := runCLI(t, "watch", "specs")
	if err == nil || err.Error() != "watch mode is not implemented" {
		t.Fatalf("expected not implemented error, got %v", err)
	}
}

func TestExtractCommand(t *testing.T) {
	setupProject(t, map[string]string{"checkout.md": checkoutSpec})

	out, err := runCLI(t, "extract", "checkout.md")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(out, "spec_id: spec-001") || !strings.Contains(out, "AC-1") {
		t.Errorf("unexpected tree:\n%s", out)
	}
	if _, err := os.Stat("checkout.yaml"); !os.IsNotExist(err) {
		t.Error("extract must not write output")
	}

	out, err = runCLI(t, "extract", "-dump", "checkout.md")
	if err != nil {
		t.Fatalf("extract -dump: %v", err)
	}
	if !strings.Contains(out, "SpecID") || !strings.Contains(out, "spec-001") {
		t.Errorf("unexpected dump:\n%s", out)
	}
}

func TestHashCommand(t *testing.T) {
	setupProject(t, map[string]string{"checkout.md": checkoutSpec})

	if _, err := runCLI(t, "translate", "checkout.md"); err != nil {
		t.Fatalf("translate: %v", err)
	}
	data, err := os.ReadFile("checkout.yaml")
	if err != nil {
		t.Fatal(err)
	}

	for _, exclude := range []bool{false, true} {
		args := []string{"hash"}
		if exclude {
			args = append(args, "-exclude-provenance")
		}
		out, err := runCLI(t, append(args, "checkout.yaml")...)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		want, err := canonical.Hash(data, canonical.HashOptions{ExcludeProvenance: exclude})
		if err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(out) != want+"  checkout.yaml" {
			t.Errorf("hash output: got %q, want %q", out, want)
		}
	}
}

func TestBatchCommand(t *testing.T) {
	setupProject(t, map[string]string{
		"a.md": checkoutSpec,
		"b.md": noIDSpec,
		"c.md": strings.Replace(checkoutSpec, "spec-001", "spec-003", 1),
	})

	out, err := runCLI(t, "batch", "-j", "2", "a.md", "b.md", "c.md")
	if err == nil || !strings.Contains(err.Error(), "1 of 3 translations failed") {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if !strings.Contains(out, "a.md -> a.yaml") || !strings.Contains(out, "c.md -> c.yaml (spec spec-003)") {
		t.Errorf("unexpected output:\n%s", out)
	}
	for path, want := range map[string]bool{"a.yaml": true, "b.yaml": false, "c.yaml": true} {
		_, err := os.Stat(path)
		if got := err == nil; got != want {
			t.Errorf("%s exists = %v, want %v", path, got, want)
		}
	}

	if _, err := runCLI(t, "batch"); err == nil {
		t.Error("expected error without inputs")
	}
}

func TestTuiCommandRequiresTTY(t *testing.T) {
	setupProject(t, map[string]string{"a.md": checkoutSpec})

	_, err := runCLI(t, "tui", "a.md")
	if err == nil || !strings.Contains(err.Error(), "requires a TTY") {
		t.Fatalf("expected TTY error, got %v", err)
	}
}

func TestTailCommand(t *testing.T) {
	setupProject(t, map[string]string{"checkout.md": checkoutSpec})

	out, err := runCLI(t, "tail")
	if err != nil {
		t.Fatalf("tail without logs: %v", err)
	}
	if !strings.Contains(out, "No log files found.") {
		t.Errorf("unexpected output: %q", out)
	}

	if _, err := runCLI(t, "translate", "checkout.md"); err != nil {
		t.Fatalf("translate: %v", err)
	}

	out, err = runCLI(t, "tail", "-n", "1")
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if !strings.Contains(out, "Tailing:") || !strings.Contains(out, `"type":"result"`) {
		t.Errorf("unexpected tail output:\n%s", out)
	}

	out, err = runCLI(t, "tail", "-pretty", "-n", "1")
	if err != nil {
		t.Fatalf("tail -pretty: %v", err)
	}
	if !strings.Contains(out, "spec-001") || strings.Contains(out, `"type":"result"`) {
		t.Errorf("unexpected pretty output:\n%s", out)
	}

	out, err = runCLI(t, "tail", "-list")
	if err != nil {
		t.Fatalf("tail -list: %v", err)
	}
	if !strings.Contains(out, ".jsonl") {
		t.Errorf("run list missing log file:\n%s", out)
	}
}

func TestConfigCommand(t *testing.T) {
	setupProject(t, map[string]string{"specsync.toml": "workers = 2\n"})
	t.Setenv("SPECSYNC_VALIDATE", "true")

	out, err := runCLI(t, "-log-format", "json", "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{"specsync.toml", "project file", "environment", "flag", "default"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "config", "-example")
	if err != nil {
		t.Fatalf("config -example: %v", err)
	}
	if !strings.Contains(out, "# specsync configuration file") {
		t.Errorf("unexpected example:\n%s", out)
	}
}

// testChdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, added in Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

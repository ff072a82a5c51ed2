// Package hooks invokes external post-translation hooks.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/canonical"
)

// Options configures a hook invocation.
type Options struct {
	// Command is the executable to run. Empty disables the hook.
	Command string
	// OutputPath is the canonical document that was just written.
	OutputPath string
	// InputPath is the source document it was generated from.
	InputPath string
	WorkDir   string
	// FS holds OutputPath. Nil means the OS filesystem.
	FS billy.Basic

	// Stdout and Stderr receive hook output; nil means the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Result captures the outcome of a hook invocation.
type Result struct {
	Ran      bool
	Command  []string
	ExitCode int
	SpecID   string
	Status   string
}

// Invoke runs the hook command as
//
//	<command> <output-path> <spec-id> <status> <input-path>
//
// The document at OutputPath must exist and parse as a canonical document.
// A missing document means nothing was written, so the hook is skipped.
func Invoke(ctx context.Context, opts Options) (Result, error) {
	if opts.Command == "" || opts.OutputPath == "" {
		return Result{}, nil
	}

	fsys := opts.FS
	if fsys == nil {
		fsys = osfs.Default
	}

	info, err := fsys.Stat(opts.OutputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("stat output document: %w", err)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("output path is a directory: %s", opts.OutputPath)
	}

	doc, err := readDocument(fsys, opts.OutputPath)
	if err != nil {
		return Result{}, err
	}

	specID, status := extractSummaryFields(doc)
	args := []string{opts.OutputPath, specID, status, opts.InputPath}

	if ctx == nil {
		ctx = context.Background()
	}

	cmd := exec.CommandContext(ctx, opts.Command, args...)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.Env = append(os.Environ(),
		"SPECSYNC_OUTPUT="+opts.OutputPath,
		"SPECSYNC_INPUT="+opts.InputPath,
		"SPECSYNC_SPEC_ID="+specID,
	)

	err = cmd.Run()
	result := Result{
		Ran:      true,
		Command:  cmd.Args,
		ExitCode: exitCodeFromError(err),
		SpecID:   specID,
		Status:   status,
	}
	if err != nil {
		return result, fmt.Errorf("hook command failed: %w", err)
	}
	return result, nil
}

func readDocument(fsys billy.Basic, path string) (map[string]any, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read output document: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("output document is empty: %s", path)
	}
	doc, err := canonical.ParseMap(data)
	if err != nil {
		return nil, fmt.Errorf("output document is not valid YAML: %s: %w", path, err)
	}
	return doc, nil
}

func extractSummaryFields(doc map[string]any) (string, string) {
	if doc == nil {
		return "", ""
	}
	return stringField(doc["spec_id"]), stringField(doc["status"])
}

func stringField(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

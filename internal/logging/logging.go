// Package logging provides the console logger, JSONL run logs and tail
// output.
package logging

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specdir"
)

const (
	runLogExt  = ".jsonl"
	hookLogExt = ".hook.log"
)

// RunLogger manages the log files of one CLI invocation.
type RunLogger struct {
	Dir     string
	RunID   string
	LogPath string
	file    *os.File
	events  EventWriter
}

// NewRunLogger creates a per-project log directory and a JSONL file for
// this run.
func NewRunLogger(baseDir, workDir string) (*RunLogger, error) {
	logDir, err := FindLogDir(baseDir, workDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	id := runID()
	logPath := filepath.Join(logDir, id+runLogExt)
	// Runs of one process within the same second share a file.
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	return &RunLogger{
		Dir:     logDir,
		RunID:   id,
		LogPath: logPath,
		file:    file,
		events:  Synchronized(NewJSONLWriter(file)),
	}, nil
}

// Writer returns the underlying log file writer.
func (r *RunLogger) Writer() *os.File {
	return r.file
}

// Events returns a concurrency-safe event writer for the run log. A nil
// RunLogger yields a writer that discards events.
func (r *RunLogger) Events() EventWriter {
	if r == nil || r.events == nil {
		return NullWriter{}
	}
	return r.events
}

// Close closes the log file.
func (r *RunLogger) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// HookLogPath returns the file that captures hook output for label.
func (r *RunLogger) HookLogPath(label string) string {
	if r == nil {
		return ""
	}
	return filepath.Join(r.Dir, fmt.Sprintf("%s-%s%s", r.RunID, sanitizeLabel(label), hookLogExt))
}

func resolveBaseDir(baseDir, workDir string) string {
	if filepath.IsAbs(baseDir) {
		return filepath.Clean(baseDir)
	}
	return filepath.Clean(filepath.Join(workDir, baseDir))
}

func resolveProjectRoot(workDir string) string {
	if workDir == "" {
		return "."
	}
	if root, ok := specdir.RepoRoot(workDir); ok {
		return root
	}
	return workDir
}

func projectSlug(projectRoot string) string {
	name := filepath.Base(projectRoot)
	return fmt.Sprintf("%s-%s", slugify(name), hashPath(projectRoot))
}

func slugify(input string) string {
	if strings.TrimSpace(input) == "" {
		return "project"
	}

	var b strings.Builder
	lastUnderscore := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		if !isSlugByte(c) {
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		}
		b.WriteByte(c)
		lastUnderscore = false
	}

	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		return "project"
	}
	return slug
}

func isSlugByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '.' || c == '_' || c == '-'
}

func sanitizeLabel(input string) string {
	if strings.TrimSpace(input) == "" {
		return "run"
	}

	var b strings.Builder
	for i := 0; i < len(input); i++ {
		c := input[i]
		if !isSlugByte(c) || c == '.' {
			b.WriteByte('_')
			continue
		}
		b.WriteByte(c)
	}

	label := strings.Trim(b.String(), "_")
	if label == "" {
		return "run"
	}
	return label
}

func hashPath(input string) string {
	sum := sha1.Sum([]byte(input))
	return hex.EncodeToString(sum[:])[:8]
}

func runID() string {
	return fmt.Sprintf("%s-%d", time.Now().UTC().Format("20060102-150405"), os.Getpid())
}

// FindLogDir returns the log directory for a work directory without
// creating it.
func FindLogDir(baseDir, workDir string) (string, error) {
	if baseDir == "" {
		return "", fmt.Errorf("log base dir is empty")
	}

	resolvedWorkDir := workDir
	if resolvedWorkDir == "" {
		resolvedWorkDir = "."
	}
	if abs, err := filepath.Abs(resolvedWorkDir); err == nil {
		resolvedWorkDir = abs
	}

	baseDir = resolveBaseDir(baseDir, resolvedWorkDir)
	projectRoot := resolveProjectRoot(resolvedWorkDir)
	return filepath.Join(baseDir, projectSlug(projectRoot)), nil
}

// FindLatestLog finds the most recently modified run log in a directory.
// A missing directory yields "".
func FindLatestLog(logDir string) (string, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read log dir: %w", err)
	}

	var latest string
	var latestTime time.Time

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), runLogExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latest = filepath.Join(logDir, entry.Name())
		}
	}

	return latest, nil
}

// TailLog copies the last n lines of a log file to w (all of it when
// n <= 0). With follow set it keeps copying appended data until ctx is
// done.
func TailLog(ctx context.Context, w io.Writer, path string, n int, follow bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if n > 0 {
		if err := tailSeek(file, n); err != nil {
			return fmt.Errorf("seek to tail position: %w", err)
		}
	}

	if _, err := io.Copy(w, file); err != nil {
		return err
	}
	if !follow {
		return nil
	}
	return tailFollow(ctx, w, file)
}

// tailSeek positions file at the start of its last n lines.
func tailSeek(file *os.File, n int) error {
	const chunkSize = 4096

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	size := stat.Size()

	// A trailing newline terminates the last line rather than starting a
	// new one.
	end := size
	if end > 0 {
		var last [1]byte
		if _, err := file.ReadAt(last[:], end-1); err != nil {
			return err
		}
		if last[0] == '\n' {
			end--
		}
	}

	newlines := 0
	buf := make([]byte, chunkSize)
	for pos := end; pos > 0; {
		readSize := int64(chunkSize)
		if pos < readSize {
			readSize = pos
		}
		pos -= readSize
		if _, err := file.ReadAt(buf[:readSize], pos); err != nil && err != io.EOF {
			return err
		}
		for i := readSize - 1; i >= 0; i-- {
			if buf[i] != '\n' {
				continue
			}
			newlines++
			if newlines == n {
				_, err := file.Seek(pos+i+1, io.SeekStart)
				return err
			}
		}
	}

	_, err = file.Seek(0, io.SeekStart)
	return err
}

func tailFollow(ctx context.Context, w io.Writer, file *os.File) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if _, err := io.Copy(w, file); err != nil {
			return err
		}
	}
}

// LogRun groups the files of one run.
type LogRun struct {
	RunID    string
	ModTime  time.Time
	Files    []string
	HookLogs []string
}

// FindLogRuns lists the runs in a log directory, newest first.
func FindLogRuns(logDir string) ([]LogRun, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return nil, fmt.Errorf("read log dir: %w", err)
	}

	runMap := make(map[string]*LogRun)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		id, isHook := extractRunID(name)
		if id == "" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		run, ok := runMap[id]
		if !ok {
			run = &LogRun{
				RunID:    id,
				ModTime:  info.ModTime(),
				Files:    []string{},
				HookLogs: []string{},
			}
			runMap[id] = run
		}
		if info.ModTime().After(run.ModTime) {
			run.ModTime = info.ModTime()
		}

		fullPath := filepath.Join(logDir, name)
		if isHook {
			run.HookLogs = append(run.HookLogs, fullPath)
		} else {
			run.Files = append(run.Files, fullPath)
		}
	}

	runs := make([]LogRun, 0, len(runMap))
	for _, run := range runMap {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].ModTime.Equal(runs[j].ModTime) {
			return runs[i].RunID > runs[j].RunID
		}
		return runs[i].ModTime.After(runs[j].ModTime)
	})
	return runs, nil
}

// extractRunID returns the run ID encoded in a log file name and whether
// the file is a hook log. Run logs are <date>-<time>-<pid>.jsonl, hook
// logs <date>-<time>-<pid>-<label>.hook.log.
func extractRunID(filename string) (string, bool) {
	if strings.HasSuffix(filename, runLogExt) {
		return strings.TrimSuffix(filename, runLogExt), false
	}
	if strings.HasSuffix(filename, hookLogExt) {
		parts := strings.Split(strings.TrimSuffix(filename, hookLogExt), "-")
		if len(parts) >= 3 {
			return strings.Join(parts[:3], "-"), true
		}
	}
	return "", false
}

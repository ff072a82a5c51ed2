// Package translate orchestrates the markdown-to-YAML pipeline: extraction, canonical
// generation, optional validation and the atomic write of the result.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/canonical"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/extract"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/hooks"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/logging"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/schema"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specdir"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specerr"
)

// FS is the filesystem surface the translator reads and writes through.
// osfs.Default serves the CLI; memfs serves tests.
type FS interface {
	billy.Basic
	billy.TempFile
	billy.Dir
}

// Request is one translation.
type Request struct {
	// Input is the markdown document to translate.
	Input string
	// Output is where the canonical document goes. Empty means the input
	// path with a .yaml extension, under the configured output directory.
	Output string
	// Validate runs the schema validator before anything is written.
	Validate bool
}

// Result describes a translation. On failure it holds whatever was
// produced before the failing stage; nothing is written.
type Result struct {
	Input  string
	Output string
	Stage  Stage

	SpecID   string
	Document *canonical.Document
	Data     []byte
	Hash     string

	Validation *schema.Result
	Hook       *hooks.Result
	Warnings   []string

	Cached   bool
	Duration time.Duration
}

// Report is the outcome of validating an existing canonical document.
type Report struct {
	Path       string
	SpecID     string
	Title      string
	Status     string
	Provenance canonical.Provenance
	Validation *schema.Result
}

// HookOptions configures the post-translation hook.
type HookOptions struct {
	Command string
	WorkDir string
	// OutputFor opens the sink for a hook's combined output. Nil lets the
	// hook write to the process streams.
	OutputFor func(label string) (io.WriteCloser, error)
}

// Translator runs translations. It is safe for concurrent use; the only
// state shared between requests is the build cache.
type Translator struct {
	fs        FS
	builder   *canonical.Builder
	validator *schema.Validator
	logger    *log.Logger
	events    logging.EventWriter
	updates   chan<- Status
	locator   func(string) string
	outputDir string
	maxBytes  int64
	cache     *Cache
	hook      HookOptions
	clock     canonical.Clock

	builderOpts []canonical.Option
}

// Option configures a Translator.
type Option func(*Translator)

// WithFS sets the filesystem used for input and output.
func WithFS(fs FS) Option {
	return func(t *Translator) { t.fs = fs }
}

// WithClock sets the clock stamped into provenance.
func WithClock(c canonical.Clock) Option {
	return func(t *Translator) {
		if c != nil {
			t.clock = c
			t.builderOpts = append(t.builderOpts, canonical.WithClock(c))
		}
	}
}

// WithSpecVersion sets the spec_version of generated documents.
func WithSpecVersion(v string) Option {
	return func(t *Translator) {
		t.builderOpts = append(t.builderOpts, canonical.WithSpecVersion(v))
	}
}

// WithValidator replaces the default validator.
func WithValidator(v *schema.Validator) Option {
	return func(t *Translator) { t.validator = v }
}

// WithLogger sets the console logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Translator) { t.logger = l }
}

// WithEvents records every stage transition and outcome to w.
func WithEvents(w logging.EventWriter) Option {
	return func(t *Translator) { t.events = w }
}

// WithUpdates publishes stage transitions on ch. Sends block until the
// receiver is ready or the request context is done.
func WithUpdates(ch chan<- Status) Option {
	return func(t *Translator) { t.updates = ch }
}

// WithLocator sets how input paths become provenance locators.
func WithLocator(fn func(string) string) Option {
	return func(t *Translator) {
		if fn != nil {
			t.locator = fn
		}
	}
}

// WithOutputDir places default outputs in dir instead of next to the input.
func WithOutputDir(dir string) Option {
	return func(t *Translator) { t.outputDir = dir }
}

// WithMaxBytes bounds input size; see extract.Options.
func WithMaxBytes(n int64) Option {
	return func(t *Translator) { t.maxBytes = n }
}

// WithCache enables the build cache. A nil cache disables it.
func WithCache(c *Cache) Option {
	return func(t *Translator) { t.cache = c }
}

// WithHook runs a command after every successful write.
func WithHook(h HookOptions) Option {
	return func(t *Translator) { t.hook = h }
}

// New creates a Translator. Without options it reads and writes the OS
// filesystem through fs, validates with the embedded schema and logs
// nowhere.
func New(fs FS, opts ...Option) (*Translator, error) {
	t := &Translator{
		fs:      fs,
		locator: defaultLocator,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.fs == nil {
		return nil, errors.New("translator filesystem is nil")
	}
	if t.validator == nil {
		v, err := schema.New(schema.Options{})
		if err != nil {
			return nil, fmt.Errorf("create validator: %w", err)
		}
		t.validator = v
	}
	if t.logger == nil {
		t.logger = log.New(io.Discard)
	}
	t.events = logging.Synchronized(t.events)
	t.builder = canonical.NewBuilder(t.builderOpts...)
	return t, nil
}

func defaultLocator(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// OutputPath returns where req's canonical document is written.
func (t *Translator) OutputPath(req Request) string {
	if req.Output != "" {
		return req.Output
	}
	return specdir.OutputPath(req.Input, t.outputDir)
}

// run tracks the stage of one request.
type run struct {
	t     *Translator
	ctx   context.Context
	res   *Result
	start time.Time
}

func (r *run) enter(stage Stage) {
	r.res.Stage = stage
	r.publish(Status{Input: r.res.Input, Stage: stage, Time: r.t.clock()})
	_ = r.t.events.Write(logging.Event{
		Type:      logging.EventStage,
		Timestamp: r.t.clock(),
		Input:     r.res.Input,
		Output:    r.res.Output,
		Stage:     stage.String(),
	})
	r.t.logger.Debug("stage", "input", r.res.Input, "stage", stage)
}

func (r *run) fail(err error) (*Result, error) {
	r.res.Stage = StageFailed
	r.res.Duration = time.Since(r.start)
	r.publish(Status{Input: r.res.Input, Stage: StageFailed, Reason: err.Error(), Time: r.t.clock()})
	_ = r.t.events.Write(logging.Event{
		Type:       logging.EventError,
		Timestamp:  r.t.clock(),
		Input:      r.res.Input,
		Output:     r.res.Output,
		SpecID:     r.res.SpecID,
		Message:    err.Error(),
		Code:       string(specerr.CodeOf(err)),
		Errors:     specerr.MessagesOf(err),
		DurationMS: r.res.Duration.Milliseconds(),
	})
	r.t.logger.Error("translation failed", "input", r.res.Input, "err", err)
	return r.res, err
}

func (r *run) publish(st Status) {
	if r.t.updates == nil {
		return
	}
	select {
	case r.t.updates <- st:
	case <-r.ctx.Done():
	}
}

// Translate runs the pipeline for req. The output is written only when
// every stage succeeds; ctx is checked between stages so cancellation
// never leaves a partial document behind.
func (t *Translator) Translate(ctx context.Context, req Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r := &run{
		t:     t,
		ctx:   ctx,
		start: time.Now(),
		res:   &Result{Input: req.Input, Output: t.OutputPath(req), Stage: StageIdle},
	}
	res := r.res

	if req.Input == "" {
		return r.fail(specerr.NotFound("translate", "", errors.New("no input path")))
	}
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	r.enter(StageExtracting)
	opts := extract.Options{MaxBytes: t.maxBytes}
	text, err := extract.ReadSource(t.fs, req.Input, opts)
	if err != nil {
		return r.fail(err)
	}
	locator := t.locator(req.Input)
	tree, err := t.extract(locator, text, opts, res)
	if err != nil {
		return r.fail(err)
	}
	res.SpecID = tree.Metadata.SpecID
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	r.enter(StageBuilding)
	doc := t.builder.Build(tree, locator)
	res.Document = doc

	if req.Validate {
		if err := ctx.Err(); err != nil {
			return r.fail(err)
		}
		r.enter(StageValidating)
		vr := t.validator.ValidateDocument(doc)
		res.Validation = vr
		res.Warnings = append(res.Warnings, vr.Warnings...)
		if !vr.Valid {
			return r.fail(vr.Err())
		}
	}

	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}
	r.enter(StageSerializing)
	data, err := canonical.Serialize(doc)
	if err != nil {
		return r.fail(err)
	}
	res.Data = data
	hash, err := canonical.Hash(data, canonical.HashOptions{ExcludeProvenance: true})
	if err != nil {
		return r.fail(err)
	}
	res.Hash = hash

	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}
	r.enter(StageWriting)
	if err := t.writeAtomic(res.Output, data); err != nil {
		return r.fail(err)
	}

	res.Stage = StageDone
	res.Duration = time.Since(r.start)
	r.publish(Status{Input: res.Input, Stage: StageDone, Time: t.clock()})
	_ = t.events.Write(logging.Event{
		Type:       logging.EventResult,
		Timestamp:  t.clock(),
		Input:      res.Input,
		Output:     res.Output,
		SpecID:     res.SpecID,
		Message:    "translated",
		DurationMS: res.Duration.Milliseconds(),
	})
	t.logger.Info("translated", "input", res.Input, "output", res.Output, "spec_id", res.SpecID)

	t.runHook(ctx, res)
	return res, nil
}

func (t *Translator) extract(locator, text string, opts extract.Options, res *Result) (*extract.Tree, error) {
	if t.cache == nil {
		return extract.ExtractWithOptions(text, opts)
	}
	tree, hit, err := t.cache.Extract(locator, text, func() (*extract.Tree, error) {
		return extract.ExtractWithOptions(text, opts)
	})
	res.Cached = hit
	return tree, err
}

// writeAtomic writes data to a temporary file beside path and renames it
// into place.
func (t *Translator) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := t.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	tmp, err := t.fs.TempFile(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()

	// OS temp files are created 0600.
	if c, ok := tmp.(interface{ Chmod(os.FileMode) error }); ok {
		_ = c.Chmod(0o644)
	}
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = t.fs.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := t.fs.Rename(name, path); err != nil {
		_ = t.fs.Remove(name)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// runHook invokes the configured hook. A failing hook is a warning; the
// written document stays.
func (t *Translator) runHook(ctx context.Context, res *Result) {
	if t.hook.Command == "" {
		return
	}

	opts := hooks.Options{
		Command:    t.hook.Command,
		OutputPath: res.Output,
		InputPath:  res.Input,
		WorkDir:    t.hook.WorkDir,
		FS:         t.fs,
	}
	if t.hook.OutputFor != nil {
		w, err := t.hook.OutputFor(res.SpecID)
		if err != nil {
			t.warn(res, fmt.Sprintf("hook output: %v", err))
		} else {
			defer w.Close()
			opts.Stdout = w
			opts.Stderr = w
		}
	}

	hr, err := hooks.Invoke(ctx, opts)
	if hr.Ran {
		res.Hook = &hr
		_ = t.events.Write(logging.Event{
			Type:      logging.EventHook,
			Timestamp: t.clock(),
			Input:     res.Input,
			Output:    res.Output,
			SpecID:    hr.SpecID,
			Command:   hr.Command,
			ExitCode:  hr.ExitCode,
		})
	}
	if err != nil {
		t.warn(res, fmt.Sprintf("hook: %v", err))
	}
}

func (t *Translator) warn(res *Result, msg string) {
	res.Warnings = append(res.Warnings, msg)
	_ = t.events.Write(logging.Event{
		Type:      logging.EventWarning,
		Timestamp: t.clock(),
		Input:     res.Input,
		Output:    res.Output,
		Message:   msg,
	})
	t.logger.Warn(msg, "input", res.Input)
}

// ValidateExisting checks a canonical document on disk. An invalid
// document yields its report together with a validation error.
func (t *Translator) ValidateExisting(ctx context.Context, path string) (*Report, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	text, err := extract.ReadSource(t.fs, path, extract.Options{MaxBytes: t.maxBytes})
	if err != nil {
		return nil, err
	}
	m, err := canonical.ParseMap([]byte(text))
	if err != nil {
		return nil, err
	}

	vr := t.validator.Validate(m)
	report := &Report{
		Path:       path,
		SpecID:     stringOf(m["spec_id"]),
		Title:      stringOf(m["title"]),
		Status:     stringOf(m["status"]),
		Provenance: provenanceOf(m["metadata"]),
		Validation: vr,
	}

	event := logging.Event{
		Type:      logging.EventResult,
		Timestamp: t.clock(),
		Input:     path,
		SpecID:    report.SpecID,
		Message:   "validated",
	}
	if !vr.Valid {
		err := vr.Err()
		event.Type = logging.EventError
		event.Message = err.Error()
		event.Code = string(specerr.CodeValidation)
		event.Errors = vr.Messages()
		_ = t.events.Write(event)
		return report, err
	}
	_ = t.events.Write(event)
	t.logger.Info("valid", "path", path, "spec_id", report.SpecID)
	return report, nil
}

// Watch would re-translate on every change to path. It is not
// implemented and fails immediately.
func (t *Translator) Watch(ctx context.Context, path string) error {
	return specerr.NotImplemented("watch")
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func provenanceOf(v any) canonical.Provenance {
	m, ok := v.(map[string]any)
	if !ok {
		return canonical.Provenance{}
	}
	generated, _ := m["generated_from_markdown"].(bool)
	return canonical.Provenance{
		SpecVersion:           stringOf(m["spec_version"]),
		GeneratedFromMarkdown: generated,
		MarkdownLocation:      stringOf(m["markdown_location"]),
		LastSync:              stringOf(m["last_sync"]),
	}
}

// Package schema validates canonical spec documents.
//
// Validation runs in two layers. The core checks enforce the identity
// fields, the eight section keys, the provenance block, the status enum and
// spec_version compatibility. The record layer checks section contents
// against a JSON Schema, embedded by default. Every violation is collected;
// validation never stops at the first one.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/canonical"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specerr"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/utils"
)

//go:embed canonical.schema.json
var embeddedSchema []byte

const embeddedSchemaURL = "canonical.schema.json"

var requiredFields = []string{"spec_id", "title", "created", "updated", "status"}

var requiredMetadata = []string{"spec_version", "generated_from_markdown", "markdown_location", "last_sync"}

// Violation is a single validation failure.
type Violation struct {
	Path    string // dotted path, "" for the document root
	Message string
}

func (v Violation) String() string {
	return v.Message
}

// Result holds every violation found in one validation pass.
type Result struct {
	Valid      bool
	Violations []Violation
	Warnings   []string
	UsedSchema bool // true if the record layer ran
}

// Messages returns the violation messages in discovery order.
func (r *Result) Messages() []string {
	msgs := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		msgs = append(msgs, v.Message)
	}
	return msgs
}

// Err returns nil for a valid result, otherwise a validation error carrying
// every message.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	return specerr.Validation("validate", r.Messages())
}

func (r *Result) add(path, msg string) {
	r.Valid = false
	r.Violations = append(r.Violations, Violation{Path: path, Message: msg})
}

// covered reports whether path, or one of its ancestors, already has a
// violation.
func (r *Result) covered(path string) bool {
	for _, v := range r.Violations {
		if v.Path == "" {
			continue
		}
		if path == v.Path || strings.HasPrefix(path, v.Path+".") || strings.HasPrefix(path, v.Path+"[") {
			return true
		}
	}
	return false
}

// Options configures a Validator.
type Options struct {
	// SchemaPath overrides the embedded record schema with a JSON Schema
	// file. When it cannot be loaded the embedded schema is used and a
	// warning is reported.
	SchemaPath string
	// SchemaVersion is the spec_version this validator accepts, under
	// caret compatibility. Empty means canonical.DefaultSpecVersion.
	SchemaVersion string
}

// Validator checks canonical documents. It is safe for concurrent use.
type Validator struct {
	schema     *jsonschema.Schema
	constraint *semver.Constraints
	version    string
	warnings   []string
}

// New compiles the record schema and the version constraint.
func New(opts Options) (*Validator, error) {
	v := &Validator{version: opts.SchemaVersion}
	if v.version == "" {
		v.version = canonical.DefaultSpecVersion
	}

	constraint, err := semver.NewConstraint("^" + v.version)
	if err != nil {
		return nil, fmt.Errorf("invalid schema version %q: %w", v.version, err)
	}
	v.constraint = constraint

	if opts.SchemaPath != "" {
		sch, err := compileFile(opts.SchemaPath)
		if err == nil {
			v.schema = sch
			return v, nil
		}
		v.warnings = append(v.warnings, fmt.Sprintf("%v; using embedded schema", err))
	}

	sch, err := compileEmbedded()
	if err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}
	v.schema = sch
	return v, nil
}

// MustNew is like New with default options but panics on error.
func MustNew() *Validator {
	v, err := New(Options{})
	if err != nil {
		panic(err)
	}
	return v
}

func compileEmbedded() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(embeddedSchemaURL)
}

func compileFile(path string) (*jsonschema.Schema, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid schema path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("schema file not found: %s", absPath)
		}
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	sch, err := compiler.Compile(absPath)
	if err != nil {
		return nil, fmt.Errorf("invalid schema file: %w", err)
	}
	return sch, nil
}

// SchemaVersion returns the spec_version the validator was built for.
func (v *Validator) SchemaVersion() string {
	return v.version
}

// ValidateDocument validates a typed canonical document.
func (v *Validator) ValidateDocument(doc *canonical.Document) *Result {
	if doc == nil {
		r := v.newResult()
		r.add("", "Document is empty")
		return r
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		r := v.newResult()
		r.add("", fmt.Sprintf("Document cannot be encoded: %v", err))
		return r
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		r := v.newResult()
		r.add("", fmt.Sprintf("Document cannot be decoded: %v", err))
		return r
	}
	return v.Validate(m)
}

// ValidateBytes parses a YAML document and validates it. Parse failures are
// returned as errors, not violations.
func (v *Validator) ValidateBytes(data []byte) (*Result, error) {
	m, err := canonical.ParseMap(data)
	if err != nil {
		return nil, err
	}
	return v.Validate(m), nil
}

func (v *Validator) newResult() *Result {
	r := &Result{
		Valid:      true,
		Violations: make([]Violation, 0),
		Warnings:   make([]string, 0, len(v.warnings)),
	}
	r.Warnings = append(r.Warnings, v.warnings...)
	return r
}

// Validate checks a generic document, such as one loaded from storage.
// It has no side effects.
func (v *Validator) Validate(doc map[string]any) *Result {
	r := v.newResult()
	if doc == nil {
		r.add("", "Document is empty")
		return r
	}

	for _, f := range requiredFields {
		if val, ok := doc[f]; !ok || val == nil {
			r.add(f, "Missing required field: "+f)
		}
	}

	for _, s := range canonical.SectionKeys {
		if val, ok := doc[s]; !ok || val == nil {
			r.add(s, "Missing required section: "+s)
		}
	}

	if meta, ok := doc["metadata"].(map[string]any); ok {
		for _, f := range requiredMetadata {
			if val, ok := meta[f]; !ok || val == nil {
				r.add("metadata."+f, "Missing metadata field: "+f)
			}
		}
		if val, ok := meta["spec_version"]; ok && val != nil {
			v.checkVersion(r, fmt.Sprint(val))
		}
	}

	if val, ok := doc["status"]; ok && val != nil {
		status, _ := val.(string)
		if !isStatus(status) {
			r.add("status", fmt.Sprintf("Invalid status: %q (must be one of %s)", fmt.Sprint(val), strings.Join(canonical.Statuses, ", ")))
		}
	}

	v.validateRecords(r, doc)
	return r
}

func isStatus(s string) bool {
	for _, st := range canonical.Statuses {
		if s == st {
			return true
		}
	}
	return false
}

func (v *Validator) checkVersion(r *Result, raw string) {
	ver, err := semver.NewVersion(raw)
	if err != nil {
		r.add("metadata.spec_version", fmt.Sprintf("Invalid spec_version: %q", raw))
		return
	}
	if !v.constraint.Check(ver) {
		r.add("metadata.spec_version", fmt.Sprintf("Unsupported spec_version: %q (requires ^%s)", raw, v.version))
	}
}

// validateRecords runs the JSON Schema layer. Errors at a path that the
// core checks already reported are skipped.
func (v *Validator) validateRecords(r *Result, doc map[string]any) {
	if v.schema == nil {
		return
	}

	data, err := json.Marshal(doc)
	if err != nil {
		r.Warnings = append(r.Warnings, fmt.Sprintf("record checks skipped: %v", err))
		return
	}
	var obj interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		r.Warnings = append(r.Warnings, fmt.Sprintf("record checks skipped: %v", err))
		return
	}

	r.UsedSchema = true
	err = v.schema.Validate(obj)
	if err == nil {
		return
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		r.add("", err.Error())
		return
	}
	v.collectSchemaErrors(r, ve)
}

func (v *Validator) collectSchemaErrors(r *Result, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		path := utils.JSONPointerToPath(err.InstanceLocation)
		if r.covered(path) {
			return
		}
		if path == "" {
			r.add(path, err.Message)
			return
		}
		r.add(path, fmt.Sprintf("%s: %s", path, err.Message))
		return
	}
	for _, cause := range err.Causes {
		v.collectSchemaErrors(r, cause)
	}
}

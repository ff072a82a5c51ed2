package schema

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/canonical"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/extract"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specerr"
)

const specText = `# Spec: Checkout

**Spec ID**: spec-001
**Created**: 2025-01-01
**Updated**: 2025-01-01
**Status**: draft

### 1.3 Acceptance Criteria
- [ ] **AC-1**: Test

### 2.2 Components
#### Component 1: Cart
**Links to**: AC-1

### 3.1 Tasks
- [x] **task-1**: Build cart

### 4.1 Test Cases
- [ ] **tc-1**: Cart totals
`

func builtDocument(t *testing.T) *canonical.Document {
	t.Helper()
	tree, err := extract.Extract(specText)
	require.NoError(t, err)
	clock := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return canonical.NewBuilder(canonical.WithClock(clock)).Build(tree, "specs/active/checkout.md")
}

func documentMap(t *testing.T, doc *canonical.Document) map[string]any {
	t.Helper()
	data, err := canonical.Serialize(doc)
	require.NoError(t, err)
	m, err := canonical.ParseMap(data)
	require.NoError(t, err)
	return m
}

func TestValidateBuiltDocument(t *testing.T) {
	v := MustNew()

	result := v.ValidateDocument(builtDocument(t))
	assert.True(t, result.Valid, "violations: %v", result.Messages())
	assert.True(t, result.UsedSchema)
	assert.NoError(t, result.Err())

	// An empty tree still builds a document every check accepts apart from
	// its identity fields.
	empty := canonical.NewBuilder().Build(&extract.Tree{Metadata: extract.Metadata{SpecID: "spec-9", Status: "draft"}}, "")
	result = v.ValidateDocument(empty)
	assert.True(t, result.Valid, "violations: %v", result.Messages())
}

func TestValidateInvalidStatus(t *testing.T) {
	doc := builtDocument(t)
	doc.Status = "bogus"

	result := MustNew().ValidateDocument(doc)
	require.False(t, result.Valid)
	require.Len(t, result.Violations, 1)
	assert.Contains(t, result.Violations[0].Message, "Invalid status")
	assert.Contains(t, result.Violations[0].Message, `"bogus"`)

	err := result.Err()
	assert.True(t, errors.Is(err, specerr.ErrValidation))
	assert.Contains(t, err.Error(), "Invalid status")
}

func TestValidateAccumulates(t *testing.T) {
	m := documentMap(t, builtDocument(t))
	delete(m, "spec_id")
	delete(m, "created")
	delete(m, "changes")
	delete(m["metadata"].(map[string]any), "last_sync")
	m["status"] = "shipped"

	result := MustNew().Validate(m)
	require.False(t, result.Valid)
	assert.Equal(t, []string{
		"Missing required field: spec_id",
		"Missing required field: created",
		"Missing required section: changes",
		"Missing metadata field: last_sync",
		`Invalid status: "shipped" (must be one of draft, approved, in-progress, completed)`,
	}, result.Messages())

	msgs := specerr.MessagesOf(result.Err())
	assert.Len(t, msgs, 5)
}

func TestValidateMissingEverything(t *testing.T) {
	result := MustNew().Validate(map[string]any{})
	require.False(t, result.Valid)

	// 5 identity fields and 8 sections, no metadata sub-fields because the
	// metadata section itself is missing.
	assert.Len(t, result.Violations, 13)
}

func TestValidateNilDocument(t *testing.T) {
	result := MustNew().Validate(nil)
	assert.False(t, result.Valid)

	result = MustNew().ValidateDocument(nil)
	assert.False(t, result.Valid)
}

func TestValidateSpecVersion(t *testing.T) {
	tests := []struct {
		name    string
		version any
		valid   bool
		message string
	}{
		{name: "current", version: "1.0", valid: true},
		{name: "minor bump", version: "1.3", valid: true},
		{name: "numeric", version: 1.0, valid: true},
		{name: "next major", version: "2.0", message: "Unsupported spec_version"},
		{name: "garbage", version: "latest", message: "Invalid spec_version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := documentMap(t, builtDocument(t))
			m["metadata"].(map[string]any)["spec_version"] = tt.version

			result := MustNew().Validate(m)
			assert.Equal(t, tt.valid, result.Valid, "violations: %v", result.Messages())
			if tt.message != "" {
				require.Len(t, result.Violations, 1)
				assert.Contains(t, result.Violations[0].Message, tt.message)
			}
		})
	}
}

func TestValidateRecordShapes(t *testing.T) {
	m := documentMap(t, builtDocument(t))
	goals := m["goals"].(map[string]any)
	criteria := goals["acceptance_criteria"].([]any)
	criteria[0].(map[string]any)["status"] = "maybe"
	tasks := m["implementation"].(map[string]any)["tasks"].([]any)
	delete(tasks[0].(map[string]any), "links_to")

	result := MustNew().Validate(m)
	require.False(t, result.Valid)

	var paths []string
	for _, v := range result.Violations {
		paths = append(paths, v.Path)
	}
	assert.Contains(t, paths, "goals.acceptance_criteria[0].status")
	assert.Contains(t, paths, "implementation.tasks[0]")
}

func TestValidateSkipsCoveredSchemaErrors(t *testing.T) {
	m := documentMap(t, builtDocument(t))
	m["goals"] = nil // reported by the core checks; the schema would flag its type too

	result := MustNew().Validate(m)
	require.False(t, result.Valid)
	assert.Equal(t, []string{"Missing required section: goals"}, result.Messages())
}

func TestValidateBytes(t *testing.T) {
	v := MustNew()

	data, err := canonical.Serialize(builtDocument(t))
	require.NoError(t, err)
	result, err := v.ValidateBytes(data)
	require.NoError(t, err)
	assert.True(t, result.Valid, "violations: %v", result.Messages())

	_, err = v.ValidateBytes([]byte("spec_id: !!python/object:os.system x\n"))
	assert.True(t, errors.Is(err, specerr.ErrStructural))
}

func TestExternalSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strict.schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"type": "object",
		"properties": {"title": {"type": "string", "minLength": 3}}
	}`), 0o644))

	v, err := New(Options{SchemaPath: path})
	require.NoError(t, err)

	doc := builtDocument(t)
	doc.Title = "ab"
	result := v.ValidateDocument(doc)
	require.False(t, result.Valid)
	assert.True(t, strings.HasPrefix(result.Messages()[0], "title: "))
}

func TestExternalSchemaFallback(t *testing.T) {
	v, err := New(Options{SchemaPath: filepath.Join(t.TempDir(), "missing.json")})
	require.NoError(t, err)

	result := v.ValidateDocument(builtDocument(t))
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "schema file not found")
}

func TestInvalidSchemaVersion(t *testing.T) {
	_, err := New(Options{SchemaVersion: "not-a-version"})
	assert.Error(t, err)
}

package canonical

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/extract"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specerr"
)

const sampleSpec = `# Spec: Sample Feature

**Spec ID**: spec-001
**Created**: 2025-01-01
**Updated**: 2025-01-01
**Status**: draft

### 1.1 Primary Goal
Ship the feature.
Second line of prose.

### 1.3 Acceptance Criteria
- [ ] **AC-1**: Test
- [x] **AC-2**: Größe prüfen 日本語 ✓

### 2.1 Architecture
Layered.

### 2.2 Components
#### Component 1: Parser
**Purpose**: Parse input
**Links to**: [Goals: AC-1, AC-2]

### 3.1 Tasks
- [ ] **task-1**: Build parser
  - **Dependencies**: none
  - **Links to**: AC-1

### 4.1 Test Cases
- [ ] **tc-1**: Parser accepts minimal spec
  - **Type**: unit
`

func fixedClock(s string) Clock {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func buildSample(t *testing.T, clock Clock) *Document {
	t.Helper()
	tree, err := extract.Extract(sampleSpec)
	require.NoError(t, err)
	return NewBuilder(WithClock(clock)).Build(tree, "specs/active/sample.md")
}

func TestBuildEmptyTree(t *testing.T) {
	doc := NewBuilder(WithClock(fixedClock("2026-01-02T03:04:05Z"))).Build(nil, "x.md")

	assert.Equal(t, "2026-01-02T03:04:05Z", doc.Created)
	assert.Equal(t, "2026-01-02T03:04:05Z", doc.Updated)
	assert.NotNil(t, doc.Goals.UserStories)
	assert.NotNil(t, doc.Goals.AcceptanceCriteria)
	assert.NotNil(t, doc.Design.Components)
	assert.NotNil(t, doc.Implementation.Risks)
	assert.NotNil(t, doc.TestStrategy.TestCases)
	assert.NotNil(t, doc.ExecutionLog)
	assert.NotNil(t, doc.Changes)
	assert.NotNil(t, doc.Completion)
	assert.Equal(t, extract.Architecture{}, doc.Design.Architecture)

	assert.Equal(t, Provenance{
		SpecVersion:           DefaultSpecVersion,
		GeneratedFromMarkdown: true,
		MarkdownLocation:      "x.md",
		LastSync:              "2026-01-02T03:04:05Z",
	}, doc.Metadata)
}

func TestBuildTimestamps(t *testing.T) {
	created := time.Date(2024, 3, 5, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	tree := &extract.Tree{Metadata: extract.Metadata{
		SpecID:    "spec-002",
		Updated:   "2025-06-01",
		CreatedAt: &created,
	}}

	doc := NewBuilder(WithClock(fixedClock("2026-01-01T00:00:00Z"))).Build(tree, "")
	assert.Equal(t, "2024-03-05T09:00:00Z", doc.Created)
	assert.Equal(t, "2025-06-01", doc.Updated)
}

func TestBuildSpecVersion(t *testing.T) {
	doc := NewBuilder(WithSpecVersion("1.2")).Build(nil, "")
	assert.Equal(t, "1.2", doc.Metadata.SpecVersion)
}

func TestBuildScenario(t *testing.T) {
	doc := buildSample(t, fixedClock("2026-01-01T00:00:00Z"))

	assert.Equal(t, "spec-001", doc.SpecID)
	assert.Equal(t, "Sample Feature", doc.Title)
	assert.Equal(t, "draft", doc.Status)
	assert.Equal(t, extract.AcceptanceCriterion{ID: "AC-1", Criterion: "Test", Status: "pending"}, doc.Goals.AcceptanceCriteria[0])
	assert.Equal(t, "completed", doc.Goals.AcceptanceCriteria[1].Status)
	assert.Equal(t, []string{"AC-1", "AC-2"}, doc.Design.Components[0].LinksTo)
	assert.Equal(t, "Layered.", doc.Design.Architecture.Overview)
}

func TestIdempotentTranslation(t *testing.T) {
	first := buildSample(t, fixedClock("2026-01-01T00:00:00Z"))
	second := buildSample(t, fixedClock("2026-02-01T12:30:00Z"))

	assert.NotEqual(t, first.Metadata.LastSync, second.Metadata.LastSync)

	first.Metadata.LastSync = ""
	second.Metadata.LastSync = ""
	assert.Equal(t, first, second)

	a, err := Serialize(first)
	require.NoError(t, err)
	b, err := Serialize(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSerializeRoundTrip(t *testing.T) {
	doc := buildSample(t, fixedClock("2026-01-01T00:00:00Z"))

	data, err := Serialize(doc)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)

	empty := NewBuilder().Build(nil, "")
	data, err = Serialize(empty)
	require.NoError(t, err)
	parsed, err = Parse(data)
	require.NoError(t, err)
	assert.Equal(t, empty, parsed)
}

func TestSerializeKeyOrder(t *testing.T) {
	data, err := Serialize(buildSample(t, fixedClock("2026-01-01T00:00:00Z")))
	require.NoError(t, err)

	var root yaml.Node
	require.NoError(t, yaml.Unmarshal(data, &root))
	mapping := root.Content[0]

	var keys []string
	for i := 0; i < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
	}
	assert.Equal(t, []string{
		"spec_id", "title", "created", "updated", "status",
		"goals", "design", "implementation", "test_strategy",
		"execution_log", "changes", "completion", "metadata",
	}, keys)

	assert.True(t, bytes.HasPrefix(data, []byte("spec_id: spec-001\n")))
	assert.Contains(t, string(data), "\ncreated: \"2025-01-01\"\n")
	assert.Contains(t, string(data), "\n  spec_version: \"1.0\"\n")
}

func TestSerializePreservesUnicode(t *testing.T) {
	data, err := Serialize(buildSample(t, fixedClock("2026-01-01T00:00:00Z")))
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("Größe prüfen 日本語 ✓")))
}

func TestParseRejectsUnsafeConstructs(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "language tag", data: "spec_id: !!python/object:os.system [ls]\n"},
		{name: "local tag", data: "spec_id: !exec rm\n"},
		{name: "anchor", data: "a: &x 1\nb: 2\n"},
		{name: "alias", data: "a: 1\nb: *x\n"},
		{name: "binary", data: "blob: !!binary aGVsbG8=\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, specerr.ErrStructural))

			_, err = ParseMap([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestParseErrorNamesConstruct(t *testing.T) {
	_, err := ParseMap([]byte("spec_id: &a x\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, specerr.ErrStructural))
	assert.NotContains(t, err.Error(), "missing required field")
	assert.Contains(t, err.Error(), "parse: invalid document:")
	assert.Contains(t, err.Error(), "anchor")
}

func TestCheckSafeReportsLine(t *testing.T) {
	err := CheckSafe([]byte("a: 1\nb: !custom 2\n"))
	var unsafe *UnsafeNodeError
	require.True(t, errors.As(err, &unsafe))
	assert.Equal(t, 2, unsafe.Line)
}

func TestParseMapRejectsNonMapping(t *testing.T) {
	_, err := ParseMap([]byte("- a\n- b\n"))
	require.Error(t, err)
	_, err = ParseMap([]byte(""))
	require.Error(t, err)
}

func TestHash(t *testing.T) {
	first := buildSample(t, fixedClock("2026-01-01T00:00:00Z"))
	second := buildSample(t, fixedClock("2026-02-01T00:00:00Z"))

	h1, err := HashDocument(first, HashOptions{})
	require.NoError(t, err)
	h2, err := HashDocument(second, HashOptions{})
	require.NoError(t, err)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, h2, "last_sync is part of the hashed content by default")

	e1, err := HashDocument(first, HashOptions{ExcludeProvenance: true})
	require.NoError(t, err)
	e2, err := HashDocument(second, HashOptions{ExcludeProvenance: true})
	require.NoError(t, err)
	assert.Equal(t, e1, e2)
}

func TestHashIgnoresFormatting(t *testing.T) {
	doc := buildSample(t, fixedClock("2026-01-01T00:00:00Z"))

	canonicalBytes, err := Serialize(doc)
	require.NoError(t, err)
	reindented, err := yaml.Marshal(doc) // four-space indent
	require.NoError(t, err)
	require.NotEqual(t, string(canonicalBytes), string(reindented))

	h1, err := Hash(canonicalBytes, HashOptions{})
	require.NoError(t, err)
	h2, err := Hash(reindented, HashOptions{})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

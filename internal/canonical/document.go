// Package canonical assembles extracted spec trees into the canonical
// document and renders it as YAML.
//
// Field order in Document is the serialized key order. Every section key is
// always present; missing data is an empty string, list or mapping.
package canonical

import (
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/extract"
)

// DefaultSpecVersion is stamped into metadata.spec_version when the builder
// is not configured otherwise.
const DefaultSpecVersion = "1.0"

// TimestampLayout is the ISO-8601 form used for generated timestamps.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Document statuses accepted by validation.
const (
	StatusDraft      = "draft"
	StatusApproved   = "approved"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Statuses lists the closed set of document statuses in display order.
var Statuses = []string{StatusDraft, StatusApproved, StatusInProgress, StatusCompleted}

// SectionKeys are the top-level sections every document carries.
var SectionKeys = []string{
	"goals",
	"design",
	"implementation",
	"test_strategy",
	"execution_log",
	"changes",
	"completion",
	"metadata",
}

// Document is the canonical, schema-conformant form of a spec.
type Document struct {
	SpecID  string `yaml:"spec_id"`
	Title   string `yaml:"title"`
	Created string `yaml:"created"`
	Updated string `yaml:"updated"`
	Status  string `yaml:"status"`

	Goals          extract.Goals          `yaml:"goals"`
	Design         Design                 `yaml:"design"`
	Implementation extract.Implementation `yaml:"implementation"`
	TestStrategy   extract.TestStrategy   `yaml:"test_strategy"`

	ExecutionLog []map[string]any `yaml:"execution_log"`
	Changes      []map[string]any `yaml:"changes"`
	Completion   map[string]any   `yaml:"completion"`

	Metadata Provenance `yaml:"metadata"`
}

// Design mirrors extract.Design with the architecture always present.
type Design struct {
	Architecture extract.Architecture `yaml:"architecture"`
	Components   []extract.Component  `yaml:"components"`
	DataModels   []extract.NamedItem  `yaml:"data_models"`
	APIs         []extract.NamedItem  `yaml:"apis"`
}

// Provenance records how and from where a document was generated.
type Provenance struct {
	SpecVersion           string `yaml:"spec_version"`
	GeneratedFromMarkdown bool   `yaml:"generated_from_markdown"`
	MarkdownLocation      string `yaml:"markdown_location"`
	LastSync              string `yaml:"last_sync"`
}

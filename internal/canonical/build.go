package canonical

import (
	"time"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/extract"
)

// Clock returns the current instant.
type Clock func() time.Time

// Builder maps section trees onto canonical documents.
type Builder struct {
	clock       Clock
	specVersion string
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the time source used for provenance and missing timestamps.
func WithClock(c Clock) Option {
	return func(b *Builder) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithSpecVersion sets the spec_version stamped into every document.
func WithSpecVersion(v string) Option {
	return func(b *Builder) {
		if v != "" {
			b.specVersion = v
		}
	}
}

// NewBuilder returns a builder using the wall clock and DefaultSpecVersion
// unless overridden.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{clock: time.Now, specVersion: DefaultSpecVersion}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles a canonical document from tree. It never fails: absent
// sections become empty defaults and a nil tree yields an empty document.
// locator is recorded as metadata.markdown_location.
func (b *Builder) Build(tree *extract.Tree, locator string) *Document {
	if tree == nil {
		tree = &extract.Tree{}
	}
	now := b.clock()
	meta := tree.Metadata

	doc := &Document{
		SpecID:  meta.SpecID,
		Title:   meta.Title,
		Created: timestamp(meta.Created, meta.CreatedAt, now),
		Updated: timestamp(meta.Updated, meta.UpdatedAt, now),
		Status:  meta.Status,

		Goals:          buildGoals(tree.Goals),
		Design:         buildDesign(tree.Design),
		Implementation: buildImplementation(tree.Implementation),
		TestStrategy:   buildTestStrategy(tree.TestStrategy),

		ExecutionLog: []map[string]any{},
		Changes:      []map[string]any{},
		Completion:   map[string]any{},

		Metadata: Provenance{
			SpecVersion:           b.specVersion,
			GeneratedFromMarkdown: true,
			MarkdownLocation:      locator,
			LastSync:              FormatTime(now),
		},
	}
	return doc
}

// FormatTime renders t in UTC with a literal Z suffix.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// timestamp prefers the authored string, then a native time, then now.
func timestamp(s string, t *time.Time, now time.Time) string {
	switch {
	case s != "":
		return s
	case t != nil:
		return FormatTime(*t)
	default:
		return FormatTime(now)
	}
}

func strs(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func buildGoals(g extract.Goals) extract.Goals {
	out := extract.Goals{
		PrimaryGoal:        g.PrimaryGoal,
		UserStories:        make([]extract.UserStory, 0, len(g.UserStories)),
		AcceptanceCriteria: make([]extract.AcceptanceCriterion, 0, len(g.AcceptanceCriteria)),
		Constraints:        strs(g.Constraints),
		NonGoals:           strs(g.NonGoals),
	}
	for _, s := range g.UserStories {
		s.AcceptanceCriteria = strs(s.AcceptanceCriteria)
		out.UserStories = append(out.UserStories, s)
	}
	out.AcceptanceCriteria = append(out.AcceptanceCriteria, g.AcceptanceCriteria...)
	return out
}

func buildDesign(d extract.Design) Design {
	out := Design{
		Components: make([]extract.Component, 0, len(d.Components)),
		DataModels: make([]extract.NamedItem, 0, len(d.DataModels)),
		APIs:       make([]extract.NamedItem, 0, len(d.APIs)),
	}
	if d.Architecture != nil {
		out.Architecture = *d.Architecture
	}
	for _, c := range d.Components {
		c.Responsibilities = strs(c.Responsibilities)
		c.Interfaces = strs(c.Interfaces)
		c.LinksTo = strs(c.LinksTo)
		out.Components = append(out.Components, c)
	}
	out.DataModels = append(out.DataModels, d.DataModels...)
	out.APIs = append(out.APIs, d.APIs...)
	return out
}

func buildImplementation(impl extract.Implementation) extract.Implementation {
	out := extract.Implementation{
		Tasks:             make([]extract.Task, 0, len(impl.Tasks)),
		ExecutionSequence: strs(impl.ExecutionSequence),
		Risks:             make([]extract.Risk, 0, len(impl.Risks)),
	}
	for _, t := range impl.Tasks {
		t.Dependencies = strs(t.Dependencies)
		t.LinksTo = strs(t.LinksTo)
		out.Tasks = append(out.Tasks, t)
	}
	out.Risks = append(out.Risks, impl.Risks...)
	return out
}

func buildTestStrategy(ts extract.TestStrategy) extract.TestStrategy {
	out := extract.TestStrategy{
		TestCases:     make([]extract.TestCase, 0, len(ts.TestCases)),
		CoverageGoals: strs(ts.CoverageGoals),
	}
	for _, tc := range ts.TestCases {
		tc.LinksTo = strs(tc.LinksTo)
		out.TestCases = append(out.TestCases, tc)
	}
	return out
}

package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specerr"
)

// DefaultMaxBytes bounds the size of a single input document.
const DefaultMaxBytes = 10 << 20

const extractOp = "extract"

// Options tunes extraction.
type Options struct {
	// MaxBytes is the largest input accepted. Zero means DefaultMaxBytes,
	// a negative value disables the bound.
	MaxBytes int64
}

func (o Options) limit() int64 {
	if o.MaxBytes == 0 {
		return DefaultMaxBytes
	}
	return o.MaxBytes
}

// Extract parses spec text into a section tree using default options.
func Extract(text string) (*Tree, error) {
	return ExtractWithOptions(text, Options{})
}

// ExtractWithOptions parses spec text into a section tree.
// It fails with a structural error naming the first missing required
// metadata field, or a resource-exhausted error when text exceeds the bound.
func ExtractWithOptions(text string, opts Options) (*Tree, error) {
	if limit := opts.limit(); limit > 0 && int64(len(text)) > limit {
		return nil, specerr.ResourceExhausted(extractOp, fmt.Errorf("input is %d bytes, limit is %d", len(text), limit))
	}
	if !utf8.ValidString(text) {
		return nil, specerr.Structural(extractOp, errors.New("input is not valid UTF-8"))
	}
	text = strings.TrimPrefix(text, "\ufeff")

	lines := Classify(text)

	meta, err := extractMetadata(lines)
	if err != nil {
		return nil, err
	}

	tree := &Tree{
		Metadata:       meta,
		Goals:          extractGoals(lines),
		Design:         extractDesign(lines),
		Implementation: extractImplementation(lines),
		TestStrategy:   extractTestStrategy(lines),
	}
	return tree, nil
}

// ExtractFile reads path from fsys and extracts it.
func ExtractFile(fsys billy.Basic, path string, opts Options) (*Tree, error) {
	text, err := ReadSource(fsys, path, opts)
	if err != nil {
		return nil, err
	}
	return ExtractWithOptions(text, opts)
}

// ReadSource reads a spec document, enforcing the size bound before the
// content is loaded.
func ReadSource(fsys billy.Basic, path string, opts Options) (string, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", specerr.NotFound(extractOp, path, err)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", specerr.Structural(extractOp, fmt.Errorf("%s is a directory", path))
	}
	limit := opts.limit()
	if limit > 0 && info.Size() > limit {
		return "", specerr.ResourceExhausted(extractOp, fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), limit))
	}

	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", specerr.NotFound(extractOp, path, err)
		}
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", specerr.ResourceExhausted(extractOp, fmt.Errorf("%s exceeds %d bytes", path, limit))
	}
	return string(data), nil
}

// metaLabel binds metadata label aliases to a field. Required labels fail
// extraction when absent; preamble labels are only read before the first
// section heading so record-level labels of the same name do not leak in.
type metaLabel struct {
	name     string
	aliases  []string
	required bool
	preamble bool
	set      func(*Metadata, string)
}

var metaLabels = []metaLabel{
	{name: "Spec ID", aliases: []string{"spec id", "spec identifier"}, required: true, set: func(m *Metadata, v string) { m.SpecID = v }},
	{name: "Created", aliases: []string{"created", "created at", "date created"}, required: true, set: func(m *Metadata, v string) { m.Created = v }},
	{name: "Updated", aliases: []string{"updated", "last updated", "updated at"}, required: true, set: func(m *Metadata, v string) { m.Updated = v }},
	{name: "Status", aliases: []string{"status"}, required: true, set: func(m *Metadata, v string) { m.Status = normalizeStatus(v) }},
	{name: "Title", aliases: []string{"title"}, preamble: true, set: func(m *Metadata, v string) { m.Title = v }},
	{name: "Author", aliases: []string{"author", "owner"}, preamble: true, set: func(m *Metadata, v string) { m.Author = v }},
	{name: "Priority", aliases: []string{"priority"}, preamble: true, set: func(m *Metadata, v string) { m.Priority = v }},
}

func extractMetadata(lines []Line) (Metadata, error) {
	var meta Metadata
	found := make(map[string]bool, len(metaLabels))
	preamble := true

	for _, l := range lines {
		if l.InFence {
			continue
		}
		if l.Kind == KindHeading {
			if l.Level == 1 && meta.Title == "" && !found["Title"] {
				meta.Title = headingTitle(l)
				found["Title"] = meta.Title != ""
			} else if l.Level >= 2 {
				preamble = false
			}
			continue
		}
		label, value, ok := BoldLabel(l.Body)
		if !ok || value == "" {
			continue
		}
		key := normalizeKey(label)
		for _, ml := range metaLabels {
			if found[ml.name] || (ml.preamble && !preamble) || !matchesAlias(key, ml.aliases) {
				continue
			}
			ml.set(&meta, value)
			found[ml.name] = true
			break
		}
	}

	for _, ml := range metaLabels {
		if ml.required && !found[ml.name] {
			return Metadata{}, specerr.MissingField(extractOp, ml.name)
		}
	}
	return meta, nil
}

func matchesAlias(key string, aliases []string) bool {
	for _, a := range aliases {
		if key == a {
			return true
		}
	}
	return false
}

// headingTitle returns an H1 title without a leading "Spec:" marker.
func headingTitle(l Line) string {
	// Title has any section number stripped; H1 titles keep theirs.
	title := l.Title
	if m := headingRe.FindStringSubmatch(trimBlank(l.Raw)); m != nil {
		title = trimBlank(m[2])
	}
	if rest, ok := cutPrefixFold(title, "spec:"); ok {
		title = trimBlank(rest)
	}
	return title
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// normalizeStatus lowercases a document status and joins its words with
// hyphens ("In Progress" becomes "in-progress"). Unknown values are kept
// so validation can reject them.
func normalizeStatus(v string) string {
	s := strings.ToLower(trimBlank(v))
	s = strings.Trim(s, "`*_ ")
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '\t' || r == '-'
	}), "-")
}

func extractGoals(lines []Line) Goals {
	g := Goals{
		UserStories:        []UserStory{},
		AcceptanceCriteria: []AcceptanceCriterion{},
		Constraints:        []string{},
		NonGoals:           []string{},
	}
	if body, ok := findSection(lines, secPrimaryGoal); ok {
		g.PrimaryGoal = parseText(body)
	}
	if body, ok := findSection(lines, secUserStories); ok {
		g.UserStories = parseRecords(body, userStorySpec)
	}
	if body, ok := findSection(lines, secAcceptanceCriteria); ok {
		g.AcceptanceCriteria = numberCriteria(parseRecords(body, acceptanceSpec))
	}
	if body, ok := findSection(lines, secConstraints); ok {
		g.Constraints = parseList(body)
	}
	if body, ok := findSection(lines, secNonGoals); ok {
		g.NonGoals = parseList(body)
	}
	return g
}

func extractDesign(lines []Line) Design {
	d := Design{
		Components: []Component{},
		DataModels: []NamedItem{},
		APIs:       []NamedItem{},
	}
	if body, ok := findSection(lines, secArchitecture); ok {
		d.Architecture = parseArchitecture(body)
	}
	if body, ok := findSection(lines, secComponents); ok {
		d.Components = parseRecords(body, componentSpec)
	}
	if body, ok := findSection(lines, secDataModels); ok {
		d.DataModels = parseNamedItems(body)
	}
	if body, ok := findSection(lines, secAPIs); ok {
		d.APIs = parseNamedItems(body)
	}
	return d
}

func extractImplementation(lines []Line) Implementation {
	impl := Implementation{
		Tasks:             []Task{},
		ExecutionSequence: []string{},
		Risks:             []Risk{},
	}
	if body, ok := findSection(lines, secTasks); ok {
		impl.Tasks = parseRecords(body, taskSpec)
	}
	if body, ok := findSection(lines, secExecutionSequence); ok {
		impl.ExecutionSequence = parseList(body)
	}
	if body, ok := findSection(lines, secRisks); ok {
		impl.Risks = parseRiskTable(body)
		if len(impl.Risks) == 0 {
			impl.Risks = parseRecords(body, riskSpec)
		}
	}
	return impl
}

func extractTestStrategy(lines []Line) TestStrategy {
	ts := TestStrategy{
		TestCases:     []TestCase{},
		CoverageGoals: []string{},
	}
	if body, ok := findSection(lines, secTestCases); ok {
		ts.TestCases = parseRecords(body, testCaseSpec)
	}
	if body, ok := findSection(lines, secCoverageGoals); ok {
		ts.CoverageGoals = parseList(body)
	}
	return ts
}

package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/utils"
)

type fieldKind int

const (
	scalarKind fieldKind = iota // free text, last assignment wins
	listKind                    // comma-separated or nested bullets
	linksKind                   // linkage identifiers
)

// field maps one bold label (with aliases) onto a record attribute.
type field[T any] struct {
	labels  []string
	kind    fieldKind
	setText func(*T, string)
	addList func(*T, []string)
}

func scalarField[T any](set func(*T, string), labels ...string) field[T] {
	return field[T]{labels: normalizeLabels(labels), kind: scalarKind, setText: set}
}

func listField[T any](add func(*T, []string), labels ...string) field[T] {
	return field[T]{labels: normalizeLabels(labels), kind: listKind, addList: add}
}

func linksField[T any](add func(*T, []string), labels ...string) field[T] {
	return field[T]{labels: normalizeLabels(labels), kind: linksKind, addList: add}
}

func normalizeLabels(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = normalizeKey(l)
	}
	return out
}

// apply assigns a labelled value, or one continuation item, to rec.
func (f field[T]) apply(rec *T, value string) {
	switch f.kind {
	case scalarKind:
		f.setText(rec, value)
	case listKind:
		f.addList(rec, parseInlineList(value))
	case linksKind:
		f.addList(rec, ExtractLinks(value))
	}
}

// applyItem adds one nested bullet to a list field. Unlike apply, the item
// is kept whole even when it contains commas.
func (f field[T]) applyItem(rec *T, item string) {
	switch f.kind {
	case listKind:
		if item = trimBlank(item); item != "" {
			f.addList(rec, []string{item})
		}
	case linksKind:
		f.addList(rec, ExtractLinks(item))
	}
}

// recordSpec is the declarative description of one record kind.
type recordSpec[T any] struct {
	// head recognizes a line that opens a new record. n is the number of
	// records seen so far; headIndent is the indent of the open record's
	// head, or -1 when no record is open.
	head   func(l Line, n, headIndent int) (T, bool)
	fields []field[T]
	// text receives unlabelled lines inside an open record.
	text func(rec *T, l Line)
}

func (s recordSpec[T]) lookup(label string) (field[T], bool) {
	key := normalizeKey(label)
	for _, f := range s.fields {
		for _, l := range f.labels {
			if l == key {
				return f, true
			}
		}
	}
	return field[T]{}, false
}

// parseRecords groups body lines into records: a head line opens a record,
// labelled lines fill its fields, and bullets nested under an empty list
// label extend that list. The result is never nil.
func parseRecords[T any](body []Line, spec recordSpec[T]) []T {
	records := make([]T, 0)
	headIndent := -1
	var pending *field[T]
	pendingIndent := 0

	for _, l := range body {
		if l.Kind == KindBlank {
			continue
		}
		if l.Kind != KindFence && !l.InFence {
			if rec, ok := spec.head(l, len(records), headIndent); ok {
				records = append(records, rec)
				headIndent = l.Indent
				if l.Kind == KindHeading {
					headIndent = 0
				}
				pending = nil
				continue
			}
		}
		if len(records) == 0 {
			continue
		}
		cur := &records[len(records)-1]

		if !l.InFence && l.Kind != KindHeading && l.Kind != KindTableRow {
			if label, value, ok := BoldLabel(l.Body); ok {
				if f, known := spec.lookup(label); known {
					f.apply(cur, value)
					pending = nil
					if value == "" && f.kind != scalarKind {
						pending = &f
						pendingIndent = l.Indent
					}
					continue
				}
			}
		}

		if pending != nil && (l.Kind == KindBullet || l.Kind == KindCheckbox) && l.Indent >= pendingIndent {
			pending.applyItem(cur, l.Body)
			continue
		}
		pending = nil

		if spec.text != nil {
			spec.text(cur, l)
		}
	}

	return records
}

// parseInlineList splits "a, b, c" into items. Placeholder values such as
// "None" or "N/A" yield an empty list.
func parseInlineList(value string) []string {
	value = strings.TrimPrefix(trimBlank(value), "[")
	value = strings.TrimSuffix(value, "]")
	items := utils.SplitAndTrim(value, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch strings.ToLower(item) {
		case "none", "n/a", "na", "-", "tbd":
			continue
		}
		out = append(out, item)
	}
	return out
}

var leadingBoldRe = regexp.MustCompile(`^\*\*([^*]+?)\*\*[ \t]*(?:[:\-–—][ \t]*)?(.*)$`)

// leadingBold splits a body that starts with a bold span, accepting
// "**X**: rest", "**X:** rest", "**X** - rest" and "**X** rest".
func leadingBold(body string) (label, rest string, ok bool) {
	m := leadingBoldRe.FindStringSubmatch(body)
	if m == nil {
		return "", "", false
	}
	label = trimBlank(strings.TrimSuffix(trimBlank(m[1]), ":"))
	return label, trimBlank(m[2]), true
}

var headingIDRe = regexp.MustCompile(`^([A-Za-z]+[- ]?\d+)[ \t]*(?:[:\-–—][ \t]*(.*))?$`)

// leadingID returns the identifier and remaining text of a record head when
// the identifier matches idRe. Both "**task-1**: text" and the heading form
// "task-1: text" are accepted.
func leadingID(l Line, idRe *regexp.Regexp) (id, rest string, ok bool) {
	switch l.Kind {
	case KindCheckbox, KindBullet, KindText:
		label, rest, found := leadingBold(l.Body)
		if !found || !idRe.MatchString(label) {
			return "", "", false
		}
		return normalizeID(label), rest, true
	case KindHeading:
		m := headingIDRe.FindStringSubmatch(l.Title)
		if m == nil || !idRe.MatchString(m[1]) {
			return "", "", false
		}
		return normalizeID(m[1]), trimBlank(m[2]), true
	}
	return "", "", false
}

func normalizeID(id string) string {
	return strings.ReplaceAll(trimBlank(id), " ", "-")
}

// checkboxStatus maps "[x]" to completed and "[ ]" or no checkbox to pending.
func checkboxStatus(l Line) string {
	if l.Kind == KindCheckbox && l.Checked {
		return StatusCompleted
	}
	return StatusPending
}

// explicitStatus normalizes a "**Status**:" value, returning "" when the
// value is not a known record status.
func explicitStatus(value string) string {
	s := strings.ToLower(trimBlank(value))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	switch s {
	case StatusPending, StatusCompleted, StatusInProgress, StatusBlocked:
		return s
	case "done", "complete":
		return StatusCompleted
	case "todo", "not-started":
		return StatusPending
	}
	return ""
}

// opensAtTop reports whether an id-less checkbox may open a new record:
// only when no record is open or it sits at the open record's indent.
func opensAtTop(l Line, headIndent int) bool {
	return l.Kind == KindCheckbox && (headIndent < 0 || l.Indent <= headIndent)
}

// continuation reports whether l is an indented text line that continues
// the previous record's prose.
func continuation(l Line) bool {
	return l.Kind == KindText && !l.InFence && l.Indent > 0
}

func appendText(dst, more string) string {
	more = trimBlank(more)
	if more == "" {
		return dst
	}
	if dst == "" {
		return more
	}
	return dst + " " + more
}

var (
	acIDRe        = regexp.MustCompile(`^[A-Za-z]+-\d+$`)
	storyIDRe     = regexp.MustCompile(`(?i)^(?:US|story)[- ]?\d+$`)
	componentIDRe = regexp.MustCompile(`(?i)^component[- ]?(\d+)$`)
	taskIDRe      = regexp.MustCompile(`(?i)^task[- ]?\d+$`)
	testIDRe      = regexp.MustCompile(`(?i)^tc[- ]?\d+$`)
	riskIDRe      = regexp.MustCompile(`(?i)^(?:risk|r)[- ]?\d+$`)
	storyRe       = regexp.MustCompile(`(?i)^as an?[ \t]+(.+?),[ \t]*i[ \t]+want[ \t]+(.+?)(?:,?[ \t]+so[ \t]+that[ \t]+(.+))?$`)
	componentRe   = regexp.MustCompile(`(?i)^component[- ]?(\d+)[ \t]*(?:[:\-–—][ \t]*(.*))?$`)
)

var acceptanceSpec = recordSpec[AcceptanceCriterion]{
	head: func(l Line, n, headIndent int) (AcceptanceCriterion, bool) {
		if l.Kind != KindCheckbox && l.Kind != KindBullet {
			return AcceptanceCriterion{}, false
		}
		if id, rest, ok := leadingID(l, acIDRe); ok {
			return AcceptanceCriterion{ID: id, Criterion: rest, Status: checkboxStatus(l)}, true
		}
		if opensAtTop(l, headIndent) {
			if m := headingIDRe.FindStringSubmatch(l.Body); m != nil && acIDRe.MatchString(m[1]) {
				return AcceptanceCriterion{ID: normalizeID(m[1]), Criterion: trimBlank(m[2]), Status: checkboxStatus(l)}, true
			}
			// Numbered later by numberCriteria.
			return AcceptanceCriterion{Criterion: l.Body, Status: checkboxStatus(l)}, true
		}
		return AcceptanceCriterion{}, false
	},
	fields: []field[AcceptanceCriterion]{
		scalarField(func(c *AcceptanceCriterion, v string) {
			if s := explicitStatus(v); s != "" {
				c.Status = s
			}
		}, "Status"),
	},
	text: func(c *AcceptanceCriterion, l Line) {
		if continuation(l) {
			c.Criterion = appendText(c.Criterion, l.Body)
		}
	},
}

// numberCriteria gives every criterion without an identifier "AC-<position>",
// or the next free number when an explicit identifier already holds it.
func numberCriteria(criteria []AcceptanceCriterion) []AcceptanceCriterion {
	taken := make(map[string]bool, len(criteria))
	for _, c := range criteria {
		if c.ID != "" {
			taken[strings.ToUpper(c.ID)] = true
		}
	}
	for i := range criteria {
		if criteria[i].ID != "" {
			continue
		}
		n := i + 1
		for taken[fmt.Sprintf("AC-%d", n)] {
			n++
		}
		criteria[i].ID = fmt.Sprintf("AC-%d", n)
		taken[criteria[i].ID] = true
	}
	return criteria
}

func newUserStory(id, text string) UserStory {
	story := UserStory{ID: id, AcceptanceCriteria: []string{}}
	if !fillStory(&story, text) {
		story.Title = text
	}
	return story
}

// fillStory parses "As a X, I want Y, so that Z" into the story's fields.
func fillStory(s *UserStory, text string) bool {
	m := storyRe.FindStringSubmatch(trimBlank(text))
	if m == nil {
		return false
	}
	s.AsA = trimBlank(m[1])
	s.IWant = trimBlank(m[2])
	s.SoThat = trimBlank(m[3])
	return true
}

var userStorySpec = recordSpec[UserStory]{
	head: func(l Line, n, headIndent int) (UserStory, bool) {
		id, rest, ok := leadingID(l, storyIDRe)
		if !ok {
			return UserStory{}, false
		}
		return newUserStory(id, rest), true
	},
	fields: []field[UserStory]{
		scalarField(func(s *UserStory, v string) { s.Priority = v }, "Priority"),
		scalarField(func(s *UserStory, v string) { s.Title = v }, "Title"),
		scalarField(func(s *UserStory, v string) { s.AsA = v }, "As a", "As an", "Role"),
		scalarField(func(s *UserStory, v string) { s.IWant = v }, "I want", "I want to", "Want"),
		scalarField(func(s *UserStory, v string) { s.SoThat = v }, "So that", "Benefit"),
		scalarField(func(s *UserStory, v string) { fillStory(s, v) }, "Story"),
		linksField(func(s *UserStory, v []string) {
			s.AcceptanceCriteria = utils.Dedupe(append(s.AcceptanceCriteria, v...))
		}, "Acceptance Criteria", "Acceptance"),
	},
	text: func(s *UserStory, l Line) {
		if s.AsA == "" && !l.InFence {
			fillStory(s, l.Body)
		}
	},
}

var componentSpec = recordSpec[Component]{
	head: func(l Line, n, headIndent int) (Component, bool) {
		c := Component{Responsibilities: []string{}, Interfaces: []string{}, LinksTo: []string{}}
		switch l.Kind {
		case KindHeading:
			if l.Level > 4 {
				return Component{}, false
			}
			if m := componentRe.FindStringSubmatch(l.Title); m != nil {
				c.ID = "Component-" + m[1]
				c.Name = trimBlank(m[2])
				if c.Name == "" {
					c.Name = l.Title
				}
				return c, true
			}
			c.ID = fmt.Sprintf("Component-%d", n+1)
			c.Name = l.Title
			return c, true
		case KindBullet, KindText:
			label, rest, ok := leadingBold(l.Body)
			if !ok {
				return Component{}, false
			}
			m := componentIDRe.FindStringSubmatch(label)
			if m == nil {
				return Component{}, false
			}
			c.ID = "Component-" + m[1]
			c.Name = rest
			return c, true
		}
		return Component{}, false
	},
	fields: []field[Component]{
		scalarField(func(c *Component, v string) { c.Purpose = v }, "Purpose", "Description"),
		scalarField(func(c *Component, v string) { c.Name = v }, "Name"),
		listField(func(c *Component, v []string) { c.Responsibilities = append(c.Responsibilities, v...) }, "Responsibilities", "Responsibility"),
		listField(func(c *Component, v []string) { c.Interfaces = append(c.Interfaces, v...) }, "Interfaces", "Interface"),
		linksField(func(c *Component, v []string) { c.LinksTo = utils.Dedupe(append(c.LinksTo, v...)) }, "Links to", "Links", "Linked to"),
	},
	text: func(c *Component, l Line) {
		if c.Purpose == "" && l.Kind == KindText && !l.InFence {
			c.Purpose = l.Body
		}
	},
}

var taskSpec = recordSpec[Task]{
	head: func(l Line, n, headIndent int) (Task, bool) {
		t := Task{Dependencies: []string{}, LinksTo: []string{}}
		if id, rest, ok := leadingID(l, taskIDRe); ok {
			t.ID, t.Description, t.Status = id, rest, checkboxStatus(l)
			return t, true
		}
		if opensAtTop(l, headIndent) {
			t.ID, t.Description, t.Status = fmt.Sprintf("task-%d", n+1), l.Body, checkboxStatus(l)
			return t, true
		}
		return Task{}, false
	},
	fields: []field[Task]{
		scalarField(func(t *Task, v string) { t.Agent = v }, "Agent", "Assigned to", "Owner"),
		scalarField(func(t *Task, v string) { t.EstimatedEffort = v }, "Estimated effort", "Effort", "Estimate"),
		scalarField(func(t *Task, v string) { t.Description = v }, "Description"),
		scalarField(func(t *Task, v string) {
			if s := explicitStatus(v); s != "" {
				t.Status = s
			}
		}, "Status"),
		listField(func(t *Task, v []string) { t.Dependencies = append(t.Dependencies, v...) }, "Dependencies", "Depends on", "Dependency"),
		linksField(func(t *Task, v []string) { t.LinksTo = utils.Dedupe(append(t.LinksTo, v...)) }, "Links to", "Links", "Linked to"),
	},
	text: func(t *Task, l Line) {
		if continuation(l) {
			t.Description = appendText(t.Description, l.Body)
		}
	},
}

var testCaseSpec = recordSpec[TestCase]{
	head: func(l Line, n, headIndent int) (TestCase, bool) {
		tc := TestCase{LinksTo: []string{}}
		if id, rest, ok := leadingID(l, testIDRe); ok {
			tc.ID, tc.Description, tc.Status = id, rest, checkboxStatus(l)
			return tc, true
		}
		if opensAtTop(l, headIndent) {
			tc.ID, tc.Description, tc.Status = fmt.Sprintf("tc-%d", n+1), l.Body, checkboxStatus(l)
			return tc, true
		}
		return TestCase{}, false
	},
	fields: []field[TestCase]{
		scalarField(func(tc *TestCase, v string) { tc.Type = v }, "Type", "Test type", "Kind"),
		scalarField(func(tc *TestCase, v string) { tc.Description = v }, "Description"),
		scalarField(func(tc *TestCase, v string) {
			if s := explicitStatus(v); s != "" {
				tc.Status = s
			}
		}, "Status"),
		linksField(func(tc *TestCase, v []string) { tc.LinksTo = utils.Dedupe(append(tc.LinksTo, v...)) }, "Links to", "Links", "Linked to", "Verifies"),
	},
	text: func(tc *TestCase, l Line) {
		if continuation(l) {
			tc.Description = appendText(tc.Description, l.Body)
		}
	},
}

var riskSpec = recordSpec[Risk]{
	head: func(l Line, n, headIndent int) (Risk, bool) {
		if l.Kind != KindBullet && l.Kind != KindText && l.Kind != KindCheckbox {
			return Risk{}, false
		}
		if label, value, ok := BoldLabel(l.Body); ok && normalizeKey(label) == "risk" {
			return Risk{Description: value}, true
		}
		if _, rest, ok := leadingID(l, riskIDRe); ok {
			return Risk{Description: rest}, true
		}
		return Risk{}, false
	},
	fields: []field[Risk]{
		scalarField(func(r *Risk, v string) { r.Impact = v }, "Impact", "Severity"),
		scalarField(func(r *Risk, v string) { r.Mitigation = v }, "Mitigation", "Mitigations"),
	},
}

// parseRiskTable reads risks from a markdown table whose header names a
// Risk column. Impact and Mitigation columns are optional.
func parseRiskTable(body []Line) []Risk {
	risks := make([]Risk, 0)
	riskCol, impactCol, mitigationCol := -1, -1, -1
	inTable := false

	for _, l := range body {
		if l.Kind != KindTableRow {
			inTable = false
			riskCol = -1
			continue
		}
		if !inTable {
			inTable = true
			riskCol, impactCol, mitigationCol = -1, -1, -1
			for i, c := range l.Cells {
				switch key := normalizeKey(c); {
				case key == "risk" || key == "risks" || key == "description":
					riskCol = i
				case key == "impact" || key == "severity":
					impactCol = i
				case strings.HasPrefix(key, "mitigation"):
					mitigationCol = i
				}
			}
			continue
		}
		if l.Separator || riskCol < 0 {
			continue
		}
		r := Risk{Description: cell(l.Cells, riskCol), Impact: cell(l.Cells, impactCol), Mitigation: cell(l.Cells, mitigationCol)}
		if r.Description != "" {
			risks = append(risks, r)
		}
	}

	return risks
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// parseNamedItems reads "**Name**: description" bullets or H4 headings with
// prose bodies. Nested bullets and prose extend the description.
func parseNamedItems(body []Line) []NamedItem {
	spec := recordSpec[NamedItem]{
		head: func(l Line, n, headIndent int) (NamedItem, bool) {
			switch l.Kind {
			case KindHeading:
				if l.Level > 4 {
					return NamedItem{}, false
				}
				return NamedItem{Name: l.Title}, true
			case KindBullet, KindCheckbox:
				if headIndent >= 0 && l.Indent > headIndent {
					return NamedItem{}, false
				}
				if name, rest, ok := leadingBold(l.Body); ok {
					return NamedItem{Name: name, Description: rest}, true
				}
				if name, rest, ok := strings.Cut(l.Body, ": "); ok {
					return NamedItem{Name: trimBlank(name), Description: trimBlank(rest)}, true
				}
				return NamedItem{Name: l.Body}, true
			}
			return NamedItem{}, false
		},
		text: func(item *NamedItem, l Line) {
			if l.Kind == KindFence {
				return
			}
			text := l.Body
			if l.InFence {
				text = strings.TrimRight(l.Raw, " \t")
			}
			if item.Description == "" {
				item.Description = text
				return
			}
			item.Description += "\n" + text
		},
	}
	return parseRecords(body, spec)
}

package extract

import (
	"reflect"
	"testing"
)

func TestParseInlineList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "a, b , c", want: []string{"a", "b", "c"}},
		{in: "[task-1, task-2]", want: []string{"task-1", "task-2"}},
		{in: "None", want: []string{}},
		{in: "N/A", want: []string{}},
		{in: "", want: []string{}},
	}
	for _, tt := range tests {
		if got := parseInlineList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseInlineList(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExplicitStatus(t *testing.T) {
	tests := map[string]string{
		"Completed":   StatusCompleted,
		"done":        StatusCompleted,
		"In Progress": StatusInProgress,
		"in_progress": StatusInProgress,
		"blocked":     StatusBlocked,
		"TODO":        StatusPending,
		"someday":     "",
	}
	for in, want := range tests {
		if got := explicitStatus(in); got != want {
			t.Errorf("explicitStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLeadingBold(t *testing.T) {
	tests := []struct {
		in, label, rest string
	}{
		{in: "**AC-1**: Test", label: "AC-1", rest: "Test"},
		{in: "**task-2:** Wire it", label: "task-2", rest: "Wire it"},
		{in: "**tc-3** - Edge case", label: "tc-3", rest: "Edge case"},
		{in: "**US-1** As a user", label: "US-1", rest: "As a user"},
	}
	for _, tt := range tests {
		label, rest, ok := leadingBold(tt.in)
		if !ok || label != tt.label || rest != tt.rest {
			t.Errorf("leadingBold(%q) = (%q, %q, %v), want (%q, %q, true)", tt.in, label, rest, ok, tt.label, tt.rest)
		}
	}
}

func TestParseRecordsAssignsIDs(t *testing.T) {
	body := Classify("- [ ] Write parser\n  continues here\n- [x] Write tests\n  - [ ] nested detail")
	tasks := parseRecords(body, taskSpec)

	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].ID != "task-1" || tasks[0].Description != "Write parser continues here" || tasks[0].Status != StatusPending {
		t.Errorf("task 1 = %+v", tasks[0])
	}
	if tasks[1].ID != "task-2" || tasks[1].Status != StatusCompleted {
		t.Errorf("task 2 = %+v", tasks[1])
	}
}

func TestParseRecordsNestedListItems(t *testing.T) {
	body := Classify("- **task-1**: Build\n  - **Dependencies**:\n    - schema, v2\n    - lexer")
	tasks := parseRecords(body, taskSpec)

	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	want := []string{"schema, v2", "lexer"}
	if !reflect.DeepEqual(tasks[0].Dependencies, want) {
		t.Errorf("dependencies = %q, want %q", tasks[0].Dependencies, want)
	}
}

func TestParseRecordsStoryLabels(t *testing.T) {
	body := Classify("#### US-2: Export\n**Story**: As an admin, I want CSV export\n**Acceptance Criteria**: AC-3")
	stories := parseRecords(body, userStorySpec)

	if len(stories) != 1 {
		t.Fatalf("got %d stories, want 1", len(stories))
	}
	s := stories[0]
	if s.ID != "US-2" || s.Title != "Export" || s.AsA != "admin" || s.IWant != "CSV export" || s.SoThat != "" {
		t.Errorf("story = %+v", s)
	}
	if !reflect.DeepEqual(s.AcceptanceCriteria, []string{"AC-3"}) {
		t.Errorf("acceptance criteria = %q", s.AcceptanceCriteria)
	}
}

func TestAcceptanceCriteriaIDs(t *testing.T) {
	body := Classify("- [ ] AC-1: plain identifier\n- [x] needs a number\n- [ ] **AC-2**: explicit later\n- [ ] another one")
	got := numberCriteria(parseRecords(body, acceptanceSpec))

	want := []AcceptanceCriterion{
		{ID: "AC-1", Criterion: "plain identifier", Status: StatusPending},
		{ID: "AC-3", Criterion: "needs a number", Status: StatusCompleted},
		{ID: "AC-2", Criterion: "explicit later", Status: StatusPending},
		{ID: "AC-4", Criterion: "another one", Status: StatusPending},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("criteria = %+v, want %+v", got, want)
	}
}

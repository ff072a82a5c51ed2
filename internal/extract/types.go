package extract

import "time"

// Completion status values carried by checklist records.
const (
	StatusPending    = "pending"
	StatusCompleted  = "completed"
	StatusInProgress = "in-progress"
	StatusBlocked    = "blocked"
)

// Tree is the typed section tree produced by Extract.
// It is created fresh per call and never shared.
type Tree struct {
	Metadata       Metadata       `yaml:"metadata"`
	Goals          Goals          `yaml:"goals"`
	Design         Design         `yaml:"design"`
	Implementation Implementation `yaml:"implementation"`
	TestStrategy   TestStrategy   `yaml:"test_strategy"`
}

// Metadata holds the identity fields of a spec.
type Metadata struct {
	SpecID   string `yaml:"spec_id"`
	Title    string `yaml:"title"`
	Created  string `yaml:"created"`
	Updated  string `yaml:"updated"`
	Status   string `yaml:"status"`
	Author   string `yaml:"author"`
	Priority string `yaml:"priority"`

	// CreatedAt and UpdatedAt let programmatic callers hand native
	// timestamps to the builder. They are used only when the matching
	// string field is empty.
	CreatedAt *time.Time `yaml:"-"`
	UpdatedAt *time.Time `yaml:"-"`
}

// Goals is section 1 of a spec.
type Goals struct {
	PrimaryGoal        string                `yaml:"primary_goal"`
	UserStories        []UserStory           `yaml:"user_stories"`
	AcceptanceCriteria []AcceptanceCriterion `yaml:"acceptance_criteria"`
	Constraints        []string              `yaml:"constraints"`
	NonGoals           []string              `yaml:"non_goals"`
}

// Design is section 2 of a spec.
type Design struct {
	// Architecture is nil when the document has no architecture section.
	Architecture *Architecture `yaml:"architecture"`
	Components   []Component   `yaml:"components"`
	DataModels   []NamedItem   `yaml:"data_models"`
	APIs         []NamedItem   `yaml:"apis"`
}

// Implementation is section 3 of a spec.
type Implementation struct {
	Tasks             []Task   `yaml:"tasks"`
	ExecutionSequence []string `yaml:"execution_sequence"`
	Risks             []Risk   `yaml:"risks"`
}

// TestStrategy is section 4 of a spec.
type TestStrategy struct {
	TestCases     []TestCase `yaml:"test_cases"`
	CoverageGoals []string   `yaml:"coverage_goals"`
}

// UserStory is a "As a ..., I want ..., so that ..." record.
type UserStory struct {
	ID                 string   `yaml:"id"`
	Title              string   `yaml:"title"`
	AsA                string   `yaml:"as_a"`
	IWant              string   `yaml:"i_want"`
	SoThat             string   `yaml:"so_that"`
	Priority           string   `yaml:"priority"`
	AcceptanceCriteria []string `yaml:"acceptance_criteria"`
}

// AcceptanceCriterion is a checklist item from the acceptance criteria section.
type AcceptanceCriterion struct {
	ID        string `yaml:"id"`
	Criterion string `yaml:"criterion"`
	Status    string `yaml:"status"`
}

// Architecture describes the overall design approach.
type Architecture struct {
	Overview string `yaml:"overview"`
	Pattern  string `yaml:"pattern"`
	Diagram  string `yaml:"diagram"`
}

// Component is a design component.
type Component struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Purpose          string   `yaml:"purpose"`
	Responsibilities []string `yaml:"responsibilities"`
	Interfaces       []string `yaml:"interfaces"`
	LinksTo          []string `yaml:"links_to"`
}

// NamedItem is a name/description pair used for data models and APIs.
type NamedItem struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Task is an implementation task.
type Task struct {
	ID              string   `yaml:"id"`
	Description     string   `yaml:"description"`
	Status          string   `yaml:"status"`
	Agent           string   `yaml:"agent"`
	EstimatedEffort string   `yaml:"estimated_effort"`
	Dependencies    []string `yaml:"dependencies"`
	LinksTo         []string `yaml:"links_to"`
}

// Risk is an implementation risk with its mitigation.
type Risk struct {
	Description string `yaml:"description"`
	Impact      string `yaml:"impact"`
	Mitigation  string `yaml:"mitigation"`
}

// TestCase is a planned test.
type TestCase struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Type        string   `yaml:"type"`
	Status      string   `yaml:"status"`
	LinksTo     []string `yaml:"links_to"`
}

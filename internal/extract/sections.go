package extract

import (
	"strings"
)

// sectionDef locates a subsection by its number ("2.2") at the subsection
// rank, or by any of its titles at any rank below the document title.
type sectionDef struct {
	number string
	titles []string
}

const subsectionLevel = 3

var (
	secPrimaryGoal        = sectionDef{"1.1", []string{"primary goal", "goal", "objective"}}
	secUserStories        = sectionDef{"1.2", []string{"user stories", "stories"}}
	secAcceptanceCriteria = sectionDef{"1.3", []string{"acceptance criteria"}}
	secConstraints        = sectionDef{"1.4", []string{"constraints"}}
	secNonGoals           = sectionDef{"1.5", []string{"non goals", "out of scope"}}
	secArchitecture       = sectionDef{"2.1", []string{"architecture", "architecture overview"}}
	secComponents         = sectionDef{"2.2", []string{"components"}}
	secDataModels         = sectionDef{"2.3", []string{"data models", "data model"}}
	secAPIs               = sectionDef{"2.4", []string{"apis", "api design", "interfaces"}}
	secTasks              = sectionDef{"3.1", []string{"tasks", "task breakdown"}}
	secExecutionSequence  = sectionDef{"3.2", []string{"execution sequence", "execution order"}}
	secRisks              = sectionDef{"3.3", []string{"risks", "risks mitigations", "risks and mitigations"}}
	secTestCases          = sectionDef{"4.1", []string{"test cases"}}
	secCoverageGoals      = sectionDef{"4.2", []string{"coverage goals", "coverage"}}
)

func (d sectionDef) matches(l Line) bool {
	if l.Kind != KindHeading || l.Level < 2 {
		return false
	}
	if l.Number != "" && l.Number == d.number && l.Level == subsectionLevel {
		return true
	}
	key := normalizeKey(l.Title)
	for _, t := range d.titles {
		if key == t {
			return true
		}
	}
	return false
}

// findSection returns the body of the first heading matching def: every
// line after it up to the next heading of equal or higher rank.
func findSection(lines []Line, def sectionDef) ([]Line, bool) {
	for i, l := range lines {
		if !def.matches(l) {
			continue
		}
		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			if lines[j].Kind == KindHeading && lines[j].Level <= l.Level {
				end = j
				break
			}
		}
		return lines[i+1 : end], true
	}
	return nil, false
}

// parseText renders a prose section as text: raw lines with trailing blanks
// removed, leading and trailing empty lines dropped.
func parseText(body []Line) string {
	parts := make([]string, 0, len(body))
	for _, l := range body {
		parts = append(parts, strings.TrimRight(l.Raw, " \t"))
	}
	return strings.Trim(strings.Join(parts, "\n"), "\n")
}

// parseList returns the top-level list items of a section. A section
// without list items yields its non-blank prose lines instead.
func parseList(body []Line) []string {
	items := make([]string, 0)
	top := -1
	for _, l := range body {
		if l.InFence || (l.Kind != KindBullet && l.Kind != KindCheckbox) {
			continue
		}
		if top < 0 || l.Indent < top {
			top = l.Indent
		}
	}

	if top >= 0 {
		for _, l := range body {
			if l.InFence || (l.Kind != KindBullet && l.Kind != KindCheckbox) || l.Indent != top {
				continue
			}
			items = append(items, l.Body)
		}
		return items
	}

	for _, l := range body {
		if l.Kind == KindText && !l.InFence {
			items = append(items, l.Body)
		}
	}
	return items
}

// parseArchitecture reads the overview prose, a "**Pattern**:" label and the
// first fenced block as the diagram.
func parseArchitecture(body []Line) *Architecture {
	arch := &Architecture{}
	overview := make([]string, 0, len(body))
	diagram := make([]string, 0)
	fences := 0

	for _, l := range body {
		if l.Kind == KindFence {
			fences++
			continue
		}
		if l.InFence {
			if fences == 1 {
				diagram = append(diagram, strings.TrimRight(l.Raw, " \t"))
			}
			continue
		}
		if label, value, ok := BoldLabel(l.Body); ok && l.Kind != KindHeading {
			switch normalizeKey(label) {
			case "pattern", "architecture pattern", "style":
				arch.Pattern = value
				continue
			case "overview":
				overview = append(overview, value)
				continue
			}
		}
		overview = append(overview, strings.TrimRight(l.Raw, " \t"))
	}

	arch.Overview = strings.Trim(strings.Join(overview, "\n"), "\n")
	arch.Diagram = strings.Join(diagram, "\n")
	return arch
}

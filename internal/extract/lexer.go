package extract

import (
	"regexp"
	"strings"
)

// Kind classifies a single source line.
type Kind int

const (
	KindBlank Kind = iota
	KindHeading
	KindFence
	KindCheckbox
	KindBullet
	KindTableRow
	KindText
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindHeading:
		return "heading"
	case KindFence:
		return "fence"
	case KindCheckbox:
		return "checkbox"
	case KindBullet:
		return "bullet"
	case KindTableRow:
		return "table-row"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Line is a classified source line.
type Line struct {
	Num    int // 1-based line number
	Kind   Kind
	Raw    string
	Indent int // leading width, tabs count as four columns

	// Heading fields.
	Level  int
	Number string // "1.1" for "### 1.1 Primary Goal"
	Title  string // "Primary Goal"

	// Checkbox fields.
	Checked bool

	// Body is the content after any list or heading marker, trimmed.
	// For lines inside a fenced block it is the raw line.
	Body string

	// Table fields.
	Cells     []string
	Separator bool

	// InFence is set for lines between fence markers.
	InFence bool
}

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})[ \t]+(.*?)(?:[ \t]+#+)?[ \t]*$`)
	numberedRe  = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?[ \t]+(.*)$`)
	checkboxRe  = regexp.MustCompile(`^[-*+][ \t]+\[([ xX])\][ \t]*(.*)$`)
	bulletRe    = regexp.MustCompile(`^(?:[-*+]|\d+[.)])[ \t]+(.*)$`)
	separatorRe = regexp.MustCompile(`^:?-{3,}:?$`)
	boldLabelRe = regexp.MustCompile(`^\*\*([^*:]+?)(?::\*\*|\*\*[ \t]*:)[ \t]*(.*)$`)
)

// Classify splits text into lines and classifies each one.
// Lines inside fenced code blocks are never treated as structure.
func Classify(text string) []Line {
	rawLines := strings.Split(text, "\n")
	lines := make([]Line, 0, len(rawLines))
	inFence := false

	for i, raw := range rawLines {
		raw = strings.TrimSuffix(raw, "\r")
		line := Line{Num: i + 1, Raw: raw, Indent: indentWidth(raw)}
		trimmed := trimBlank(raw)

		if isFenceMarker(trimmed) {
			line.Kind = KindFence
			line.Body = trimmed
			inFence = !inFence
			lines = append(lines, line)
			continue
		}
		if inFence {
			line.Kind = KindText
			line.Body = raw
			line.InFence = true
			lines = append(lines, line)
			continue
		}

		classifyLine(&line, trimmed)
		lines = append(lines, line)
	}

	return lines
}

func classifyLine(line *Line, trimmed string) {
	if trimmed == "" {
		line.Kind = KindBlank
		return
	}

	if m := headingRe.FindStringSubmatch(trimmed); m != nil && line.Indent < 4 {
		line.Kind = KindHeading
		line.Level = len(m[1])
		line.Title = m[2]
		if n := numberedRe.FindStringSubmatch(m[2]); n != nil {
			line.Number = n[1]
			line.Title = trimBlank(n[2])
		}
		line.Body = line.Title
		return
	}

	if m := checkboxRe.FindStringSubmatch(trimmed); m != nil {
		line.Kind = KindCheckbox
		line.Checked = m[1] == "x" || m[1] == "X"
		line.Body = trimBlank(m[2])
		return
	}

	if m := bulletRe.FindStringSubmatch(trimmed); m != nil {
		line.Kind = KindBullet
		line.Body = trimBlank(m[1])
		return
	}

	if strings.HasPrefix(trimmed, "|") {
		line.Kind = KindTableRow
		line.Cells = splitCells(trimmed)
		line.Separator = len(line.Cells) > 0
		for _, c := range line.Cells {
			if !separatorRe.MatchString(c) {
				line.Separator = false
				break
			}
		}
		line.Body = trimmed
		return
	}

	line.Kind = KindText
	line.Body = trimmed
}

// BoldLabel splits "**Label**: value" (or "**Label:** value") into its parts.
func BoldLabel(body string) (label, value string, ok bool) {
	m := boldLabelRe.FindStringSubmatch(body)
	if m == nil {
		return "", "", false
	}
	return trimBlank(m[1]), trimBlank(m[2]), true
}

// IsStructural reports whether the line carries list or label content that
// record parsers consume.
func (l Line) IsStructural() bool {
	return l.Kind == KindCheckbox || l.Kind == KindBullet || l.Kind == KindTableRow
}

func splitCells(row string) []string {
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	parts := strings.Split(row, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, trimBlank(p))
	}
	return cells
}

func isFenceMarker(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

func indentWidth(raw string) int {
	width := 0
	for _, r := range raw {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

// trimBlank trims ASCII blanks only, so non-ASCII content at the edges of a
// value survives extraction unchanged.
func trimBlank(s string) string {
	return strings.Trim(s, " \t\r\n")
}

// normalizeKey lowercases a label or heading title and drops punctuation so
// "Risks & Mitigations:" and "risks mitigations" compare equal.
func normalizeKey(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r > 127:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

package extract

import (
	"regexp"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/utils"
)

// linkRe matches, in priority order at each position: a dotted section path
// ("2.2.Component-1"), then a prefixed identifier ("AC-1", "task-3", "tc-2").
var linkRe = regexp.MustCompile(`\d+(?:\.\d+)*\.[A-Za-z][A-Za-z0-9_-]*|[A-Za-z]+-\d+`)

// ExtractLinks scans a "Links to" annotation for cross-section references.
// All matches land in one flat list in order of appearance; repeated
// references keep only their first position. The result is never nil.
//
// The list is not split by target section: "AC-1" and "task-2" sit side by
// side and consumers disambiguate by prefix.
func ExtractLinks(annotation string) []string {
	return utils.Dedupe(linkRe.FindAllString(annotation, -1))
}

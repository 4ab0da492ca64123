package infer

import (
	"regexp"
	"sort"
	"strings"
)

// Section tokens are a letter from {L,S,R} plus digits as a whole word:
// lecture "L1", seminar "S2", recitation "R3".
var sectionExpr = regexp.MustCompile(`(?i)\b([LSR]\d+)\b`)

// ExtractSections returns the distinct section tokens mentioned in text,
// normalized to uppercase and sorted.
func ExtractSections(text string) []string {
	seen := map[string]bool{}
	for _, m := range sectionExpr.FindAllString(text, -1) {
		seen[strings.ToUpper(m)] = true
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Relevant reports whether text applies to the allowed sections. Text that
// mentions no section at all applies to everyone. Otherwise the text is
// relevant iff at least one mentioned section is in the allow-list
// (case-insensitive). The detected tokens are returned either way so callers
// can explain rejections.
func Relevant(text string, allowed []string) (bool, []string) {
	detected := ExtractSections(text)
	if len(detected) == 0 {
		return true, nil
	}

	allowedSet := map[string]bool{}
	for _, s := range allowed {
		allowedSet[strings.ToUpper(s)] = true
	}

	for _, s := range detected {
		if allowedSet[s] {
			return true, detected
		}
	}
	return false, detected
}

package llm

import (
	"regexp"
	"strings"
)

// AllowedLabels is the fixed classification label set. Model output never
// introduces labels outside this list.
var AllowedLabels = []string{
	"Petition",
	"Ruling/Judgement/Order",
	"Contract",
	"Invoice",
	"Affidavit",
	"Memorandum",
	"Power of Attorney",
	"Other",
}

// CoerceLabel maps free-form model output onto the allowed set:
// exact case-insensitive match first, then the first allowed label mentioned
// as a whole word, then substring match. Returns false if nothing matches.
func CoerceLabel(raw string) (string, bool) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", false
	}

	for _, label := range AllowedLabels {
		if strings.EqualFold(candidate, label) {
			return label, true
		}
	}

	lower := strings.ToLower(candidate)
	for _, label := range AllowedLabels {
		pattern := `\b` + regexp.QuoteMeta(strings.ToLower(label)) + `\b`
		if matched, err := regexp.MatchString(pattern, lower); err == nil && matched {
			return label, true
		}
	}

	for _, label := range AllowedLabels {
		if strings.Contains(lower, strings.ToLower(label)) {
			return label, true
		}
	}

	return "", false
}

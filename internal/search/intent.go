// Package search provides query intent detection and time-range parsing.
// Both are deterministic keyword heuristics with no network or state.
package search

import (
	"fmt"
	"regexp"
	"strings"
)

// Intent classifies the user's underlying goal for a query. It determines
// section ordering and the framing of the research prompt.
type Intent string

const (
	IntentAcademic    Intent = "academic"    // research papers, studies, methodology
	IntentTutorial    Intent = "tutorial"    // learning, how-to guides, examples
	IntentBusiness    Intent = "business"    // news, funding, market intelligence
	IntentExploratory Intent = "exploratory" // general overview, broad exploration
)

var academicSignals = []string{
	"paper", "papers", "research", "study", "studies", "arxiv", "journal",
	"doi", "scholar", "preprint", "methodology", "findings", "experiment",
	"hypothesis", "citation", "peer-reviewed", "abstract",
}

var tutorialSignals = []string{
	"how to", "tutorial", "learn", "guide", "example", "examples",
	"step by step", "beginner", "introduction to", "getting started",
	"course", "walkthrough", "explained", "for dummies",
}

var businessSignals = []string{
	"funding", "startup", "startups", "market", "revenue", "valuation",
	"raised", "acquisition", "ipo", "series a", "series b", "venture",
	"investor", "unicorn", "mrr", "arr", "churn", "b2b", "saas",
}

// DetectIntent returns the most likely intent for a raw query. Each signal
// set is scored by substring hits against the lowercased query; the highest
// scoring set wins and ties break in the order academic, tutorial, business.
// Queries matching no set fall back to IntentExploratory.
func DetectIntent(query string) Intent {
	q := strings.ToLower(query)

	count := func(signals []string) int {
		n := 0
		for _, sig := range signals {
			if strings.Contains(q, sig) {
				n++
			}
		}
		return n
	}

	academic := count(academicSignals)
	tutorial := count(tutorialSignals)
	business := count(businessSignals)

	if academic == 0 && tutorial == 0 && business == 0 {
		return IntentExploratory
	}

	best, intent := academic, IntentAcademic
	if tutorial > best {
		best, intent = tutorial, IntentTutorial
	}
	if business > best {
		intent = IntentBusiness
	}
	return intent
}

// ParseIntent validates a caller-supplied lens value against the fixed
// allowlist. Values outside the allowlist are rejected so a lens parameter
// can never smuggle arbitrary text into downstream prompts.
func ParseIntent(lens string) (Intent, error) {
	switch Intent(strings.ToLower(strings.TrimSpace(lens))) {
	case IntentAcademic:
		return IntentAcademic, nil
	case IntentTutorial:
		return IntentTutorial, nil
	case IntentBusiness:
		return IntentBusiness, nil
	case IntentExploratory:
		return IntentExploratory, nil
	}
	return "", fmt.Errorf("unknown lens %q", lens)
}

var timeRangePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)past \d+ (?:months?|years?|weeks?|days?)`),
	regexp.MustCompile(`(?i)last \d+ (?:months?|years?|weeks?|days?)`),
	regexp.MustCompile(`(?i)(?:this|last) (?:year|month|week)`),
	regexp.MustCompile(`(?i)\btoday\b`),
	regexp.MustCompile(`\b20\d{2}\b`),
}

// ParseTimeRange extracts an optional time-range hint from a query
// ("past 6 months", "this week", "2024"). It returns the empty string when
// no hint is present.
func ParseTimeRange(query string) string {
	for _, pattern := range timeRangePatterns {
		if m := pattern.FindString(query); m != "" {
			return m
		}
	}
	return ""
}

// Package router maps free-text queries to likely relevant section
// kinds so callers can narrow retrieval scope before searching. The
// retrieval engine itself does not depend on this package.
package router

import (
	"strings"

	"github.com/paperstack/paperindex/pkg/types"
)

// sectionKeywords maps each routable kind to the query terms that
// suggest it. Checked in declaration order; a query can hit several
// kinds.
var sectionKeywords = []struct {
	kind     types.SectionKind
	keywords []string
}{
	{types.SectionMethodology, []string{
		"method", "methodology", "approach", "dataset", "data set",
		"experiment", "setup", "procedure", "protocol", "train", "model",
		"implementation", "parameter", "measure",
	}},
	{types.SectionResults, []string{
		"result", "finding", "performance", "accuracy", "score",
		"outcome", "evaluation", "metric", "improve", "benchmark",
		"comparison", "table",
	}},
	{types.SectionDiscussion, []string{
		"discussion", "limitation", "implication", "future work",
		"interpret", "why", "explain", "conclusion", "weakness",
		"threat", "significance",
	}},
	{types.SectionIntroduction, []string{
		"introduction", "motivation", "background", "problem",
		"overview", "context", "goal", "contribution", "research question",
	}},
}

// defaultKinds is returned when no keyword matches
var defaultKinds = []types.SectionKind{
	types.SectionMethodology,
	types.SectionResults,
	types.SectionDiscussion,
	types.SectionIntroduction,
}

// SuggestSections returns every routable section kind with at least one
// keyword hit in the query, or all routable kinds when nothing hits.
// Pure function; matching is case-insensitive substring search.
func SuggestSections(query string) []types.SectionKind {
	lowered := strings.ToLower(query)

	var suggested []types.SectionKind
	for _, entry := range sectionKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lowered, kw) {
				suggested = append(suggested, entry.kind)
				break
			}
		}
	}

	if len(suggested) == 0 {
		return append([]types.SectionKind(nil), defaultKinds...)
	}
	return suggested
}

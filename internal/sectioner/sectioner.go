// Package sectioner classifies the lines of a raw paper into an ordered
// sequence of typed sections.
package sectioner

import (
	"regexp"
	"strings"

	"github.com/paperstack/paperindex/pkg/types"
)

const (
	// Header candidates outside this length range are treated as body text.
	minHeaderLen = 3
	maxHeaderLen = 100
)

// sectionRule maps one section kind to its line-start patterns. Rules are
// evaluated in declaration order so the more specific kinds are tested before
// the general ones.
type sectionRule struct {
	kind     types.SectionKind
	patterns []*regexp.Regexp
}

var sectionRules = []sectionRule{
	{types.SectionAbstract, compileAll(
		`^abstract\s*$`,
		`^\d+\.?\s*abstract`,
	)},
	{types.SectionIntroduction, compileAll(
		`^introduction\s*$`,
		`^\d+\.?\s*introduction`,
	)},
	{types.SectionBackground, compileAll(
		`^background\s*$`,
		`^\d+\.?\s*background`,
	)},
	{types.SectionLiteratureReview, compileAll(
		`^literature\s+review`,
		`^related\s+works?\s*$`,
		`^\d+\.?\s*(literature\s+review|related\s+works?)`,
	)},
	{types.SectionMethodology, compileAll(
		`^method(s|ology)?\s*$`,
		`^materials?\s+and\s+methods`,
		`^\d+\.?\s*method`,
	)},
	{types.SectionResults, compileAll(
		`^results?\s*$`,
		`^findings\s*$`,
		`^\d+\.?\s*results?`,
	)},
	{types.SectionDiscussion, compileAll(
		`^discussion\s*$`,
		`^\d+\.?\s*discussion`,
	)},
	{types.SectionConclusion, compileAll(
		`^conclusions?\s*$`,
		`^summary\s*$`,
		`^\d+\.?\s*conclusions?`,
	)},
	{types.SectionReferences, compileAll(
		`^references\s*$`,
		`^bibliography\s*$`,
	)},
	{types.SectionAppendix, compileAll(
		`^appendix`,
		`^appendices`,
	)},
	{types.SectionAcknowledgments, compileAll(
		`^acknowledge?ments?\s*$`,
	)},
	{types.SectionTable, compileAll(
		`^table\s+\d+`,
	)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(`(?i)` + p)
	}
	return compiled
}

// DetectKind classifies a single line as a section header. It returns false
// for lines outside the 3-100 character range, which guards against false
// positives on body text.
func DetectKind(line string) (types.SectionKind, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < minHeaderLen || len(trimmed) > maxHeaderLen {
		return "", false
	}

	for _, rule := range sectionRules {
		for _, pattern := range rule.patterns {
			if pattern.MatchString(trimmed) {
				return rule.kind, true
			}
		}
	}
	return "", false
}

// DetectSections scans a full document and returns its sections in document
// order. Text before the first recognized header (title, authors, unheaded
// opening prose) becomes a leading unknown section, so a document with no
// recognizable header at all yields a single unknown section spanning the
// whole text. Empty input yields none.
func DetectSections(text string) []types.Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	sections := make([]types.Section, 0, 8)

	var current *types.Section
	var body []string

	flush := func(endLine int) {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(body, "\n"))
		current.EndLine = endLine
		sections = append(sections, *current)
		current = nil
		body = body[:0]
	}

	for i, line := range lines {
		if kind, ok := DetectKind(line); ok {
			flush(i - 1)
			current = &types.Section{
				Kind:      kind,
				Title:     strings.TrimSpace(line),
				StartLine: i,
				Level:     1,
			}
			continue
		}
		if current == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			current = &types.Section{
				Kind:      types.SectionUnknown,
				StartLine: i,
				Level:     1,
			}
		}
		body = append(body, line)
	}
	flush(len(lines) - 1)

	return sections
}

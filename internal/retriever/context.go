package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/paperstack/paperindex/pkg/types"
)

const contextSeparator = "\n\n---\n\n"

// GetContext searches with a generous topK and assembles a token-bounded
// context block. Candidates are considered in descending score order;
// each candidate's cost is estimated from its parent text when present,
// otherwise its own text. The first candidate that would push the running
// total over maxTokens stops the walk: later candidates are excluded even
// if individually smaller.
func (e *Engine) GetContext(ctx context.Context, query, projectID string, maxTokens int, kinds []types.SectionKind) (string, types.RetrievalContext, error) {
	rc := types.RetrievalContext{}

	if maxTokens <= 0 {
		return "", rc, fmt.Errorf("max tokens must be positive, got %d", maxTokens)
	}

	results, err := e.Search(ctx, SearchRequest{
		Query:     query,
		ProjectID: projectID,
		TopK:      DefaultTopK,
		Mode:      types.ModeWithParents,
		Kinds:     kinds,
	})
	if err != nil {
		return "", rc, err
	}

	var blocks []string
	for _, r := range results {
		text := r.Text
		if r.ParentText != "" {
			text = r.ParentText
		}

		cost := e.counter.Count(text)
		if rc.TotalTokens+cost > maxTokens {
			break
		}

		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", r.Kind, text))
		rc.TotalTokens += cost
		rc.Results = append(rc.Results, r)
		rc.AddCoverage(r.Kind, r.PaperID)
	}

	return strings.Join(blocks, contextSeparator), rc, nil
}

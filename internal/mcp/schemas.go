package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var sectionKindEnum = []string{
	"abstract", "introduction", "background", "literature_review",
	"methodology", "results", "discussion", "conclusion", "references",
	"appendix", "acknowledgments", "table", "unknown",
}

// indexPaperTool returns the tool definition for index_paper
func indexPaperTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_paper",
		Description: "Segment a paper into sections and chunks, embed them, and add them to the search index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"paper_id": map[string]interface{}{
					"type":        "string",
					"description": "Stable identifier for the paper (e.g. DOI or slug)",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Paper title",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Full raw text of the paper",
				},
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project scope; defaults to the configured project",
				},
			},
			Required: []string{"paper_id", "text"},
		},
	}
}

// searchPapersTool returns the tool definition for search_papers
func searchPapersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_papers",
		Description: "Semantic search over indexed papers, returning ranked deduplicated chunks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language query",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"kinds": map[string]interface{}{
					"type":        "array",
					"description": "Restrict search to these section kinds",
					"items": map[string]interface{}{
						"type": "string",
						"enum": sectionKindEnum,
					},
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum similarity score (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "with_parents attaches full section text to child hits; chunks_only returns bare chunks",
					"enum":        []string{"with_parents", "chunks_only"},
					"default":     "with_parents",
				},
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project scope; defaults to the configured project",
				},
			},
			Required: []string{"query"},
		},
	}
}

// searchBySectionTool returns the tool definition for search_by_section
func searchBySectionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_by_section",
		Description: "Run one search per section kind and return separate ranked buckets",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language query",
				},
				"kinds": map[string]interface{}{
					"type":        "array",
					"description": "Section kinds to search; suggested from the query when omitted",
					"items": map[string]interface{}{
						"type": "string",
						"enum": sectionKindEnum,
					},
				},
				"top_k_per_section": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum results per section kind",
					"default":     3,
					"minimum":     1,
					"maximum":     20,
				},
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project scope; defaults to the configured project",
				},
			},
			Required: []string{"query"},
		},
	}
}

// getContextTool returns the tool definition for get_context
func getContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_context",
		Description: "Assemble a token-bounded context block from the most relevant paper sections",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language query",
				},
				"max_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Token budget for the assembled context",
					"default":     2000,
					"minimum":     1,
				},
				"kinds": map[string]interface{}{
					"type":        "array",
					"description": "Restrict to these section kinds",
					"items": map[string]interface{}{
						"type": "string",
						"enum": sectionKindEnum,
					},
				},
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project scope; defaults to the configured project",
				},
			},
			Required: []string{"query"},
		},
	}
}

// suggestSectionsTool returns the tool definition for suggest_sections
func suggestSectionsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "suggest_sections",
		Description: "Suggest which paper sections a query most likely targets",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language query",
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index statistics and health for a project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project scope; defaults to the configured project",
				},
			},
		},
	}
}

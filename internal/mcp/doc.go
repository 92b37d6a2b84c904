// Package mcp implements the Model Context Protocol server for paper
// indexing and retrieval.
//
// The server exposes six tools over stdio:
//
//   - index_paper: segment, embed, and store one paper
//   - search_papers: ranked, deduplicated semantic search
//   - search_by_section: per-section-kind result buckets
//   - get_context: token-bounded context assembly
//   - suggest_sections: map a query to likely section kinds
//   - get_status: index statistics and health
//
// stdout is reserved for the MCP protocol; all logging goes to stderr.
//
// # Tool Workflow
//
// A typical session indexes papers first, then queries them:
//
//	index_paper{paper_id: "attention-2017", text: "..."}
//	suggest_sections{query: "what datasets were used"}
//	search_by_section{query: "what datasets were used", kinds: ["methodology"]}
//	get_context{query: "what datasets were used", max_tokens: 2000}
//
// # Error Handling
//
// Handlers return MCPError values with JSON-RPC style codes: -32602 for
// invalid parameters, -32603 for internal failures, and server-specific
// codes for empty queries, missing embeddings, and concurrent index
// runs.
package mcp

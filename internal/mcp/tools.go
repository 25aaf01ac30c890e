package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askDocumentsTool defines the ask_documents MCP tool.
var askDocumentsTool = mcp.NewTool("ask_documents",
	mcp.WithDescription("Answer a question using only the indexed documents. Returns the answer and the cited document paths with relevance scores."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question"),
	),
	mcp.WithNumber("num_results",
		mcp.Description("Number of documents to retrieve as context (default: server setting)"),
	),
)

// searchDocumentsTool defines the search_documents MCP tool.
var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Keyword search over the indexed documents, ranked by BM25 with typo tolerance. Does not call the language model."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Free-text search terms"),
	),
	mcp.WithNumber("num_results",
		mcp.Description("Maximum number of documents to return (default: server setting)"),
	),
)

// listDocumentsTool defines the list_documents MCP tool.
var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List indexed documents and folders, optionally restricted to one folder."),
	mcp.WithString("folder_path",
		mcp.Description("Only list entries directly inside this folder"),
	),
)

// indexStatsTool defines the index_stats MCP tool.
var indexStatsTool = mcp.NewTool("index_stats",
	mcp.WithDescription("Report the number of indexed records and the on-disk index size."),
)

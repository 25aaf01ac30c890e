package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/docrag/internal/index"
	"github.com/ziadkadry99/docrag/internal/rag"
)

// previewLength caps document content shown by list_documents.
const previewLength = 200

// handleAskDocuments runs the full question answering pipeline.
func (s *Server) handleAskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	ans, err := s.engine.Query(ctx, question, request.GetInt("num_results", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatAnswer(ans)), nil
}

// handleSearchDocuments returns ranked hits without calling the model.
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	hits, err := s.engine.Search(ctx, query, request.GetInt("num_results", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(hits) == 0 {
		return mcp.NewToolResultText("No results found. The index may be empty. Run `docrag ingest <dir>` to add documents."), nil
	}

	return mcp.NewToolResultText(formatHits(hits)), nil
}

// handleListDocuments lists stored records, folders first.
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	folder, filtered := args["folder_path"].(string)

	recs, err := s.library.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}

	var kept []index.Record
	for _, r := range recs {
		if filtered && r.FolderPath != folder {
			continue
		}
		kept = append(kept, r)
	}

	if len(kept) == 0 {
		return mcp.NewToolResultText("No documents found."), nil
	}
	return mcp.NewToolResultText(formatRecords(kept)), nil
}

// handleIndexStats reports document count and index size.
func (s *Server) handleIndexStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.lifecycle.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Documents: %d\nIndex size: %s\n", stats.NumDocs, stats.IndexSize)), nil
}

func formatAnswer(ans *rag.Answer) string {
	var sb strings.Builder
	sb.WriteString(ans.Answer)
	sb.WriteString("\n")
	if len(ans.Sources) > 0 {
		sb.WriteString("\nSources:\n")
		for _, src := range ans.Sources {
			sb.WriteString(fmt.Sprintf("- %s (score %.3f)\n", src.Path, src.Score))
		}
	}
	return sb.String()
}

// formatHits converts search hits into a text format suited to AI agents.
func formatHits(hits []index.Hit) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(hits)))

	for i, h := range hits {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Path: %s\n", h.FullPath))
		sb.WriteString(fmt.Sprintf("Score: %.3f\n", h.Score))
		sb.WriteString("\n")
		sb.WriteString(h.Content)
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatRecords(recs []index.Record) string {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].IsFolderMarker() != recs[j].IsFolderMarker() {
			return recs[i].IsFolderMarker()
		}
		return index.FullPath(recs[i].FolderPath, recs[i].ID) < index.FullPath(recs[j].FolderPath, recs[j].ID)
	})

	var sb strings.Builder
	for _, r := range recs {
		if r.IsFolderMarker() {
			sb.WriteString(fmt.Sprintf("[folder] %s/\n", r.FolderPath))
			continue
		}
		preview := strings.Join(strings.Fields(r.Content), " ")
		if r := []rune(preview); len(r) > previewLength {
			preview = string(r[:previewLength]) + "..."
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", index.FullPath(r.FolderPath, r.ID), preview))
	}
	return sb.String()
}

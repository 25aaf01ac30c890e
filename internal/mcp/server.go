// Package mcp exposes the document index to MCP clients over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/docrag/internal/lifecycle"
	"github.com/ziadkadry99/docrag/internal/library"
	"github.com/ziadkadry99/docrag/internal/rag"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes document search tools.
type Server struct {
	engine    *rag.Engine
	library   *library.Library
	lifecycle *lifecycle.Manager
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(engine *rag.Engine, lib *library.Library, lc *lifecycle.Manager) *Server {
	s := &Server{
		engine:    engine,
		library:   lib,
		lifecycle: lc,
	}

	s.mcp = server.NewMCPServer(
		"docrag",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askDocumentsTool, s.handleAskDocuments)
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
	s.mcp.AddTool(indexStatsTool, s.handleIndexStats)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

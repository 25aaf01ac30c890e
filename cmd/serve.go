package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpserver "github.com/ziadkadry99/docrag/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing document search and question answering tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		n, _ := a.store.Count(ctx)
		a.logger.Info("docrag MCP server started on stdio",
			zap.String("index", a.cfg.IndexDir), zap.Uint64("records", n))
		if n == 0 {
			a.logger.Warn("index is empty; run `docrag ingest <dir>` first")
		}

		srv := mcpserver.NewServer(a.engine, a.library, a.lifecycle)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

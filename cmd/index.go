package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/audit"
	"github.com/ziadkadry99/docrag/internal/index"
	"github.com/ziadkadry99/docrag/internal/progress"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and maintain the document index",
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of stored records and the index size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.lifecycle.Stats(ctx)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}
		fmt.Printf("Documents:  %d\n", stats.NumDocs)
		fmt.Printf("Index size: %s\n", stats.IndexSize)
		fmt.Printf("Location:   %s\n", a.store.Dir())
		return nil
	},
}

var indexReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the index from its own stored documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := audit.WithActor(context.Background(), audit.ActorCLI)
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.lifecycle.Reindex(ctx, progress.NewReporter("Reindexing", os.Stderr))
		if err != nil {
			return err
		}
		fmt.Printf("Index rebuilt successfully (%d documents)\n", n)
		return nil
	},
}

var indexRmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a document, or a folder with --folder and id .folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := audit.WithActor(context.Background(), audit.ActorCLI)
		folder, _ := cmd.Flags().GetString("folder")

		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		deleted, err := a.library.Delete(ctx, args[0], folder)
		if err != nil {
			return err
		}
		path := index.FullPath(folder, args[0])
		if !deleted {
			return fmt.Errorf("document %s not found", path)
		}
		fmt.Printf("Document %s deleted successfully\n", path)
		return nil
	},
}

func init() {
	indexStatsCmd.Flags().Bool("json", false, "output as JSON")
	indexRmCmd.Flags().String("folder", "", "folder path of the document")
	indexCmd.AddCommand(indexStatsCmd, indexReindexCmd, indexRmCmd)
	rootCmd.AddCommand(indexCmd)
}

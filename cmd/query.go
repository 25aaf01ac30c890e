package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/audit"
	"github.com/ziadkadry99/docrag/internal/rag"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about the indexed documents",
	Long:  `Retrieves the best matching documents for the question and asks the configured model to answer using only those documents.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().Int("limit", 0, "number of documents used as context (0 = search.num_results)")
	queryCmd.Flags().Bool("json", false, "output the answer as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := audit.WithActor(context.Background(), audit.ActorCLI)

	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.waitForModel(ctx); err != nil {
		return fmt.Errorf("model %s is not reachable: %w", a.provider.Model(), err)
	}

	ans, err := a.engine.Query(ctx, args[0], limit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ans)
	}

	printAnswer(ans)
	return nil
}

func printAnswer(ans *rag.Answer) {
	fmt.Println(ans.Answer)
	if len(ans.Sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for i, src := range ans.Sources {
		fmt.Printf("  %d. [%.3f] %s\n", i+1, src.Score, src.Path)
	}
}

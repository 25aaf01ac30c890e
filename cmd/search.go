package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/index"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the index without calling the model",
	Long:  `Runs the same fuzzy full-text search used for question answering and prints the ranked documents.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum number of results (0 = search.num_results)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

type searchResultJSON struct {
	Rank    int     `json:"rank"`
	Score   float64 `json:"score"`
	Path    string  `json:"path"`
	Summary string  `json:"summary"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	hits, err := a.engine.Search(ctx, args[0], limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		return printSearchResultsJSON(hits)
	}
	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	printSearchResultsTable(hits)
	return nil
}

func printSearchResultsJSON(hits []index.Hit) error {
	out := make([]searchResultJSON, 0, len(hits))
	for i, h := range hits {
		out = append(out, searchResultJSON{
			Rank:    i + 1,
			Score:   h.Score,
			Path:    h.FullPath,
			Summary: truncate(oneLine(h.Content), 200),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printSearchResultsTable(hits []index.Hit) {
	fmt.Printf("Found %d results:\n\n", len(hits))
	for i, h := range hits {
		fmt.Printf("  %d. [%.3f] %s\n", i+1, h.Score, h.FullPath)
		fmt.Printf("     %s\n\n", truncate(oneLine(h.Content), 120))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

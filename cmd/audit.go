package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent changes to the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")
		action, _ := cmd.Flags().GetString("action")
		docID, _ := cmd.Flags().GetString("doc")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.audit.Query(ctx, audit.QueryFilter{
			Action: audit.Action(action),
			DocID:  docID,
			Limit:  limit,
		})
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No audit entries.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %-6s %-22s %s\n", e.Timestamp.Local().Format(time.DateTime), e.Actor, e.Action, e.Summary)
		}
		return nil
	},
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit entries older than a given age",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		age, _ := cmd.Flags().GetDuration("older-than")
		if age <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}

		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.audit.DeleteBefore(ctx, time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d audit entries\n", n)
		return nil
	},
}

func init() {
	auditCmd.Flags().Int("limit", 20, "maximum number of entries")
	auditCmd.Flags().String("action", "", "filter by action, e.g. document_deleted")
	auditCmd.Flags().String("doc", "", "filter by document id")
	auditCmd.Flags().Bool("json", false, "output as JSON")
	auditPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "age threshold")
	auditCmd.AddCommand(auditPruneCmd)
	rootCmd.AddCommand(auditCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/audit"
	"github.com/ziadkadry99/docrag/internal/ingest"
	"github.com/ziadkadry99/docrag/internal/progress"
	"github.com/ziadkadry99/docrag/internal/walker"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index the documents in a directory tree",
	Long: `Walks the directory and stores every matching document. Each file's
directory relative to the root becomes its folder and its file name becomes
its id. With --watch the command keeps running and applies changes as files
are created, modified or removed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("watch", false, "keep watching the directory for changes")
	ingestCmd.Flags().StringSlice("include", nil, "glob patterns to include (overrides ingest.include)")
	ingestCmd.Flags().StringSlice("exclude", nil, "glob patterns to exclude (added to ingest.exclude)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = audit.WithActor(ctx, audit.ActorCLI)

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	watch, _ := cmd.Flags().GetBool("watch")

	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	include := a.cfg.Ingest.Include
	if cmd.Flags().Changed("include") {
		include, _ = cmd.Flags().GetStringSlice("include")
	}
	exclude := a.cfg.Ingest.Exclude
	if extra, _ := cmd.Flags().GetStringSlice("exclude"); len(extra) > 0 {
		exclude = append(append([]string(nil), exclude...), extra...)
	}

	in, err := ingest.New(a.library, walker.WalkerConfig{
		RootDir:     root,
		Include:     include,
		Exclude:     exclude,
		MaxFileSize: a.cfg.Ingest.MaxFileSize,
	}, a.logger)
	if err != nil {
		return err
	}

	res, err := in.Run(ctx, progress.NewReporter("Ingesting", os.Stderr))
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	fmt.Printf("Indexed %d document(s), %d unchanged, %d failed\n", res.Indexed, res.Unchanged, res.Failed)

	if !watch {
		return nil
	}
	fmt.Fprintf(os.Stderr, "Watching %s for changes (Ctrl+C to stop)\n", in.Root())
	return in.Watch(ctx)
}

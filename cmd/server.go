package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/docrag/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API server",
	Long:  `Starts the docrag REST API for storing documents, managing folders, asking questions and tuning retrieval at runtime.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.waitForModel(ctx); err != nil {
			return fmt.Errorf("model %s is not reachable: %w", a.provider.Model(), err)
		}

		port := a.cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		srv := server.New(server.Config{
			Port:           port,
			AllowedOrigins: a.cfg.Server.AllowedOrigins,
			AllowAll:       a.cfg.Server.AllowAll,
			RequestTimeout: time.Duration(a.cfg.LLM.TimeoutSeconds)*time.Second + 30*time.Second,
		}, server.Deps{
			Library:   a.library,
			Engine:    a.engine,
			Lifecycle: a.lifecycle,
			Settings:  a.settings,
			Audit:     a.audit,
			Logger:    a.logger,
		})

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			a.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("shutdown", zap.Error(err))
			}
		}()

		n, _ := a.store.Count(ctx)
		a.logger.Info("docrag server starting",
			zap.String("version", Version),
			zap.Int("port", port),
			zap.String("index", a.cfg.IndexDir),
			zap.String("model", a.provider.Model()),
			zap.Uint64("records", n),
		)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 3333, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}

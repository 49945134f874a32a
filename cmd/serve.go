package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/api"
	"github.com/lectern/lectern/internal/app"
	"github.com/lectern/lectern/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server.

On startup the configured documents folder is indexed; courses already in
the vector store are skipped. The server then answers /api/query requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()
	logger.Info("starting HTTP API server", "version", Version)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	indexStartupDocs(ctx, a)

	addr := serveAddr
	if addr == "" {
		addr = cfg.ServerAddr
	}

	server := api.NewServer(a.RAG, logger)
	return server.Run(ctx, addr)
}

// indexStartupDocs loads the configured documents folder. A missing folder
// is not fatal; the server starts with whatever the store already holds.
func indexStartupDocs(ctx context.Context, a *app.App) {
	dir := a.Config.DocsDir
	if _, err := os.Stat(dir); err != nil {
		a.Logger.Warn("documents folder not found, skipping startup indexing", "dir", dir)
		return
	}

	courses, chunks, err := a.RAG.AddCourseFolder(ctx, dir, false)
	if err != nil {
		a.Logger.Warn("startup indexing failed", "dir", dir, "error", err)
		return
	}
	a.Logger.Info("startup indexing complete", "dir", dir, "courses_added", courses, "chunks_added", chunks)
}

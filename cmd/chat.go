package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/client"
	"github.com/lectern/lectern/internal/tui"
)

// defaultServerURL matches the serve command's default listen address.
const defaultServerURL = "http://127.0.0.1:8000"

var chatServerURL string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat interface",
	Long: `Open the interactive chat interface.

The chat talks to a running lectern server (start one with "lectern serve").`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatServerURL, "server", "", "API server URL (default "+defaultServerURL+")")
	rootCmd.AddCommand(chatCmd)
}

// serverURL resolves the API base URL: flag, then LECTERN_SERVER_URL,
// then the default.
func serverURL() string {
	if chatServerURL != "" {
		return chatServerURL
	}
	if env := os.Getenv("LECTERN_SERVER_URL"); env != "" {
		return env
	}
	return defaultServerURL
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	api, err := client.New(serverURL())
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}

	model, err := tui.New(ctx, api)
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err = program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}
	return nil
}

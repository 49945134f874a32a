// Package cmd wires the lectern command line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Lectern - course materials assistant",
	Long: `Lectern answers questions about your course materials.

Course documents are chunked, embedded, and stored in a local vector
database. An LLM with search tools finds the relevant lessons and cites
its sources.

Running lectern without a subcommand opens the interactive chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the process logger honoring the --verbose flag.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

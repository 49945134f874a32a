package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/client"
)

var askShowSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print the sources the answer was grounded on")
	askCmd.Flags().StringVar(&chatServerURL, "server", "", "API server URL (default "+defaultServerURL+")")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	api, err := client.New(serverURL())
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}

	question := strings.Join(args, " ")

	result, err := api.Query(context.Background(), question, "")
	if err != nil {
		return fmt.Errorf("asking question: %w", err)
	}

	fmt.Println(result.Answer)

	if askShowSources && len(result.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, source := range result.Sources {
			// Drop the link part; plain stdout has no hyperlinks.
			label, _, _ := strings.Cut(source, "|")
			fmt.Println("  " + label)
		}
	}

	return nil
}

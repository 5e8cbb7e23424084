package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	suggestLimit int
	popularLimit int
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <prefix>",
	Short: "Complete a search query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		suggestions, err := newClient(nil).Suggestions(cmd.Context(), strings.Join(args, " "), suggestLimit)
		if err != nil {
			return fmt.Errorf("suggestions: %w", err)
		}
		for _, s := range suggestions {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List trending searches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		popular, err := newClient(nil).Popular(cmd.Context(), popularLimit)
		if err != nil {
			return fmt.Errorf("popular searches: %w", err)
		}
		for i, q := range popular {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, q)
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := newClient(nil).Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend %s is not healthy: %w", cfg.API.BaseURL, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cfg.API.BaseURL, status.Status)
		return nil
	},
}

func init() {
	suggestCmd.Flags().IntVarP(&suggestLimit, "limit", "n", 5, "max suggestions")
	popularCmd.Flags().IntVarP(&popularLimit, "limit", "n", 10, "max entries")
}

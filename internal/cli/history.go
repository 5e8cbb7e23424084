package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comigor/dermachat-go/internal/history"
)

var historySession string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print a saved conversation",
	Long: `Print the saved messages of a chat session, oldest first.

Examples:
  dermachat history
  dermachat history --session session_1718000000000_k3j9x2abc`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := history.New(cfg.Storage.HistoryPath)
		defer store.Close()

		sessionID := historySession
		if sessionID == "" {
			sessionID = sess.SessionID()
		}

		out := cmd.OutOrStdout()
		msgs := store.List(cmd.Context(), sessionID)
		if len(msgs) == 0 {
			fmt.Fprintf(out, "No messages saved for %s.\n", sessionID)
			return nil
		}
		for _, m := range msgs {
			fmt.Fprintf(out, "[%s] %s:\n%s\n\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Role, m.Content)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historySession, "session", "", "session id (default: the current browsing session)")
}

// Package cli provides the command-line interface for dermachat.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/comigor/dermachat-go/internal/analytics"
	"github.com/comigor/dermachat-go/internal/api"
	"github.com/comigor/dermachat-go/internal/chat"
	"github.com/comigor/dermachat-go/internal/config"
	"github.com/comigor/dermachat-go/internal/history"
	"github.com/comigor/dermachat-go/internal/logger"
	"github.com/comigor/dermachat-go/internal/session"
)

var (
	// Version is set at build time.
	Version = "dev"

	verbose bool

	cfg      *config.Config
	sess     *session.Context
	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "dermachat",
	Short: "Chat with the skincare recommendation backend",
	Long: `dermachat is a client for the skincare recommendation backend.

Describe a concern, an ingredient or a product type and get matching products
with a short plan. Compare products side by side, see which creators mention
them, and keep your skin, hair, lifestyle, health and makeup profile up to date.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			c.Logging.Enabled = true
			c.Logging.Level = "debug"
		}
		cfg = c
		closeLog = logger.Setup(cfg.Logging, cmd.ErrOrStderr())

		sess, err = session.Open(cfg.Storage.SessionPath)
		if err != nil {
			return fmt.Errorf("open session: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		cleanup()
	},
}

// cleanup closes the session store and the log file. Safe to call twice.
func cleanup() {
	if sess != nil {
		if err := sess.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close session store: %v\n", err)
		}
		sess = nil
	}
	if closeLog != nil {
		_ = closeLog()
		closeLog = nil
	}
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	// PersistentPostRun is skipped when a command fails.
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "output format for structured data: yaml or json")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(assistantCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(productCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(videosCmd)
	rootCmd.AddCommand(wishlistCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(popularCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(healthCmd)
}

// newClient builds the backend client on the shared session. onUnauthorized runs
// after a 401 has cleared the stored credentials.
func newClient(onUnauthorized func()) *api.Client {
	if onUnauthorized == nil {
		onUnauthorized = func() {
			logger.L.Warn("credentials rejected, signed out")
		}
	}
	return api.NewClient(cfg.API, onUnauthorized, api.WithCredentials(sess))
}

func newTracker(client *api.Client) *analytics.Tracker {
	return analytics.New(cfg.Analytics, sess.SessionID(), analytics.WithActivity(client))
}

// newController wires a chat session with the configured timings, tracking and
// history. extra options are applied last.
func newController(client *api.Client, tracker *analytics.Tracker, store *history.Store, sessionID string, extra ...chat.Option) *chat.Controller {
	opts := []chat.Option{
		chat.WithRevealInterval(cfg.Chat.RevealInterval),
		chat.WithClearDelay(cfg.Chat.ClearDelay),
		chat.WithTracker(tracker),
		chat.WithRecorder(store, sessionID),
	}
	return chat.New(client, append(opts, extra...)...)
}

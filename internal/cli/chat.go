package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/comigor/dermachat-go/internal/api"
	"github.com/comigor/dermachat-go/internal/chat"
	"github.com/comigor/dermachat-go/internal/history"
	"github.com/comigor/dermachat-go/internal/logger"
	"github.com/comigor/dermachat-go/internal/profile"
	"github.com/comigor/dermachat-go/internal/ui"
)

var (
	chatResume  bool
	chatNew     bool
	chatSession string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat",
	Long: `Open the interactive chat in the terminal.

Answers are revealed word by word. Products from the latest answer are listed
on the right: move with the arrow keys, ctrl+d shows details, ctrl+t marks a
product and ctrl+o compares the marked ones.

Every message is saved. Use --resume to continue the last conversation.

Examples:
  dermachat chat
  dermachat chat --resume
  dermachat chat --new
  dermachat chat --session session_1718000000000_k3j9x2abc`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVarP(&chatResume, "resume", "r", false, "reload the saved transcript")
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "start a new browsing session")
	chatCmd.Flags().StringVar(&chatSession, "session", "", "session id to use (default: the current browsing session)")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var program *tea.Program
	client := newClient(func() {
		logger.L.Warn("credentials rejected, signed out")
		if program != nil {
			program.Send(ui.SignedOutMsg{})
		}
	})
	tracker := newTracker(client)
	defer tracker.Wait()

	store := history.New(cfg.Storage.HistoryPath)
	defer store.Close()

	if chatNew {
		if err := sess.ClearSession(); err != nil {
			return err
		}
	}
	sessionID := chatSession
	if sessionID == "" {
		sessionID = sess.SessionID()
	}

	observer, updates := ui.Signal()
	opts := []chat.Option{chat.WithObserver(observer)}
	if chatResume {
		msgs := store.Transcript(ctx, sessionID)
		logger.L.Debug("resuming session", "session", sessionID, "messages", len(msgs))
		opts = append(opts, chat.WithTranscript(msgs))
	}
	ctrl := newController(client, tracker, store, sessionID, opts...)
	defer func() {
		ctrl.Teardown()
		ctrl.Wait()
	}()

	uiOpts := []ui.Option{ui.WithComparer(client), ui.WithTracker(tracker)}
	if banner := profileBanner(ctx, client); banner != "" {
		uiOpts = append(uiOpts, ui.WithPrompt(banner))
	}

	tracker.PageView("chat", "/chat")
	program = tea.NewProgram(ui.New(ctrl, updates, uiOpts...), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run chat: %w", err)
	}
	return nil
}

// profileBanner returns the profile nudge to show, or "" when the profile is complete.
func profileBanner(ctx context.Context, client *api.Client) string {
	user := sess.User()
	if user == nil {
		return profile.SearchPromptMessage(nil)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	p, err := client.CompleteProfile(ctx)
	if err != nil {
		logger.L.Debug("could not load profile", "error", err)
		return ""
	}
	if !profile.ShouldPrompt(user, profile.Completion(p)) {
		return ""
	}
	return profile.SearchPromptMessage(user)
}

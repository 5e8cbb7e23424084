package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comigor/dermachat-go/internal/chat"
	"github.com/comigor/dermachat-go/internal/history"
)

var askNoReveal bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question and print the answer",
	Long: `Ask one question and print the answer with the matching products.

The answer is typed out word by word unless --no-reveal is set.

Examples:
  dermachat ask "vitamin c serum for dull skin"
  dermachat ask --no-reveal niacinamide for oily skin`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askNoReveal, "no-reveal", false, "print the answer at once")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	client := newClient(nil)
	tracker := newTracker(client)
	defer tracker.Wait()

	store := history.New(cfg.Storage.HistoryPath)
	defer store.Close()

	events := make(chan chat.Event, 16)
	done := make(chan struct{})
	observer := func(e chat.Event) {
		select {
		case events <- e:
		case <-done:
		}
	}

	opts := []chat.Option{chat.WithObserver(observer)}
	if askNoReveal {
		opts = append(opts, chat.WithRevealInterval(0))
	}
	ctrl := newController(client, tracker, store, sess.SessionID(), opts...)
	defer func() {
		ctrl.Teardown()
		ctrl.Wait()
	}()
	// Runs before the teardown above so late events cannot block on a full channel.
	defer close(done)

	if !ctrl.SubmitQuery(query) {
		return fmt.Errorf("question must not be empty")
	}

	out := cmd.OutOrStdout()
	printer := &answerPrinter{w: out}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-events:
			if answer, ok := printer.handle(e); ok {
				printProducts(out, answer.SearchResults)
				return nil
			}
		}
	}
}

// answerPrinter writes reveal progress as it arrives. It tracks how much of the
// answer is already on screen.
type answerPrinter struct {
	w       io.Writer
	printed string
}

// handle reports the final assistant message once it is appended.
func (p *answerPrinter) handle(e chat.Event) (chat.Message, bool) {
	switch e.Kind {
	case chat.EventRevealProgress:
		if strings.HasPrefix(e.Partial, p.printed) {
			fmt.Fprint(p.w, strings.TrimPrefix(e.Partial, p.printed))
		} else {
			fmt.Fprint(p.w, "\n"+e.Partial)
		}
		p.printed = e.Partial
	case chat.EventMessageAppended:
		if e.Message.Role != chat.RoleAssistant {
			return chat.Message{}, false
		}
		if p.printed == "" {
			fmt.Fprintln(p.w, e.Message.Content)
		} else {
			fmt.Fprintln(p.w)
		}
		p.printed = ""
		return *e.Message, true
	}
	return chat.Message{}, false
}

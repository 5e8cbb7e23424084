package cli

import (
	"github.com/spf13/cobra"

	"github.com/comigor/dermachat-go/internal/chat"
	"github.com/comigor/dermachat-go/internal/history"
	"github.com/comigor/dermachat-go/internal/logger"
	"github.com/comigor/dermachat-go/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve chat sessions to browsers",
	Long: `Serve chat sessions over HTTP.

Each browser session gets its own chat. Answers, loading state and the
word-by-word reveal are pushed over Server-Sent Events.

Routes:
  POST   /api/sessions                  start a session
  POST   /api/sessions/{id}/messages    send {"query": "..."}
  GET    /api/sessions/{id}/messages    transcript and view state
  POST   /api/sessions/{id}/reset       clear the conversation
  GET    /api/sessions/{id}/events      event stream
  DELETE /api/sessions/{id}             close the session`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default from config)")
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	serverCfg := cfg.Server
	if serveHost != "" {
		serverCfg.Host = serveHost
	}
	if servePort != "" {
		serverCfg.Port = servePort
	}

	var srv *server.Server
	client := newClient(func() {
		logger.L.Warn("credentials rejected, signed out")
		if srv != nil {
			srv.NotifyUnauthorized()
		}
	})
	tracker := newTracker(client)
	defer tracker.Wait()

	store := history.New(cfg.Storage.HistoryPath)
	defer store.Close()

	srv = server.New(func(sessionID string, opts ...chat.Option) *chat.Controller {
		return newController(client, tracker, store, sessionID, opts...)
	})
	return server.ListenAndServe(cmd.Context(), serverCfg, srv)
}

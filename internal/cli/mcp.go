package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/comigor/dermachat-go/internal/mcpserver"
	"github.com/comigor/dermachat-go/pkg/tools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server on stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout.

Assistant hosts can then search products, compare them, list creator videos
and check the signed-in user's profile completion. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient(nil)
		s := mcpserver.New(Version, tools.NewDefaultManager(client))
		return mcpserver.Serve(cmd.Context(), s, os.Stdin, os.Stdout)
	},
}

// Package mcpserver exposes the backend tools to MCP hosts over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/comigor/dermachat-go/internal/logger"
	"github.com/comigor/dermachat-go/pkg/tools"
)

const serverName = "dermachat"

// New builds an MCP server with one MCP tool per registered tool.
func New(version string, m *tools.ToolManager) *server.MCPServer {
	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, t := range m.List() {
		s.AddTool(toMCPTool(t), handler(t))
	}
	return s
}

func toMCPTool(t tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description())}
	for _, p := range t.Params() {
		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}
		opts = append(opts, mcp.WithString(p.Name, popts...))
	}
	return mcp.NewTool(t.Name(), opts...)
}

func handler(t tools.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
		}
		out, err := t.Run(ctx, string(args))
		if err != nil {
			logger.L.Warn("tool call failed", "tool", t.Name(), "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

// Serve speaks MCP over in and out until ctx is cancelled or in is closed.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	logger.L.Info("mcp server listening on stdio")
	return server.NewStdioServer(s).Listen(ctx, in, out)
}

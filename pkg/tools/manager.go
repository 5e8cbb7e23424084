package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/comigor/dermachat-go/internal/logger"
)

// ToolManager manages the available tools
type ToolManager struct {
	tools map[string]Tool
}

// NewToolManager creates a new ToolManager
func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]Tool),
	}
}

// NewDefaultManager registers every backend tool.
func NewDefaultManager(b Backend) *ToolManager {
	m := NewToolManager()
	m.RegisterTool(NewSearchTool(b))
	m.RegisterTool(NewCompareTool(b))
	m.RegisterTool(NewVideosTool(b))
	m.RegisterTool(NewProfileTool(b))
	return m
}

// List returns all registered tools sorted by name
func (m *ToolManager) List() []Tool {
	ts := make([]Tool, 0, len(m.tools))
	for _, t := range m.tools {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Name() < ts[j].Name() })
	return ts
}

// RegisterTool registers a new tool
func (m *ToolManager) RegisterTool(tool Tool) {
	m.tools[tool.Name()] = tool
}

// GetTool retrieves a tool by name
func (m *ToolManager) GetTool(name string) (Tool, error) {
	tool, ok := m.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// Call looks a tool up and runs it.
func (m *ToolManager) Call(ctx context.Context, name, args string) (string, error) {
	tool, err := m.GetTool(name)
	if err != nil {
		return "", err
	}
	logger.L.Info("tool invoked", "tool", name, "args", args)
	return tool.Run(ctx, args)
}

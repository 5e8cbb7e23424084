// Package tools exposes backend lookups as named tools with JSON arguments, for
// assistant hosts and for the terminal client.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Tool is the interface for all tools
type Tool interface {
	Name() string
	Description() string
	Params() []Param
	Run(ctx context.Context, args string) (string, error)
}

// Param describes one tool argument.
type Param struct {
	Name        string
	Description string
	Required    bool
}

// decodeArgs unmarshals the JSON argument object and checks required fields.
func decodeArgs(t Tool, args string, out any) error {
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	if err := json.Unmarshal([]byte(args), out); err != nil {
		return fmt.Errorf("%s: invalid arguments: %w", t.Name(), err)
	}

	var present map[string]any
	_ = json.Unmarshal([]byte(args), &present)
	for _, p := range t.Params() {
		if !p.Required {
			continue
		}
		v, ok := present[p.Name]
		if s, isString := v.(string); !ok || (isString && strings.TrimSpace(s) == "") {
			return fmt.Errorf("%s: missing required argument %q", t.Name(), p.Name)
		}
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/pkg/tools"
)

var outputFormat string

func printProducts(w io.Writer, res *catalog.SearchResult) {
	if res == nil || len(res.Products) == 0 {
		return
	}
	fmt.Fprintln(w)
	for i, p := range res.Products {
		fmt.Fprintf(w, "%d. %s\n", i+1, tools.ProductLine(p))
	}
}

// printValue writes v as YAML (default) or JSON.
func printValue(w io.Writer, v any) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q (use yaml or json)", outputFormat)
}

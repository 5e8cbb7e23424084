package chat

import (
	"fmt"
	"strings"

	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/logger"
)

const (
	// FallbackMessage is appended whenever a search cannot be answered.
	FallbackMessage = "I'm sorry, I couldn't process your request right now. Please try again."
	// SummaryFallback replaces a summary that could not be built.
	SummaryFallback = "I found some great products for you! Please check the product cards below for detailed information."

	maxSummaryIngredients = 5
)

// KeyIngredients returns the distinct ingredient names across products in order of
// first appearance. Empty names are skipped and case is preserved.
func KeyIngredients(products []catalog.Product) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range products {
		for _, name := range p.Ingredients.Names() {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// Summarize builds the assistant answer for a search result. It depends on nothing
// but res, and any failure yields SummaryFallback.
func Summarize(res *catalog.SearchResult) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logger.L.Error("failed to build summary", "panic", r)
			text = SummaryFallback
		}
	}()
	if res == nil {
		return SummaryFallback
	}

	concern := res.ParsedQuery.Concern
	if concern == "" {
		concern = "your skin concerns"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Great question! I found %d excellent products for %s.\n\n", len(res.Products), concern)
	if res.ParsedQuery.Ingredient != "" {
		fmt.Fprintf(&b, "Since you're interested in %s, I've focused on products that contain this powerhouse ingredient.\n\n", res.ParsedQuery.Ingredient)
	}
	b.WriteString("Here's your personalized skincare plan:\n\n")

	names := KeyIngredients(res.Products)
	if len(names) > maxSummaryIngredients {
		names = names[:maxSummaryIngredients]
	}
	if len(names) > 0 {
		b.WriteString("Key Ingredients to look for:\n")
		for _, n := range names {
			fmt.Fprintf(&b, "• %s\n", n)
		}
		b.WriteString("\n")
	}
	b.WriteString("I've curated the perfect products for your needs. Check out the recommendations below!")
	return b.String()
}

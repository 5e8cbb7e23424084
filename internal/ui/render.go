package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/chat"
)

const typingCursor = "▍"

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)
	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))
	ingredientStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("220"))
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

func panelStyle(active bool) lipgloss.Style {
	border := lipgloss.RoundedBorder()
	if active {
		return lipgloss.NewStyle().
			Border(border, true).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	}
	return lipgloss.NewStyle().
		Border(border, true).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
}

func renderTranscript(snap chat.Snapshot, width int) string {
	if len(snap.Transcript) == 0 && snap.Partial == "" {
		return mutedStyle.Render("Ask me anything about skincare: a concern, an ingredient or a product type.")
	}

	wrap := lipgloss.NewStyle()
	if width > 0 {
		wrap = wrap.Width(width)
	}

	var b strings.Builder
	for _, m := range snap.Transcript {
		if m.Role == chat.RoleUser {
			b.WriteString(userStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(wrap.Render(m.Content))
		} else {
			b.WriteString(assistantStyle.Render("Assistant"))
			b.WriteString("\n")
			b.WriteString(wrap.Render(highlightIngredients(m.Content, snap.KeyIngredients)))
		}
		b.WriteString("\n\n")
	}
	if snap.Partial != "" {
		b.WriteString(assistantStyle.Render("Assistant"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(highlightIngredients(snap.Partial, snap.KeyIngredients) + typingCursor))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

type span struct{ start, end int }

// ingredientSpans finds non-overlapping, case-insensitive occurrences of names in
// text, preferring the longest name at each position.
func ingredientSpans(text string, names []string) []span {
	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		return nil
	}
	sorted := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			sorted = append(sorted, n)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	var spans []span
	for i := 0; i < len(lower); {
		matched := 0
		for _, n := range sorted {
			if strings.HasPrefix(lower[i:], n) {
				matched = len(n)
				break
			}
		}
		if matched == 0 {
			i++
			continue
		}
		spans = append(spans, span{i, i + matched})
		i += matched
	}
	return spans
}

func highlightIngredients(text string, names []string) string {
	spans := ingredientSpans(text, names)
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, s := range spans {
		b.WriteString(text[last:s.start])
		b.WriteString(ingredientStyle.Render(text[s.start:s.end]))
		last = s.end
	}
	b.WriteString(text[last:])
	return b.String()
}

func displayPrice(p catalog.Product) string {
	switch {
	case p.Price.Sale > 0:
		return catalog.FormatINR(p.Price.Sale)
	case p.Price.MRP > 0:
		return catalog.FormatINR(p.Price.MRP)
	}
	return "-"
}

func renderProducts(products []catalog.Product, cursor int, marked map[string]bool) string {
	if len(products) == 0 {
		return mutedStyle.Render("No products yet.")
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("Products"))
	b.WriteString("\n")
	for i, p := range products {
		mark := "[ ]"
		if marked[p.ID] {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %d. %s %s", mark, i+1, p.Title(), displayPrice(p))
		if i == cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderDetail(p catalog.Product, width int) string {
	wrap := lipgloss.NewStyle()
	if width > 0 {
		wrap = wrap.Width(width)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(p.Title()))
	b.WriteString("\n")
	if p.Price.MRP > 0 && p.Price.Sale > 0 && p.Price.Sale < p.Price.MRP {
		fmt.Fprintf(&b, "%s (MRP %s)\n", catalog.FormatINR(p.Price.Sale), catalog.FormatINR(p.Price.MRP))
	} else {
		fmt.Fprintf(&b, "%s\n", displayPrice(p))
	}
	if p.Rating.Count > 0 {
		fmt.Fprintf(&b, "★ %.1f (%d reviews)\n", p.Rating.Average, p.Rating.Count)
	}
	if p.Size != "" {
		fmt.Fprintf(&b, "Size: %s\n", p.Size)
	}
	if p.MatchReason != "" {
		b.WriteString(wrap.Render("Why: " + p.MatchReason))
		b.WriteString("\n")
	}
	if p.Description != "" {
		b.WriteString(wrap.Render(p.Description))
		b.WriteString("\n")
	}
	if names := p.Ingredients.Names(); len(names) > 0 {
		b.WriteString(wrap.Render("Ingredients: " + strings.Join(names, ", ")))
		b.WriteString("\n")
	}
	if labels := p.Benefits.Labels(); len(labels) > 0 {
		b.WriteString(wrap.Render("Benefits: " + strings.Join(labels, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func renderComparison(res *catalog.CompareResult, width int) string {
	unique := make(map[string][]string, len(res.Comparison.UniqueIngredients))
	for _, u := range res.Comparison.UniqueIngredients {
		unique[u.ProductID] = u.UniqueIngredients
	}

	rows := make([][]string, 0, len(res.Products))
	for _, p := range res.Products {
		rating := "-"
		if p.Rating.Count > 0 {
			rating = fmt.Sprintf("%.1f", p.Rating.Average)
		}
		rows = append(rows, []string{p.Title(), displayPrice(p), rating, strings.Join(unique[p.ID], ", ")})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("Product", "Price", "Rating", "Only here").
		Rows(rows...)
	if width > 0 {
		t = t.Width(width)
	}

	c := res.Comparison
	var b strings.Builder
	b.WriteString(headerStyle.Render("Comparison"))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	fmt.Fprintf(&b, "Price range: %s - %s\n", catalog.FormatINR(c.PriceRange.Lowest), catalog.FormatINR(c.PriceRange.Highest))
	if len(c.CommonIngredients) > 0 {
		fmt.Fprintf(&b, "Shared: %s\n", strings.Join(c.CommonIngredients, ", "))
	}
	return b.String()
}

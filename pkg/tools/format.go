package tools

import (
	"fmt"
	"strings"

	"github.com/comigor/dermachat-go/internal/catalog"
)

// SplitIDs splits a comma or whitespace separated id list, dropping blanks.
func SplitIDs(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ProductLine renders one product as "Title [id] price ★rating (count) - reason".
func ProductLine(p catalog.Product) string {
	line := fmt.Sprintf("%s [%s]", p.Title(), p.ID)
	if p.Price.Sale > 0 {
		line += " " + catalog.FormatINR(p.Price.Sale)
	} else if p.Price.MRP > 0 {
		line += " " + catalog.FormatINR(p.Price.MRP)
	}
	if p.Rating.Count > 0 {
		line += fmt.Sprintf(" ★%.1f (%d)", p.Rating.Average, p.Rating.Count)
	}
	if p.MatchReason != "" {
		line += " - " + p.MatchReason
	}
	return line
}

// FormatComparison renders a compare result as plain text.
func FormatComparison(res *catalog.CompareResult) string {
	var b strings.Builder
	for _, p := range res.Products {
		fmt.Fprintf(&b, "- %s\n", ProductLine(p))
	}
	c := res.Comparison
	fmt.Fprintf(&b, "\nPrice range: %s - %s\n", catalog.FormatINR(c.PriceRange.Lowest), catalog.FormatINR(c.PriceRange.Highest))
	fmt.Fprintf(&b, "Rating range: %.1f - %.1f\n", c.RatingRange.Lowest, c.RatingRange.Highest)
	if len(c.CommonIngredients) > 0 {
		fmt.Fprintf(&b, "Common ingredients: %s\n", strings.Join(c.CommonIngredients, ", "))
	}
	for _, u := range c.UniqueIngredients {
		if len(u.UniqueIngredients) == 0 {
			continue
		}
		fmt.Fprintf(&b, "Only in %s: %s\n", u.ProductID, strings.Join(u.UniqueIngredients, ", "))
	}
	return b.String()
}

// FormatVideos renders the creator videos of a product as plain text.
func FormatVideos(res *catalog.ProductVideos) string {
	if len(res.Videos) == 0 {
		return "No creator videos mention this product yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d videos from %d creators\n", res.VideoCount, res.CreatorCount)
	for _, v := range res.Videos {
		fmt.Fprintf(&b, "\n%s by %s\n%s\n", v.Title, v.ChannelTitle, v.VideoURL)
		for _, m := range v.Mentions {
			fmt.Fprintf(&b, "  [%s] %q\n", m.Sentiment, m.Text)
		}
	}
	return b.String()
}

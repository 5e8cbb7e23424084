// Package catalog holds the typed shapes of the backend's product, search, comparison
// and video payloads. Responses are decoded once, at the API boundary, so the rest of
// the client can rely on well-formed values.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Ingredient is a single entry of a product's ingredient list.
type Ingredient struct {
	Name     string   `json:"name"`
	INCIName string   `json:"inci_name,omitempty"`
	Position int      `json:"position"`
	Benefits string   `json:"benefits,omitempty"`
	Concerns []string `json:"concerns,omitempty"`
	Safety   string   `json:"safety,omitempty"`
}

// Ingredients decodes leniently: null or non-array values become an empty list and
// entries without a string name are dropped.
type Ingredients []Ingredient

func (in *Ingredients) UnmarshalJSON(b []byte) error {
	*in = Ingredients{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	for _, item := range raw {
		var entry struct {
			Name     json.RawMessage `json:"name"`
			INCIName string          `json:"inci_name"`
			Position int             `json:"position"`
			Benefits string          `json:"benefits"`
			Concerns []string        `json:"concerns"`
			Safety   string          `json:"safety"`
		}
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		var name string
		if err := json.Unmarshal(entry.Name, &name); err != nil || name == "" {
			continue
		}
		*in = append(*in, Ingredient{
			Name:     name,
			INCIName: entry.INCIName,
			Position: entry.Position,
			Benefits: entry.Benefits,
			Concerns: entry.Concerns,
			Safety:   entry.Safety,
		})
	}
	return nil
}

// Names returns the ingredient names in list order.
func (in Ingredients) Names() []string {
	names := make([]string, 0, len(in))
	for _, i := range in {
		names = append(names, i.Name)
	}
	return names
}

// Price is a product price in the given currency.
type Price struct {
	MRP      float64 `json:"mrp"`
	Sale     float64 `json:"sale"`
	Currency string  `json:"currency"`
}

// Rating is the aggregated review score.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Benefit is one claimed product benefit.
type Benefit struct {
	Benefit    string `json:"benefit"`
	Category   string `json:"category"`
	Confidence string `json:"confidence"`
}

// Benefits accepts both shapes the backend emits: a list of Benefit objects, or an
// object carrying raw text and a plain list.
type Benefits struct {
	Items   []Benefit
	RawText string
	List    []string
}

func (b *Benefits) UnmarshalJSON(data []byte) error {
	*b = Benefits{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '[':
		var items []Benefit
		if err := json.Unmarshal(data, &items); err == nil {
			b.Items = items
		}
	case '{':
		var obj struct {
			RawText      string   `json:"raw_text"`
			BenefitsList []string `json:"benefits_list"`
		}
		if err := json.Unmarshal(data, &obj); err == nil {
			b.RawText = obj.RawText
			b.List = obj.BenefitsList
		}
	}
	return nil
}

func (b Benefits) MarshalJSON() ([]byte, error) {
	if b.Items != nil {
		return json.Marshal(b.Items)
	}
	return json.Marshal(struct {
		Count        int      `json:"count"`
		RawText      string   `json:"raw_text"`
		BenefitsList []string `json:"benefits_list"`
	}{len(b.List), b.RawText, b.List})
}

// Labels flattens both shapes into display strings.
func (b Benefits) Labels() []string {
	if len(b.Items) > 0 {
		out := make([]string, 0, len(b.Items))
		for _, it := range b.Items {
			out = append(out, it.Benefit)
		}
		return out
	}
	return b.List
}

// Product is a recommended product as returned by search, details and compare.
type Product struct {
	ID          string      `json:"id"`
	Brand       string      `json:"brand"`
	Name        string      `json:"name"`
	Price       Price       `json:"price"`
	Rating      Rating      `json:"rating"`
	Images      []string    `json:"images"`
	Description string      `json:"description"`
	Ingredients Ingredients `json:"ingredients"`
	Benefits    Benefits    `json:"benefits"`
	SourceURL   string      `json:"sourceUrl"`
	Size        string      `json:"size"`
	MatchReason string      `json:"matchReason"`
}

// Title is "Brand Name", or just the name when the brand is unknown.
func (p Product) Title() string {
	if p.Brand == "" {
		return p.Name
	}
	return p.Brand + " " + p.Name
}

// ProductIDs returns the ids of products in order.
func ProductIDs(products []Product) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

// FormatINR renders an amount the way the storefront shows prices: rupee sign, no
// decimals, Indian digit grouping (12,34,567).
func FormatINR(amount float64) string {
	n := int64(amount + 0.5)
	if amount < 0 {
		n = int64(amount - 0.5)
	}
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return fmt.Sprintf("%s₹%s", sign, digits)
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return fmt.Sprintf("%s₹%s,%s", sign, strings.Join(groups, ","), tail)
}

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/chat"
	"github.com/comigor/dermachat-go/internal/profile"
)

// Backend is the part of the API client the tools use. *api.Client implements it.
type Backend interface {
	Search(ctx context.Context, query string) (*catalog.SearchResult, error)
	Compare(ctx context.Context, ids []string) (*catalog.CompareResult, error)
	ProductVideos(ctx context.Context, id string) (*catalog.ProductVideos, error)
	CompleteProfile(ctx context.Context) (*profile.Complete, error)
}

// SearchTool runs a product search and answers with the chat summary.
type SearchTool struct {
	backend Backend
}

// NewSearchTool creates a new SearchTool
func NewSearchTool(b Backend) *SearchTool {
	return &SearchTool{backend: b}
}

func (t *SearchTool) Name() string { return "search_products" }

func (t *SearchTool) Description() string {
	return "Searches skincare products for a free-text need (concern, ingredient, product type or skin type) and returns a short plan plus the matching products with their ids."
}

func (t *SearchTool) Params() []Param {
	return []Param{{Name: "query", Description: "What the user is looking for, e.g. 'vitamin c serum for dull skin'", Required: true}}
}

func (t *SearchTool) Run(ctx context.Context, args string) (string, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := decodeArgs(t, args, &in); err != nil {
		return "", err
	}
	res, err := t.backend.Search(ctx, in.Query)
	if err != nil {
		return "", fmt.Errorf("search products: %w", err)
	}

	var b strings.Builder
	b.WriteString(chat.Summarize(res))
	b.WriteString("\n\nProducts:\n")
	for i, p := range res.Products {
		fmt.Fprintf(&b, "%d. %s\n", i+1, ProductLine(p))
	}
	return b.String(), nil
}

// CompareTool compares products side by side.
type CompareTool struct {
	backend Backend
}

// NewCompareTool creates a new CompareTool
func NewCompareTool(b Backend) *CompareTool {
	return &CompareTool{backend: b}
}

func (t *CompareTool) Name() string { return "compare_products" }

func (t *CompareTool) Description() string {
	return "Compares two or more products by id: price and rating ranges, shared ingredients and what is unique to each. Get ids from search_products first."
}

func (t *CompareTool) Params() []Param {
	return []Param{{Name: "product_ids", Description: "Comma-separated product ids", Required: true}}
}

func (t *CompareTool) Run(ctx context.Context, args string) (string, error) {
	var in struct {
		ProductIDs string `json:"product_ids"`
	}
	if err := decodeArgs(t, args, &in); err != nil {
		return "", err
	}
	ids := SplitIDs(in.ProductIDs)
	res, err := t.backend.Compare(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("compare products: %w", err)
	}
	return FormatComparison(res), nil
}

// VideosTool lists creator videos that mention a product.
type VideosTool struct {
	backend Backend
}

// NewVideosTool creates a new VideosTool
func NewVideosTool(b Backend) *VideosTool {
	return &VideosTool{backend: b}
}

func (t *VideosTool) Name() string { return "product_videos" }

func (t *VideosTool) Description() string {
	return "Lists creator videos that mention a product, with what they said about it."
}

func (t *VideosTool) Params() []Param {
	return []Param{{Name: "product_id", Description: "Product id from search_products", Required: true}}
}

func (t *VideosTool) Run(ctx context.Context, args string) (string, error) {
	var in struct {
		ProductID string `json:"product_id"`
	}
	if err := decodeArgs(t, args, &in); err != nil {
		return "", err
	}
	res, err := t.backend.ProductVideos(ctx, in.ProductID)
	if err != nil {
		return "", fmt.Errorf("product videos: %w", err)
	}
	return FormatVideos(res), nil
}

// ProfileTool reports how complete the signed-in user's profile is.
type ProfileTool struct {
	backend Backend
}

// NewProfileTool creates a new ProfileTool
func NewProfileTool(b Backend) *ProfileTool {
	return &ProfileTool{backend: b}
}

func (t *ProfileTool) Name() string { return "profile_completion" }

func (t *ProfileTool) Description() string {
	return "Shows which profile sections (skin, hair, lifestyle, health, makeup) the signed-in user has filled in. Recommendations are more personal when the profile is complete."
}

func (t *ProfileTool) Params() []Param { return nil }

func (t *ProfileTool) Run(ctx context.Context, args string) (string, error) {
	var in struct{}
	if err := decodeArgs(t, args, &in); err != nil {
		return "", err
	}
	p, err := t.backend.CompleteProfile(ctx)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Profile %d%% complete.\n", profile.Completion(p))
	for _, s := range profile.Sections(p) {
		mark := " "
		if s.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", mark, s.Title, s.Description)
	}
	return b.String(), nil
}

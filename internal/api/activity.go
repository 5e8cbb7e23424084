package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/comigor/dermachat-go/internal/catalog"
)

// Activity is a generic /activity/track record.
type Activity struct {
	ActivityType          string         `json:"activity_type"`
	ProductID             string         `json:"product_id,omitempty"`
	SearchQuery           string         `json:"search_query,omitempty"`
	FiltersApplied        map[string]any `json:"filters_applied,omitempty"`
	PageURL               string         `json:"page_url,omitempty"`
	ReferrerURL           string         `json:"referrer_url,omitempty"`
	SessionID             string         `json:"session_id,omitempty"`
	Metadata              map[string]any `json:"metadata,omitempty"`
	Position              int            `json:"position,omitempty"`
	RecommendationContext string         `json:"recommendation_context,omitempty"`
	ResultsCount          int            `json:"results_count,omitempty"`
	SearchContext         string         `json:"search_context,omitempty"`
}

// SearchActivity is the /activity/track/search body.
type SearchActivity struct {
	SearchQuery    string         `json:"search_query"`
	FiltersApplied map[string]any `json:"filters_applied,omitempty"`
	ResultsCount   int            `json:"results_count"`
	SessionID      string         `json:"session_id,omitempty"`
}

// ProductViewActivity is the /activity/track/product-view body.
type ProductViewActivity struct {
	ProductID   string `json:"product_id"`
	PageURL     string `json:"page_url"`
	ReferrerURL string `json:"referrer_url,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

// FilterActivity is the /activity/track/filter body.
type FilterActivity struct {
	FiltersApplied map[string]any `json:"filters_applied"`
	SearchContext  string         `json:"search_context,omitempty"`
	ResultsCount   int            `json:"results_count"`
	SessionID      string         `json:"session_id,omitempty"`
}

// RecommendationActivity is the /activity/track/recommendation body. ActivityType is
// recommendation_clicked or recommendation_viewed.
type RecommendationActivity struct {
	ActivityType          string `json:"activity_type"`
	ProductID             string `json:"product_id"`
	RecommendationContext string `json:"recommendation_context"`
	Position              int    `json:"position"`
	SessionID             string `json:"session_id,omitempty"`
}

// WishlistActivity is the /activity/track/wishlist body. ActivityType is
// wishlist_add or wishlist_remove.
type WishlistActivity struct {
	ActivityType string `json:"activity_type"`
	ProductID    string `json:"product_id"`
	SessionID    string `json:"session_id,omitempty"`
}

func (c *Client) track(ctx context.Context, path string, in any) error {
	body, err := c.do(keepCredentials(ctx), http.MethodPost, path, nil, in)
	if err != nil {
		return err
	}
	_, err = catalog.Decode(body, nil)
	return err
}

// Track records a generic activity.
func (c *Client) Track(ctx context.Context, a Activity) error {
	return c.track(ctx, "/activity/track", a)
}

// TrackSearch records a search.
func (c *Client) TrackSearch(ctx context.Context, a SearchActivity) error {
	return c.track(ctx, "/activity/track/search", a)
}

// TrackProductView records a product detail view.
func (c *Client) TrackProductView(ctx context.Context, a ProductViewActivity) error {
	return c.track(ctx, "/activity/track/product-view", a)
}

// TrackFilter records applied filters.
func (c *Client) TrackFilter(ctx context.Context, a FilterActivity) error {
	return c.track(ctx, "/activity/track/filter", a)
}

// TrackRecommendation records a recommendation impression or click.
func (c *Client) TrackRecommendation(ctx context.Context, a RecommendationActivity) error {
	return c.track(ctx, "/activity/track/recommendation", a)
}

// TrackWishlist records a wishlist change.
func (c *Client) TrackWishlist(ctx context.Context, a WishlistActivity) error {
	return c.track(ctx, "/activity/track/wishlist", a)
}

// HistoryQuery filters ActivityHistory. Zero values are omitted.
type HistoryQuery struct {
	ActivityType string
	Limit        int
	Offset       int
}

// ActivityHistory returns the signed-in user's activity log as raw JSON.
func (c *Client) ActivityHistory(ctx context.Context, hq HistoryQuery) (json.RawMessage, error) {
	q := url.Values{}
	if hq.ActivityType != "" {
		q.Set("activity_type", hq.ActivityType)
	}
	if hq.Limit > 0 {
		q.Set("limit", strconv.Itoa(hq.Limit))
	}
	if hq.Offset > 0 {
		q.Set("offset", strconv.Itoa(hq.Offset))
	}
	return c.raw(ctx, "/activity/history", q)
}

// ActivityAnalytics returns aggregated activity for the last days days (all time
// when days is zero).
func (c *Client) ActivityAnalytics(ctx context.Context, days int) (json.RawMessage, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	return c.raw(ctx, "/activity/analytics", q)
}

func (c *Client) raw(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	body, err := c.do(keepCredentials(ctx), http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}
	var data json.RawMessage
	if _, err := catalog.Decode(body, &data); err != nil {
		return nil, err
	}
	return data, nil
}

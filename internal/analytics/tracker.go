// Package analytics sends fire-and-forget tracking events to Google Analytics 4,
// the Meta Conversions API and the backend activity log. Failures never reach the
// caller.
package analytics

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/comigor/dermachat-go/internal/api"
	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/config"
	"github.com/comigor/dermachat-go/internal/logger"
)

const (
	defaultGAEndpoint   = "https://www.google-analytics.com/mp/collect"
	defaultMetaEndpoint = "https://graph.facebook.com/v18.0"
	sendTimeout         = 5 * time.Second
	currency            = "INR"

	recommendationContext = "chat_search"
)

// Activity is the backend activity log. *api.Client implements it.
type Activity interface {
	Track(ctx context.Context, a api.Activity) error
	TrackSearch(ctx context.Context, a api.SearchActivity) error
	TrackProductView(ctx context.Context, a api.ProductViewActivity) error
	TrackFilter(ctx context.Context, a api.FilterActivity) error
	TrackRecommendation(ctx context.Context, a api.RecommendationActivity) error
	TrackWishlist(ctx context.Context, a api.WishlistActivity) error
}

// Tracker emits tracking events. The zero value is not usable; call New.
type Tracker struct {
	enabled      bool
	clientID     string
	gaID         string
	gaSecret     string
	gaEndpoint   string
	pixelID      string
	metaToken    string
	metaEndpoint string
	client       *http.Client
	activity     Activity

	wg sync.WaitGroup
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithHTTPClient replaces the client used for vendor calls.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Tracker) { t.client = c }
}

// WithEndpoints overrides the GA4 collect URL and the Graph API base URL.
func WithEndpoints(ga, meta string) Option {
	return func(t *Tracker) {
		t.gaEndpoint = ga
		t.metaEndpoint = meta
	}
}

// WithActivity also records events in the backend activity log.
func WithActivity(a Activity) Option {
	return func(t *Tracker) { t.activity = a }
}

// New creates a Tracker. clientID identifies this installation to the vendors; the
// browsing session id is a good fit. Vendor sinks without credentials are skipped and
// cfg.Enabled=false turns them all off. The backend activity log is independent of
// the flag.
func New(cfg config.AnalyticsConfig, clientID string, opts ...Option) *Tracker {
	t := &Tracker{
		enabled:      cfg.Enabled,
		clientID:     clientID,
		gaID:         cfg.GAMeasurementID,
		gaSecret:     cfg.GAAPISecret,
		gaEndpoint:   defaultGAEndpoint,
		pixelID:      cfg.MetaPixelID,
		metaToken:    cfg.MetaAccessToken,
		metaEndpoint: defaultMetaEndpoint,
		client:       &http.Client{Timeout: sendTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Search records a completed search. Filters parsed from the query are also
// recorded as applied filters.
func (t *Tracker) Search(query string, resultsCount int, filters map[string]any) {
	t.ga("search", map[string]any{
		"search_term":   query,
		"results_count": resultsCount,
		"content_type":  "skincare_products",
	})
	t.meta("Search", map[string]any{
		"search_string":    query,
		"content_category": "skincare",
	})
	t.backend("search", func(ctx context.Context, a Activity, sessionID string) error {
		return a.TrackSearch(ctx, api.SearchActivity{
			SearchQuery:    query,
			FiltersApplied: filters,
			ResultsCount:   resultsCount,
			SessionID:      sessionID,
		})
	})
	if len(filters) == 0 {
		return
	}
	t.backend("filter", func(ctx context.Context, a Activity, sessionID string) error {
		return a.TrackFilter(ctx, api.FilterActivity{
			FiltersApplied: filters,
			SearchContext:  query,
			ResultsCount:   resultsCount,
			SessionID:      sessionID,
		})
	})
}

// ProductView records a product detail view.
func (t *Tracker) ProductView(p catalog.Product, pageURL string) {
	value := price(p)
	t.ga("view_item", map[string]any{
		"item_id":       p.ID,
		"item_name":     p.Name,
		"item_brand":    p.Brand,
		"value":         value,
		"currency":      currency,
		"item_category": "skincare",
	})
	t.meta("ViewContent", map[string]any{
		"content_ids":  []string{p.ID},
		"content_type": "product",
		"value":        value,
		"currency":     currency,
	})
	t.backend("product_view", func(ctx context.Context, a Activity, sessionID string) error {
		return a.TrackProductView(ctx, api.ProductViewActivity{
			ProductID: p.ID,
			PageURL:   pageURL,
			SessionID: sessionID,
		})
	})
}

// ProductClick records a click on a recommended product card at position.
func (t *Tracker) ProductClick(p catalog.Product, position int) {
	t.ga("select_item", map[string]any{
		"item_id":      p.ID,
		"item_name":    p.Name,
		"index":        position,
		"content_type": "product",
	})
	t.backend("recommendation_clicked", func(ctx context.Context, a Activity, sessionID string) error {
		return a.TrackRecommendation(ctx, api.RecommendationActivity{
			ActivityType:          "recommendation_clicked",
			ProductID:             p.ID,
			RecommendationContext: recommendationContext,
			Position:              position,
			SessionID:             sessionID,
		})
	})
}

// Wishlist records a product added to or removed from the wishlist.
func (t *Tracker) Wishlist(p catalog.Product, add bool) {
	activity := "wishlist_remove"
	if add {
		activity = "wishlist_add"
		t.ga("add_to_wishlist", map[string]any{
			"currency": currency,
			"value":    price(p),
			"items":    []map[string]any{{"item_id": p.ID, "item_name": p.Name}},
		})
		t.meta("AddToWishlist", map[string]any{
			"content_ids":  []string{p.ID},
			"content_type": "product",
		})
	}
	t.backend(activity, func(ctx context.Context, a Activity, sessionID string) error {
		return a.TrackWishlist(ctx, api.WishlistActivity{
			ActivityType: activity,
			ProductID:    p.ID,
			SessionID:    sessionID,
		})
	})
}

// CompareView records that products were compared side by side.
func (t *Tracker) CompareView(ids []string) {
	t.ga("compare_products", map[string]any{
		"product_ids":   ids,
		"product_count": len(ids),
	})
	t.backend("compare", func(ctx context.Context, a Activity, sessionID string) error {
		return a.Track(ctx, api.Activity{
			ActivityType: "compare_view",
			SessionID:    sessionID,
			Metadata:     map[string]any{"product_ids": ids},
		})
	})
}

// VideoClick records a click on a creator video.
func (t *Tracker) VideoClick(productID, videoID, creator string) {
	t.ga("video_play", map[string]any{
		"product_id":   productID,
		"video_id":     videoID,
		"creator":      creator,
		"content_type": "product_review",
	})
}

// PurchaseIntent records a click through to the retailer.
func (t *Tracker) PurchaseIntent(p catalog.Product) {
	value := price(p)
	t.ga("add_to_cart", map[string]any{
		"currency": currency,
		"value":    value,
		"items": []map[string]any{{
			"item_id":   p.ID,
			"item_name": p.Name,
			"currency":  currency,
			"price":     value,
			"quantity":  1,
		}},
	})
	t.meta("AddToCart", map[string]any{
		"content_ids":  []string{p.ID},
		"content_type": "product",
		"value":        value,
		"currency":     currency,
	})
}

// PageView records a screen change.
func (t *Tracker) PageView(name, path string) {
	t.ga("page_view", map[string]any{
		"page_title": name,
		"page_path":  path,
	})
	t.meta("PageView", nil)
}

// Wait blocks until every in-flight send has finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func price(p catalog.Product) float64 {
	if p.Price.Sale > 0 {
		return p.Price.Sale
	}
	return p.Price.MRP
}

func (t *Tracker) goSend(sink, event string, fn func(ctx context.Context) error) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.L.Debug("analytics send failed", "sink", sink, "event", event, "error", err)
		}
	}()
}

func (t *Tracker) ga(name string, params map[string]any) {
	if !t.enabled || t.gaID == "" || t.gaSecret == "" {
		return
	}
	q := url.Values{}
	q.Set("measurement_id", t.gaID)
	q.Set("api_secret", t.gaSecret)
	body := map[string]any{
		"client_id": t.clientID,
		"events":    []map[string]any{{"name": name, "params": params}},
	}
	t.goSend("ga4", name, func(ctx context.Context) error {
		return t.post(ctx, t.gaEndpoint+"?"+q.Encode(), body)
	})
}

func (t *Tracker) meta(name string, params map[string]any) {
	if !t.enabled || t.pixelID == "" || t.metaToken == "" {
		return
	}
	sum := sha256.Sum256([]byte(t.clientID))
	event := map[string]any{
		"event_name":    name,
		"event_time":    time.Now().Unix(),
		"action_source": "other",
		"user_data":     map[string]any{"external_id": []string{hex.EncodeToString(sum[:])}},
	}
	if len(params) > 0 {
		event["custom_data"] = params
	}
	u := fmt.Sprintf("%s/%s/events?access_token=%s", t.metaEndpoint, url.PathEscape(t.pixelID), url.QueryEscape(t.metaToken))
	t.goSend("meta", name, func(ctx context.Context) error {
		return t.post(ctx, u, map[string]any{"data": []map[string]any{event}})
	})
}

func (t *Tracker) backend(event string, fn func(ctx context.Context, a Activity, sessionID string) error) {
	if t.activity == nil {
		return
	}
	t.goSend("activity", event, func(ctx context.Context) error {
		return fn(ctx, t.activity, t.clientID)
	})
}

func (t *Tracker) post(ctx context.Context, u string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("send event: status %d", resp.StatusCode)
	}
	return nil
}

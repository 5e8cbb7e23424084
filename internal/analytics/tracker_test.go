package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/dermachat-go/internal/api"
	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/config"
)

type capture struct {
	mu    sync.Mutex
	paths []string
	urls  []string
	body  []map[string]any
}

func (c *capture) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		c.mu.Lock()
		c.paths = append(c.paths, r.URL.Path)
		c.urls = append(c.urls, r.URL.String())
		c.body = append(c.body, body)
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

type mockActivity struct {
	mu              sync.Mutex
	searches        []api.SearchActivity
	views           []api.ProductViewActivity
	filters         []api.FilterActivity
	recommendations []api.RecommendationActivity
	wishlist        []api.WishlistActivity
	generic         []api.Activity
}

func (m *mockActivity) Track(_ context.Context, a api.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generic = append(m.generic, a)
	return nil
}

func (m *mockActivity) TrackSearch(_ context.Context, a api.SearchActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, a)
	return nil
}

func (m *mockActivity) TrackProductView(_ context.Context, a api.ProductViewActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views = append(m.views, a)
	return nil
}

func (m *mockActivity) TrackFilter(_ context.Context, a api.FilterActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, a)
	return nil
}

func (m *mockActivity) TrackRecommendation(_ context.Context, a api.RecommendationActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recommendations = append(m.recommendations, a)
	return nil
}

func (m *mockActivity) TrackWishlist(_ context.Context, a api.WishlistActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wishlist = append(m.wishlist, a)
	return nil
}

var enabledCfg = config.AnalyticsConfig{
	Enabled:         true,
	GAMeasurementID: "G-TEST",
	GAAPISecret:     "secret",
	MetaPixelID:     "123",
	MetaAccessToken: "meta-token",
}

func TestSearchFansOut(t *testing.T) {
	rec := &capture{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	act := &mockActivity{}
	tr := New(enabledCfg, "session_1", WithEndpoints(srv.URL+"/mp/collect", srv.URL), WithActivity(act))
	tr.Search("vitamin c", 3, map[string]any{"concern": "dullness"})
	tr.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.ElementsMatch(t, []string{"/mp/collect", "/123/events"}, rec.paths)

	for i, p := range rec.paths {
		switch p {
		case "/mp/collect":
			require.Contains(t, rec.urls[i], "measurement_id=G-TEST")
			require.Equal(t, "session_1", rec.body[i]["client_id"])
			events := rec.body[i]["events"].([]any)
			ev := events[0].(map[string]any)
			require.Equal(t, "search", ev["name"])
			require.Equal(t, "vitamin c", ev["params"].(map[string]any)["search_term"])
		case "/123/events":
			require.Contains(t, rec.urls[i], "access_token=meta-token")
			data := rec.body[i]["data"].([]any)
			require.Equal(t, "Search", data[0].(map[string]any)["event_name"])
		}
	}

	act.mu.Lock()
	defer act.mu.Unlock()
	require.Len(t, act.searches, 1)
	require.Equal(t, 3, act.searches[0].ResultsCount)
	require.Equal(t, "session_1", act.searches[0].SessionID)
	require.Len(t, act.filters, 1)
	require.Equal(t, map[string]any{"concern": "dullness"}, act.filters[0].FiltersApplied)
	require.Equal(t, "vitamin c", act.filters[0].SearchContext)
}

func TestSearchWithoutFiltersSkipsFilterLog(t *testing.T) {
	act := &mockActivity{}
	tr := New(config.AnalyticsConfig{}, "s", WithActivity(act))
	tr.Search("sunscreen", 2, nil)
	tr.Wait()

	act.mu.Lock()
	defer act.mu.Unlock()
	require.Len(t, act.searches, 1)
	require.Empty(t, act.filters)
}

func TestProductClickRecordsRecommendation(t *testing.T) {
	act := &mockActivity{}
	tr := New(config.AnalyticsConfig{}, "s", WithActivity(act))
	tr.ProductClick(catalog.Product{ID: "p2"}, 3)
	tr.Wait()

	act.mu.Lock()
	defer act.mu.Unlock()
	require.Equal(t, []api.RecommendationActivity{{
		ActivityType:          "recommendation_clicked",
		ProductID:             "p2",
		RecommendationContext: "chat_search",
		Position:              3,
		SessionID:             "s",
	}}, act.recommendations)
}

func TestWishlist(t *testing.T) {
	rec := &capture{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	act := &mockActivity{}
	tr := New(enabledCfg, "s", WithEndpoints(srv.URL+"/mp/collect", srv.URL), WithActivity(act))
	p := catalog.Product{ID: "p1", Name: "Serum"}
	tr.Wishlist(p, true)
	tr.Wishlist(p, false)
	tr.Wait()

	act.mu.Lock()
	var kinds []string
	for _, w := range act.wishlist {
		kinds = append(kinds, w.ActivityType)
	}
	act.mu.Unlock()
	require.ElementsMatch(t, []string{"wishlist_add", "wishlist_remove"}, kinds)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.ElementsMatch(t, []string{"/mp/collect", "/123/events"}, rec.paths, "only adding is reported to the vendors")
}

func TestDisabledSkipsVendors(t *testing.T) {
	rec := &capture{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	cfg := enabledCfg
	cfg.Enabled = false
	act := &mockActivity{}
	tr := New(cfg, "s", WithEndpoints(srv.URL, srv.URL), WithActivity(act))

	p := catalog.Product{ID: "p1", Name: "Serum", Price: catalog.Price{MRP: 500, Sale: 450}}
	tr.ProductView(p, "/products/p1")
	tr.PurchaseIntent(p)
	tr.PageView("Chat", "/")
	tr.Wait()

	rec.mu.Lock()
	require.Empty(t, rec.paths)
	rec.mu.Unlock()

	act.mu.Lock()
	defer act.mu.Unlock()
	require.Len(t, act.views, 1, "backend activity is recorded regardless of vendor analytics")
}

func TestVendorFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := New(enabledCfg, "s", WithEndpoints(srv.URL, srv.URL))
	tr.ProductClick(catalog.Product{ID: "p1"}, 2)
	tr.CompareView([]string{"a", "b"})
	tr.VideoClick("p1", "v1", "creator")
	tr.Wait()
}

func TestPricePrefersSale(t *testing.T) {
	require.Equal(t, 450.0, price(catalog.Product{Price: catalog.Price{MRP: 500, Sale: 450}}))
	require.Equal(t, 500.0, price(catalog.Product{Price: catalog.Price{MRP: 500}}))
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/comigor/dermachat-go/internal/catalog"
)

// Product fetches one product by id.
func (c *Client) Product(ctx context.Context, id string) (*catalog.Product, error) {
	body, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return catalog.ParseProduct(body)
}

// Compare asks the backend for a side-by-side comparison of two or more products.
func (c *Client) Compare(ctx context.Context, ids []string) (*catalog.CompareResult, error) {
	if len(ids) < 2 {
		return nil, fmt.Errorf("compare needs at least two products, got %d", len(ids))
	}
	body, err := c.do(ctx, http.MethodPost, "/compare", nil, map[string][]string{"productIds": ids})
	if err != nil {
		return nil, err
	}
	return catalog.ParseCompareResponse(body)
}

// ProductVideos returns the creator videos that mention a product.
func (c *Client) ProductVideos(ctx context.Context, id string) (*catalog.ProductVideos, error) {
	body, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id)+"/videos", nil, nil)
	if err != nil {
		return nil, err
	}
	return catalog.ParseVideosResponse(body)
}

// VideosSummary returns the per-product video-mention summary. The payload is passed
// through untouched.
func (c *Client) VideosSummary(ctx context.Context, ids []string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("productIds", strings.Join(ids, ","))
	body, err := c.do(ctx, http.MethodGet, "/videos/products-summary", q, nil)
	if err != nil {
		return nil, err
	}
	var data json.RawMessage
	if _, err := catalog.Decode(body, &data); err != nil {
		return nil, err
	}
	return data, nil
}

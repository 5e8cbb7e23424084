package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/comigor/dermachat-go/internal/catalog"
)

// ErrEmptyQuery is returned by Search for a blank query.
var ErrEmptyQuery = errors.New("query must not be empty")

type searchRequest struct {
	Query              string `json:"query"`
	Limit              int    `json:"limit"`
	IncludeIngredients bool   `json:"includeIngredients"`
}

// Search runs a free-text product search.
func (c *Client) Search(ctx context.Context, query string) (*catalog.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	body, err := c.do(ctx, http.MethodPost, "/search", nil, searchRequest{
		Query:              query,
		Limit:              c.searchLimit,
		IncludeIngredients: true,
	})
	if err != nil {
		return nil, err
	}
	return catalog.ParseSearchResponse(body)
}

// Suggestions returns query completions for a partial query.
func (c *Client) Suggestions(ctx context.Context, query string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(orDefault(limit, 5)))

	body, err := c.do(ctx, http.MethodGet, "/search/suggestions", q, nil)
	if err != nil {
		return nil, err
	}
	var data struct {
		Suggestions []string `json:"suggestions"`
	}
	if _, err := catalog.Decode(body, &data); err != nil {
		return nil, err
	}
	return data.Suggestions, nil
}

// Popular returns the most frequent searches, most popular first.
func (c *Client) Popular(ctx context.Context, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(orDefault(limit, 10)))

	body, err := c.do(ctx, http.MethodGet, "/search/popular", q, nil)
	if err != nil {
		return nil, err
	}
	var data struct {
		Searches []string `json:"searches"`
	}
	if _, err := catalog.Decode(body, &data); err != nil {
		return nil, err
	}
	return data.Searches, nil
}

// HealthStatus is the /health answer.
type HealthStatus struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Services  json.RawMessage `json:"services,omitempty"`
}

// Health checks the backend liveness endpoint. The endpoint is not wrapped in the
// usual envelope, so both shapes are accepted.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return nil, err
	}
	var status HealthStatus
	if _, err := catalog.Decode(body, &status); err == nil {
		return &status, nil
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	if status.Status == "" {
		status.Status = "ok"
	}
	return &status, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const searchBody = `{
  "success": true,
  "data": {
    "query": "vitamin c serum",
    "parsedQuery": {"intent": "search", "concern": "dullness", "user_segment": "general"},
    "products": [
      {"id": "p1", "brand": "Minimalist", "name": "Vitamin C 10%",
       "price": {"mrp": 699, "sale": 599, "currency": "INR"},
       "rating": {"average": 4.3, "count": 1200},
       "ingredients": [{"name": "Ascorbic Acid", "position": 1, "concerns": [], "safety": "safe"}, {"name": 42}, "junk", {"position": 3}],
       "benefits": [{"benefit": "Brightening", "category": "tone", "confidence": "high"}]},
      {"id": "p2", "brand": "Plum", "name": "C Serum",
       "ingredients": null,
       "benefits": {"count": 2, "raw_text": "glow, even tone", "benefits_list": ["glow", "even tone"]}},
      {"id": "p3", "name": "Serum", "ingredients": {"unexpected": true}}
    ],
    "totalFound": 3,
    "message": "ok",
    "searchMethod": "semantic"
  },
  "meta": {"processingTime": "12ms", "timestamp": "2024-01-01T00:00:00Z"}
}`

func TestParseSearchResponse(t *testing.T) {
	res, err := ParseSearchResponse([]byte(searchBody))
	require.NoError(t, err)

	require.Equal(t, "dullness", res.ParsedQuery.Concern)
	require.Len(t, res.Products, 3)
	require.Equal(t, []string{"Ascorbic Acid"}, res.Products[0].Ingredients.Names())
	require.Empty(t, res.Products[1].Ingredients)
	require.Empty(t, res.Products[2].Ingredients)
	require.Equal(t, []string{"Brightening"}, res.Products[0].Benefits.Labels())
	require.Equal(t, []string{"glow", "even tone"}, res.Products[1].Benefits.Labels())
	require.Equal(t, "12ms", res.Meta.ProcessingTime)
	require.Equal(t, map[string]any{"intent": "search", "concern": "dullness", "user_segment": "general"}, res.Filters())
}

func TestParseSearchResponse_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"not json", `<html>`, ErrMalformed},
		{"unsuccessful", `{"success": false, "message": "rate limited"}`, ErrUnsuccessful},
		{"missing data", `{"success": true}`, ErrMalformed},
		{"null data", `{"success": true, "data": null}`, ErrMalformed},
		{"wrong product shape", `{"success": true, "data": {"products": "nope"}}`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSearchResponse([]byte(tt.body))
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParseSearchResponse_EmptyProducts(t *testing.T) {
	res, err := ParseSearchResponse([]byte(`{"success": true, "data": {"parsedQuery": {}}}`))
	require.NoError(t, err)
	require.NotNil(t, res.Products)
	require.Empty(t, res.Products)
}

func TestParseProduct(t *testing.T) {
	p, err := ParseProduct([]byte(`{"success": true, "data": {"id": "p9", "brand": "CeraVe", "name": "Moisturising Cream"}}`))
	require.NoError(t, err)
	require.Equal(t, "CeraVe Moisturising Cream", p.Title())

	_, err = ParseProduct([]byte(`{"success": true, "data": {"name": "anonymous"}}`))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseCompareAndVideos(t *testing.T) {
	cmp, err := ParseCompareResponse([]byte(`{"success": true, "data": {
		"products": [{"id": "a"}, {"id": "b"}],
		"comparison": {"priceRange": {"lowest": 399, "highest": 899}, "commonIngredients": ["Glycerin"],
		  "uniqueIngredients": [{"productId": "a", "uniqueIngredients": ["Niacinamide"]}], "brands": ["X", "Y"]},
		"message": "compared"}}`))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ProductIDs(cmp.Products))
	require.Equal(t, 899.0, cmp.Comparison.PriceRange.Highest)
	require.Equal(t, "Niacinamide", cmp.Comparison.UniqueIngredients[0].UniqueIngredients[0])

	vids, err := ParseVideosResponse([]byte(`{"success": true, "data": {"productId": "a", "videoCount": 1, "creators": ["c"],
		"videos": [{"videoId": "v1", "title": "Review", "mentions": [{"segmentId": 1, "sentiment": "positive"}]}]},
		"meta": {"totalMentions": 1}}`))
	require.NoError(t, err)
	require.Equal(t, 1, vids.Meta.TotalMentions)
	require.Equal(t, "positive", vids.Videos[0].Mentions[0].Sentiment)
}

func TestBenefitsRoundTripKeepsShape(t *testing.T) {
	var b Benefits
	require.NoError(t, json.Unmarshal([]byte(`{"count": 1, "raw_text": "hydration", "benefits_list": ["hydration"]}`), &b))
	out, err := json.Marshal(b)
	require.NoError(t, err)
	require.JSONEq(t, `{"count": 1, "raw_text": "hydration", "benefits_list": ["hydration"]}`, string(out))
}

func TestFormatINR(t *testing.T) {
	tests := map[float64]string{
		0:       "₹0",
		599:     "₹599",
		1299:    "₹1,299",
		123456:  "₹1,23,456",
		1234567: "₹12,34,567",
		-2500:   "-₹2,500",
	}
	for in, want := range tests {
		require.Equal(t, want, FormatINR(in), "amount %v", in)
	}
}

package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnsuccessful is returned when the backend answers with success=false.
	ErrUnsuccessful = errors.New("backend reported failure")
	// ErrMalformed is returned when a payload does not match the expected shape.
	ErrMalformed = errors.New("malformed response payload")
)

// Meta is the envelope's metadata block.
type Meta struct {
	ProcessingTime string `json:"processingTime,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
	TotalMentions  int    `json:"totalMentions,omitempty"`
}

// envelope is the {success, data, meta, message} wrapper every endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    Meta            `json:"meta"`
	Message string          `json:"message"`
}

// ParsedQuery is the backend's interpretation of the free-text query.
type ParsedQuery struct {
	Intent           string `json:"intent,omitempty"`
	Concern          string `json:"concern,omitempty"`
	Ingredient       string `json:"ingredient,omitempty"`
	ProductType      string `json:"product_type,omitempty"`
	SkinType         string `json:"skin_type,omitempty"`
	PriceSensitivity string `json:"price_sensitivity,omitempty"`
	Brand            string `json:"brand,omitempty"`
	UserSegment      string `json:"user_segment,omitempty"`
}

// Personalization describes how the profile influenced the results.
type Personalization struct {
	IsPersonalized      bool     `json:"isPersonalized"`
	UserSegment         string   `json:"userSegment,omitempty"`
	ProfileCompleteness int      `json:"profileCompleteness,omitempty"`
	SkinType            string   `json:"skinType,omitempty"`
	PrimaryConcerns     []string `json:"primaryConcerns,omitempty"`
	Reason              string   `json:"reason,omitempty"`
}

// SearchResult is the data block of a /search response.
type SearchResult struct {
	Query           string           `json:"query"`
	ParsedQuery     ParsedQuery      `json:"parsedQuery"`
	Products        []Product        `json:"products"`
	Ingredients     Ingredients      `json:"ingredients"`
	TotalFound      int              `json:"totalFound"`
	Message         string           `json:"message"`
	SearchMethod    string           `json:"searchMethod"`
	Personalization *Personalization `json:"personalization,omitempty"`
	Meta            Meta             `json:"-"`
}

// Filters returns the parsed query as the filter map sent to activity tracking.
func (r SearchResult) Filters() map[string]any {
	out := map[string]any{}
	add := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	add("intent", r.ParsedQuery.Intent)
	add("concern", r.ParsedQuery.Concern)
	add("ingredient", r.ParsedQuery.Ingredient)
	add("product_type", r.ParsedQuery.ProductType)
	add("skin_type", r.ParsedQuery.SkinType)
	add("price_sensitivity", r.ParsedQuery.PriceSensitivity)
	add("brand", r.ParsedQuery.Brand)
	add("user_segment", r.ParsedQuery.UserSegment)
	return out
}

// Range is a lowest/highest pair.
type Range struct {
	Lowest  float64 `json:"lowest"`
	Highest float64 `json:"highest"`
}

// UniqueIngredients lists ingredients only one compared product contains.
type UniqueIngredients struct {
	ProductID         string   `json:"productId"`
	UniqueIngredients []string `json:"uniqueIngredients"`
}

// Comparison is the side-by-side analysis of a /compare response.
type Comparison struct {
	PriceRange        Range               `json:"priceRange"`
	RatingRange       Range               `json:"ratingRange"`
	CommonIngredients []string            `json:"commonIngredients"`
	UniqueIngredients []UniqueIngredients `json:"uniqueIngredients"`
	Brands            []string            `json:"brands"`
}

// CompareResult is the data block of a /compare response.
type CompareResult struct {
	Products   []Product  `json:"products"`
	Comparison Comparison `json:"comparison"`
	Message    string     `json:"message"`
}

// VideoMention is a transcript segment where a creator talks about the product.
type VideoMention struct {
	SegmentID  int     `json:"segmentId"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`
	ClaimType  string  `json:"claimType"`
	ClaimText  string  `json:"claimText"`
	Confidence float64 `json:"confidence"`
}

// Video is a creator video mentioning a product.
type Video struct {
	VideoID      string         `json:"videoId"`
	Title        string         `json:"title"`
	ChannelTitle string         `json:"channelTitle"`
	PublishedAt  string         `json:"publishedAt"`
	Duration     int            `json:"duration"`
	ViewCount    int64          `json:"viewCount"`
	LikeCount    int64          `json:"likeCount"`
	Thumbnail    string         `json:"thumbnail"`
	VideoURL     string         `json:"videoUrl"`
	Mentions     []VideoMention `json:"mentions"`
}

// ProductVideos is the data block of a /products/{id}/videos response.
type ProductVideos struct {
	ProductID    string   `json:"productId"`
	VideoCount   int      `json:"videoCount"`
	CreatorCount int      `json:"creatorCount"`
	Creators     []string `json:"creators"`
	Videos       []Video  `json:"videos"`
	Meta         Meta     `json:"-"`
}

// Decode unwraps the standard envelope in body into out. It is exported so other
// endpoints (auth, profile) share the same boundary checks.
func Decode(body []byte, out any) (Meta, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Meta{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "no message"
		}
		return env.Meta, fmt.Errorf("%w: %s", ErrUnsuccessful, msg)
	}
	if out == nil {
		return env.Meta, nil
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return env.Meta, fmt.Errorf("%w: missing data", ErrMalformed)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return env.Meta, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env.Meta, nil
}

// ParseSearchResponse decodes a /search response body.
func ParseSearchResponse(body []byte) (*SearchResult, error) {
	var res SearchResult
	meta, err := Decode(body, &res)
	if err != nil {
		return nil, err
	}
	res.Meta = meta
	if res.Products == nil {
		res.Products = []Product{}
	}
	return &res, nil
}

// ParseCompareResponse decodes a /compare response body.
func ParseCompareResponse(body []byte) (*CompareResult, error) {
	var res CompareResult
	if _, err := Decode(body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ParseVideosResponse decodes a /products/{id}/videos response body.
func ParseVideosResponse(body []byte) (*ProductVideos, error) {
	var res ProductVideos
	meta, err := Decode(body, &res)
	if err != nil {
		return nil, err
	}
	res.Meta = meta
	return &res, nil
}

// ParseProduct decodes a /products/{id} response body.
func ParseProduct(body []byte) (*Product, error) {
	var p Product
	if _, err := Decode(body, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: product without id", ErrMalformed)
	}
	return &p, nil
}

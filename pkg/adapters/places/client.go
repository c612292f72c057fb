// Package places is a minimal client for the Google Places text search API.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nullvoyager/voyager/internal/logging"
	"github.com/nullvoyager/voyager/pkg/domain"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Places API host.
const DefaultBaseURL = "https://maps.googleapis.com"

// MaxResults is the number of places kept from a search.
const MaxResults = 5

var (
	// ErrRateLimited is returned when the local request budget is exhausted.
	ErrRateLimited = errors.New("places: local rate limit exceeded")

	// ErrNoResults is returned when the search matched nothing.
	ErrNoResults = errors.New("places: no results")
)

// Client performs hotel text searches.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

type Option func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithRateLimit caps outbound requests per minute. Zero disables the cap.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		}
	}
}

// WithLogger configures a logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Place is the subset of a text search result that Voyager reads.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           *float64 `json:"rating"`
	FormattedAddress string   `json:"formatted_address"`
	PriceLevel       *int     `json:"price_level"`
	Photos           []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
}

type searchResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Results      []Place `json:"results"`
}

// SearchHotels runs the query "hotels in <city>" and returns up to MaxResults hotels.
func (c *Client) SearchHotels(ctx context.Context, city string) ([]domain.Hotel, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	params := url.Values{}
	params.Set("query", "hotels in "+city)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/maps/api/place/textsearch/json?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places search: %w", err)
	}
	defer res.Body.Close()

	c.logger.Debug("places request", "status", res.StatusCode, "duration", time.Since(start))

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places search: status %d", res.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("places search: decode: %w", err)
	}
	switch body.Status {
	case "", "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResults
	default:
		return nil, fmt.Errorf("places search: %s %s", body.Status, body.ErrorMessage)
	}
	if len(body.Results) == 0 {
		return nil, ErrNoResults
	}

	results := body.Results
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	hotels := make([]domain.Hotel, 0, len(results))
	for _, p := range results {
		hotels = append(hotels, c.normalize(p, city))
	}
	return hotels, nil
}

func (c *Client) normalize(p Place, city string) domain.Hotel {
	h := domain.Hotel{
		ID:         p.PlaceID,
		Name:       p.Name,
		Address:    p.FormattedAddress,
		PriceLevel: 2,
	}
	if p.Rating != nil {
		h.Rating = *p.Rating
	}
	if p.PriceLevel != nil {
		h.PriceLevel = *p.PriceLevel
	}
	if len(p.Photos) > 0 {
		h.ImageURL = c.baseURL + "/maps/api/place/photo?maxwidth=400&photoreference=" +
			url.QueryEscape(p.Photos[0].PhotoReference) + "&key=" + url.QueryEscape(c.apiKey)
	} else {
		h.ImageURL = "https://source.unsplash.com/400x300/?hotel," + url.QueryEscape(city)
	}
	return h
}

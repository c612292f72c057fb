// Package amadeus is a minimal client for the Amadeus Self-Service flight APIs.
package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nullvoyager/voyager/internal/logging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Amadeus test environment.
const DefaultBaseURL = "https://test.api.amadeus.com"

var (
	// ErrRateLimited is returned when the local request budget is exhausted.
	ErrRateLimited = errors.New("amadeus: local rate limit exceeded")

	// ErrNoResults is returned when the API answers with an empty data set.
	ErrNoResults = errors.New("amadeus: no results")
)

// Client talks to the Amadeus API with client-credentials authentication.
// Tokens are cached and refreshed by the oauth2 token source.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

type Option func(*clientOptions)

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// WithBaseURL overrides the API host.
func WithBaseURL(u string) Option {
	return func(o *clientOptions) {
		if u != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the transport used for both token and API requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// WithRateLimit caps outbound requests per minute. Zero disables the cap.
func WithRateLimit(perMinute int) Option {
	return func(o *clientOptions) {
		if perMinute > 0 {
			o.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		}
	}
}

// WithLogger configures a logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}

// New creates a client for the given API credentials.
func New(clientID, clientSecret string, opts ...Option) *Client {
	o := clientOptions{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     o.baseURL + "/v1/security/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, o.httpClient)

	return &Client{
		baseURL: o.baseURL,
		http:    cc.Client(ctx),
		limiter: o.limiter,
		logger:  o.logger,
	}
}

// FlightQuery selects one-way offers for a single adult.
type FlightQuery struct {
	Origin        string
	Destination   string
	DepartureDate string
	Adults        int
	Max           int
}

// SearchFlightOffers calls GET /v2/shopping/flight-offers.
func (c *Client) SearchFlightOffers(ctx context.Context, q FlightQuery) ([]FlightOffer, error) {
	if q.Adults == 0 {
		q.Adults = 1
	}
	if q.Max == 0 {
		q.Max = 5
	}
	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", q.DepartureDate)
	params.Set("adults", strconv.Itoa(q.Adults))
	params.Set("max", strconv.Itoa(q.Max))

	var resp struct {
		Data []FlightOffer `json:"data"`
	}
	if err := c.get(ctx, "/v2/shopping/flight-offers", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoResults
	}
	return resp.Data, nil
}

// SearchDestinations calls GET /v1/shopping/flight-destinations (flight inspiration search).
// maxPrice is optional.
func (c *Client) SearchDestinations(ctx context.Context, origin string, maxPrice *float64) ([]FlightDestination, error) {
	params := url.Values{}
	params.Set("origin", origin)
	if maxPrice != nil {
		params.Set("maxPrice", strconv.Itoa(int(*maxPrice)))
	}

	var resp struct {
		Data []FlightDestination `json:"data"`
	}
	if err := c.get(ctx, "/v1/shopping/flight-destinations", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoResults
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.limiter != nil && !c.limiter.Allow() {
		return ErrRateLimited
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("amadeus %s: %w", path, err)
	}
	defer res.Body.Close()

	c.logger.Debug("amadeus request", "path", path, "status", res.StatusCode, "duration", time.Since(start))

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("amadeus %s: status %d: %s", path, res.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("amadeus %s: decode: %w", path, err)
	}
	return nil
}

// Package tools implements the travel lookup tools and the session tools offered to the model.
//
// Every lookup tool follows the same shape: validate the input, make at most one
// bounded live attempt, and on any failure fall back silently to the embedded demo
// data tagged with source "mock".
package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/nullvoyager/voyager/internal/logging"
	"github.com/nullvoyager/voyager/pkg/adapters/amadeus"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/nullvoyager/voyager/pkg/registry"
)

// DefaultTimeout bounds a single live provider attempt.
const DefaultTimeout = 10 * time.Second

// FlightProvider searches live flight offers.
type FlightProvider interface {
	SearchFlightOffers(ctx context.Context, q amadeus.FlightQuery) ([]amadeus.FlightOffer, error)
}

// DestinationProvider searches live destination inspirations.
type DestinationProvider interface {
	SearchDestinations(ctx context.Context, origin string, maxPrice *float64) ([]amadeus.FlightDestination, error)
}

// HotelProvider searches live hotels.
type HotelProvider interface {
	SearchHotels(ctx context.Context, city string) ([]domain.Hotel, error)
}

// Config wires the lookup tools to their providers.
// A nil provider means the tool always serves demo data without a network call.
type Config struct {
	Flights      FlightProvider
	Destinations DestinationProvider
	Hotels       HotelProvider

	Timeout  time.Duration
	Fixtures *Fixtures
	Logger   *slog.Logger

	// OnProviderError is called when a live attempt fails and demo data is served instead.
	OnProviderError func(provider string, err error)
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Fixtures == nil {
		c.Fixtures = MustLoadFixtures()
	}
	if c.Logger == nil {
		c.Logger = logging.NewNop()
	}
}

func (c *Config) providerFailed(ctx context.Context, tool, provider string, err error) {
	c.Logger.WarnContext(ctx, "live provider failed, serving demo data",
		"tool", tool,
		"provider", provider,
		"err", err,
	)
	if c.OnProviderError != nil {
		c.OnProviderError(provider, err)
	}
}

// Lookup returns the three travel lookup tools in their advertised order.
func Lookup(cfg Config) []ports.Tool {
	cfg.defaults()
	return []ports.Tool{
		NewFlightSearch(cfg),
		NewHotelSearch(cfg),
		NewDestinationSuggest(cfg),
	}
}

// NewRegistry returns a registry with the lookup tools and the legacy hotel tool alias.
func NewRegistry(cfg Config) *registry.Registry {
	r := registry.NewRegistry(Lookup(cfg)...)
	r.Alias(domain.ToolGoogleHotels, domain.ToolSearchHotels)
	return r
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/nullvoyager/voyager/pkg/registry"
)

// HotelSearchInput is the argument of search_hotels.
type HotelSearchInput struct {
	Location     string `json:"location" validate:"required" jsonschema:"description=City name e.g. Paris or Dubai or Tokyo,minLength=1"`
	CheckInDate  string `json:"checkInDate,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=Check-in date in YYYY-MM-DD format,format=date"`
	CheckOutDate string `json:"checkOutDate,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=Check-out date in YYYY-MM-DD format,format=date"`
}

// dateTBD stands in for dates the traveler has not chosen yet.
const dateTBD = "TBD"

type hotelSearch struct {
	cfg Config
}

// NewHotelSearch returns the search_hotels tool.
func NewHotelSearch(cfg Config) ports.Tool {
	cfg.defaults()
	t := &hotelSearch{cfg: cfg}
	return registry.Func[HotelSearchInput]{
		Name: domain.ToolSearchHotels,
		Description: "Finds hotels in a specific city using the Google Places API. " +
			"Returns hotel names, ratings, addresses, price levels, and images.",
		Run: t.run,
	}
}

func (t *hotelSearch) run(ctx context.Context, in HotelSearchInput, _ ports.StateAccessor) (any, error) {
	location := strings.TrimSpace(in.Location)
	if location == "" {
		return nil, &registry.ValidationError{Fields: []string{"location is required"}}
	}
	checkIn, checkOut := orTBD(in.CheckInDate), orTBD(in.CheckOutDate)

	if hotels, err := t.live(ctx, location); err == nil {
		for i := range hotels {
			hotels[i].Location = location
			hotels[i].CheckInDate = checkIn
			hotels[i].CheckOutDate = checkOut
		}
		return &domain.HotelResults{
			Hotels:  hotels,
			Source:  domain.SourceGooglePlaces,
			Message: fmt.Sprintf("Found %d hotel(s) in %s.", len(hotels), location),
		}, nil
	} else if !errors.Is(err, errNoProvider) {
		t.cfg.providerFailed(ctx, domain.ToolSearchHotels, domain.SourceGooglePlaces, err)
	}

	hotels := make([]domain.Hotel, 0, len(t.cfg.Fixtures.Hotels))
	for _, h := range t.cfg.Fixtures.Hotels {
		h.Name = h.Name + " " + location
		h.Location = location
		h.CheckInDate = checkIn
		h.CheckOutDate = checkOut
		hotels = append(hotels, h)
	}
	return &domain.HotelResults{
		Hotels:  hotels,
		Source:  domain.SourceMock,
		Message: fmt.Sprintf("Found %d hotel(s) in %s (demo data).", len(hotels), location),
	}, nil
}

func (t *hotelSearch) live(ctx context.Context, location string) ([]domain.Hotel, error) {
	if t.cfg.Hotels == nil {
		return nil, errNoProvider
	}
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()
	return t.cfg.Hotels.SearchHotels(ctx, location)
}

func orTBD(s string) string {
	if s == "" {
		return dateTBD
	}
	return s
}

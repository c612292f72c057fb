package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nullvoyager/voyager/pkg/adapters/amadeus"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/nullvoyager/voyager/pkg/registry"
)

// FlightSearchInput is the argument of search_flights.
type FlightSearchInput struct {
	Origin        string `json:"origin" validate:"required,len=3,alpha" jsonschema:"description=3-letter IATA airport code (e.g. JFK or DXB),minLength=3,maxLength=3"`
	Destination   string `json:"destination" validate:"required,len=3,alpha" jsonschema:"description=3-letter IATA airport code (e.g. LHR or HND),minLength=3,maxLength=3"`
	DepartureDate string `json:"departureDate" validate:"required,datetime=2006-01-02" jsonschema:"description=YYYY-MM-DD format,format=date"`
}

type flightSearch struct {
	cfg Config
}

// NewFlightSearch returns the search_flights tool.
func NewFlightSearch(cfg Config) ports.Tool {
	cfg.defaults()
	t := &flightSearch{cfg: cfg}
	return registry.Func[FlightSearchInput]{
		Name: domain.ToolSearchFlights,
		Description: "Finds real flight offers between two cities using the Amadeus API. " +
			"Use 3-letter IATA airport codes (e.g., JFK for New York, LHR for London, DXB for Dubai).",
		Run: t.run,
	}
}

func (t *flightSearch) run(ctx context.Context, in FlightSearchInput, _ ports.StateAccessor) (any, error) {
	origin := strings.ToUpper(in.Origin)
	dest := strings.ToUpper(in.Destination)

	if flights, err := t.live(ctx, origin, dest, in.DepartureDate); err == nil {
		return &domain.FlightResults{
			Flights: flights,
			Source:  domain.SourceAmadeus,
			Message: fmt.Sprintf("Found %d real flight(s) from %s to %s on %s.", len(flights), origin, dest, in.DepartureDate),
		}, nil
	} else if !errors.Is(err, errNoProvider) {
		t.cfg.providerFailed(ctx, domain.ToolSearchFlights, domain.SourceAmadeus, err)
	}

	flights := make([]domain.Flight, 0, len(t.cfg.Fixtures.Flights))
	for _, f := range t.cfg.Fixtures.Flights {
		f.Departure.City = origin
		f.Arrival.City = dest
		flights = append(flights, f)
	}
	return &domain.FlightResults{
		Flights: flights,
		Source:  domain.SourceMock,
		Message: fmt.Sprintf("Found %d flight(s) from %s to %s (demo data).", len(flights), origin, dest),
	}, nil
}

func (t *flightSearch) live(ctx context.Context, origin, dest, date string) ([]domain.Flight, error) {
	if t.cfg.Flights == nil {
		return nil, errNoProvider
	}
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	offers, err := t.cfg.Flights.SearchFlightOffers(ctx, amadeus.FlightQuery{
		Origin:        origin,
		Destination:   dest,
		DepartureDate: date,
		Adults:        1,
		Max:           5,
	})
	if err != nil {
		return nil, err
	}

	flights := make([]domain.Flight, 0, len(offers))
	for _, o := range offers {
		f, err := amadeus.NormalizeOffer(o, origin, dest)
		if err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, nil
}

// errNoProvider marks a tool running without live credentials; it is not logged.
var errNoProvider = errors.New("no live provider configured")

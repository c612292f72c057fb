package tools

import (
	"context"
	"errors"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/nullvoyager/voyager/pkg/registry"
)

// ErrNoSession is returned when a session tool runs outside a turn.
var ErrNoSession = errors.New("session tools require an active session")

// SetModeInput is the argument of set_mode.
type SetModeInput struct {
	Mode string `json:"mode" validate:"required" jsonschema:"enum=INSPIRATION,enum=PLANNING,enum=BOOKING,description=Conversation mode to switch to"`
}

// UpdateTripInput is the argument of update_trip.
type UpdateTripInput struct {
	OriginCity      *string  `json:"originCity,omitempty" jsonschema:"description=City the traveler departs from"`
	DestinationCity *string  `json:"destinationCity,omitempty" jsonschema:"description=City the traveler wants to visit"`
	StartDate       *string  `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=Trip start in YYYY-MM-DD format,format=date"`
	EndDate         *string  `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=Trip end in YYYY-MM-DD format,format=date"`
	Budget          *float64 `json:"budget,omitempty" validate:"omitempty,gte=0" jsonschema:"description=Total budget in USD,minimum=0"`
	Travelers       *int     `json:"travelers,omitempty" validate:"omitempty,min=1" jsonschema:"description=Number of travelers,minimum=1"`
}

// SelectFlightInput is the argument of select_flight.
type SelectFlightInput struct {
	FlightID string `json:"flightId" validate:"required" jsonschema:"description=id of a flight returned by search_flights"`
}

// SelectHotelInput is the argument of select_hotel.
type SelectHotelInput struct {
	HotelID string `json:"hotelId" validate:"required" jsonschema:"description=id of a hotel returned by search_hotels"`
}

// Session returns the tools that read and update the state of the current session.
func Session() []ports.Tool {
	return []ports.Tool{
		registry.Func[SetModeInput]{
			Name: domain.ToolSetMode,
			Description: "Switches the conversation mode. Use PLANNING once the traveler picked a destination " +
				"and BOOKING once flights and hotels are chosen.",
			Run: setMode,
		},
		registry.Func[UpdateTripInput]{
			Name:        domain.ToolUpdateTrip,
			Description: "Records trip preferences the traveler told you: origin, destination, dates, budget, travelers.",
			Run:         updateTrip,
		},
		registry.Func[SelectFlightInput]{
			Name:        domain.ToolSelectFlight,
			Description: "Puts a flight into the traveler's cart.",
			Run: func(ctx context.Context, in SelectFlightInput, s ports.StateAccessor) (any, error) {
				return update(ctx, s, domain.StatePatch{Cart: &domain.CartPatch{SelectedFlightID: &in.FlightID}})
			},
		},
		registry.Func[SelectHotelInput]{
			Name:        domain.ToolSelectHotel,
			Description: "Puts a hotel into the traveler's cart.",
			Run: func(ctx context.Context, in SelectHotelInput, s ports.StateAccessor) (any, error) {
				return update(ctx, s, domain.StatePatch{Cart: &domain.CartPatch{SelectedHotelID: &in.HotelID}})
			},
		},
	}
}

func setMode(ctx context.Context, in SetModeInput, s ports.StateAccessor) (any, error) {
	mode, err := domain.ParseMode(in.Mode)
	if err != nil {
		return nil, err
	}
	return update(ctx, s, domain.ModePatch(mode))
}

func updateTrip(ctx context.Context, in UpdateTripInput, s ports.StateAccessor) (any, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	prefs := &domain.PreferencesPatch{
		Travelers:       in.Travelers,
		OriginCity:      in.OriginCity,
		DestinationCity: in.DestinationCity,
		Budget:          in.Budget,
	}
	if in.StartDate != nil || in.EndDate != nil {
		// Dates are stored as a pair; keep the half that was not mentioned.
		dates := domain.DateRange{}
		if cur := s.State().Preferences.Dates; cur != nil {
			dates = *cur
		}
		if in.StartDate != nil {
			dates.Start = *in.StartDate
		}
		if in.EndDate != nil {
			dates.End = *in.EndDate
		}
		prefs.Dates = &dates
	}
	if *prefs == (domain.PreferencesPatch{}) {
		return nil, &registry.ValidationError{Fields: []string{"at least one field is required"}}
	}
	return update(ctx, s, domain.StatePatch{Preferences: prefs})
}

func update(ctx context.Context, s ports.StateAccessor, patch domain.StatePatch) (any, error) {
	if s == nil {
		return nil, ErrNoSession
	}
	return s.Update(ctx, patch)
}

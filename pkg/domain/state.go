package domain

import "fmt"

// DefaultTravelers is the traveler count of a fresh session.
const DefaultTravelers = 1

// DateRange holds ISO (YYYY-MM-DD) travel dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TripPreferences captures what the traveler told the assistant so far.
type TripPreferences struct {
	Travelers       int        `json:"travelers"`
	OriginCity      string     `json:"originCity,omitempty"`
	DestinationCity string     `json:"destinationCity,omitempty"`
	Dates           *DateRange `json:"dates,omitempty"`
	Budget          *float64   `json:"budget,omitempty"`
}

// Cart references results previously returned by the flight and hotel tools.
// The identifiers are opaque and not checked against those results.
type Cart struct {
	SelectedFlightID string `json:"selectedFlightId,omitempty"`
	SelectedHotelID  string `json:"selectedHotelId,omitempty"`
}

// VoyagerState is the per-session record owned by the session's storage slot.
type VoyagerState struct {
	Mode        Mode            `json:"mode"`
	Preferences TripPreferences `json:"preferences"`
	Cart        Cart            `json:"cart"`
}

// NewState returns the default state of a session that has no stored record.
// Every call returns a fresh value.
func NewState() *VoyagerState {
	return &VoyagerState{
		Mode: ModeInspiration,
		Preferences: TripPreferences{
			Travelers: DefaultTravelers,
		},
		Cart: Cart{},
	}
}

// Clone returns a deep copy of the state.
func (s *VoyagerState) Clone() *VoyagerState {
	if s == nil {
		return nil
	}
	c := *s
	if s.Preferences.Dates != nil {
		d := *s.Preferences.Dates
		c.Preferences.Dates = &d
	}
	if s.Preferences.Budget != nil {
		b := *s.Preferences.Budget
		c.Preferences.Budget = &b
	}
	return &c
}

// Validate checks the state invariants.
func (s *VoyagerState) Validate() error {
	if !s.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, s.Mode)
	}
	if s.Preferences.Travelers < 1 {
		return fmt.Errorf("%w: travelers must be at least 1, got %d", ErrInvalidPatch, s.Preferences.Travelers)
	}
	return nil
}

// Normalize repairs records written before an invariant existed:
// an empty mode becomes INSPIRATION and a missing traveler count becomes 1.
func (s *VoyagerState) Normalize() {
	if s.Mode == "" {
		s.Mode = ModeInspiration
	}
	if s.Preferences.Travelers < 1 {
		s.Preferences.Travelers = DefaultTravelers
	}
}

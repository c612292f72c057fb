package domain

import "fmt"

// PreferencesPatch is a partial update of TripPreferences. Nil fields are preserved.
type PreferencesPatch struct {
	Travelers       *int       `json:"travelers,omitempty"`
	OriginCity      *string    `json:"originCity,omitempty"`
	DestinationCity *string    `json:"destinationCity,omitempty"`
	Dates           *DateRange `json:"dates,omitempty"`
	Budget          *float64   `json:"budget,omitempty"`
}

// CartPatch is a partial update of Cart. Nil fields are preserved.
type CartPatch struct {
	SelectedFlightID *string `json:"selectedFlightId,omitempty"`
	SelectedHotelID  *string `json:"selectedHotelId,omitempty"`
}

// StatePatch is a partial update of VoyagerState.
// The top level is merged shallowly; Preferences and Cart are merged one level deep.
type StatePatch struct {
	Mode        *Mode             `json:"mode,omitempty"`
	Preferences *PreferencesPatch `json:"preferences,omitempty"`
	Cart        *CartPatch        `json:"cart,omitempty"`
}

// ModePatch returns a patch that only sets the mode.
func ModePatch(m Mode) StatePatch {
	return StatePatch{Mode: &m}
}

// IsEmpty reports whether the patch changes nothing.
func (p StatePatch) IsEmpty() bool {
	return p.Mode == nil && p.Preferences == nil && p.Cart == nil
}

// Merge applies the patch to a copy of s and returns the copy.
// The receiver is never modified.
func (s *VoyagerState) Merge(p StatePatch) (*VoyagerState, error) {
	out := s.Clone()
	if out == nil {
		out = NewState()
	}

	if p.Mode != nil {
		if !p.Mode.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMode, *p.Mode)
		}
		out.Mode = *p.Mode
	}

	if pp := p.Preferences; pp != nil {
		if pp.Travelers != nil {
			if *pp.Travelers < 1 {
				return nil, fmt.Errorf("%w: travelers must be at least 1, got %d", ErrInvalidPatch, *pp.Travelers)
			}
			out.Preferences.Travelers = *pp.Travelers
		}
		if pp.OriginCity != nil {
			out.Preferences.OriginCity = *pp.OriginCity
		}
		if pp.DestinationCity != nil {
			out.Preferences.DestinationCity = *pp.DestinationCity
		}
		if pp.Dates != nil {
			d := *pp.Dates
			out.Preferences.Dates = &d
		}
		if pp.Budget != nil {
			b := *pp.Budget
			out.Preferences.Budget = &b
		}
	}

	if cp := p.Cart; cp != nil {
		if cp.SelectedFlightID != nil {
			out.Cart.SelectedFlightID = *cp.SelectedFlightID
		}
		if cp.SelectedHotelID != nil {
			out.Cart.SelectedHotelID = *cp.SelectedHotelID
		}
	}

	return out, nil
}

package domain

import "reflect"

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial updates on the client.
// Changed sections are sent whole; unchanged sections are omitted.
type StateDiff struct {
	SessionID   string           `json:"sessionId"`
	Mode        *Mode            `json:"mode,omitempty"`
	Preferences *TripPreferences `json:"preferences,omitempty"`
	Cart        *Cart            `json:"cart,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(sessionID string, oldState, newState *VoyagerState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: sessionID}

	if oldState == nil || oldState.Mode != newState.Mode {
		m := newState.Mode
		diff.Mode = &m
	}
	if oldState == nil || !reflect.DeepEqual(oldState.Preferences, newState.Preferences) {
		p := newState.Clone().Preferences
		diff.Preferences = &p
	}
	if oldState == nil || oldState.Cart != newState.Cart {
		c := newState.Cart
		diff.Cart = &c
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Mode == nil && d.Preferences == nil && d.Cart == nil
}

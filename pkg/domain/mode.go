package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode is the current phase of the trip-planning conversation.
type Mode string

const (
	ModeInspiration Mode = "INSPIRATION" // Discovery of destinations
	ModePlanning    Mode = "PLANNING"    // Logistics: dates, flights, hotels
	ModeBooking     Mode = "BOOKING"     // Finalizing selections
)

// Modes returns the defined modes in their conventional order.
func Modes() []Mode {
	return []Mode{ModeInspiration, ModePlanning, ModeBooking}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeInspiration, ModePlanning, ModeBooking:
		return true
	}
	return false
}

// Next returns the mode that conventionally follows m.
// BOOKING has no successor.
func (m Mode) Next() (Mode, bool) {
	switch m {
	case ModeInspiration:
		return ModePlanning, true
	case ModePlanning:
		return ModeBooking, true
	}
	return "", false
}

func (m Mode) String() string {
	return string(m)
}

// ParseMode converts a string into a Mode. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// UnmarshalJSON rejects unknown modes so a decoded state always holds a valid one.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nullvoyager/voyager/pkg/domain"
)

const baseContext = "You are NullVoyager, an expert Travel Concierge AI assistant. " +
	"You help users plan and book their perfect trips."

const toolsContext = `Available Tools:
- search_flights: Find flights between two airports (IATA codes) on a date
- search_hotels: Find hotels in a city
- suggest_destinations: Suggest destinations that match a travel vibe

You can also record what you learn with update_trip, put choices in the cart with
select_flight and select_hotel, and move the conversation along with set_mode.`

var modeInstructions = map[domain.Mode]string{
	domain.ModeInspiration: `CURRENT MODE: INSPIRATION
You are in discovery mode. Your goal is to inspire the user and help them explore potential destinations.
- Ask about their travel style, interests, and what kind of experience they're looking for
- Use the suggest_destinations tool to recommend places that match their preferences
- Share interesting facts about destinations to spark their curiosity
- Help them narrow down their options before moving to detailed planning
- Once they express interest in a specific destination, suggest transitioning to PLANNING mode`,

	domain.ModePlanning: `CURRENT MODE: PLANNING
You are in planning mode. The user has a destination in mind and needs help with logistics.
- Help them finalize travel dates and number of travelers
- Use search_flights to find the best flight options
- Use search_hotels to find accommodation that fits their budget and preferences
- Provide detailed comparisons of options (price, amenities, location)
- Help them understand the full cost breakdown
- Once they're ready to make selections, suggest transitioning to BOOKING mode`,

	domain.ModeBooking: `CURRENT MODE: BOOKING
You are in booking mode. The user is ready to finalize their trip.
- Review their selected flights and hotels from the cart
- Confirm all details before proceeding (names, dates, special requests)
- Guide them through the booking process step by step
- Provide confirmation details and next steps
- Offer tips for their upcoming trip`,
}

// ModeInstructions returns the instruction block for a mode.
// Unknown modes get the INSPIRATION block.
func ModeInstructions(m domain.Mode) string {
	if block, ok := modeInstructions[m]; ok {
		return block
	}
	return modeInstructions[domain.ModeInspiration]
}

// RenderSystemPrompt builds the system prompt for the next model call from the session state.
// It holds the traveler context and the instructions of the current mode. No history is injected.
func RenderSystemPrompt(state *domain.VoyagerState) string {
	if state == nil {
		state = domain.NewState()
	}
	p := state.Preferences

	var b strings.Builder
	b.WriteString(baseContext)
	b.WriteString("\n\nCurrent User Context:\n")
	fmt.Fprintf(&b, "- Travelers: %d\n", p.Travelers)
	if p.OriginCity != "" {
		fmt.Fprintf(&b, "- Origin: %s\n", p.OriginCity)
	}
	if p.DestinationCity != "" {
		fmt.Fprintf(&b, "- Destination: %s\n", p.DestinationCity)
	}
	if p.Dates != nil {
		fmt.Fprintf(&b, "- Travel Dates: %s to %s\n", p.Dates.Start, p.Dates.End)
	}
	if p.Budget != nil {
		fmt.Fprintf(&b, "- Budget: $%s\n", strconv.FormatFloat(*p.Budget, 'f', -1, 64))
	}
	if c := state.Cart; c.SelectedFlightID != "" || c.SelectedHotelID != "" {
		fmt.Fprintf(&b, "- Cart: flight %s, hotel %s\n", orNone(c.SelectedFlightID), orNone(c.SelectedHotelID))
	}
	b.WriteString("\n")
	b.WriteString(toolsContext)
	b.WriteString("\n\n")
	b.WriteString(ModeInstructions(state.Mode))
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

package domain

// StateKey is the fixed key under which a session's VoyagerState is persisted.
const StateKey = "voyager_state"

// Tool names exposed to the model.
const (
	ToolSearchFlights       = "search_flights"
	ToolSearchHotels        = "search_hotels"
	ToolSuggestDestinations = "suggest_destinations"

	// ToolGoogleHotels is the legacy name of the hotel search tool.
	ToolGoogleHotels = "google_hotels"

	ToolSetMode      = "set_mode"
	ToolUpdateTrip   = "update_trip"
	ToolSelectFlight = "select_flight"
	ToolSelectHotel  = "select_hotel"
)

// Result sources.
const (
	SourceMock         = "mock"
	SourceAmadeus      = "amadeus"
	SourceGooglePlaces = "google_places"
)

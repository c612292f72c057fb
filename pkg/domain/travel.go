package domain

// Endpoint is one end of a flight leg.
type Endpoint struct {
	City string `json:"city" yaml:"city"`
	Time string `json:"time" yaml:"time"`
}

// Flight is a normalized flight offer.
type Flight struct {
	ID           string   `json:"id" yaml:"id"`
	Airline      string   `json:"airline" yaml:"airline"`
	FlightNumber string   `json:"flightNumber" yaml:"flightNumber"`
	Departure    Endpoint `json:"departure" yaml:"departure"`
	Arrival      Endpoint `json:"arrival" yaml:"arrival"`
	Duration     string   `json:"duration" yaml:"duration"`
	Price        float64  `json:"price" yaml:"price"`
	Currency     string   `json:"currency" yaml:"currency"`
}

// FlightResults is the record returned by search_flights.
type FlightResults struct {
	Flights []Flight `json:"flights"`
	Source  string   `json:"source"`
	Message string   `json:"message"`
	Error   string   `json:"error,omitempty"`
}

// Hotel is a normalized hotel listing.
type Hotel struct {
	ID           string  `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Rating       float64 `json:"rating" yaml:"rating"`
	Address      string  `json:"address" yaml:"address"`
	PriceLevel   int     `json:"priceLevel" yaml:"priceLevel"`
	ImageURL     string  `json:"imageUrl" yaml:"imageUrl"`
	Location     string  `json:"location" yaml:"-"`
	CheckInDate  string  `json:"checkInDate" yaml:"-"`
	CheckOutDate string  `json:"checkOutDate" yaml:"-"`
}

// HotelResults is the record returned by search_hotels.
type HotelResults struct {
	Hotels  []Hotel `json:"hotels"`
	Source  string  `json:"source"`
	Message string  `json:"message"`
	Error   string  `json:"error,omitempty"`
}

// Destination is a suggested place to visit.
type Destination struct {
	City        string   `json:"city" yaml:"city"`
	Description string   `json:"description" yaml:"description"`
	ImageURL    string   `json:"imageUrl" yaml:"imageUrl"`
	Vibe        string   `json:"vibe,omitempty" yaml:"-"`
	Tags        []string `json:"-" yaml:"tags"`
	Price       *float64 `json:"price,omitempty" yaml:"-"`
}

// DestinationResults is the record returned by suggest_destinations.
type DestinationResults struct {
	Destinations []Destination `json:"destinations"`
	Vibe         string        `json:"vibe,omitempty"`
	Source       string        `json:"source"`
	Message      string        `json:"message"`
	Error        string        `json:"error,omitempty"`
}

package amadeus

import (
	"errors"
	"strconv"
	"strings"

	"github.com/nullvoyager/voyager/pkg/domain"
)

// FlightOffer is the subset of a flight-offers item that Voyager reads.
type FlightOffer struct {
	ID                     string      `json:"id"`
	ValidatingAirlineCodes []string    `json:"validatingAirlineCodes"`
	Itineraries            []Itinerary `json:"itineraries"`
	Price                  Price       `json:"price"`
}

type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Departure   Stop   `json:"departure"`
	Arrival     Stop   `json:"arrival"`
	CarrierCode string `json:"carrierCode"`
	Number      string `json:"number"`
}

type Stop struct {
	IATACode string `json:"iataCode"`
	At       string `json:"at"`
}

type Price struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
}

// FlightDestination is one item of the flight-inspiration search.
type FlightDestination struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departureDate"`
	ReturnDate    string `json:"returnDate"`
	Price         struct {
		Total string `json:"total"`
	} `json:"price"`
}

var errMalformedOffer = errors.New("amadeus: malformed flight offer")

// NormalizeOffer maps an offer to a domain.Flight.
// Endpoint cities are the searched codes; times are taken from the first segment.
func NormalizeOffer(o FlightOffer, origin, destination string) (domain.Flight, error) {
	if len(o.ValidatingAirlineCodes) == 0 || len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return domain.Flight{}, errMalformedOffer
	}
	airline := o.ValidatingAirlineCodes[0]
	itin := o.Itineraries[0]
	seg := itin.Segments[0]

	price, err := strconv.ParseFloat(o.Price.Total, 64)
	if err != nil {
		return domain.Flight{}, errMalformedOffer
	}

	return domain.Flight{
		ID:           o.ID,
		Airline:      airline,
		FlightNumber: airline + seg.Number,
		Departure:    domain.Endpoint{City: origin, Time: clockTime(seg.Departure.At)},
		Arrival:      domain.Endpoint{City: destination, Time: clockTime(seg.Arrival.At)},
		Duration:     strings.ToLower(strings.Replace(itin.Duration, "PT", "", 1)),
		Price:        price,
		Currency:     o.Price.Currency,
	}, nil
}

// clockTime turns "2025-06-01T14:30:00" into "14:30".
func clockTime(at string) string {
	_, t, ok := strings.Cut(at, "T")
	if !ok {
		return ""
	}
	if len(t) > 5 {
		t = t[:5]
	}
	return t
}

// NormalizeDestination maps an inspiration result to a domain.Destination.
func NormalizeDestination(d FlightDestination) domain.Destination {
	dest := domain.Destination{
		City:        d.Destination,
		Description: "Round trip from " + d.Origin,
	}
	if d.DepartureDate != "" {
		dest.Description += ", departing " + d.DepartureDate
	}
	if p, err := strconv.ParseFloat(d.Price.Total, 64); err == nil {
		dest.Price = &p
	}
	return dest
}

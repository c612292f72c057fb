package amadeus_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/nullvoyager/voyager/pkg/adapters/amadeus"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const offersJSON = `{"data":[{
	"id":"1",
	"validatingAirlineCodes":["BA"],
	"itineraries":[{"duration":"PT7H5M","segments":[
		{"departure":{"iataCode":"JFK","at":"2025-06-01T18:30:00"},"arrival":{"iataCode":"LHR","at":"2025-06-02T06:35:00"},"carrierCode":"BA","number":"178"}
	]}],
	"price":{"currency":"EUR","total":"512.34"}
}]}`

func fakeAmadeus(t *testing.T, tokenCalls *int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok", "token_type": "Bearer", "expires_in": 1799,
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		handler(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchFlightOffers(t *testing.T) {
	var tokenCalls int32
	srv := fakeAmadeus(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/shopping/flight-offers", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "JFK", q.Get("originLocationCode"))
		assert.Equal(t, "LHR", q.Get("destinationLocationCode"))
		assert.Equal(t, "2025-06-01", q.Get("departureDate"))
		assert.Equal(t, "1", q.Get("adults"))
		assert.Equal(t, "5", q.Get("max"))
		_, _ = w.Write([]byte(offersJSON))
	})

	c := amadeus.New("id", "secret", amadeus.WithBaseURL(srv.URL))
	ctx := context.Background()

	offers, err := c.SearchFlightOffers(ctx, amadeus.FlightQuery{Origin: "JFK", Destination: "LHR", DepartureDate: "2025-06-01"})
	require.NoError(t, err)
	require.Len(t, offers, 1)

	// Token is cached across calls
	_, err = c.SearchFlightOffers(ctx, amadeus.FlightQuery{Origin: "JFK", Destination: "LHR", DepartureDate: "2025-06-01"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))

	flight, err := amadeus.NormalizeOffer(offers[0], "JFK", "LHR")
	require.NoError(t, err)
	assert.Equal(t, domain.Flight{
		ID:           "1",
		Airline:      "BA",
		FlightNumber: "BA178",
		Departure:    domain.Endpoint{City: "JFK", Time: "18:30"},
		Arrival:      domain.Endpoint{City: "LHR", Time: "06:35"},
		Duration:     "7h5m",
		Price:        512.34,
		Currency:     "EUR",
	}, flight)
}

func TestSearchFlightOffers_EmptyAndErrors(t *testing.T) {
	var tokenCalls int32
	status := http.StatusOK
	srv := fakeAmadeus(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	c := amadeus.New("id", "secret", amadeus.WithBaseURL(srv.URL))
	q := amadeus.FlightQuery{Origin: "JFK", Destination: "LHR", DepartureDate: "2025-06-01"}

	_, err := c.SearchFlightOffers(context.Background(), q)
	assert.ErrorIs(t, err, amadeus.ErrNoResults)

	status = http.StatusInternalServerError
	_, err = c.SearchFlightOffers(context.Background(), q)
	assert.Error(t, err)
}

func TestRateLimit(t *testing.T) {
	var tokenCalls int32
	var apiCalls int32
	srv := fakeAmadeus(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
		_, _ = w.Write([]byte(offersJSON))
	})
	c := amadeus.New("id", "secret", amadeus.WithBaseURL(srv.URL), amadeus.WithRateLimit(1))
	q := amadeus.FlightQuery{Origin: "JFK", Destination: "LHR", DepartureDate: "2025-06-01"}

	_, err := c.SearchFlightOffers(context.Background(), q)
	require.NoError(t, err)
	_, err = c.SearchFlightOffers(context.Background(), q)
	assert.ErrorIs(t, err, amadeus.ErrRateLimited)
	assert.Equal(t, int32(1), atomic.LoadInt32(&apiCalls))
}

func TestSearchDestinations(t *testing.T) {
	var tokenCalls int32
	srv := fakeAmadeus(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/shopping/flight-destinations", r.URL.Path)
		assert.Equal(t, "MAD", r.URL.Query().Get("origin"))
		assert.Equal(t, "300", r.URL.Query().Get("maxPrice"))
		_, _ = w.Write([]byte(`{"data":[{"origin":"MAD","destination":"OPO","departureDate":"2025-07-01","price":{"total":"89.10"}}]}`))
	})
	c := amadeus.New("id", "secret", amadeus.WithBaseURL(srv.URL))

	budget := 300.0
	dests, err := c.SearchDestinations(context.Background(), "MAD", &budget)
	require.NoError(t, err)
	require.Len(t, dests, 1)

	d := amadeus.NormalizeDestination(dests[0])
	assert.Equal(t, "OPO", d.City)
	require.NotNil(t, d.Price)
	assert.Equal(t, 89.10, *d.Price)
}

func TestNormalizeOffer_Malformed(t *testing.T) {
	_, err := amadeus.NormalizeOffer(amadeus.FlightOffer{ID: "x"}, "JFK", "LHR")
	assert.Error(t, err)
}

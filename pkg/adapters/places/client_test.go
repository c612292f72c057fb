package places_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nullvoyager/voyager/pkg/adapters/places"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchHotels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/place/textsearch/json", r.URL.Path)
		assert.Equal(t, "hotels in Paris", r.URL.Query().Get("query"))
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"place_id":"p1","name":"Le Meurice","rating":4.7,"formatted_address":"228 Rue de Rivoli","price_level":4,"photos":[{"photo_reference":"ref1"}]},
			{"place_id":"p2","name":"Hotel Sans Photo","formatted_address":"Somewhere"},
			{"place_id":"p3","name":"c"},{"place_id":"p4","name":"d"},{"place_id":"p5","name":"e"},{"place_id":"p6","name":"f"}
		]}`))
	}))
	defer srv.Close()

	c := places.New("k", places.WithBaseURL(srv.URL))
	hotels, err := c.SearchHotels(context.Background(), "Paris")
	require.NoError(t, err)
	require.Len(t, hotels, places.MaxResults)

	assert.Equal(t, "p1", hotels[0].ID)
	assert.Equal(t, 4.7, hotels[0].Rating)
	assert.Equal(t, 4, hotels[0].PriceLevel)
	assert.Equal(t, srv.URL+"/maps/api/place/photo?maxwidth=400&photoreference=ref1&key=k", hotels[0].ImageURL)

	// Defaults for missing fields
	assert.Equal(t, 0.0, hotels[1].Rating)
	assert.Equal(t, 2, hotels[1].PriceLevel)
	assert.Equal(t, "https://source.unsplash.com/400x300/?hotel,Paris", hotels[1].ImageURL)
}

func TestSearchHotels_Failures(t *testing.T) {
	body := `{"status":"ZERO_RESULTS","results":[]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()
	c := places.New("k", places.WithBaseURL(srv.URL))

	_, err := c.SearchHotels(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, places.ErrNoResults)

	body = `{"status":"REQUEST_DENIED","error_message":"bad key"}`
	_, err = c.SearchHotels(context.Background(), "Paris")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestSearchHotels_RateLimited(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"place_id":"p1","name":"x"}]}`))
	}))
	defer srv.Close()
	c := places.New("k", places.WithBaseURL(srv.URL), places.WithRateLimit(1))

	_, err := c.SearchHotels(context.Background(), "Paris")
	require.NoError(t, err)
	_, err = c.SearchHotels(context.Background(), "Paris")
	assert.ErrorIs(t, err, places.ErrRateLimited)
	assert.Equal(t, 1, calls)
}

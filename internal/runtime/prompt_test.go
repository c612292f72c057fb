package runtime

import (
	"strings"
	"testing"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestRenderSystemPrompt_ExactlyOneModeBlock(t *testing.T) {
	for _, mode := range domain.Modes() {
		t.Run(string(mode), func(t *testing.T) {
			state := domain.NewState()
			state.Mode = mode

			prompt := RenderSystemPrompt(state)
			assert.Equal(t, 1, strings.Count(prompt, "CURRENT MODE:"))
			assert.Contains(t, prompt, "CURRENT MODE: "+string(mode))
			assert.True(t, strings.HasSuffix(prompt, ModeInstructions(mode)))
		})
	}
}

func TestRenderSystemPrompt_Context(t *testing.T) {
	budget := 2500.0
	state := domain.NewState()
	state.Preferences = domain.TripPreferences{
		Travelers:       2,
		OriginCity:      "Berlin",
		DestinationCity: "Lisbon",
		Dates:           &domain.DateRange{Start: "2025-06-01", End: "2025-06-09"},
		Budget:          &budget,
	}

	prompt := RenderSystemPrompt(state)
	assert.True(t, strings.HasPrefix(prompt, "You are NullVoyager"))
	assert.Contains(t, prompt, "- Travelers: 2\n")
	assert.Contains(t, prompt, "- Origin: Berlin\n")
	assert.Contains(t, prompt, "- Destination: Lisbon\n")
	assert.Contains(t, prompt, "- Travel Dates: 2025-06-01 to 2025-06-09\n")
	assert.Contains(t, prompt, "- Budget: $2500\n")
	for _, tool := range []string{domain.ToolSearchFlights, domain.ToolSearchHotels, domain.ToolSuggestDestinations} {
		assert.Contains(t, prompt, tool)
	}
}

func TestRenderSystemPrompt_OmitsUnknownValues(t *testing.T) {
	prompt := RenderSystemPrompt(domain.NewState())
	assert.Contains(t, prompt, "- Travelers: 1\n")
	assert.NotContains(t, prompt, "- Origin:")
	assert.NotContains(t, prompt, "- Travel Dates:")
	assert.NotContains(t, prompt, "- Budget:")
	assert.NotContains(t, prompt, "- Cart:")
	assert.Contains(t, prompt, "CURRENT MODE: INSPIRATION")
}

func TestRenderSystemPrompt_Deterministic(t *testing.T) {
	state := domain.NewState()
	state.Mode = domain.ModeBooking
	state.Cart.SelectedFlightID = "mock-1"
	assert.Equal(t, RenderSystemPrompt(state), RenderSystemPrompt(state.Clone()))
	assert.Contains(t, RenderSystemPrompt(state), "- Cart: flight mock-1, hotel none\n")
}

package tui

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/muesli/termenv"

	"github.com/nullvoyager/voyager/pkg/domain"
)

// ErrorBanner is shown for any settled invocation whose result carries an error.
const ErrorBanner = "Failed to fetch results. Please try again."

var loadingMessages = map[domain.ToolKind]string{
	domain.KindDestinations: "Finding perfect destinations for you...",
	domain.KindFlights:      "Searching for the best flights...",
	domain.KindHotels:       "Looking for accommodations...",
}

// LoadingMessage returns the pending text for a tool.
func LoadingMessage(toolName string) string {
	if msg, ok := loadingMessages[domain.KindOf(toolName)]; ok {
		return msg
	}
	return "Processing..."
}

// ToolRenderer turns tool invocations into terminal text.
type ToolRenderer struct {
	profile termenv.Profile
}

// NewToolRenderer creates a ToolRenderer. termenv.Ascii disables all styling.
func NewToolRenderer(profile termenv.Profile) *ToolRenderer {
	return &ToolRenderer{profile: profile}
}

// Render renders one invocation: a loading line while pending, the error banner when
// the result reports an error, and otherwise the card of the tool's variant.
func (r *ToolRenderer) Render(inv domain.ToolInvocation) string {
	if inv.State == domain.InvocationPending {
		return r.muted("⏳ " + LoadingMessage(inv.ToolName))
	}

	raw, err := json.Marshal(inv.Result)
	if err != nil {
		return r.errorBanner()
	}
	var probe struct {
		Error string `json:"error"`
	}
	if inv.State == domain.InvocationError || (json.Unmarshal(raw, &probe) == nil && probe.Error != "") {
		return r.errorBanner()
	}

	if render, ok := cards[domain.KindOf(inv.ToolName)]; ok {
		if out, err := render(r, raw); err == nil {
			return out
		}
	}
	return r.generic(inv.ToolName, raw)
}

// cardFunc renders a settled result of one variant from its JSON form.
type cardFunc func(r *ToolRenderer, raw []byte) (string, error)

var cards = map[domain.ToolKind]cardFunc{
	domain.KindDestinations: card((*ToolRenderer).destinations),
	domain.KindFlights:      card((*ToolRenderer).flights),
	domain.KindHotels:       card((*ToolRenderer).hotels),
}

// card decodes raw into the record type of a variant before rendering it.
// Results arrive as typed records or as generic maps, so both go through JSON.
func card[T any](render func(*ToolRenderer, T) string) cardFunc {
	return func(r *ToolRenderer, raw []byte) (string, error) {
		var data T
		if err := json.Unmarshal(raw, &data); err != nil {
			return "", err
		}
		return render(r, data), nil
	}
}

func (r *ToolRenderer) destinations(data domain.DestinationResults) string {
	if len(data.Destinations) == 0 {
		return r.muted("No destinations found.")
	}
	title := "Recommended Destinations"
	if data.Vibe != "" {
		runes := []rune(data.Vibe)
		title = strings.ToUpper(string(runes[0])) + string(runes[1:]) + " Destinations"
	}

	var b strings.Builder
	b.WriteString(r.title("📍 "+title) + "\n")
	for _, d := range data.Destinations {
		line := "  • " + r.bold(d.City)
		if d.Price != nil {
			line += " " + r.accent(fmt.Sprintf("from $%.0f", *d.Price))
		}
		b.WriteString(line + "\n")
		if d.Description != "" {
			b.WriteString("    " + r.muted(d.Description) + "\n")
		}
	}
	r.footer(&b, data.Message)
	return strings.TrimRight(b.String(), "\n")
}

func (r *ToolRenderer) flights(data domain.FlightResults) string {
	if len(data.Flights) == 0 {
		return r.muted("No flights found.")
	}

	var b strings.Builder
	b.WriteString(r.title("✈ Available Flights"))
	if data.Source != "" {
		badge := "Demo data"
		if data.Source == domain.SourceAmadeus {
			badge = "Live prices"
		}
		b.WriteString("  " + r.muted("["+badge+"]"))
	}
	b.WriteString("\n")
	for _, f := range data.Flights {
		currency := f.Currency
		if currency == "" {
			currency = "USD"
		}
		arrival := f.Arrival.Time
		if arrival == "" {
			arrival = "—"
		}
		name := r.bold(f.Airline)
		if f.FlightNumber != "" {
			name += " " + r.muted(f.FlightNumber)
		}
		fmt.Fprintf(&b, "  %s  %s %s → %s %s  %s  %s %s\n",
			name,
			f.Departure.City, f.Departure.Time,
			f.Arrival.City, arrival,
			r.muted(f.Duration),
			r.accent(fmt.Sprintf("$%.0f", f.Price)), currency,
		)
	}
	r.footer(&b, data.Message)
	return strings.TrimRight(b.String(), "\n")
}

func (r *ToolRenderer) hotels(data domain.HotelResults) string {
	if len(data.Hotels) == 0 {
		return r.muted("No hotels found.")
	}

	var b strings.Builder
	b.WriteString(r.title("🏨 Available Hotels"))
	if data.Source != "" {
		badge := "Demo data"
		if data.Source == domain.SourceGooglePlaces {
			badge = "Google Places"
		}
		b.WriteString("  " + r.muted("["+badge+"]"))
	}
	b.WriteString("\n")
	for _, h := range data.Hotels {
		fmt.Fprintf(&b, "  %s  %s  %s\n", r.bold(h.Name), Stars(h.Rating), r.priceLevel(h.PriceLevel))
		if h.Address != "" {
			b.WriteString("    " + r.muted(h.Address) + "\n")
		}
	}
	r.footer(&b, data.Message)
	return strings.TrimRight(b.String(), "\n")
}

func (r *ToolRenderer) generic(toolName string, raw []byte) string {
	var pretty strings.Builder
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		if b, err := json.MarshalIndent(v, "", "  "); err == nil {
			raw = b
		}
	}
	pretty.WriteString(r.muted("Tool: "+toolName) + "\n")
	pretty.Write(raw)
	return pretty.String()
}

func (r *ToolRenderer) footer(b *strings.Builder, message string) {
	if message != "" {
		b.WriteString(r.muted(message) + "\n")
	}
}

// Stars renders a 0-5 rating as five glyphs followed by the value.
func Stars(rating float64) string {
	rating = math.Max(0, math.Min(5, rating))
	full := int(math.Floor(rating))
	half := rating-float64(full) >= 0.5

	var b strings.Builder
	b.WriteString(strings.Repeat("★", full))
	empty := 5 - full
	if half {
		b.WriteString("½")
		empty--
	}
	b.WriteString(strings.Repeat("☆", empty))
	fmt.Fprintf(&b, " %.1f", rating)
	return b.String()
}

func (r *ToolRenderer) priceLevel(level int) string {
	level = max(0, min(4, level))
	return r.accent(strings.Repeat("$", level)) + r.muted(strings.Repeat("$", 4-level))
}

func (r *ToolRenderer) errorBanner() string {
	return r.style("⚠ "+ErrorBanner, func(s termenv.Style) termenv.Style {
		return s.Foreground(r.profile.Color("#f87171"))
	})
}

func (r *ToolRenderer) title(s string) string {
	return r.style(s, func(st termenv.Style) termenv.Style { return st.Bold() })
}

func (r *ToolRenderer) bold(s string) string {
	return r.style(s, func(st termenv.Style) termenv.Style { return st.Bold() })
}

func (r *ToolRenderer) accent(s string) string {
	return r.style(s, func(st termenv.Style) termenv.Style {
		return st.Foreground(r.profile.Color("#a78bfa"))
	})
}

func (r *ToolRenderer) muted(s string) string {
	return r.style(s, func(st termenv.Style) termenv.Style { return st.Faint() })
}

func (r *ToolRenderer) style(s string, fn func(termenv.Style) termenv.Style) string {
	if s == "" || r.profile == termenv.Ascii {
		return s
	}
	return fn(r.profile.String(s)).String()
}

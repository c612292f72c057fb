package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nullvoyager/voyager/pkg/adapters/amadeus"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/nullvoyager/voyager/pkg/registry"
)

// DestinationInput is the argument of suggest_destinations.
type DestinationInput struct {
	Vibe      string   `json:"vibe" validate:"required" jsonschema:"description=Kind of trip the traveler wants e.g. beach or adventure or culture or food,minLength=1"`
	Origin    string   `json:"origin,omitempty" validate:"omitempty,len=3,alpha" jsonschema:"description=Optional 3-letter IATA code of the departure airport,minLength=3,maxLength=3"`
	MaxBudget *float64 `json:"maxBudget,omitempty" validate:"omitempty,gte=0" jsonschema:"description=Optional maximum flight price,minimum=0"`
}

const (
	maxLiveDestinations    = 5
	defaultDestinationPick = 4
)

type destinationSuggest struct {
	cfg Config
}

// NewDestinationSuggest returns the suggest_destinations tool.
func NewDestinationSuggest(cfg Config) ports.Tool {
	cfg.defaults()
	t := &destinationSuggest{cfg: cfg}
	return registry.Func[DestinationInput]{
		Name: domain.ToolSuggestDestinations,
		Description: "Suggests travel destinations that match a vibe (beach, adventure, culture, food, romantic, ...). " +
			"With an origin airport it can return live flight inspiration within a budget.",
		Run: t.run,
	}
}

func (t *destinationSuggest) run(ctx context.Context, in DestinationInput, _ ports.StateAccessor) (any, error) {
	vibe := strings.TrimSpace(in.Vibe)
	origin := strings.ToUpper(in.Origin)

	if dests, err := t.live(ctx, origin, in.MaxBudget); err == nil {
		for i := range dests {
			dests[i].Vibe = vibe
		}
		return &domain.DestinationResults{
			Destinations: dests,
			Vibe:         vibe,
			Source:       domain.SourceAmadeus,
			Message:      fmt.Sprintf("Found %d destination(s) reachable from %s.", len(dests), origin),
		}, nil
	} else if !errors.Is(err, errNoProvider) {
		t.cfg.providerFailed(ctx, domain.ToolSuggestDestinations, domain.SourceAmadeus, err)
	}

	dests := t.catalog(vibe)
	return &domain.DestinationResults{
		Destinations: dests,
		Vibe:         vibe,
		Source:       domain.SourceMock,
		Message:      fmt.Sprintf("Here are %d destination(s) for a %s trip (demo data).", len(dests), vibe),
	}, nil
}

func (t *destinationSuggest) live(ctx context.Context, origin string, maxBudget *float64) ([]domain.Destination, error) {
	if t.cfg.Destinations == nil || origin == "" {
		return nil, errNoProvider
	}
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	found, err := t.cfg.Destinations.SearchDestinations(ctx, origin, maxBudget)
	if err != nil {
		return nil, err
	}
	if len(found) > maxLiveDestinations {
		found = found[:maxLiveDestinations]
	}
	dests := make([]domain.Destination, 0, len(found))
	for _, d := range found {
		dests = append(dests, amadeus.NormalizeDestination(d))
	}
	return dests, nil
}

// catalog filters the fixture catalog by vibe; an unmatched vibe yields the first entries.
func (t *destinationSuggest) catalog(vibe string) []domain.Destination {
	all := t.cfg.Fixtures.Destinations
	var out []domain.Destination
	for _, d := range all {
		for _, tag := range d.Tags {
			if strings.EqualFold(tag, vibe) {
				d.Vibe = vibe
				out = append(out, d)
				break
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	n := min(defaultDestinationPick, len(all))
	out = make([]domain.Destination, 0, n)
	for _, d := range all[:n] {
		d.Vibe = vibe
		out = append(out, d)
	}
	return out
}

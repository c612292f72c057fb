// Package graph draws the conversation mode machine as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/nullvoyager/voyager/pkg/domain"
)

// modeTools lists the lookup tools each mode's instructions point the model to.
var modeTools = map[domain.Mode][]string{
	domain.ModeInspiration: {domain.ToolSuggestDestinations},
	domain.ModePlanning:    {domain.ToolSearchFlights, domain.ToolSearchHotels},
	domain.ModeBooking:     {domain.ToolSelectFlight, domain.ToolSelectHotel},
}

// GenerateMermaid produces a Mermaid flowchart of the modes.
// Shapes:
// - INSPIRATION (initial mode): ((Circle))
// - Other modes: [Rectangle]
// - Tools: [[Subroutine]]
// Conventional transitions are solid; the remaining ones are dotted since any mode may follow any other.
// If state is given, modes before the current one are styled visited and the current one is highlighted.
func GenerateMermaid(state *domain.VoyagerState) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	modes := domain.Modes()
	for _, m := range modes {
		opener, closer := "[", "]"
		if m == domain.ModeInspiration {
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", m, opener, m, closer)

		for _, tool := range modeTools[m] {
			fmt.Fprintf(&sb, "    %s_%s[[\"%s\"]]\n", m, tool, tool)
			fmt.Fprintf(&sb, "    %s --- %s_%s\n", m, m, tool)
		}
	}

	for _, from := range modes {
		next, hasNext := from.Next()
		for _, to := range modes {
			switch {
			case from == to:
			case hasNext && to == next:
				fmt.Fprintf(&sb, "    %s -- \"set_mode\" --> %s\n", from, to)
			default:
				fmt.Fprintf(&sb, "    %s -.-> %s\n", from, to)
			}
		}
	}

	if state != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, m := range modes {
			if m == state.Mode {
				break
			}
			fmt.Fprintf(&sb, "    class %s visited;\n", m)
		}
		if state.Mode.Valid() {
			fmt.Fprintf(&sb, "    class %s current;\n", state.Mode)
		}
	}

	return sb.String()
}

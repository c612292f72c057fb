package ports

import (
	"context"
	"encoding/json"

	"github.com/nullvoyager/voyager/pkg/domain"
)

// StateAccessor gives a tool access to the state of the session it runs for.
// Implementations are only valid for the duration of a single turn.
type StateAccessor interface {
	State() *domain.VoyagerState
	Update(ctx context.Context, patch domain.StatePatch) (*domain.VoyagerState, error)
}

// Tool is a capability the model may invoke.
type Tool interface {
	// Spec describes the tool to the model.
	Spec() domain.Tool

	// Execute runs the tool with raw JSON arguments.
	// Tools that do not touch the session ignore the accessor, which may be nil.
	Execute(ctx context.Context, args json.RawMessage, session StateAccessor) (any, error)
}

package registry

import (
	"context"
	"encoding/json"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
)

// Func adapts a typed function into a ports.Tool.
// Arguments are decoded and validated with Decode before fn runs.
type Func[In any] struct {
	Name        string
	Description string
	Run         func(ctx context.Context, in In, session ports.StateAccessor) (any, error)
}

var _ ports.Tool = Func[struct{}]{}

func (f Func[In]) Spec() domain.Tool {
	return domain.Tool{
		Name:        f.Name,
		Description: f.Description,
		Parameters:  Schema[In](),
	}
}

func (f Func[In]) Execute(ctx context.Context, args json.RawMessage, session ports.StateAccessor) (any, error) {
	in, err := Decode[In](args)
	if err != nil {
		return nil, err
	}
	return f.Run(ctx, in, session)
}

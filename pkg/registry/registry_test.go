package registry_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
	"github.com/nullvoyager/voyager/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Code   string   `json:"code" validate:"required,len=3,alpha" jsonschema:"description=IATA code"`
	Date   string   `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Budget *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Count  int      `json:"count,omitempty"`
}

func echoTool(name string) registry.Func[echoInput] {
	return registry.Func[echoInput]{
		Name:        name,
		Description: "echoes its input",
		Run: func(ctx context.Context, in echoInput, _ ports.StateAccessor) (any, error) {
			return in, nil
		},
	}
}

func TestRegistry_OrderAndAliases(t *testing.T) {
	r := registry.NewRegistry(echoTool("b"), echoTool("a"))
	r.Alias("legacy_a", "a")
	r.Register(echoTool("b")) // replaced in place

	assert.Equal(t, []string{"b", "a"}, r.Names())
	specs := r.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "b", specs[0].Name)

	_, ok := r.Lookup("legacy_a")
	assert.True(t, ok)

	extended := r.With(echoTool("c"))
	assert.Equal(t, []string{"b", "a", "c"}, extended.Names())
	assert.Equal(t, []string{"b", "a"}, r.Names(), "With must not modify the receiver")
}

func TestRegistry_Execute(t *testing.T) {
	r := registry.NewRegistry(echoTool("echo"))
	ctx := context.Background()

	res := r.Execute(ctx, domain.ToolCall{ID: "1", Name: "echo", Args: json.RawMessage(`{"code":"JFK","count":"2","budget":"150.5"}`)}, nil)
	require.False(t, res.IsError, res.Error)
	out := res.Result.(echoInput)
	assert.Equal(t, "JFK", out.Code)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 150.5, *out.Budget)

	res = r.Execute(ctx, domain.ToolCall{ID: "2", Name: "nope"}, nil)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Error, "unknown tool")
	assert.Equal(t, map[string]string{"error": res.Error}, res.Payload())
}

func TestDecode_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{"missing", `{}`, "code is required"},
		{"too long", `{"code":"JFKX"}`, "code must be exactly 3 characters"},
		{"digits", `{"code":"J1K"}`, "code must contain letters only"},
		{"bad date", `{"code":"JFK","date":"01/06/2025"}`, "date must be a date in YYYY-MM-DD format"},
		{"negative", `{"code":"JFK","budget":-1}`, "budget must be at least 0"},
		{"not an object", `[1,2]`, "arguments must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.Decode[echoInput](json.RawMessage(tt.args))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidToolInput))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSchema(t *testing.T) {
	s := registry.Schema[echoInput]()
	assert.Equal(t, "object", s["type"])
	assert.Equal(t, []any{"code"}, s["required"])

	props := s["properties"].(map[string]any)
	assert.Contains(t, props, "code")
	assert.Contains(t, props, "budget")
	assert.Equal(t, "IATA code", props["code"].(map[string]any)["description"])
	assert.NotContains(t, s, "$schema")
}

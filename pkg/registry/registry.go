// Package registry holds the closed set of tools offered to the model.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
)

// Registry manages the available tools.
// Specs are reported in registration order.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]ports.Tool
	order   []string
	aliases map[string]string
}

// NewRegistry creates a new registry holding the given tools.
func NewRegistry(tools ...ports.Tool) *Registry {
	r := &Registry{
		tools:   make(map[string]ports.Tool),
		aliases: make(map[string]string),
	}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is replaced in place.
func (r *Registry) Register(t ports.Tool) {
	name := t.Spec().Name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Alias makes alias resolve to the tool registered as name.
// Aliases are accepted by Execute and Lookup but are not advertised by Specs.
func (r *Registry) Alias(alias, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = name
}

// With returns a new registry with the tools of r followed by extra.
func (r *Registry) With(extra ...ports.Tool) *Registry {
	r.mu.RLock()
	out := &Registry{
		tools:   make(map[string]ports.Tool, len(r.tools)+len(extra)),
		order:   append([]string(nil), r.order...),
		aliases: make(map[string]string, len(r.aliases)),
	}
	for k, v := range r.tools {
		out.tools[k] = v
	}
	for k, v := range r.aliases {
		out.aliases[k] = v
	}
	r.mu.RUnlock()

	for _, t := range extra {
		out.Register(t)
	}
	return out
}

// Lookup resolves a tool by name or alias.
func (r *Registry) Lookup(name string) (ports.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Specs describes every registered tool, in order.
func (r *Registry) Specs() []domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]domain.Tool, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].Spec())
	}
	return specs
}

// Execute runs a tool call. Failures, including unknown tools and invalid input,
// are reported in the result rather than as an error, so that they can be handed
// back to the model.
func (r *Registry) Execute(ctx context.Context, call domain.ToolCall, session ports.StateAccessor) domain.ToolResult {
	res := domain.ToolResult{ID: call.ID, Name: call.Name}

	t, ok := r.Lookup(call.Name)
	if !ok {
		res.IsError = true
		res.Error = fmt.Errorf("%w: %s", domain.ErrUnknownTool, call.Name).Error()
		return res
	}

	out, err := t.Execute(ctx, call.Args, session)
	if err != nil {
		res.IsError = true
		res.Error = errorMessage(err)
		return res
	}
	res.Result = out
	return res
}

// errorMessage strips the sentinel prefix from validation errors; the field detail is what the model needs.
func errorMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message()
	}
	return err.Error()
}

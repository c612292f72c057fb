package domain

import "encoding/json"

// ToolCall represents a request from the model to run a tool.
// Ideally compatible with OpenAI/MCP tool call schemas.
type ToolCall struct {
	ID   string          `json:"id"`             // Unique ID for this call (from the model or generated)
	Name string          `json:"name"`           // Function name to call
	Args json.RawMessage `json:"args,omitempty"` // JSON object of arguments
}

// ToolResult represents the outcome of a tool call.
type ToolResult struct {
	ID      string `json:"id"` // Must match the ToolCall.ID
	Name    string `json:"name"`
	Result  any    `json:"result,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Payload returns what is reported back to the model and the client for this result.
// Failed calls are reported as an object carrying an "error" field.
func (r ToolResult) Payload() any {
	if r.IsError {
		return map[string]string{"error": r.Error}
	}
	return r.Result
}

// Tool defines metadata about a tool available to the model.
// This is used for generating schemas/prompts.
type Tool struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description string         `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}

// ToolKind is the closed set of presentation variants for tool results.
type ToolKind string

const (
	KindDestinations ToolKind = "destinations"
	KindFlights      ToolKind = "flights"
	KindHotels       ToolKind = "hotels"
	KindOther        ToolKind = "other"
)

var toolKinds = map[string]ToolKind{
	ToolSuggestDestinations: KindDestinations,
	ToolSearchFlights:       KindFlights,
	ToolSearchHotels:        KindHotels,
	ToolGoogleHotels:        KindHotels,
}

// KindOf maps a tool name to its presentation variant.
func KindOf(toolName string) ToolKind {
	if k, ok := toolKinds[toolName]; ok {
		return k
	}
	return KindOther
}

// InvocationState is the lifecycle of a tool invocation as seen by a client.
type InvocationState string

const (
	InvocationPending InvocationState = "pending"
	InvocationResult  InvocationState = "result"
	InvocationError   InvocationState = "error"
)

// ToolInvocation is a tool call together with its lifecycle state.
type ToolInvocation struct {
	ID       string          `json:"toolCallId"`
	ToolName string          `json:"toolName"`
	State    InvocationState `json:"state"`
	Args     json.RawMessage `json:"args,omitempty"`
	Result   any             `json:"result,omitempty"`
}

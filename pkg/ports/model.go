package ports

import (
	"context"

	"github.com/nullvoyager/voyager/pkg/domain"
)

// ChatRequest is one model call: the system prompt, the full history and the tools on offer.
type ChatRequest struct {
	System   string
	Messages []domain.Message
	Tools    []domain.Tool
}

// ChatResponse is the settled outcome of one model call.
type ChatResponse struct {
	Text      string
	ToolCalls []domain.ToolCall
}

// DeltaFunc receives text fragments as the model produces them.
type DeltaFunc func(text string)

// ChatModel is a streaming language model with tool calling.
type ChatModel interface {
	// Stream runs one model call. Text deltas are passed to onDelta as they arrive;
	// the returned response carries the full text and any requested tool calls.
	Stream(ctx context.Context, req ChatRequest, onDelta DeltaFunc) (*ChatResponse, error)
}

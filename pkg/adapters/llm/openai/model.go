// Package openai adapts the OpenAI chat completions API to ports.ChatModel.
package openai

import (
	"context"
	"fmt"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
)

// DefaultModel is used when no model id is configured.
const DefaultModel = "gpt-4o"

// Model is a ports.ChatModel backed by OpenAI.
type Model struct {
	client sdk.Client
	model  string
}

var _ ports.ChatModel = (*Model)(nil)

// New creates a Model. Extra request options (base URL, HTTP client) are passed to the SDK.
func New(apiKey, model string, opts ...option.RequestOption) *Model {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Model{client: sdk.NewClient(opts...), model: model}
}

// Stream implements ports.ChatModel.
func (m *Model) Stream(ctx context.Context, req ports.ChatRequest, onDelta ports.DeltaFunc) (*ports.ChatResponse, error) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, m.params(req))
	defer stream.Close()

	acc := sdk.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" && onDelta != nil {
			onDelta(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai: stream failed: %w", err)
	}
	if len(acc.Choices) == 0 {
		return &ports.ChatResponse{}, nil
	}

	msg := acc.Choices[0].Message
	resp := &ports.ChatResponse{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, domain.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: []byte(tc.Function.Arguments),
		})
	}
	return resp, nil
}

func (m *Model) params(req ports.ChatRequest) sdk.ChatCompletionNewParams {
	p := sdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.model),
		Messages: Messages(req.System, req.Messages),
	}
	for _, t := range req.Tools {
		p.Tools = append(p.Tools, sdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: sdk.String(t.Description),
				Parameters:  shared.FunctionParameters(t.Parameters),
			},
		})
	}
	return p
}

// Messages converts the history into chat completion messages, system prompt first.
func Messages(system string, history []domain.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(history)+1)
	if system != "" {
		out = append(out, sdk.SystemMessage(system))
	}
	for _, msg := range history {
		switch msg.Role {
		case domain.RoleSystem:
			out = append(out, sdk.SystemMessage(msg.Content))
		case domain.RoleAssistant:
			out = append(out, assistantMessage(msg))
		case domain.RoleTool:
			out = append(out, sdk.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			out = append(out, sdk.UserMessage(msg.Content))
		}
	}
	return out
}

func assistantMessage(msg domain.Message) sdk.ChatCompletionMessageParamUnion {
	if len(msg.ToolCalls) == 0 {
		return sdk.AssistantMessage(msg.Content)
	}
	p := sdk.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		p.Content.OfString = sdk.String(msg.Content)
	}
	for _, tc := range msg.ToolCalls {
		args := string(tc.Args)
		if args == "" {
			args = "{}"
		}
		p.ToolCalls = append(p.ToolCalls, sdk.ChatCompletionMessageToolCallParam{
			ID: tc.ID,
			Function: sdk.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Name,
				Arguments: args,
			},
		})
	}
	return sdk.ChatCompletionMessageParamUnion{OfAssistant: &p}
}

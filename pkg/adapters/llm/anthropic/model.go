// Package anthropic adapts the Anthropic messages API to ports.ChatModel.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nullvoyager/voyager/pkg/adapters/llm"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
)

const (
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = 4096
)

// Model is a ports.ChatModel backed by Anthropic.
type Model struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

var _ ports.ChatModel = (*Model)(nil)

// New creates a Model. Extra request options (base URL, HTTP client) are passed to the SDK.
func New(apiKey, model string, opts ...option.RequestOption) *Model {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Model{client: sdk.NewClient(opts...), model: model, maxTokens: DefaultMaxTokens}
}

// Stream implements ports.ChatModel.
func (m *Model) Stream(ctx context.Context, req ports.ChatRequest, onDelta ports.DeltaFunc) (*ports.ChatResponse, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(m.model),
		MaxTokens: m.maxTokens,
		Messages:  Messages(req.Messages),
		Tools:     Tools(req.Tools),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	stream := m.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := sdk.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("anthropic: accumulate stream: %w", err)
		}
		if ev, ok := event.AsAny().(sdk.ContentBlockDeltaEvent); ok {
			if d, ok := ev.Delta.AsAny().(sdk.TextDelta); ok && onDelta != nil {
				onDelta(d.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic: stream failed: %w", err)
	}

	var text strings.Builder
	resp := &ports.ChatResponse{}
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case sdk.TextBlock:
			text.WriteString(b.Text)
		case sdk.ToolUseBlock:
			resp.ToolCalls = append(resp.ToolCalls, domain.ToolCall{ID: b.ID, Name: b.Name, Args: b.Input})
		}
	}
	resp.Text = text.String()
	return resp, nil
}

// Messages converts the history. Tool results are sent as user messages; consecutive
// results are grouped into one message so that roles alternate.
func Messages(history []domain.Message) []sdk.MessageParam {
	var out []sdk.MessageParam
	var results []sdk.ContentBlockParamUnion

	flush := func() {
		if len(results) > 0 {
			out = append(out, sdk.NewUserMessage(results...))
			results = nil
		}
	}

	for _, msg := range history {
		switch msg.Role {
		case domain.RoleTool:
			results = append(results, sdk.NewToolResultBlock(msg.ToolCallID, msg.Content, llm.IsErrorPayload(msg.Content)))
		case domain.RoleAssistant:
			flush()
			var blocks []sdk.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, llm.ObjectArgs(tc.Args), tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, sdk.NewAssistantMessage(blocks...))
			}
		case domain.RoleSystem:
			// System text travels in the request's system field.
		default:
			flush()
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(msg.Content)))
		}
	}
	flush()
	return out
}

// Tools converts tool specs to Anthropic tool definitions.
func Tools(specs []domain.Tool) []sdk.ToolUnionParam {
	out := make([]sdk.ToolUnionParam, 0, len(specs))
	for _, t := range specs {
		schema := sdk.ToolInputSchemaParam{Properties: t.Parameters["properties"]}
		schema.Required = required(t.Parameters["required"])
		out = append(out, sdk.ToolUnionParam{OfTool: &sdk.ToolParam{
			Name:        t.Name,
			Description: sdk.String(t.Description),
			InputSchema: schema,
		}})
	}
	return out
}

func required(v any) []string {
	switch r := v.(type) {
	case []string:
		return r
	case []any:
		out := make([]string, 0, len(r))
		for _, s := range r {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

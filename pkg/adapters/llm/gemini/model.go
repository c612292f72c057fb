// Package gemini adapts Google's Gemini API to ports.ChatModel using function calling.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/nullvoyager/voyager/pkg/adapters/llm"
	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
)

// DefaultModel is used when no model id is configured.
const DefaultModel = "gemini-1.5-pro"

const (
	roleUser  = "user"
	roleModel = "model"
)

// Model is a ports.ChatModel backed by Gemini.
type Model struct {
	client *genai.Client
	model  string
}

var _ ports.ChatModel = (*Model)(nil)

// New creates a Model. Extra client options (endpoint, HTTP client) are passed to the SDK.
func New(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Model, error) {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Model{client: client, model: model}, nil
}

// Close releases the underlying client.
func (m *Model) Close() error {
	return m.client.Close()
}

// Stream implements ports.ChatModel.
func (m *Model) Stream(ctx context.Context, req ports.ChatRequest, onDelta ports.DeltaFunc) (*ports.ChatResponse, error) {
	gm := m.client.GenerativeModel(m.model)
	if req.System != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if len(req.Tools) > 0 {
		gm.Tools = []*genai.Tool{{FunctionDeclarations: Declarations(req.Tools)}}
	}

	contents := Contents(req.Messages)
	if len(contents) == 0 {
		return nil, errors.New("gemini: empty conversation")
	}
	cs := gm.StartChat()
	cs.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp := &ports.ChatResponse{}
	iter := cs.SendMessageStream(ctx, last.Parts...)
	for {
		chunk, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gemini: stream failed: %w", err)
		}
		for _, cand := range chunk.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				switch p := part.(type) {
				case genai.Text:
					resp.Text += string(p)
					if onDelta != nil {
						onDelta(string(p))
					}
				case genai.FunctionCall:
					args, _ := json.Marshal(p.Args)
					resp.ToolCalls = append(resp.ToolCalls, domain.ToolCall{ID: uuid.NewString(), Name: p.Name, Args: args})
				}
			}
		}
	}
	return resp, nil
}

// Contents converts the history. Consecutive entries of the same role are merged,
// and tool results become function responses sent as the user.
func Contents(history []domain.Message) []*genai.Content {
	var out []*genai.Content
	add := func(role string, parts ...genai.Part) {
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	for _, msg := range history {
		switch msg.Role {
		case domain.RoleSystem:
		case domain.RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: llm.ObjectArgs(tc.Args)})
			}
			if len(parts) > 0 {
				add(roleModel, parts...)
			}
		case domain.RoleTool:
			add(roleUser, genai.FunctionResponse{Name: msg.Name, Response: llm.ObjectArgs(json.RawMessage(msg.Content))})
		default:
			add(roleUser, genai.Text(msg.Content))
		}
	}
	return out
}

// Declarations converts tool specs into function declarations.
func Declarations(specs []domain.Tool) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, t := range specs {
		out = append(out, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  Schema(t.Parameters),
		})
	}
	return out
}

// Schema converts a JSON schema document into the Gemini schema subset.
func Schema(doc map[string]any) *genai.Schema {
	if doc == nil {
		return nil
	}
	s := &genai.Schema{}
	switch doc["type"] {
	case "object":
		s.Type = genai.TypeObject
	case "array":
		s.Type = genai.TypeArray
	case "integer":
		s.Type = genai.TypeInteger
	case "number":
		s.Type = genai.TypeNumber
	case "boolean":
		s.Type = genai.TypeBoolean
	default:
		s.Type = genai.TypeString
	}
	if d, ok := doc["description"].(string); ok {
		s.Description = d
	}
	if f, ok := doc["format"].(string); ok && f != "date" {
		s.Format = f
	}
	if enum, ok := doc["enum"].([]any); ok {
		for _, e := range enum {
			if str, ok := e.(string); ok {
				s.Enum = append(s.Enum, str)
			}
		}
	}
	if props, ok := doc["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				s.Properties[name] = Schema(pm)
			}
		}
	}
	if items, ok := doc["items"].(map[string]any); ok {
		s.Items = Schema(items)
	}
	switch req := doc["required"].(type) {
	case []string:
		s.Required = req
	case []any:
		for _, r := range req {
			if str, ok := r.(string); ok {
				s.Required = append(s.Required, str)
			}
		}
	}
	return s
}

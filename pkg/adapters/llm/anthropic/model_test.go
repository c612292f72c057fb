package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
)

func TestMessages_GroupsToolResults(t *testing.T) {
	history := []domain.Message{
		{Role: domain.RoleSystem, Content: "ignored"},
		{Role: domain.RoleUser, Content: "London trip"},
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{
			{ID: "a", Name: "search_flights", Args: json.RawMessage(`{"origin":"JFK"}`)},
			{ID: "b", Name: "search_hotels", Args: json.RawMessage(`{"location":"London"}`)},
		}},
		{Role: domain.RoleTool, ToolCallID: "a", Content: `{"flights":[]}`},
		{Role: domain.RoleTool, ToolCallID: "b", Content: `{"error":"location is required"}`},
		{Role: domain.RoleAssistant, Content: "Done."},
	}

	out := Messages(history)
	require.Len(t, out, 4)
	assert.Equal(t, "user", string(out[0].Role))
	assert.Equal(t, "assistant", string(out[1].Role))
	assert.Len(t, out[1].Content, 2)
	assert.Equal(t, "user", string(out[2].Role))
	require.Len(t, out[2].Content, 2)
	require.NotNil(t, out[2].Content[1].OfToolResult)
	assert.Equal(t, "b", out[2].Content[1].OfToolResult.ToolUseID)
	assert.True(t, out[2].Content[1].OfToolResult.IsError.Value)
	assert.Equal(t, "assistant", string(out[3].Role))
}

func TestTools(t *testing.T) {
	out := Tools([]domain.Tool{{
		Name:        "search_hotels",
		Description: "Finds hotels",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"location": map[string]any{"type": "string"}},
			"required":   []any{"location"},
		},
	}})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].OfTool)
	assert.Equal(t, "search_hotels", out[0].OfTool.Name)
	assert.Equal(t, []string{"location"}, out[0].OfTool.InputSchema.Required)
}

func event(w io.Writer, name, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		event(w, "message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":1}}}`)
		event(w, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		event(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Searching "}}`)
		event(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"now."}}`)
		event(w, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		event(w, "content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"suggest_destinations","input":{}}}`)
		event(w, "content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"vibe\": \"beach\"}"}}`)
		event(w, "content_block_stop", `{"type":"content_block_stop","index":1}`)
		event(w, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":20}}`)
		event(w, "message_stop", `{"type":"message_stop"}`)
	}))
	defer srv.Close()

	m := New("key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	var deltas []string
	resp, err := m.Stream(context.Background(), ports.ChatRequest{
		System:   "sys",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "beach please"}},
	}, func(s string) { deltas = append(deltas, s) })
	require.NoError(t, err)

	assert.Equal(t, []string{"Searching ", "now."}, deltas)
	assert.Equal(t, "Searching now.", resp.Text)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "suggest_destinations", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"vibe":"beach"}`, string(resp.ToolCalls[0].Args))
}

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/nullvoyager/voyager/pkg/ports"
)

func TestMessages(t *testing.T) {
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "Flights to London?"},
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{ID: "c1", Name: "search_flights", Args: json.RawMessage(`{"origin":"JFK"}`)}}},
		{Role: domain.RoleTool, ToolCallID: "c1", Name: "search_flights", Content: `{"flights":[]}`},
		{Role: domain.RoleAssistant, Content: "None found."},
	}

	out := Messages("be nice", history)
	require.Len(t, out, 5)
	require.NotNil(t, out[0].OfSystem)
	require.NotNil(t, out[1].OfUser)
	require.NotNil(t, out[2].OfAssistant)
	assert.Equal(t, "c1", out[2].OfAssistant.ToolCalls[0].ID)
	assert.Equal(t, "search_flights", out[2].OfAssistant.ToolCalls[0].Function.Name)
	assert.Equal(t, `{"origin":"JFK"}`, out[2].OfAssistant.ToolCalls[0].Function.Arguments)
	require.NotNil(t, out[3].OfTool)
	assert.Equal(t, "c1", out[3].OfTool.ToolCallID)
	require.NotNil(t, out[4].OfAssistant)
}

func sse(w io.Writer, chunks ...string) {
	for _, c := range chunks {
		fmt.Fprintf(w, "data: %s\n\n", c)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func TestStream(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "text/event-stream")
		sse(w,
			`{"id":"x","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","content":"Let me "}}]}`,
			`{"id":"x","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":"check."}}]}`,
			`{"id":"x","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"search_hotels","arguments":"{\"location\":"}}]}}]}`,
			`{"id":"x","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Paris\"}"}}]}}]}`,
			`{"id":"x","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
		)
	}))
	defer srv.Close()

	m := New("test-key", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))

	var deltas []string
	resp, err := m.Stream(context.Background(), ports.ChatRequest{
		System:   "sys",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hotels in Paris"}},
		Tools:    []domain.Tool{{Name: "search_hotels", Description: "d", Parameters: map[string]any{"type": "object"}}},
	}, func(s string) { deltas = append(deltas, s) })
	require.NoError(t, err)

	assert.Equal(t, []string{"Let me ", "check."}, deltas)
	assert.Equal(t, "Let me check.", resp.Text)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "search_hotels", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"location":"Paris"}`, string(resp.ToolCalls[0].Args))

	assert.Equal(t, DefaultModel, body["model"])
	assert.Len(t, body["tools"], 1)
}

func TestStream_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	m := New("bad", "gpt-4o-mini", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	_, err := m.Stream(context.Background(), ports.ChatRequest{Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}}}, nil)
	assert.Error(t, err)
}

// Package llm holds the chat model adapters. Each subpackage implements ports.ChatModel
// for one provider:
//
//   - openai: chat completions streaming with function tools.
//   - anthropic: messages streaming with tool use.
//   - gemini: generative-ai-go function calling.
//
// Adapters are stateless; the whole conversation is sent on every call.
package llm

import (
	"encoding/json"
	"strings"
)

// ObjectArgs decodes tool arguments into a map. Empty or invalid input yields an empty map.
func ObjectArgs(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

// IsErrorPayload reports whether a tool message carries a failed result.
func IsErrorPayload(content string) bool {
	return strings.HasPrefix(content, `{"error":`)
}

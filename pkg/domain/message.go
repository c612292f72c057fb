package domain

import (
	"encoding/json"
	"strings"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation history.
// Assistant messages may carry tool calls; tool messages answer one of them.
type Message struct {
	ID         string     `json:"id,omitempty"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// messagePart is the "parts" representation used by some chat clients.
type messagePart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// UnmarshalJSON accepts content either as a string or as a list of text parts,
// and falls back to a top-level "parts" list when content is absent.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	var raw struct {
		alias
		Content json.RawMessage `json:"content"`
		Parts   []messagePart   `json:"parts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Message(raw.alias)

	if len(raw.Content) > 0 && string(raw.Content) != "null" {
		var s string
		if err := json.Unmarshal(raw.Content, &s); err == nil {
			m.Content = s
			return nil
		}
		var parts []messagePart
		if err := json.Unmarshal(raw.Content, &parts); err != nil {
			return err
		}
		m.Content = joinText(parts)
		return nil
	}
	m.Content = joinText(raw.Parts)
	return nil
}

func joinText(parts []messagePart) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Type != "" && p.Type != "text" {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

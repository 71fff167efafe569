package models

import (
	"encoding/json"
	"strings"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagePart struct {
	Text string `json:"text"`
}

// UnmarshalJSON accepts the content either as a flat string or as a list of
// {text} parts, concatenated. Some clients send the parts form under a
// top-level "parts" field instead of "content".
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
		Parts   []messagePart   `json:"parts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Role = raw.Role

	if len(raw.Parts) > 0 {
		m.Content = joinParts(raw.Parts)
		return nil
	}

	if len(raw.Content) == 0 || string(raw.Content) == "null" {
		m.Content = ""
		return nil
	}

	var flat string
	if err := json.Unmarshal(raw.Content, &flat); err == nil {
		m.Content = flat
		return nil
	}

	var parts []messagePart
	if err := json.Unmarshal(raw.Content, &parts); err != nil {
		return err
	}
	m.Content = joinParts(parts)
	return nil
}

func joinParts(parts []messagePart) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

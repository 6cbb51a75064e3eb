// Package prompts holds the embedded chat prompt templates.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed chat.json
var chatJSON []byte

// Placeholders substituted into the chat templates.
const (
	PlaceholderContent = "Content"
	PlaceholderStoreID = "StoreID"
)

// Chat is the set of prompts used by a chat session.
type Chat struct {
	System           string `json:"system"`
	RetrievalMarker  string `json:"retrieval-marker"`
	CredentialPrompt string `json:"credential-prompt"`
}

var loadChat = sync.OnceValues(func() (*Chat, error) {
	return parseChat(chatJSON)
})

// LoadChat returns the embedded chat prompts, parsed once per process.
func LoadChat() (*Chat, error) {
	return loadChat()
}

func parseChat(data []byte) (*Chat, error) {
	var c Chat
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse chat prompts: %w", err)
	}
	if !strings.Contains(c.System, placeholder(PlaceholderContent)) {
		return nil, fmt.Errorf("system prompt is missing the %s placeholder", placeholder(PlaceholderContent))
	}
	if !strings.Contains(c.RetrievalMarker, placeholder(PlaceholderStoreID)) {
		return nil, fmt.Errorf("retrieval marker is missing the %s placeholder", placeholder(PlaceholderStoreID))
	}
	if strings.TrimSpace(c.CredentialPrompt) == "" {
		return nil, fmt.Errorf("credential prompt is empty")
	}
	return &c, nil
}

// Format replaces {{.Key}} placeholders in template with values from data.
// Placeholders without a value are left in place.
func Format(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, placeholder(key), value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func placeholder(key string) string {
	return "{{." + key + "}}"
}

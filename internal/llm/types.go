package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelBackend is matched by every error the backend returns.
var ErrModelBackend = errors.New("model backend error")

// BackendError carries the backend's own description of a failed call.
type BackendError struct {
	Message string
	Cause   error
}

func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model backend error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("model backend error: %s", e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrModelBackend) hold for every BackendError.
func (e *BackendError) Is(target error) bool {
	return target == ErrModelBackend
}

// Role tags a message in a chat request.
type Role string

const (
	// RoleSystem carries instructions and context
	RoleSystem Role = "system"
	// RoleUser carries what the user typed
	RoleUser Role = "user"
	// RoleAssistant carries earlier model replies
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn of a chat request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the outbound payload for one chat completion.
type ChatRequest struct {
	Model            string    `json:"model,omitempty"`
	Temperature      float32   `json:"temperature"`
	Messages         []Message `json:"messages"`
	KnowledgeStoreID string    `json:"knowledge_store_id,omitempty"` // Retrieval index the backend may search
}

// Input renders the request in the single-string form: every message prefixed by its role.
func (r *ChatRequest) Input() string {
	var sb strings.Builder
	for i, m := range r.Messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.ToUpper(string(m.Role)) + ": " + m.Content)
	}
	return sb.String()
}

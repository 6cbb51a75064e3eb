// Package conversation assembles chat history and extracted site content into backend requests.
package conversation

import (
	"fmt"
	"strings"

	"github.com/jonathan/site-assistant/internal/llm"
)

// Sender identifies who produced a turn. Values match the persisted history format.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "ai"
)

// Turn is one entry of the chat transcript. Turns are appended, never edited.
type Turn struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
	HTML   string `json:"html,omitempty"` // Sanitized rendering of Text, assistant turns only
}

// UserTurn builds a turn for text the user typed.
func UserTurn(text string) Turn {
	return Turn{Sender: SenderUser, Text: text}
}

// AssistantTurn builds a turn for a backend reply.
func AssistantTurn(text string) Turn {
	return Turn{Sender: SenderAssistant, Text: text}
}

// ErrorTurn builds the synthetic assistant turn recorded when the backend fails.
func ErrorTurn(err error) Turn {
	return Turn{Sender: SenderAssistant, Text: fmt.Sprintf("Error: %v", err)}
}

// Role maps the sender onto the backend's role vocabulary.
func (t Turn) Role() (llm.Role, error) {
	switch t.Sender {
	case SenderUser:
		return llm.RoleUser, nil
	case SenderAssistant:
		return llm.RoleAssistant, nil
	}
	return "", fmt.Errorf("unknown sender %q", t.Sender)
}

// RecentHistory returns the last limit turns in chronological order.
// A non-positive limit yields no history.
func RecentHistory(history []Turn, limit int) []Turn {
	if limit <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

// Transcript renders turns as "You:"/"Assistant:" lines for terminal output.
func Transcript(history []Turn) string {
	var sb strings.Builder
	for _, t := range history {
		label := "You"
		if t.Sender == SenderAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, t.Text)
	}
	return sb.String()
}

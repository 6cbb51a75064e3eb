package conversation

import (
	"fmt"
	"strings"

	"github.com/jonathan/site-assistant/internal/content"
	"github.com/jonathan/site-assistant/internal/llm"
	"github.com/jonathan/site-assistant/internal/prompts"
)

// DefaultHistoryLimit bounds how many earlier turns ride along with each request.
// It is also the ceiling; a larger HistoryLimit is clamped to it.
const DefaultHistoryLimit = 4

// Mode selects how the model sees site content. A deployment uses exactly one.
type Mode string

const (
	// ModeInline pastes the extracted text into the system turn
	ModeInline Mode = "inline"
	// ModeRetrieval points the backend at an external knowledge store
	ModeRetrieval Mode = "retrieval"
)

// ParseMode validates a mode name. An empty name selects ModeInline.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case "":
		return ModeInline, nil
	case ModeInline, ModeRetrieval:
		return Mode(name), nil
	}
	return "", fmt.Errorf("unknown content mode %q (want inline or retrieval)", name)
}

// Assembler builds the outbound request for each user message.
type Assembler struct {
	Template         string // System template with a {{.Content}} placeholder
	Marker           string // Retrieval-mode stand-in with a {{.StoreID}} placeholder
	Mode             Mode
	KnowledgeStoreID string
	HistoryLimit     int
	Model            string
	Temperature      float32
}

// NewAssembler returns an inline-mode assembler using the embedded chat prompts.
func NewAssembler(model string, temperature float32) (*Assembler, error) {
	chat, err := prompts.LoadChat()
	if err != nil {
		return nil, err
	}
	return &Assembler{
		Template:     chat.System,
		Marker:       chat.RetrievalMarker,
		Mode:         ModeInline,
		HistoryLimit: DefaultHistoryLimit,
		Model:        model,
		Temperature:  temperature,
	}, nil
}

// Assemble produces one system message, the bounded recent history in order,
// and one trailing user message carrying the new text.
func (a *Assembler) Assemble(contents []content.ExtractedContent, history []Turn, message string) (*llm.ChatRequest, error) {
	recent := RecentHistory(history, min(a.HistoryLimit, DefaultHistoryLimit))
	messages := make([]llm.Message, 0, len(recent)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt(contents)})

	for _, t := range recent {
		role, err := t.Role()
		if err != nil {
			return nil, err
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Text})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	req := &llm.ChatRequest{
		Model:       a.Model,
		Temperature: a.Temperature,
		Messages:    messages,
	}
	if a.Mode == ModeRetrieval {
		req.KnowledgeStoreID = a.KnowledgeStoreID
	}
	return req, nil
}

func (a *Assembler) systemPrompt(contents []content.ExtractedContent) string {
	var body string
	if a.Mode == ModeRetrieval {
		body = prompts.Format(a.Marker, map[string]string{prompts.PlaceholderStoreID: a.KnowledgeStoreID})
	} else {
		body = InlineContent(contents)
	}
	return prompts.Format(a.Template, map[string]string{prompts.PlaceholderContent: body})
}

// InlineContent joins every source's labeled block, each headed by its address.
func InlineContent(contents []content.ExtractedContent) string {
	blocks := make([]string, 0, len(contents))
	for i := range contents {
		blocks = append(blocks, "Source: "+contents[i].URL+"\n"+contents[i].Format())
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client is an abstraction over LLM providers
type Client interface {
	// Chat sends the request's messages and returns the reply text
	Chat(ctx context.Context, req *ChatRequest) (string, error)
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string, logger *zap.Logger) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey, logger)
	default:
		return nil, fmt.Errorf("unsupported provider %q", config.Provider)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
	logger *zap.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// Chat maps system messages to the system instruction, earlier turns to the chat history
// and sends the final user message.
func (c *GeminiClient) Chat(ctx context.Context, req *ChatRequest) (string, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = c.config.GetModel(TierStandard)
	}
	if modelName == "" {
		return "", &BackendError{Message: "no model configured"}
	}

	system, history, last, err := splitMessages(req.Messages)
	if err != nil {
		return "", &BackendError{Message: "malformed request", Cause: err}
	}
	if req.KnowledgeStoreID != "" {
		c.logger.Warn("gemini backend has no retrieval attachment; the model only sees inline context",
			zap.String("knowledge_store_id", req.KnowledgeStoreID))
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(req.Temperature)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", &BackendError{Message: "failed to generate content", Cause: err}
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", &BackendError{Message: err.Error()}
	}
	return text, nil
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// splitMessages separates system text, prior turns in Gemini roles, and the final user message.
func splitMessages(messages []Message) (string, []*genai.Content, string, error) {
	if len(messages) == 0 {
		return "", nil, "", fmt.Errorf("no messages")
	}
	last := messages[len(messages)-1]
	if last.Role != RoleUser {
		return "", nil, "", fmt.Errorf("last message must come from the user, got %q", last.Role)
	}

	var systemParts []string
	var history []*genai.Content
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, m.Content)
		case RoleUser:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			return "", nil, "", fmt.Errorf("unknown role %q", m.Role)
		}
	}
	return strings.Join(systemParts, "\n\n"), history, last.Content, nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

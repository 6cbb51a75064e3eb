package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessages(t *testing.T) {
	system, history, last, err := splitMessages([]Message{
		{Role: RoleSystem, Content: "be helpful"},
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "be helpful", system)
	assert.Equal(t, "q2", last)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, genai.Text("q1"), history[0].Parts[0])
	assert.Equal(t, "model", history[1].Role)
}

func TestSplitMessages_Invalid(t *testing.T) {
	_, _, _, err := splitMessages(nil)
	assert.Error(t, err)

	_, _, _, err = splitMessages([]Message{{Role: RoleAssistant, Content: "x"}})
	assert.Error(t, err)

	_, _, _, err = splitMessages([]Message{{Role: "tool", Content: "x"}, {Role: RoleUser, Content: "y"}})
	assert.Error(t, err)
}

func TestExtractTextFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello "), genai.Text("there")}},
		}},
	}
	text, err := extractTextFromResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)

	_, err = extractTextFromResponse(&genai.GenerateContentResponse{})
	assert.Error(t, err)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), DefaultConfig(), "", nil)
	assert.Error(t, err)
}

func TestBackendError(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := error(&BackendError{Message: "failed to generate content", Cause: cause})

	assert.ErrorIs(t, err, ErrModelBackend)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestChatRequest_Input(t *testing.T) {
	req := &ChatRequest{Messages: []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
	}}
	assert.Equal(t, "SYSTEM: sys\n\nUSER: hi", req.Input())
}

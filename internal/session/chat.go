package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/site-assistant/internal/conversation"
	"github.com/jonathan/site-assistant/internal/llm"
	"github.com/jonathan/site-assistant/internal/store"
)

var (
	// ErrEmptyMessage is returned when there is nothing to send
	ErrEmptyMessage = errors.New("message is empty")
	// ErrChatDisabled is returned while no source is Ready
	ErrChatDisabled = errors.New("chat is disabled until a source is ready")
	// ErrMissingCredential is returned when no backend credential is available
	ErrMissingCredential = errors.New("backend credential is missing")
)

// UI receives the pending-state signals of a chat exchange.
type UI interface {
	SetPending(pending bool)
	Focus()
}

// NopUI ignores every signal.
type NopUI struct{}

func (NopUI) SetPending(bool) {}
func (NopUI) Focus()          {}

// CredentialPrompter collects a backend credential from the user.
type CredentialPrompter interface {
	PromptCredential(ctx context.Context) (string, error)
}

// BackendFactory creates a backend client once a credential is known.
type BackendFactory func(ctx context.Context, credential string) (llm.Client, error)

// ChatSession submits user messages and records the exchange in the session history.
type ChatSession struct {
	State     *State
	Store     store.KV
	Assembler *conversation.Assembler
	Backend   llm.Client     // Used as is when set
	Dial      BackendFactory // Creates Backend lazily from the credential otherwise
	UI        UI
	Prompt    CredentialPrompter           // Optional
	Render    func(string) (string, error) // Optional reply renderer
	Logger    *zap.Logger
}

// Send submits message. The user turn is recorded before the backend call and the
// reply, or a synthetic turn describing the failure, after it. Backend failures are
// returned together with that synthetic turn.
func (c *ChatSession) Send(ctx context.Context, message string) (conversation.Turn, error) {
	logger := c.logger()
	ui := c.ui()

	message = strings.TrimSpace(message)
	if message == "" {
		return conversation.Turn{}, ErrEmptyMessage
	}
	if !c.State.ChatEnabled() {
		return conversation.Turn{}, ErrChatDisabled
	}
	if err := c.ensureCredential(ctx); err != nil {
		return conversation.Turn{}, err
	}

	prior := c.State.History
	c.State.AppendTurn(conversation.UserTurn(message))
	if err := c.State.Save(ctx, c.Store); err != nil {
		return conversation.Turn{}, err
	}

	ui.SetPending(true)
	defer func() {
		ui.SetPending(false)
		ui.Focus()
	}()

	reply, err := c.exchange(ctx, prior, message)
	var turn conversation.Turn
	if err != nil {
		logger.Error("chat request failed", zap.Error(err))
		turn = conversation.ErrorTurn(err)
	} else {
		turn = conversation.AssistantTurn(reply)
		if c.Render != nil {
			html, rerr := c.Render(reply)
			if rerr != nil {
				logger.Warn("failed to render reply", zap.Error(rerr))
			} else {
				turn.HTML = html
			}
		}
	}

	c.State.AppendTurn(turn)
	if serr := c.State.Save(ctx, c.Store); serr != nil {
		return turn, errors.Join(err, serr)
	}
	return turn, err
}

func (c *ChatSession) exchange(ctx context.Context, prior []conversation.Turn, message string) (string, error) {
	assembler := *c.Assembler
	if assembler.KnowledgeStoreID == "" {
		assembler.KnowledgeStoreID = c.State.KnowledgeStoreID
	}
	req, err := assembler.Assemble(c.State.ReadyContents(), prior, message)
	if err != nil {
		return "", err
	}

	backend, err := c.backend(ctx)
	if err != nil {
		return "", err
	}

	c.logger().Debug("sending chat request",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)))
	return backend.Chat(ctx, req)
}

func (c *ChatSession) ensureCredential(ctx context.Context) error {
	if c.State.Credential != "" {
		return nil
	}
	if c.Prompt == nil {
		return ErrMissingCredential
	}
	key, err := c.Prompt.PromptCredential(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrMissingCredential
	}
	c.State.Credential = key
	return c.State.Save(ctx, c.Store)
}

func (c *ChatSession) backend(ctx context.Context) (llm.Client, error) {
	if c.Backend != nil {
		return c.Backend, nil
	}
	if c.Dial == nil {
		return nil, &llm.BackendError{Message: "no backend configured"}
	}
	client, err := c.Dial(ctx, c.State.Credential)
	if err != nil {
		return nil, &llm.BackendError{Message: "failed to create client", Cause: err}
	}
	c.Backend = client
	return client, nil
}

func (c *ChatSession) ui() UI {
	if c.UI == nil {
		return NopUI{}
	}
	return c.UI
}

func (c *ChatSession) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Package session owns the assistant's mutable state and the operations that change it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/site-assistant/internal/content"
	"github.com/jonathan/site-assistant/internal/conversation"
	"github.com/jonathan/site-assistant/internal/schemas"
	"github.com/jonathan/site-assistant/internal/source"
	"github.com/jonathan/site-assistant/internal/store"
)

// Persisted keys.
const (
	KeySources          = "sources"
	KeyChatHistory      = "chatHistory"
	KeyCredential       = "credential"
	KeyContentCache     = "extractedContentCache"
	KeyKnowledgeStoreID = "knowledgeStoreId"
	KeySessionID        = "sessionId"
)

// State is everything one session knows. Components receive it explicitly and
// every mutation is followed by Save.
type State struct {
	ID               uuid.UUID
	Registry         *source.Registry
	History          []conversation.Turn
	Contents         map[string]content.ExtractedContent // Keyed by source address
	Credential       string
	KnowledgeStoreID string
}

// NewState returns an empty session with a fresh id.
func NewState() *State {
	return &State{
		ID:       uuid.New(),
		Registry: source.NewRegistry(nil),
		Contents: make(map[string]content.ExtractedContent),
	}
}

// EnsureID returns the session id stored in kv, creating and persisting one when absent.
func EnsureID(ctx context.Context, kv store.KV) (uuid.UUID, error) {
	var raw string
	found, err := getJSON(ctx, kv, KeySessionID, &raw)
	if err != nil {
		return uuid.Nil, err
	}
	if found {
		if id, err := uuid.Parse(raw); err == nil {
			return id, nil
		}
	}
	id := uuid.New()
	if err := setJSON(ctx, kv, KeySessionID, id.String()); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Load reads a session from kv. Missing keys yield empty values. Persisted sources or
// history that fail schema validation are discarded with a warning rather than blocking
// the session. Sources persisted mid-fetch come back as failed.
func Load(ctx context.Context, kv store.KV, logger *zap.Logger) (*State, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := NewState()

	id, err := EnsureID(ctx, kv)
	if err != nil {
		return nil, err
	}
	s.ID = id

	var sources []source.Source
	if ok, err := getValidated(ctx, kv, KeySources, schemas.Sources, &sources, logger); err != nil {
		return nil, err
	} else if ok {
		s.Registry = source.NewRegistry(sources)
		for _, src := range s.Registry.List() {
			if src.Status == source.StatusLoading {
				_ = s.Registry.UpdateStatus(src.Address, source.StatusFailed)
			}
		}
	}

	if _, err := getValidated(ctx, kv, KeyChatHistory, schemas.ChatHistory, &s.History, logger); err != nil {
		return nil, err
	}

	if _, err := getJSON(ctx, kv, KeyContentCache, &s.Contents); err != nil {
		logger.Warn("discarding unreadable content cache", zap.Error(err))
		s.Contents = make(map[string]content.ExtractedContent)
	}
	if s.Contents == nil {
		s.Contents = make(map[string]content.ExtractedContent)
	}

	if _, err := getJSON(ctx, kv, KeyCredential, &s.Credential); err != nil {
		return nil, err
	}
	if _, err := getJSON(ctx, kv, KeyKnowledgeStoreID, &s.KnowledgeStoreID); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the full state. Every key is rewritten, in one write when kv is a
// store.Batcher, so the store holds a consistent snapshot of the last completed operation.
func (s *State) Save(ctx context.Context, kv store.KV) error {
	sources := s.Registry.List()
	history := s.History
	if history == nil {
		history = []conversation.Turn{}
	}
	contents := s.Contents
	if contents == nil {
		contents = map[string]content.ExtractedContent{}
	}

	values := []struct {
		key   string
		value any
	}{
		{KeySessionID, s.ID.String()},
		{KeySources, sources},
		{KeyChatHistory, history},
		{KeyContentCache, contents},
		{KeyCredential, s.Credential},
		{KeyKnowledgeStoreID, s.KnowledgeStoreID},
	}
	batch, ok := kv.(store.Batcher)
	if !ok {
		for _, v := range values {
			if err := setJSON(ctx, kv, v.key, v.value); err != nil {
				return err
			}
		}
		return nil
	}

	encoded := make(map[string][]byte, len(values))
	for _, v := range values {
		raw, err := json.Marshal(v.value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", v.key, err)
		}
		encoded[v.key] = raw
	}
	if err := batch.SetMany(ctx, encoded); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// ReadyContents returns the extracted content of every Ready source in registry order.
func (s *State) ReadyContents() []content.ExtractedContent {
	var out []content.ExtractedContent
	for _, addr := range s.Registry.ReadyAddresses() {
		if c, ok := s.Contents[addr]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ChatEnabled reports whether a message may be sent.
func (s *State) ChatEnabled() bool {
	return s.Registry.ChatEnabled()
}

// AppendTurn records a turn at the end of the history.
func (s *State) AppendTurn(t conversation.Turn) {
	s.History = append(s.History, t)
}

// ClearHistory drops every turn.
func (s *State) ClearHistory() {
	s.History = nil
}

func getJSON(ctx context.Context, kv store.KV, key string, dst any) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func getValidated(ctx context.Context, kv store.KV, key, schema string, dst any, logger *zap.Logger) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := schemas.Validate(schema, string(raw)); err != nil {
		logger.Warn("discarding invalid persisted value", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn("discarding undecodable persisted value", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func setJSON(ctx context.Context, kv store.KV, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/site-assistant/internal/acquire"
	"github.com/jonathan/site-assistant/internal/content"
	"github.com/jonathan/site-assistant/internal/source"
	"github.com/jonathan/site-assistant/internal/store"
)

// ErrSourceNotFound is returned when an operation names an untracked address.
var ErrSourceNotFound = source.ErrNotFound

// Discoverer finds related addresses for a source.
type Discoverer interface {
	Discover(ctx context.Context, base string, known func(string) bool) ([]string, error)
}

// Manager applies registry changes to a session and persists each one.
type Manager struct {
	State      *State
	Store      store.KV
	Fetcher    acquire.Fetcher
	Discoverer Discoverer // Optional; discovery is skipped when nil
	Logger     *zap.Logger
}

// AddResult reports the outcome of AddSource.
type AddResult struct {
	Source       source.Source
	Content      *content.ExtractedContent
	Discovered   []string
	DiscoveryErr error // Non-fatal
}

// AddSource validates and tracks address, fetches it, and on success marks it Ready.
// Adding a primary source clears the chat history since the knowledge base changed.
// A fetch failure marks the source Failed and is returned. Discovery runs after a
// successful fetch and its failure never affects the source.
func (m *Manager) AddSource(ctx context.Context, address string, primary bool) (*AddResult, error) {
	logger := m.logger()
	address = strings.TrimSpace(address)
	if err := source.Validate(address); err != nil {
		return nil, err
	}
	address = source.Normalize(address)

	src, err := m.State.Registry.Add(address)
	if err != nil {
		return nil, err
	}
	if err := m.save(ctx); err != nil {
		return nil, err
	}
	result := &AddResult{Source: src}

	extracted, err := m.Fetcher.Fetch(ctx, address)
	if err != nil {
		if uerr := m.State.Registry.UpdateStatus(address, source.StatusFailed); uerr != nil {
			logger.Warn("failed to mark source failed", zap.String("url", address), zap.Error(uerr))
		}
		result.Source, _ = m.State.Registry.Get(address)
		if serr := m.save(ctx); serr != nil {
			return result, errors.Join(err, serr)
		}
		return result, err
	}

	m.State.Contents[address] = *extracted
	if err := m.State.Registry.UpdateStatus(address, source.StatusReady); err != nil {
		return result, err
	}
	if primary {
		m.State.ClearHistory()
	}
	result.Source, _ = m.State.Registry.Get(address)
	result.Content = extracted
	if err := m.save(ctx); err != nil {
		return result, err
	}
	logger.Info("source ready", zap.String("url", address), zap.String("strategy", extracted.Strategy))

	if m.Discoverer != nil {
		result.Discovered, result.DiscoveryErr = m.discover(ctx, address)
		if result.DiscoveryErr != nil {
			logger.Warn("sitemap discovery failed", zap.String("url", address), zap.Error(result.DiscoveryErr))
		}
	}
	return result, nil
}

// Discover runs sitemap discovery for an already tracked address and tracks what it finds.
func (m *Manager) Discover(ctx context.Context, address string) ([]string, error) {
	address = source.Normalize(address)
	if !m.State.Registry.Has(address) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, address)
	}
	if m.Discoverer == nil {
		return nil, nil
	}
	return m.discover(ctx, address)
}

func (m *Manager) discover(ctx context.Context, address string) ([]string, error) {
	found, err := m.Discoverer.Discover(ctx, address, m.State.Registry.Has)
	if err != nil {
		return nil, err
	}

	var added []string
	for _, u := range found {
		src, err := m.State.Registry.AddDiscovered(u)
		if err != nil {
			m.logger().Debug("skipping discovered address", zap.String("url", u), zap.Error(err))
			continue
		}
		added = append(added, src.Address)
	}
	if len(added) == 0 {
		return nil, nil
	}
	return added, m.save(ctx)
}

// RemoveSource stops tracking address. Removing the last source clears the history
// and every cached content, which disables chat.
func (m *Manager) RemoveSource(ctx context.Context, address string) (source.RemoveResult, error) {
	address = source.Normalize(strings.TrimSpace(address))
	result, err := m.State.Registry.Remove(address)
	if err != nil {
		return result, err
	}

	delete(m.State.Contents, address)
	if result.Empty {
		m.State.ClearHistory()
		m.State.Contents = make(map[string]content.ExtractedContent)
	}
	return result, m.save(ctx)
}

// Reset drops every source, the history and cached content. The credential is kept.
func (m *Manager) Reset(ctx context.Context) error {
	m.State.Registry.Reset()
	m.State.ClearHistory()
	m.State.Contents = make(map[string]content.ExtractedContent)
	return m.save(ctx)
}

func (m *Manager) save(ctx context.Context) error {
	return m.State.Save(ctx, m.Store)
}

func (m *Manager) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

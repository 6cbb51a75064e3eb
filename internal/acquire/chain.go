// Package acquire retrieves third-party pages through an ordered chain of structurally
// different channels, stopping at the first one that yields readable content.
package acquire

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/site-assistant/internal/content"
)

// Strategy is one retrieval channel.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, address string) (*content.ExtractedContent, error)
}

// Fetcher is what callers of the chain depend on.
type Fetcher interface {
	Fetch(ctx context.Context, address string) (*content.ExtractedContent, error)
}

// Chain tries its strategies strictly in order, never in parallel.
// Concurrent fetches of the same address share one run.
type Chain struct {
	strategies []Strategy
	logger     *zap.Logger
	group      singleflight.Group
}

// NewChain creates a chain over strategies in the given order.
func NewChain(logger *zap.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{strategies: strategies, logger: logger}
}

// Strategies returns the strategy names in attempt order.
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Fetch returns the content of address from the first strategy that succeeds.
// It fails with *UnreachableSourceError only after every strategy was attempted.
func (c *Chain) Fetch(ctx context.Context, address string) (*content.ExtractedContent, error) {
	v, err, shared := c.group.Do(address, func() (any, error) {
		return c.run(ctx, address)
	})
	if shared {
		c.logger.Debug("joined in-flight fetch", zap.String("url", address))
	}
	if err != nil {
		return nil, err
	}
	return v.(*content.ExtractedContent), nil
}

func (c *Chain) run(ctx context.Context, address string) (*content.ExtractedContent, error) {
	exhausted := &UnreachableSourceError{URL: address}

	for _, strategy := range c.strategies {
		if err := ctx.Err(); err != nil {
			exhausted.Last = err
			break
		}

		name := strategy.Name()
		exhausted.Attempts = append(exhausted.Attempts, name)
		c.logger.Debug("trying strategy", zap.String("strategy", name), zap.String("url", address))

		extracted, err := strategy.Fetch(ctx, address)
		if err == nil && extracted != nil {
			extracted.URL = address
			extracted.Strategy = name
			c.logger.Info("fetched source",
				zap.String("strategy", name),
				zap.String("url", address),
				zap.String("title", extracted.Title))
			return extracted, nil
		}
		if err == nil {
			err = ErrEmptyContent
		}

		c.logger.Warn("strategy failed",
			zap.String("strategy", name),
			zap.String("url", address),
			zap.Error(err))
		exhausted.Last = err
	}

	c.logger.Error("all strategies exhausted",
		zap.String("url", address),
		zap.Strings("attempts", exhausted.Attempts),
		zap.Error(exhausted.Last))
	return nil, exhausted
}

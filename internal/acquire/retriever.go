package acquire

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/site-assistant/internal/fetch"
)

// RelayRetriever fetches raw documents (sitemaps, robots.txt) through the same relays the
// chain uses, then directly as a last resort.
type RelayRetriever struct {
	Endpoints []string
	Direct    bool
	Options   *fetch.Options
	Logger    *zap.Logger
}

// NewRelayRetriever creates a retriever over the configured aggregator and relays.
func NewRelayRetriever(cfg *Config, logger *zap.Logger) *RelayRetriever {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := fetch.DefaultOptions()
	if cfg.HTTPTimeout > 0 {
		opts.Timeout = cfg.HTTPTimeout
	}
	var endpoints []string
	if cfg.AggregatorEndpoint != "" {
		endpoints = append(endpoints, cfg.AggregatorEndpoint)
	}
	endpoints = append(endpoints, cfg.RelayEndpoints...)
	return &RelayRetriever{Endpoints: endpoints, Direct: true, Options: opts, Logger: logger}
}

// Retrieve returns the body of target from the first channel that answers with 2xx.
func (r *RelayRetriever) Retrieve(ctx context.Context, target string) (string, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for _, endpoint := range r.Endpoints {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		result, err := fetch.URL(ctx, fetch.RelayURL(endpoint, target), r.Options)
		if err == nil {
			var body string
			if body, err = fetch.UnwrapRelayBody(result.Body); err == nil {
				return body, nil
			}
		}
		logger.Debug("relay retrieval failed", zap.String("relay", endpoint), zap.String("url", target), zap.Error(err))
		lastErr = err
	}

	if r.Direct {
		result, err := fetch.URL(ctx, target, r.Options)
		if err == nil {
			return result.Body, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no retrieval channel configured")
	}
	return "", fmt.Errorf("failed to retrieve %s: %w", target, lastErr)
}

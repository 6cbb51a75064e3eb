package acquire

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/site-assistant/internal/content"
	"github.com/jonathan/site-assistant/internal/fetch"
)

// fetchThrough requests address through a relay endpoint and extracts the returned page.
func fetchThrough(ctx context.Context, endpoint, address string, opts *fetch.Options) (*content.ExtractedContent, error) {
	result, err := fetch.URL(ctx, fetch.RelayURL(endpoint, address), opts)
	if err != nil {
		return nil, err
	}
	body, err := fetch.UnwrapRelayBody(result.Body)
	if err != nil {
		return nil, err
	}
	return extractBody(body)
}

func extractBody(body string) (*content.ExtractedContent, error) {
	extracted, err := content.ParseHTML(body)
	if err != nil {
		return nil, err
	}
	if extracted.IsEmpty() {
		return nil, ErrEmptyContent
	}
	return extracted, nil
}

// AggregatorStrategy asks a content-mirroring relay for the raw page.
type AggregatorStrategy struct {
	Endpoint string
	Options  *fetch.Options
}

// Name implements Strategy.
func (s *AggregatorStrategy) Name() string { return "aggregator" }

// Fetch implements Strategy.
func (s *AggregatorStrategy) Fetch(ctx context.Context, address string) (*content.ExtractedContent, error) {
	return fetchThrough(ctx, s.Endpoint, address, s.Options)
}

// RelayStrategy tries interchangeable CORS relays in order.
type RelayStrategy struct {
	Endpoints []string
	Options   *fetch.Options
	Logger    *zap.Logger
}

// Name implements Strategy.
func (s *RelayStrategy) Name() string { return "relay" }

// Fetch returns the first relay response that parses into readable content.
func (s *RelayStrategy) Fetch(ctx context.Context, address string) (*content.ExtractedContent, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(s.Endpoints) == 0 {
		return nil, fmt.Errorf("no relay endpoints configured")
	}

	var lastErr error
	for _, endpoint := range s.Endpoints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		extracted, err := fetchThrough(ctx, endpoint, address, s.Options)
		if err == nil {
			return extracted, nil
		}
		logger.Debug("relay failed", zap.String("relay", endpoint), zap.String("url", address), zap.Error(err))
		lastErr = err
	}
	return nil, fmt.Errorf("all %d relays failed: %w", len(s.Endpoints), lastErr)
}

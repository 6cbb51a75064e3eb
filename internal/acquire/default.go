package acquire

import (
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/site-assistant/internal/fetch"
)

// Config selects and parameterizes the strategies of the default chain.
type Config struct {
	AggregatorEndpoint string
	RelayEndpoints     []string
	SnapshotEndpoint   string
	HTTPTimeout        time.Duration
	FrameTimeout       time.Duration
	UseBrowser         bool
	MetadataFallback   bool
}

// DefaultConfig returns the public relays and services the assistant uses out of the box.
func DefaultConfig() *Config {
	return &Config{
		AggregatorEndpoint: "https://api.allorigins.win/get?url=",
		RelayEndpoints: []string{
			"https://corsproxy.io/?url=",
			"https://api.codetabs.com/v1/proxy?quest=",
			"https://thingproxy.freeboard.io/fetch/",
		},
		SnapshotEndpoint: "https://archive.org/wayback/available?url=",
		HTTPTimeout:      fetch.DefaultTimeout,
		FrameTimeout:     DefaultFrameTimeout,
		UseBrowser:       true,
		MetadataFallback: true,
	}
}

// NewDefaultChain builds the chain in its fixed order: aggregator, relays, isolated frame,
// metadata derivation, cached snapshot. Strategies without configuration are left out.
// A nil renderer falls back to headless Chrome.
func NewDefaultChain(cfg *Config, renderer fetch.Renderer, logger *zap.Logger) *Chain {
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

	var strategies []Strategy
	if cfg.AggregatorEndpoint != "" {
		strategies = append(strategies, &AggregatorStrategy{Endpoint: cfg.AggregatorEndpoint, Options: opts})
	}
	if len(cfg.RelayEndpoints) > 0 {
		strategies = append(strategies, &RelayStrategy{Endpoints: cfg.RelayEndpoints, Options: opts, Logger: logger})
	}
	if cfg.UseBrowser {
		if renderer == nil {
			renderer = fetch.NewChromeRenderer(logger)
		}
		strategies = append(strategies, &FrameStrategy{
			Renderer: renderer,
			Timeout:  cfg.FrameTimeout,
			Options:  opts,
			Logger:   logger,
		})
	}
	if cfg.MetadataFallback {
		strategies = append(strategies, &MetadataStrategy{})
	}
	if cfg.SnapshotEndpoint != "" {
		strategies = append(strategies, &SnapshotStrategy{Endpoint: cfg.SnapshotEndpoint, Options: opts})
	}

	return NewChain(logger, strategies...)
}

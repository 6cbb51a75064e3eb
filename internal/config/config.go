// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/site-assistant/internal/acquire"
	"github.com/jonathan/site-assistant/internal/conversation"
	"github.com/jonathan/site-assistant/internal/llm"
	"github.com/jonathan/site-assistant/internal/sitemap"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, then environment and CLI flags win.
type Config struct {
	// Storage; DatabaseURL replaces the state file when set.
	StatePath   string `json:"state_path,omitempty"`
	DatabaseURL string `json:"database_url,omitempty" validate:"omitempty,url"`

	// Model; Model overrides the model name of the selected tier.
	APIKey      string   `json:"api_key,omitempty"`
	ModelTier   string   `json:"model_tier,omitempty" validate:"omitempty,oneof=lite standard advanced"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`

	// Acquisition; UseBrowser enables the headless frame strategy and MetadataFallback
	// derives content from the address as a last resort.
	AggregatorEndpoint     string   `json:"aggregator_endpoint,omitempty" validate:"omitempty,url"`
	RelayEndpoints         []string `json:"relay_endpoints,omitempty" validate:"dive,url"`
	SnapshotEndpoint       string   `json:"snapshot_endpoint,omitempty" validate:"omitempty,url"`
	SitemapServiceEndpoint string   `json:"sitemap_service_endpoint,omitempty" validate:"omitempty,url"`
	FrameTimeout           Duration `json:"frame_timeout,omitempty" validate:"gte=0"`
	HTTPTimeout            Duration `json:"http_timeout,omitempty" validate:"gte=0"`
	UseBrowser             *bool    `json:"use_browser,omitempty"`
	MetadataFallback       *bool    `json:"metadata_fallback,omitempty"`

	// Conversation
	ContentMode      string `json:"content_mode,omitempty" validate:"omitempty,oneof=inline retrieval"`
	KnowledgeStoreID string `json:"knowledge_store_id,omitempty"`
	HistoryLimit     int    `json:"history_limit,omitempty" validate:"gte=0,lte=4"`
	MaxDiscovered    int    `json:"max_discovered,omitempty" validate:"gte=0,lte=3"`
	RenderMarkdown   bool   `json:"render_markdown,omitempty"`

	Verbose bool `json:"verbose,omitempty"`
}

// Duration is a time.Duration that reads "15s" style strings or plain seconds from JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("duration must be a string like \"15s\" or a number of seconds")
	}
	*d = Duration(time.Duration(seconds * float64(time.Second)))
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Defaults returns the configuration used when nothing else is specified.
func Defaults() Config {
	acq := acquire.DefaultConfig()
	temperature := 0.7
	useBrowser := true
	metadata := true

	statePath := ".site-assistant/state.json"
	if home, err := os.UserHomeDir(); err == nil {
		statePath = filepath.Join(home, ".site-assistant", "state.json")
	}

	return Config{
		StatePath:          statePath,
		ModelTier:          string(llm.TierStandard),
		Temperature:        &temperature,
		AggregatorEndpoint: acq.AggregatorEndpoint,
		RelayEndpoints:     acq.RelayEndpoints,
		SnapshotEndpoint:   acq.SnapshotEndpoint,
		FrameTimeout:       Duration(acq.FrameTimeout),
		HTTPTimeout:        Duration(acq.HTTPTimeout),
		UseBrowser:         &useBrowser,
		MetadataFallback:   &metadata,
		ContentMode:        string(conversation.ModeInline),
		HistoryLimit:       conversation.DefaultHistoryLimit,
		MaxDiscovered:      sitemap.DefaultLimit,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks field formats and ranges, then cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.ContentMode == string(conversation.ModeRetrieval) && c.KnowledgeStoreID == "" {
		return fmt.Errorf("config error: 'knowledge_store_id' is required when 'content_mode' is retrieval")
	}
	if c.AggregatorEndpoint == "" && len(c.RelayEndpoints) == 0 && c.SnapshotEndpoint == "" &&
		!c.BrowserEnabled() && !c.MetadataFallbackEnabled() {
		return fmt.Errorf("config error: every fetch strategy is disabled")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.StatePath == "" {
		result.StatePath = defaults.StatePath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.ModelTier == "" {
		result.ModelTier = defaults.ModelTier
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.AggregatorEndpoint == "" {
		result.AggregatorEndpoint = defaults.AggregatorEndpoint
	}
	if len(result.RelayEndpoints) == 0 {
		result.RelayEndpoints = defaults.RelayEndpoints
	}
	if result.SnapshotEndpoint == "" {
		result.SnapshotEndpoint = defaults.SnapshotEndpoint
	}
	if result.SitemapServiceEndpoint == "" {
		result.SitemapServiceEndpoint = defaults.SitemapServiceEndpoint
	}
	if result.ContentMode == "" {
		result.ContentMode = defaults.ContentMode
	}
	if result.KnowledgeStoreID == "" {
		result.KnowledgeStoreID = defaults.KnowledgeStoreID
	}

	// Numeric fields: use default if zero
	if result.FrameTimeout == 0 {
		result.FrameTimeout = defaults.FrameTimeout
	}
	if result.HTTPTimeout == 0 {
		result.HTTPTimeout = defaults.HTTPTimeout
	}
	if result.HistoryLimit == 0 {
		result.HistoryLimit = defaults.HistoryLimit
	}
	if result.MaxDiscovered == 0 {
		result.MaxDiscovered = defaults.MaxDiscovered
	}

	// Pointer fields distinguish unset from an explicit zero or false
	if result.Temperature == nil {
		result.Temperature = defaults.Temperature
	}
	if result.UseBrowser == nil {
		result.UseBrowser = defaults.UseBrowser
	}
	if result.MetadataFallback == nil {
		result.MetadataFallback = defaults.MetadataFallback
	}

	// Plain bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags and env should always win for bools)

	return result
}

// ApplyEnv overlays values set in the environment.
func (c *Config) ApplyEnv() {
	c.APIKey = getEnvString("GEMINI_API_KEY", c.APIKey)
	c.DatabaseURL = getEnvString("DATABASE_URL", c.DatabaseURL)
	c.StatePath = getEnvString("SITE_ASSISTANT_STATE", c.StatePath)
	c.ModelTier = getEnvString("SITE_ASSISTANT_MODEL_TIER", c.ModelTier)
	c.Model = getEnvString("SITE_ASSISTANT_MODEL", c.Model)
	c.ContentMode = getEnvString("SITE_ASSISTANT_CONTENT_MODE", c.ContentMode)
	c.KnowledgeStoreID = getEnvString("SITE_ASSISTANT_KNOWLEDGE_STORE_ID", c.KnowledgeStoreID)
	c.SitemapServiceEndpoint = getEnvString("SITE_ASSISTANT_SITEMAP_SERVICE", c.SitemapServiceEndpoint)
	if relays := getEnvString("SITE_ASSISTANT_RELAYS", ""); relays != "" {
		c.RelayEndpoints = splitList(relays)
	}
	c.FrameTimeout = Duration(getEnvDuration("SITE_ASSISTANT_FRAME_TIMEOUT", time.Duration(c.FrameTimeout)))
	c.HTTPTimeout = Duration(getEnvDuration("SITE_ASSISTANT_HTTP_TIMEOUT", time.Duration(c.HTTPTimeout)))
	c.HistoryLimit = getEnvInt("SITE_ASSISTANT_HISTORY_LIMIT", c.HistoryLimit)
	if _, ok := os.LookupEnv("SITE_ASSISTANT_USE_BROWSER"); ok {
		v := getEnvBool("SITE_ASSISTANT_USE_BROWSER", c.BrowserEnabled())
		c.UseBrowser = &v
	}
	c.RenderMarkdown = getEnvBool("SITE_ASSISTANT_RENDER_MARKDOWN", c.RenderMarkdown)
	c.Verbose = getEnvBool("SITE_ASSISTANT_VERBOSE", c.Verbose)
}

// BrowserEnabled reports whether the isolated-frame strategy runs.
func (c *Config) BrowserEnabled() bool {
	return c.UseBrowser != nil && *c.UseBrowser
}

// MetadataFallbackEnabled reports whether address-derived content is allowed.
func (c *Config) MetadataFallbackEnabled() bool {
	return c.MetadataFallback != nil && *c.MetadataFallback
}

// TemperatureValue returns the sampling temperature, 0.7 when unset.
func (c *Config) TemperatureValue() float32 {
	if c.Temperature == nil {
		return 0.7
	}
	return float32(*c.Temperature)
}

// AcquireConfig maps the acquisition fields onto the fetch chain's configuration.
func (c *Config) AcquireConfig() *acquire.Config {
	return &acquire.Config{
		AggregatorEndpoint: c.AggregatorEndpoint,
		RelayEndpoints:     c.RelayEndpoints,
		SnapshotEndpoint:   c.SnapshotEndpoint,
		HTTPTimeout:        time.Duration(c.HTTPTimeout),
		FrameTimeout:       time.Duration(c.FrameTimeout),
		UseBrowser:         c.BrowserEnabled(),
		MetadataFallback:   c.MetadataFallbackEnabled(),
	}
}

func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

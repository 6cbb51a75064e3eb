package sitemap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/jonathan/site-assistant/internal/fetch"
	"github.com/jonathan/site-assistant/internal/schemas"
)

// envelope is the response of a sitemap-parsing service.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    *struct {
		Type     Kind     `json:"type"`
		URLs     []xmlLoc `json:"urls"`
		Sitemaps []xmlLoc `json:"sitemaps"`
	} `json:"data,omitempty"`
}

// ServiceClient asks a remote sitemap parser for a sitemap instead of reading raw XML.
type ServiceClient struct {
	Endpoint string // Receives the escaped sitemap URL appended, e.g. "https://svc/parse?url="
	Options  *fetch.Options
}

// Load fetches and validates the envelope for sitemapURL.
func (c *ServiceClient) Load(ctx context.Context, sitemapURL string) (*Document, error) {
	result, err := fetch.URL(ctx, c.Endpoint+url.QueryEscape(sitemapURL), c.Options)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(result.Body)
}

func decodeEnvelope(body string) (*Document, error) {
	if err := schemas.Validate(schemas.SitemapEnvelope, body); err != nil {
		return nil, fmt.Errorf("invalid sitemap envelope: %w", err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, fmt.Errorf("failed to decode sitemap envelope: %w", err)
	}
	if !env.Success || env.Data == nil {
		return nil, fmt.Errorf("sitemap service reported failure: %s", env.Error)
	}

	return &Document{
		Kind:     env.Data.Type,
		URLs:     locs(env.Data.URLs),
		Sitemaps: locs(env.Data.Sitemaps),
	}, nil
}

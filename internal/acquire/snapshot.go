package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/jonathan/site-assistant/internal/content"
	"github.com/jonathan/site-assistant/internal/fetch"
)

// availabilityResponse mirrors the Wayback Machine availability API.
type availabilityResponse struct {
	ArchivedSnapshots struct {
		Closest *struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
			Timestamp string `json:"timestamp"`
			Status    string `json:"status"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// SnapshotStrategy asks a cached-page service for a historical copy and extracts it.
type SnapshotStrategy struct {
	Endpoint string
	Options  *fetch.Options
}

// Name implements Strategy.
func (s *SnapshotStrategy) Name() string { return "snapshot" }

// Fetch implements Strategy.
func (s *SnapshotStrategy) Fetch(ctx context.Context, address string) (*content.ExtractedContent, error) {
	result, err := fetch.URL(ctx, s.Endpoint+url.QueryEscape(address), s.Options)
	if err != nil {
		return nil, err
	}

	var availability availabilityResponse
	if err := json.Unmarshal([]byte(result.Body), &availability); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot availability: %w", err)
	}
	closest := availability.ArchivedSnapshots.Closest
	if closest == nil || !closest.Available || closest.URL == "" {
		return nil, ErrNoSnapshot
	}

	page, err := fetch.URL(ctx, closest.URL, s.Options)
	if err != nil {
		return nil, err
	}
	return extractBody(page.Body)
}

package acquire

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/site-assistant/internal/content"
)

// MetadataStrategy derives a low-fidelity record from the address alone. It never touches the
// network and succeeds for any URL with a host.
type MetadataStrategy struct{}

// Name implements Strategy.
func (s *MetadataStrategy) Name() string { return "metadata" }

// Fetch implements Strategy.
func (s *MetadataStrategy) Fetch(_ context.Context, address string) (*content.ExtractedContent, error) {
	return DeriveFromURL(address)
}

// DeriveFromURL guesses a title from the last path slug and lists the path segments as headings.
func DeriveFromURL(address string) (*content.ExtractedContent, error) {
	parsed, err := url.Parse(address)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("cannot derive metadata from %q", address)
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	var segments []string
	for _, seg := range strings.Split(parsed.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	title := host
	headings := []string{host}
	for _, seg := range segments {
		headings = append(headings, slugTitle(seg))
	}
	if len(segments) > 0 {
		title = slugTitle(segments[len(segments)-1])
	}

	pagePath := parsed.Path
	if pagePath == "" {
		pagePath = "/"
	}

	return &content.ExtractedContent{
		Title:       title,
		Description: fmt.Sprintf("Page on %s. Its content could not be retrieved; details are inferred from the address.", host),
		Headings:    headings,
		BodyText:    []string{"Domain: " + host, "Path: " + pagePath},
		FullText:    host + pagePath,
	}, nil
}

var titleCaser = cases.Title(language.English)

// slugTitle turns "getting-started_guide.html" into "Getting Started Guide".
func slugTitle(slug string) string {
	if unescaped, err := url.PathUnescape(slug); err == nil {
		slug = unescaped
	}
	slug = strings.TrimSuffix(slug, path.Ext(slug))
	slug = strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(slug)
	return titleCaser.String(strings.Join(strings.Fields(slug), " "))
}

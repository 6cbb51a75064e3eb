package sitemap

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/site-assistant/internal/source"
)

// ErrSitemapUnavailable is returned when no sitemap could be located or read.
var ErrSitemapUnavailable = errors.New("sitemap unavailable")

// DefaultLimit caps how many new addresses one discovery may return. A larger Limit is clamped to it.
const DefaultLimit = 3

// DefaultPaths are the conventional sitemap locations, tried in order.
var DefaultPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap-index.xml",
	"/sitemap1.xml",
	"/wp-sitemap.xml",
	"/sitemap/sitemap.xml",
}

// Retriever returns the raw body of a document, through relays if needed.
type Retriever interface {
	Retrieve(ctx context.Context, target string) (string, error)
}

// Discoverer finds related addresses for a base address.
type Discoverer struct {
	Retriever Retriever
	Service   *ServiceClient // Optional; replaces raw XML parsing when set
	Limit     int
	Paths     []string
	Logger    *zap.Logger
}

// NewDiscoverer creates a discoverer with the default paths and limit.
func NewDiscoverer(retriever Retriever, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{
		Retriever: retriever,
		Limit:     DefaultLimit,
		Paths:     DefaultPaths,
		Logger:    logger,
	}
}

// Discover returns up to Limit normalized content addresses from the site's sitemap. It never
// returns the base address, an address known reports as tracked, or an address ending in .xml.
// A sitemap that yields no new address is reported as ErrSitemapUnavailable.
func (d *Discoverer) Discover(ctx context.Context, base string, known func(string) bool) ([]string, error) {
	logger := d.logger()
	base = source.Normalize(base)

	origin, err := originOf(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSitemapUnavailable, err)
	}

	doc, sitemapURL, err := d.locate(ctx, origin)
	if err != nil {
		return nil, err
	}
	logger.Debug("sitemap located", zap.String("sitemap", sitemapURL), zap.String("kind", string(doc.Kind)))

	if doc.Kind == KindIndex {
		if len(doc.Sitemaps) == 0 {
			return nil, fmt.Errorf("%w: empty sitemap index at %s", ErrSitemapUnavailable, sitemapURL)
		}
		child := doc.Sitemaps[0]
		doc, err = d.load(ctx, child)
		if err != nil {
			return nil, fmt.Errorf("%w: child sitemap %s: %v", ErrSitemapUnavailable, child, err)
		}
		sitemapURL = child
	}

	found := d.collect(doc.URLs, base, known)
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s lists no new addresses", ErrSitemapUnavailable, sitemapURL)
	}
	logger.Info("sitemap discovery finished",
		zap.String("base", base),
		zap.String("sitemap", sitemapURL),
		zap.Int("found", len(found)))
	return found, nil
}

// locate tries the conventional paths, then the robots.txt Sitemap: directives.
func (d *Discoverer) locate(ctx context.Context, origin string) (*Document, string, error) {
	logger := d.logger()
	paths := d.Paths
	if len(paths) == 0 {
		paths = DefaultPaths
	}

	var lastErr error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		candidate := origin + p
		doc, err := d.load(ctx, candidate)
		if err == nil {
			return doc, candidate, nil
		}
		logger.Debug("sitemap candidate failed", zap.String("sitemap", candidate), zap.Error(err))
		lastErr = err
	}

	robotsBody, err := d.Retriever.Retrieve(ctx, origin+robotsTxtPath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: no sitemap at conventional paths (%v) and robots.txt unavailable: %v",
			ErrSitemapUnavailable, lastErr, err)
	}
	declared, err := SitemapsFromRobots(robotsBody)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrSitemapUnavailable, err)
	}
	for _, candidate := range declared {
		doc, err := d.load(ctx, candidate)
		if err == nil {
			return doc, candidate, nil
		}
		logger.Debug("robots sitemap failed", zap.String("sitemap", candidate), zap.Error(err))
		lastErr = err
	}

	return nil, "", fmt.Errorf("%w: %d conventional paths and %d robots.txt entries failed (last: %v)",
		ErrSitemapUnavailable, len(paths), len(declared), lastErr)
}

func (d *Discoverer) load(ctx context.Context, sitemapURL string) (*Document, error) {
	if d.Service != nil {
		return d.Service.Load(ctx, sitemapURL)
	}
	body, err := d.Retriever.Retrieve(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	return Parse(body)
}

func (d *Discoverer) collect(candidates []string, base string, known func(string) bool) []string {
	limit := d.Limit
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}

	seen := make(map[string]bool)
	var out []string
	for _, candidate := range candidates {
		if len(out) >= limit {
			break
		}
		candidate = strings.TrimSpace(candidate)
		normalized := source.Normalize(candidate)
		switch {
		case !source.IsValidURL(candidate):
		case normalized == base:
		case strings.HasSuffix(strings.ToLower(normalized), ".xml"):
		case seen[normalized]:
		case known != nil && (known(candidate) || known(normalized)):
		default:
			seen[normalized] = true
			out = append(out, normalized)
		}
	}
	return out
}

func (d *Discoverer) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// originOf returns scheme://host of address.
func originOf(address string) (string, error) {
	parsed, err := url.Parse(address)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid base address %q", address)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

package sitemap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapRetriever struct {
	docs     map[string]string
	requests []string
}

func (m *mapRetriever) Retrieve(_ context.Context, target string) (string, error) {
	m.requests = append(m.requests, target)
	if body, ok := m.docs[target]; ok {
		return body, nil
	}
	return "", errors.New("HTTP status 404")
}

func urlset(locs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, loc := range locs {
		fmt.Fprintf(&sb, "<url><loc>%s</loc></url>", loc)
	}
	sb.WriteString("</urlset>")
	return sb.String()
}

func TestDiscover_LeafSitemapFilters(t *testing.T) {
	r := &mapRetriever{docs: map[string]string{
		"https://a.com/sitemap.xml": urlset(
			"https://a.com/",
			"https://a.com/known",
			"https://a.com/feed.xml",
			"https://a.com/one",
			"https://a.com/one/",
			"not a url",
			"https://a.com/two",
			"https://a.com/three",
			"https://a.com/four",
		),
	}}
	d := NewDiscoverer(r, nil)

	known := func(addr string) bool { return addr == "https://a.com/known" }
	found, err := d.Discover(context.Background(), "https://a.com/", known)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com/one", "https://a.com/two", "https://a.com/three"}, found)
}

func TestDiscover_ReturnsNormalizedAddresses(t *testing.T) {
	r := &mapRetriever{docs: map[string]string{
		"https://a.com/sitemap.xml": urlset("https://a.com/about/", "https://a.com/team/"),
	}}
	d := NewDiscoverer(r, nil)

	found, err := d.Discover(context.Background(), "https://a.com", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com/about", "https://a.com/team"}, found)
}

func TestDiscover_IndexRecursesIntoFirstChild(t *testing.T) {
	r := &mapRetriever{docs: map[string]string{
		"https://a.com/sitemap_index.xml": `<sitemapindex><sitemap><loc>https://a.com/posts.xml</loc></sitemap><sitemap><loc>https://a.com/pages.xml</loc></sitemap></sitemapindex>`,
		"https://a.com/posts.xml":         urlset("https://a.com/posts.xml", "https://a.com/post-1", "https://a.com/sub-sitemap.xml"),
		"https://a.com/pages.xml":         urlset("https://a.com/never"),
	}}
	d := NewDiscoverer(r, nil)

	found, err := d.Discover(context.Background(), "https://a.com", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com/post-1"}, found)
	assert.NotContains(t, r.requests, "https://a.com/pages.xml")
}

func TestDiscover_RobotsFallback(t *testing.T) {
	r := &mapRetriever{docs: map[string]string{
		"https://a.com/robots.txt":    "User-agent: *\nAllow: /\nSitemap: https://a.com/maps/main.xml\n",
		"https://a.com/maps/main.xml": urlset("https://a.com/docs"),
	}}
	d := NewDiscoverer(r, nil)

	found, err := d.Discover(context.Background(), "https://a.com/docs/start", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com/docs"}, found)
	assert.Equal(t, "https://a.com/sitemap.xml", r.requests[0])
}

func TestDiscover_Unavailable(t *testing.T) {
	d := NewDiscoverer(&mapRetriever{docs: map[string]string{}}, nil)

	_, err := d.Discover(context.Background(), "https://a.com", nil)
	assert.ErrorIs(t, err, ErrSitemapUnavailable)

	_, err = d.Discover(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrSitemapUnavailable)
}

func TestDiscover_NothingNewIsUnavailable(t *testing.T) {
	r := &mapRetriever{docs: map[string]string{
		"https://a.com/sitemap.xml": urlset("https://a.com/", "https://a.com/known", "https://a.com/feed.xml"),
	}}
	d := NewDiscoverer(r, nil)

	known := func(addr string) bool { return addr == "https://a.com/known" }
	found, err := d.Discover(context.Background(), "https://a.com", known)
	assert.ErrorIs(t, err, ErrSitemapUnavailable)
	assert.Empty(t, found)
}

func TestDiscover_HonorsLimit(t *testing.T) {
	r := &mapRetriever{docs: map[string]string{
		"https://a.com/sitemap.xml": urlset("https://a.com/1", "https://a.com/2", "https://a.com/3"),
	}}
	d := NewDiscoverer(r, nil)
	d.Limit = 1

	found, err := d.Discover(context.Background(), "https://a.com", nil)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestDiscover_ClampsLargeLimit(t *testing.T) {
	r := &mapRetriever{docs: map[string]string{
		"https://a.com/sitemap.xml": urlset("https://a.com/1", "https://a.com/2", "https://a.com/3", "https://a.com/4", "https://a.com/5"),
	}}
	d := NewDiscoverer(r, nil)
	d.Limit = 50

	found, err := d.Discover(context.Background(), "https://a.com", nil)
	require.NoError(t, err)
	assert.Len(t, found, DefaultLimit)
}

func TestDiscover_ThroughService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("url") {
		case "https://a.com/sitemap.xml":
			_, _ = w.Write([]byte(`{"success": true, "data": {"type": "standard_sitemap", "urls": [{"loc": "https://a.com/x"}, {"loc": "https://a.com/y.xml"}]}}`))
		default:
			_, _ = w.Write([]byte(`{"success": false, "error": "not found"}`))
		}
	}))
	defer server.Close()

	d := NewDiscoverer(&mapRetriever{}, nil)
	d.Service = &ServiceClient{Endpoint: server.URL + "/parse?url="}

	found, err := d.Discover(context.Background(), "https://a.com", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com/x"}, found)
}

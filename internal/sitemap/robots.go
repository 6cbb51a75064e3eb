package sitemap

import (
	"fmt"

	"github.com/temoto/robotstxt"
)

// robotsTxtPath is the well-known path for robots.txt files.
const robotsTxtPath = "/robots.txt"

// SitemapsFromRobots returns the Sitemap: directives of a robots.txt body in file order.
func SitemapsFromRobots(body string) ([]string, error) {
	data, err := robotstxt.FromString(body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data.Sitemaps, nil
}

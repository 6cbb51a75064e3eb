// Package sitemap discovers pages related to a source by reading the site's sitemap.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Kind distinguishes a leaf sitemap from a sitemap index.
type Kind string

const (
	// KindLeaf lists content addresses (<urlset>)
	KindLeaf Kind = "standard_sitemap"
	// KindIndex lists other sitemaps (<sitemapindex>)
	KindIndex Kind = "sitemap_index"
)

// Document is a parsed sitemap of either kind.
type Document struct {
	Kind     Kind
	URLs     []string // Content addresses, for KindLeaf
	Sitemaps []string // Child sitemap addresses, for KindIndex
}

// xmlURLSet is the root element of a standard sitemap XML file.
type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []xmlLoc `xml:"url"`
}

// xmlSitemapIndex is the root element of a sitemap index XML file.
type xmlSitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []xmlLoc `xml:"sitemap"`
}

type xmlLoc struct {
	Loc string `xml:"loc" json:"loc"`
}

// Parse reads sitemap XML and decides its kind from the root element.
func Parse(body string) (*Document, error) {
	root, err := rootElement(body)
	if err != nil {
		return nil, err
	}

	switch root {
	case "urlset":
		var urlset xmlURLSet
		if err := xml.Unmarshal([]byte(body), &urlset); err != nil {
			return nil, fmt.Errorf("parse sitemap: %w", err)
		}
		return &Document{Kind: KindLeaf, URLs: locs(urlset.URLs)}, nil
	case "sitemapindex":
		var index xmlSitemapIndex
		if err := xml.Unmarshal([]byte(body), &index); err != nil {
			return nil, fmt.Errorf("parse sitemap index: %w", err)
		}
		return &Document{Kind: KindIndex, Sitemaps: locs(index.Sitemaps)}, nil
	default:
		return nil, fmt.Errorf("parse sitemap: unexpected root element <%s>", root)
	}
}

// rootElement returns the local name of the first element in body.
func rootElement(body string) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader([]byte(body)))
	decoder.Strict = false
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("parse sitemap: no root element")
		}
		if err != nil {
			return "", fmt.Errorf("parse sitemap: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

func locs(entries []xmlLoc) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if loc := strings.TrimSpace(e.Loc); loc != "" {
			out = append(out, loc)
		}
	}
	return out
}

// Package content turns parsed HTML documents into the labeled plain-text summary the assistant reads.
package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// nonContentSelector matches nodes whose text must never reach the output.
const nonContentSelector = "script, style, noscript, template"

// ExtractedContent is the normalized text derived from one fetched page. It is not modified after creation.
type ExtractedContent struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Headings    []string  `json:"headings"`
	BodyText    []string  `json:"body_text"`
	FullText    string    `json:"full_text"`
	Strategy    string    `json:"strategy,omitempty"` // Channel that produced the content
	FetchedAt   time.Time `json:"fetched_at"`
}

// ParseHTML parses raw HTML and extracts its content.
func ParseHTML(html string) (*ExtractedContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	extracted := Extract(doc)
	return &extracted, nil
}

// Extract reads title, description, headings, paragraphs and the remaining body text from doc.
// The caller's document is left untouched; noise removal happens on a clone.
func Extract(doc *goquery.Document) ExtractedContent {
	clone := goquery.CloneDocument(doc)
	clone.Find(nonContentSelector).Remove()

	title := cleanWhitespace(clone.Find("title").First().Text())
	if title == "" {
		title = cleanWhitespace(clone.Find("h1").First().Text())
	}

	return ExtractedContent{
		Title:       title,
		Description: description(clone),
		Headings:    texts(clone.Find("h1, h2, h3, h4, h5, h6")),
		BodyText:    texts(clone.Find("p")),
		FullText:    cleanWhitespace(clone.Find("body").Text()),
		FetchedAt:   time.Now().UTC(),
	}
}

// description returns the meta description, falling back to og:description.
func description(doc *goquery.Document) string {
	var desc, og string
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		value, _ := s.Attr("content")
		value = strings.TrimSpace(value)
		if name, ok := s.Attr("name"); ok && strings.EqualFold(name, "description") && desc == "" {
			desc = value
		}
		if prop, ok := s.Attr("property"); ok && strings.EqualFold(prop, "og:description") && og == "" {
			og = value
		}
	})
	if desc != "" {
		return desc
	}
	return og
}

func texts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		if text := cleanWhitespace(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

// Format renders the labeled block handed to the model.
func (c *ExtractedContent) Format() string {
	var sb strings.Builder
	sb.WriteString("Title: " + c.Title + "\n")
	sb.WriteString("Description: " + c.Description + "\n\n")
	sb.WriteString("Headings:\n")
	sb.WriteString(strings.Join(c.Headings, "\n"))
	sb.WriteString("\n\nContent:\n")
	sb.WriteString(strings.Join(c.BodyText, "\n"))
	sb.WriteString("\n\nFull Text:\n")
	sb.WriteString(c.FullText)
	return sb.String()
}

// IsEmpty reports whether nothing readable was found.
func (c *ExtractedContent) IsEmpty() bool {
	return c.Title == "" && c.Description == "" && len(c.Headings) == 0 &&
		len(c.BodyText) == 0 && c.FullText == ""
}

// cleanWhitespace trims every line and drops blank ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

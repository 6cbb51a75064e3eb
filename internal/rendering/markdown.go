package rendering

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer converts markdown to HTML and strips anything a reply must not carry.
type Renderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewRenderer returns a renderer with GitHub-flavored markdown and the UGC sanitizing policy.
func NewRenderer() *Renderer {
	return &Renderer{
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Markdown renders text to sanitized HTML.
func (r *Renderer) Markdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", &RenderError{Message: "failed to convert markdown", Cause: err}
	}
	return r.sanitizer.Sanitize(buf.String()), nil
}

var defaultRenderer = NewRenderer()

// Markdown renders text with the default renderer.
func Markdown(text string) (string, error) {
	return defaultRenderer.Markdown(text)
}

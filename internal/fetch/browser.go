// Package fetch - browser.go renders pages in an isolated headless browser.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrBlocked is returned when the browser refuses to load or expose a page.
var ErrBlocked = errors.New("rendering blocked")

// DefaultSettle is how long the renderer waits after the body is ready for scripts to run.
const DefaultSettle = 2 * time.Second

// Renderer loads a page in an isolated rendering context and returns its HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ChromeRenderer renders pages with a throwaway headless Chrome instance.
// Requires Chrome/Chromium to be installed on the system.
type ChromeRenderer struct {
	Settle time.Duration
	Logger *zap.Logger
}

// NewChromeRenderer creates a renderer with the default settle time.
func NewChromeRenderer(logger *zap.Logger) *ChromeRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromeRenderer{Settle: DefaultSettle, Logger: logger}
}

// Render navigates to url and returns the outer HTML once the body is ready.
// The deadline comes from ctx.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("starting headless browser", zap.String("url", url))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(r.Settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if strings.Contains(err.Error(), "net::ERR_") {
			return "", &Error{URL: url, Message: "navigation refused", Cause: fmt.Errorf("%w: %v", ErrBlocked, err)}
		}
		return "", &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}

	logger.Debug("rendered page", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}

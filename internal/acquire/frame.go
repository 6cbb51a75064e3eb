package acquire

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/site-assistant/internal/content"
	"github.com/jonathan/site-assistant/internal/fetch"
)

// DefaultFrameTimeout bounds how long the isolated rendering may take.
const DefaultFrameTimeout = 15 * time.Second

// FrameStrategy confirms the host answers, then loads the page in an isolated rendering context.
type FrameStrategy struct {
	Renderer fetch.Renderer
	Timeout  time.Duration
	Options  *fetch.Options
	Logger   *zap.Logger
}

// Name implements Strategy.
func (s *FrameStrategy) Name() string { return "frame" }

// Fetch implements Strategy. Blocked or empty renders fail with ErrIsolationBlocked,
// renders that outlive the timeout with ErrLoadTimeout.
func (s *FrameStrategy) Fetch(ctx context.Context, address string) (*content.ExtractedContent, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.Renderer == nil {
		return nil, fmt.Errorf("no renderer configured")
	}

	status, err := fetch.Probe(ctx, address, s.Options)
	if err != nil {
		return nil, fmt.Errorf("host not reachable: %w", err)
	}
	logger.Debug("probe answered", zap.String("url", address), zap.Int("status", status))

	html, err := s.load(ctx, address)
	if err != nil {
		return nil, err
	}

	extracted, err := content.ParseHTML(html)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIsolationBlocked, err)
	}
	if extracted.IsEmpty() {
		return nil, ErrIsolationBlocked
	}
	return extracted, nil
}

type renderOutcome struct {
	html string
	err  error
}

// load runs one render bound to its own timer. The outcome is resolved exactly once:
// whichever of render completion or deadline comes first wins, and the buffered channel
// lets a late render finish without blocking.
func (s *FrameStrategy) load(ctx context.Context, address string) (string, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultFrameTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan renderOutcome, 1)
	go func() {
		html, err := s.Renderer.Render(ctx, address)
		done <- renderOutcome{html: html, err: err}
	}()

	select {
	case out := <-done:
		return classifyRender(out)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrLoadTimeout, timeout)
		}
		return "", ctx.Err()
	}
}

func classifyRender(out renderOutcome) (string, error) {
	switch {
	case out.err == nil && strings.TrimSpace(out.html) == "":
		return "", ErrIsolationBlocked
	case out.err == nil:
		return out.html, nil
	case errors.Is(out.err, context.DeadlineExceeded):
		return "", fmt.Errorf("%w: %v", ErrLoadTimeout, out.err)
	case errors.Is(out.err, fetch.ErrBlocked):
		return "", fmt.Errorf("%w: %v", ErrIsolationBlocked, out.err)
	default:
		return "", out.err
	}
}

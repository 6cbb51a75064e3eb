package acquire

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/site-assistant/internal/content"
)

type stubStrategy struct {
	name   string
	result *content.ExtractedContent
	err    error
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(_ context.Context, _ string) (*content.ExtractedContent, error) {
	s.calls++
	return s.result, s.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &stubStrategy{name: "first", err: errors.New("boom")}
	second := &stubStrategy{name: "second", result: &content.ExtractedContent{Title: "ok"}}
	third := &stubStrategy{name: "third", result: &content.ExtractedContent{Title: "never"}}

	chain := NewChain(nil, first, second, third)
	got, err := chain.Fetch(context.Background(), "https://a.com")
	require.NoError(t, err)

	assert.Equal(t, "ok", got.Title)
	assert.Equal(t, "second", got.Strategy)
	assert.Equal(t, "https://a.com", got.URL)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 0, third.calls)
}

func TestChain_ExhaustionCarriesAddressAndLastError(t *testing.T) {
	lastErr := errors.New("last failure")
	chain := NewChain(nil,
		&stubStrategy{name: "a", err: errors.New("first failure")},
		&stubStrategy{name: "b"},
		&stubStrategy{name: "c", err: lastErr},
	)

	_, err := chain.Fetch(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachableSource)
	assert.ErrorIs(t, err, lastErr)

	var unreachable *UnreachableSourceError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, "https://example.com", unreachable.URL)
	assert.Equal(t, []string{"a", "b", "c"}, unreachable.Attempts)
}

func TestChain_NilResultWithoutErrorIsAFailure(t *testing.T) {
	chain := NewChain(nil, &stubStrategy{name: "empty"})
	_, err := chain.Fetch(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestChain_StopsWhenContextCanceled(t *testing.T) {
	s := &stubStrategy{name: "a", result: &content.ExtractedContent{Title: "x"}}
	chain := NewChain(nil, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.Fetch(ctx, "https://a.com")
	assert.ErrorIs(t, err, ErrUnreachableSource)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.calls)
}

// Aggregator answers 500, the first relay serves the page.
func TestDefaultChain_RelaySucceedsAfterAggregator500(t *testing.T) {
	aggregator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer aggregator.Close()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://a.com", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte(`<html><head><title>A</title></head><body><p>Hello from A</p></body></html>`))
	}))
	defer relay.Close()

	chain := NewDefaultChain(&Config{
		AggregatorEndpoint: aggregator.URL + "/get?url=",
		RelayEndpoints:     []string{relay.URL + "/?url="},
	}, nil, nil)

	got, err := chain.Fetch(context.Background(), "https://a.com")
	require.NoError(t, err)
	assert.Equal(t, "relay", got.Strategy)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, []string{"Hello from A"}, got.BodyText)
}

func TestDefaultChain_RelayAfterFailedAggregatorEnvelope(t *testing.T) {
	aggregator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"contents":null,"status":{"http_code":404}}`))
	}))
	defer aggregator.Close()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>A</title></head><body><p>Real page</p></body></html>`))
	}))
	defer relay.Close()

	chain := NewDefaultChain(&Config{
		AggregatorEndpoint: aggregator.URL + "/get?url=",
		RelayEndpoints:     []string{relay.URL + "/?url="},
	}, nil, nil)

	got, err := chain.Fetch(context.Background(), "https://a.com")
	require.NoError(t, err)
	assert.Equal(t, "relay", got.Strategy)
	assert.Equal(t, []string{"Real page"}, got.BodyText)
}

func TestNewDefaultChain_Order(t *testing.T) {
	cfg := DefaultConfig()
	chain := NewDefaultChain(cfg, &fakeRenderer{}, nil)
	assert.Equal(t, []string{"aggregator", "relay", "frame", "metadata", "snapshot"}, chain.Strategies())

	cfg.UseBrowser = false
	cfg.MetadataFallback = false
	chain = NewDefaultChain(cfg, nil, nil)
	assert.Equal(t, []string{"aggregator", "relay", "snapshot"}, chain.Strategies())
}

package session

import (
	"context"
	"errors"

	"github.com/jonathan/site-assistant/internal/content"
	"github.com/jonathan/site-assistant/internal/llm"
)

type fakeBackend struct {
	reply    string
	err      error
	requests []*llm.ChatRequest
}

func (f *fakeBackend) Chat(_ context.Context, req *llm.ChatRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeBackend) Close() error                  { return nil }

type recordingUI struct {
	events []string
}

func (u *recordingUI) SetPending(p bool) {
	if p {
		u.events = append(u.events, "pending")
	} else {
		u.events = append(u.events, "idle")
	}
}

func (u *recordingUI) Focus() { u.events = append(u.events, "focus") }

type fakePrompter struct {
	key   string
	err   error
	calls int
}

func (p *fakePrompter) PromptCredential(context.Context) (string, error) {
	p.calls++
	return p.key, p.err
}

type fakeFetcher struct {
	pages map[string]*content.ExtractedContent
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, address string) (*content.ExtractedContent, error) {
	f.calls = append(f.calls, address)
	if c, ok := f.pages[address]; ok {
		out := *c
		out.URL = address
		return &out, nil
	}
	return nil, errors.New("unreachable")
}

type fakeDiscoverer struct {
	found []string
	err   error
}

func (d *fakeDiscoverer) Discover(_ context.Context, _ string, known func(string) bool) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []string
	for _, u := range d.found {
		if !known(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

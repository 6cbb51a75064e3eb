package acquire

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStrategy_FollowsClosestSnapshot(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/available":
			assert.Equal(t, "https://gone.com", r.URL.Query().Get("url"))
			_, _ = fmt.Fprintf(w, `{"archived_snapshots":{"closest":{"available":true,"url":"%s/web/2020/https://gone.com","timestamp":"20200101000000","status":"200"}}}`, server.URL)
		case "/web/2020/https:/gone.com", "/web/2020/https://gone.com":
			_, _ = w.Write([]byte(`<html><head><title>Archived</title></head><body><p>old copy</p></body></html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	s := &SnapshotStrategy{Endpoint: server.URL + "/available?url="}
	got, err := s.Fetch(context.Background(), "https://gone.com")
	require.NoError(t, err)
	assert.Equal(t, "Archived", got.Title)
}

func TestSnapshotStrategy_NoSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"archived_snapshots":{}}`))
	}))
	defer server.Close()

	s := &SnapshotStrategy{Endpoint: server.URL + "/available?url="}
	_, err := s.Fetch(context.Background(), "https://gone.com")
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

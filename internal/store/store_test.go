package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseKV runs the shared contract every implementation must satisfy.
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "sources")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "sources", []byte(`[{"address":"https://a.com"}]`)))
	got, err := kv.Get(ctx, "sources")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"address":"https://a.com"}]`, string(got))

	require.NoError(t, kv.Set(ctx, "sources", []byte(`[]`)))
	got, err = kv.Get(ctx, "sources")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))

	require.NoError(t, kv.Delete(ctx, "sources"))
	_, err = kv.Get(ctx, "sources")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error
	assert.NoError(t, kv.Delete(ctx, "missing"))
}

// exerciseBatch checks that SetMany writes every key alongside existing ones.
func exerciseBatch(t *testing.T, kv interface {
	KV
	Batcher
}) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "credential", []byte(`"kept"`)))
	require.NoError(t, kv.SetMany(ctx, map[string][]byte{
		"sources":     []byte(`[]`),
		"chatHistory": []byte(`[{"sender":"user","text":"hi"}]`),
	}))

	for key, want := range map[string]string{
		"credential":  `"kept"`,
		"sources":     `[]`,
		"chatHistory": `[{"sender":"user","text":"hi"}]`,
	} {
		got, err := kv.Get(ctx, key)
		require.NoError(t, err, key)
		assert.JSONEq(t, want, string(got), key)
	}
}

func TestMemory(t *testing.T) {
	exerciseKV(t, NewMemory())
	exerciseBatch(t, NewMemory())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte(`"abc"`)
	require.NoError(t, m.Set(ctx, "credential", value))
	value[1] = 'z'

	got, err := m.Get(ctx, "credential")
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(got))
}

func TestFile(t *testing.T) {
	exerciseKV(t, NewFile(filepath.Join(t.TempDir(), "nested", "state.json")))
	exerciseBatch(t, NewFile(filepath.Join(t.TempDir(), "state.json")))
}

func TestFile_SetManyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := NewFile(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, f.Set(ctx, "sources", []byte(`["old"]`)))

	err := f.SetMany(ctx, map[string][]byte{
		"sources":    []byte(`["new"]`),
		"credential": []byte("not json"),
	})
	require.Error(t, err)

	got, err := f.Get(ctx, "sources")
	require.NoError(t, err)
	assert.JSONEq(t, `["old"]`, string(got))
	_, err = f.Get(ctx, "credential")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	require.NoError(t, NewFile(path).Set(ctx, "credential", []byte(`"key-1"`)))

	got, err := NewFile(path).Get(ctx, "credential")
	require.NoError(t, err)
	assert.Equal(t, `"key-1"`, string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFile_RejectsNonJSON(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "state.json"))
	assert.Error(t, f.Set(context.Background(), "credential", []byte("not json")))
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	_, err := NewFile(path).Get(context.Background(), "sources")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse state file")
}

func TestConnectPostgres_RequiresSession(t *testing.T) {
	_, err := ConnectPostgres(context.Background(), "postgres://localhost:1/none", uuid.Nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session id is required")
}

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores the persistent flag variables between tests.
func resetFlags(t *testing.T) {
	t.Helper()
	rootConfigPath, rootStatePath, rootVerbose = "", "", false
	t.Cleanup(func() { rootConfigPath, rootStatePath, rootVerbose = "", "", false })
}

func TestResolveConfig_FlagsWin(t *testing.T) {
	resetFlags(t)
	t.Setenv("SITE_ASSISTANT_STATE", "/from/env.json")
	rootStatePath = "/from/flag.json"
	rootVerbose = true

	cfg, err := resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, "/from/flag.json", cfg.StatePath)
	assert.True(t, cfg.Verbose)
}

func TestResolveConfig_MissingFile(t *testing.T) {
	resetFlags(t)
	rootConfigPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := resolveConfig()
	assert.Error(t, err)
}

func TestOpenApp_FreshState(t *testing.T) {
	resetFlags(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GEMINI_API_KEY", "env-key")
	rootStatePath = filepath.Join(t.TempDir(), "state.json")

	var out bytes.Buffer
	a, err := openApp(context.Background(), &out)
	require.NoError(t, err)
	defer a.close()

	assert.Equal(t, 0, a.state.Registry.Len())
	assert.Equal(t, "env-key", a.state.Credential)
	assert.Equal(t, []string{"aggregator", "relay", "frame", "metadata", "snapshot"}, a.chain().Strategies())
}

func TestChatSession_UsesConfiguredMode(t *testing.T) {
	resetFlags(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SITE_ASSISTANT_CONTENT_MODE", "retrieval")
	t.Setenv("SITE_ASSISTANT_KNOWLEDGE_STORE_ID", "vs_7")
	t.Setenv("SITE_ASSISTANT_MODEL", "")
	rootStatePath = filepath.Join(t.TempDir(), "state.json")

	a, err := openApp(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	defer a.close()

	chat, err := a.chatSession(strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "retrieval", string(chat.Assembler.Mode))
	assert.Equal(t, "vs_7", chat.Assembler.KnowledgeStoreID)
	assert.Equal(t, "gemini-2.5-flash", chat.Assembler.Model)
}

func TestChatSession_ModelOverride(t *testing.T) {
	resetFlags(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SITE_ASSISTANT_CONTENT_MODE", "inline")
	t.Setenv("SITE_ASSISTANT_MODEL_TIER", "advanced")
	t.Setenv("SITE_ASSISTANT_MODEL", "gemini-exp-1206")
	rootStatePath = filepath.Join(t.TempDir(), "state.json")

	a, err := openApp(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	defer a.close()

	chat, err := a.chatSession(strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "gemini-exp-1206", chat.Assembler.Model)
}

func TestTerminalPrompter(t *testing.T) {
	var out bytes.Buffer
	p := &terminalPrompter{in: strings.NewReader("my-key\n"), out: &out}

	key, err := p.PromptCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my-key", key)
	assert.Contains(t, out.String(), "API key")

	p = &terminalPrompter{in: strings.NewReader(""), out: &out}
	_, err = p.PromptCredential(context.Background())
	assert.Error(t, err)
}

package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/4thel00z/docrag/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderListDefault(t *testing.T) {
	a, _ := setupWorkspace(t, &scriptedGenerator{reply: "hi"})

	out := mustExecute(t, a, "", "provider", "list")
	assert.Equal(t, "* openai\n", out)
}

func TestProviderAddAndList(t *testing.T) {
	a, _ := setupWorkspace(t, &scriptedGenerator{reply: "hi"})

	out := mustExecute(t, a, "", "provider", "add", "anthropic", "--api-key", "sk-test", "--model", "claude-test")
	assert.Contains(t, out, "Added provider anthropic")

	out = mustExecute(t, a, "", "provider", "list")
	assert.Equal(t, "  anthropic\n* openai\n", out)

	out = mustExecute(t, a, "", "provider", "list", "--json")
	var listed struct {
		Providers []string `json:"providers"`
		Default   string   `json:"default"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, []string{"anthropic", "openai"}, listed.Providers)
	assert.Equal(t, "openai", listed.Default)
}

func TestProviderRemove(t *testing.T) {
	a, _ := setupWorkspace(t, &scriptedGenerator{reply: "hi"})

	mustExecute(t, a, "", "provider", "add", "openrouter", "--api-key", "x")
	out := mustExecute(t, a, "", "provider", "remove", "openrouter")
	assert.Contains(t, out, "Removed provider openrouter")

	out = mustExecute(t, a, "", "provider", "list")
	assert.NotContains(t, out, "openrouter")
}

func TestProviderSetDefault(t *testing.T) {
	a, _ := setupWorkspace(t, &scriptedGenerator{reply: "hi"})

	mustExecute(t, a, "", "provider", "add", "anthropic", "--api-key", "x")
	out := mustExecute(t, a, "", "provider", "default", "anthropic")
	assert.Contains(t, out, "Default provider set to anthropic")

	out = mustExecute(t, a, "", "provider", "list")
	assert.Contains(t, out, "* anthropic")
}

func TestProviderSetDefaultNonexistent(t *testing.T) {
	a, _ := setupWorkspace(t, &scriptedGenerator{reply: "hi"})

	_, _, err := execute(t, a, "", "provider", "default", "nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, internal.ErrProviderNotFound))
}

func TestProviderTest(t *testing.T) {
	gen := &scriptedGenerator{reply: "hello"}
	a, _ := setupWorkspace(t, gen)

	out := mustExecute(t, a, "", "provider", "test")
	assert.Contains(t, out, "Provider is working")
	require.Len(t, gen.prompts, 1)
	assert.True(t, strings.HasPrefix(gen.prompts[0], "Say hello"))
}

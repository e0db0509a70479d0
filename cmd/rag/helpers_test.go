package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/4thel00z/docrag/internal"
)

// scriptedGenerator answers every prompt with a fixed reply and records
// the prompts it saw.
type scriptedGenerator struct {
	reply   string
	prompts []string
}

func (g *scriptedGenerator) Complete(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, nil
}

func (g *scriptedGenerator) Stream(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	answer, err := g.Complete(ctx, prompt)
	for _, w := range strings.SplitAfter(answer, " ") {
		onDelta(w)
	}
	return answer, err
}

var testDocs = map[string]string{
	"documents/rockets.txt": "The rocket launch window opens in March at the northern spaceport.",
	"documents/garden.md":   "Tomatoes need full sun and regular watering in the garden.",
	"documents/broken.pdf":  "not really a pdf",
}

// setupWorkspace chdirs into a fresh project workspace that embeds with
// the offline hash backend, and returns an app wired to gen.
func setupWorkspace(t *testing.T, gen *scriptedGenerator) (*app, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	origWd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	a := newApp()
	if gen != nil {
		a.generators = func(context.Context, internal.FantasyConfig) (internal.Generator, error) {
			return gen, nil
		}
		a.providerSvc = internal.NewProviderService(a.resolver, a.generators, a.getenv)
	}

	cfg := internal.DefaultConfig()
	cfg.Embeddings = internal.EmbeddingsConfig{Backend: internal.EmbeddingsHash, Dimension: 64}
	cfg.Chunking.MaxChunkChars = 40
	if err := a.resolver.At(dir).Init(cfg); err != nil {
		t.Fatalf("init workspace: %v", err)
	}

	for name, content := range testDocs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	return a, dir
}

func execute(t *testing.T, a *app, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd("test", a)
	root.SetArgs(args)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))

	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func mustExecute(t *testing.T, a *app, stdin string, args ...string) string {
	t.Helper()
	out, errOut, err := execute(t, a, stdin, args...)
	if err != nil {
		t.Fatalf("rag %s: %v\nstderr: %s", strings.Join(args, " "), err, errOut)
	}
	return out
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(fmt.Errorf("write %s: %w", name, err))
	}
}

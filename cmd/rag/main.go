package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/4thel00z/docrag/internal"
	"github.com/charmbracelet/fang"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// A missing .env is fine; the environment may already carry the keys.
	_ = godotenv.Load()

	if tryExternalCommand(ctx) {
		return
	}

	rootCmd := NewRootCmd(version, newApp())
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

func tryExternalCommand(ctx context.Context) bool {
	if len(os.Args) < 2 {
		return false
	}

	cmd := os.Args[1]
	if cmd == "" || cmd[0] == '-' {
		return false
	}

	if _, err := findExternal(cmd); err != nil {
		return false
	}

	if err := executeExternal(ctx, cmd, os.Args[2:], version); err != nil {
		fmt.Fprintf(os.Stderr, "rag %s: %v\n", cmd, err)
		os.Exit(1)
	}

	return true
}

type app struct {
	resolver    *internal.WorkspaceResolver
	fs          billy.Filesystem
	getenv      func(string) string
	newEmbedder func(internal.EmbeddingsConfig) (internal.Embedder, error)
	generators  internal.GeneratorFactory
	providerSvc *internal.ProviderService
}

func newApp() *app {
	resolver := internal.NewWorkspaceResolver()
	generators := internal.NewFantasyGeneratorFactory()

	return &app{
		resolver:    resolver,
		fs:          osfs.New("/"),
		getenv:      os.Getenv,
		newEmbedder: internal.NewEmbedder,
		generators:  generators,
		providerSvc: internal.NewProviderService(resolver, generators, os.Getenv),
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// pipeline resolves the workspace named by --scope and builds a fresh
// pipeline on it. Commands that never embed pass needEmbedder=false so
// they work without credentials.
func (a *app) pipeline(cmd *cobra.Command, needEmbedder bool) (*internal.Pipeline, error) {
	scopeHint, _ := cmd.Flags().GetString("scope")
	verbose, _ := cmd.Flags().GetBool("verbose")

	ws := a.resolver.Resolve(scopeHint)
	cfg, err := ws.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv(a.getenv)

	var embedder internal.Embedder
	if needEmbedder {
		if embedder, err = a.newEmbedder(cfg.Embeddings); err != nil {
			return nil, fmt.Errorf("create embedder: %w", err)
		}
	}

	return internal.NewPipeline(ws, cfg, a.fs, embedder, newLogger(cmd.ErrOrStderr(), verbose))
}

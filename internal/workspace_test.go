package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testResolver(home, cwd string) *WorkspaceResolver {
	return &WorkspaceResolver{
		homeDir: home,
		workDir: func() (string, error) { return cwd, nil },
	}
}

func TestWorkspacePaths(t *testing.T) {
	ws := testResolver("/home/user", "/").At("/work/proj")

	if ws.ConfigPath() != "/work/proj/.rag/config.yaml" {
		t.Errorf("config path = %q", ws.ConfigPath())
	}
	if ws.IgnorePath() != "/work/proj/.ragignore" {
		t.Errorf("ignore path = %q", ws.IgnorePath())
	}
	if ws.DocumentsPath("documents") != "/work/proj/documents" {
		t.Errorf("documents path = %q", ws.DocumentsPath("documents"))
	}
	if ws.DocumentsPath("/srv/docs") != "/srv/docs" {
		t.Errorf("absolute documents path = %q", ws.DocumentsPath("/srv/docs"))
	}
}

func TestWorkspaceResolverGlobal(t *testing.T) {
	ws := testResolver("/home/user", "/tmp").Global()

	if ws.Type != WorkspaceGlobal {
		t.Errorf("expected WorkspaceGlobal, got %q", ws.Type)
	}
	if ws.RagPath != "/home/user/.rag" {
		t.Errorf("expected RagPath %q, got %q", "/home/user/.rag", ws.RagPath)
	}
}

func TestWorkspaceResolverProjectFoundFromSubdir(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, WorkspaceDirname), 0755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	ws, found := testResolver(t.TempDir(), sub).Project()
	if !found {
		t.Fatal("expected Project() to return true")
	}
	if ws.Type != WorkspaceProject || ws.Path != root {
		t.Errorf("got %+v, want project at %q", ws, root)
	}
}

func TestWorkspaceResolverResolve(t *testing.T) {
	home := t.TempDir()
	cwd := t.TempDir()
	r := testResolver(home, cwd)

	// Nothing initialized: fall back to the working directory.
	if ws := r.Resolve(""); ws.Path != cwd {
		t.Errorf("expected cwd fallback, got %q", ws.Path)
	}

	if err := os.Mkdir(filepath.Join(home, WorkspaceDirname), 0755); err != nil {
		t.Fatal(err)
	}
	if ws := r.Resolve(""); ws.Type != WorkspaceGlobal {
		t.Errorf("expected existing global workspace, got %+v", ws)
	}

	if err := os.Mkdir(filepath.Join(cwd, WorkspaceDirname), 0755); err != nil {
		t.Fatal(err)
	}
	if ws := r.Resolve(""); ws.Type != WorkspaceProject {
		t.Errorf("expected project workspace, got %+v", ws)
	}
	if ws := r.Resolve("global"); ws.Type != WorkspaceGlobal {
		t.Errorf("explicit global should win, got %+v", ws)
	}
}

func TestWorkspaceInit(t *testing.T) {
	dir := t.TempDir()
	ws := testResolver(t.TempDir(), dir).At(dir)

	if err := ws.Init(DefaultConfig()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !ws.Exists() {
		t.Fatal("expected .rag to exist")
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultDocumentsDir)); err != nil {
		t.Errorf("documents dir: %v", err)
	}

	cfg, err := ws.LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Retrieval.TopK != DefaultTopK {
		t.Errorf("top k = %d", cfg.Retrieval.TopK)
	}

	if err := ws.Init(DefaultConfig()); !errors.Is(err, ErrWorkspaceInitiated) {
		t.Errorf("second init = %v, want ErrWorkspaceInitiated", err)
	}
}

func TestWorkspaceLoadConfigValidates(t *testing.T) {
	dir := t.TempDir()
	ws := testResolver(t.TempDir(), dir).At(dir)
	if err := os.MkdirAll(ws.RagPath, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ws.ConfigPath(), []byte("retrieval:\n  top_k: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ws.LoadConfig(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

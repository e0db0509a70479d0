package internal

import (
	"os"
	"path/filepath"
)

const (
	WorkspaceDirname = ".rag"
	ConfigFilename   = "config.yaml"
)

type WorkspaceType string

const (
	WorkspaceGlobal  WorkspaceType = "global"
	WorkspaceProject WorkspaceType = "project"
)

type Workspace struct {
	Type    WorkspaceType
	Path    string // directory holding documents and .ragignore
	RagPath string // .rag directory path
}

func (w Workspace) ConfigPath() string {
	return filepath.Join(w.RagPath, ConfigFilename)
}

func (w Workspace) IgnorePath() string {
	return filepath.Join(w.Path, IgnoreFilename)
}

// DocumentsPath resolves dir against the workspace root unless absolute.
func (w Workspace) DocumentsPath(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(w.Path, dir)
}

func (w Workspace) Exists() bool {
	info, err := os.Stat(w.RagPath)
	return err == nil && info.IsDir()
}

type WorkspaceResolver struct {
	homeDir string
	workDir func() (string, error)
}

func NewWorkspaceResolver() *WorkspaceResolver {
	home, _ := os.UserHomeDir()
	return &WorkspaceResolver{homeDir: home, workDir: os.Getwd}
}

func (r *WorkspaceResolver) Global() Workspace {
	return Workspace{
		Type:    WorkspaceGlobal,
		Path:    r.homeDir,
		RagPath: filepath.Join(r.homeDir, WorkspaceDirname),
	}
}

// At returns the project workspace rooted at dir without checking that it
// exists.
func (r *WorkspaceResolver) At(dir string) Workspace {
	return Workspace{
		Type:    WorkspaceProject,
		Path:    dir,
		RagPath: filepath.Join(dir, WorkspaceDirname),
	}
}

func (r *WorkspaceResolver) Project() (Workspace, bool) {
	cwd, err := r.workDir()
	if err != nil {
		return Workspace{}, false
	}
	return r.findProject(cwd)
}

func (r *WorkspaceResolver) findProject(dir string) (Workspace, bool) {
	for {
		ws := r.At(dir)
		if ws.Exists() {
			return ws, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Workspace{}, false
		}
		dir = parent
	}
}

// Resolve prefers the nearest project workspace unless explicit is
// "global". With no project and no global workspace on disk, the current
// directory is used so a bare documents/ folder still works.
func (r *WorkspaceResolver) Resolve(explicit string) Workspace {
	if explicit == string(WorkspaceGlobal) {
		return r.Global()
	}
	if ws, ok := r.Project(); ok {
		return ws
	}
	if g := r.Global(); g.Exists() {
		return g
	}
	if cwd, err := r.workDir(); err == nil {
		return r.At(cwd)
	}
	return r.Global()
}

// LoadConfig reads the workspace config and validates it.
func (w Workspace) LoadConfig() (*Config, error) {
	cfg, err := LoadConfig(w.ConfigPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init creates the .rag directory, a default config and the documents
// folder.
func (w Workspace) Init(cfg *Config) error {
	if w.Exists() {
		return ErrWorkspaceInitiated
	}
	if err := os.MkdirAll(w.RagPath, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(w.DocumentsPath(cfg.Ingestion.DocumentsDir), 0755); err != nil {
		return err
	}
	return SaveConfig(w.ConfigPath(), cfg)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/4thel00z/docrag/internal"
)

// Executables named rag-<name> on PATH extend the CLI as `rag <name>`.
const externalPrefix = "rag-"

func findExternal(name string) (string, error) {
	binary := externalPrefix + name
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("unknown command %q: %s not found in PATH", name, binary)
	}
	return path, nil
}

// listExternalCommands returns plugin names in sorted order. The first
// PATH entry providing a name shadows later ones.
func listExternalCommands() []string {
	seen := make(map[string]bool)
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if name := externalName(dir, entry); name != "" {
				seen[name] = true
			}
		}
	}

	commands := make([]string, 0, len(seen))
	for name := range seen {
		commands = append(commands, name)
	}
	slices.Sort(commands)
	return commands
}

func externalName(dir string, entry os.DirEntry) string {
	name := entry.Name()
	if entry.IsDir() || !strings.HasPrefix(name, externalPrefix) {
		return ""
	}

	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil || info.Mode()&0111 == 0 {
		return ""
	}

	return strings.TrimPrefix(name, externalPrefix)
}

func executeExternal(ctx context.Context, name string, args []string, version string) error {
	binaryPath, err := findExternal(name)
	if err != nil {
		return err
	}

	ws := internal.NewWorkspaceResolver().Resolve(os.Getenv("RAG_SCOPE"))

	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Env = externalEnv(version, ws)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// externalEnv tells plugins where the binary and the active workspace live.
func externalEnv(version string, ws internal.Workspace) []string {
	ragBin, _ := os.Executable()

	return append(os.Environ(),
		"RAG_VERSION="+version,
		"RAG_BIN="+ragBin,
		"RAG_WORKSPACE="+ws.Path,
		"RAG_CONFIG="+ws.ConfigPath(),
	)
}

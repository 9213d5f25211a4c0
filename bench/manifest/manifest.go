// Package manifest records the provenance of a benchmark run: the commit and
// cleanliness of the benchmark repo and of every repository checked out
// under its stack directory, plus patches of any uncommitted changes.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// FileName is the manifest written into the output directory.
const FileName = "run-manifest.json"

// Options selects what to describe and where to write it.
type Options struct {
	RepoRoot     string
	StackRoot    string
	OutputDir    string
	WritePatches bool
	Git          Git
}

// RepoEntry describes one repository. Fields are declared in key order so
// the encoded JSON has sorted keys.
type RepoEntry struct {
	Commit          *string `json:"commit"`
	IsDirty         *bool   `json:"is_dirty"`
	IsGitRepo       bool    `json:"is_git_repo"`
	Name            string  `json:"name,omitempty"`
	Path            string  `json:"path"`
	StatusPorcelain *string `json:"status_porcelain"`
}

// Stack describes the directory of dependency checkouts.
type Stack struct {
	Exists bool        `json:"exists"`
	Path   string      `json:"path"`
	Repos  []RepoEntry `json:"repos"`
}

// Manifest is the contents of run-manifest.json.
type Manifest struct {
	Repo  RepoEntry `json:"repo"`
	Stack Stack     `json:"stack"`
}

func entry(name, path string, st Status) RepoEntry {
	return RepoEntry{
		Commit:          st.Commit,
		IsDirty:         st.IsDirty,
		IsGitRepo:       st.IsGitRepo,
		Name:            name,
		Path:            path,
		StatusPorcelain: st.StatusPorcelain,
	}
}

// Write describes the repo and its stack and writes OutputDir/run-manifest.json.
func Write(ctx context.Context, opts Options) (*Manifest, error) {
	g := opts.Git
	patchesDir := filepath.Join(opts.OutputDir, "patches")

	repoStatus := g.Describe(ctx, opts.RepoRoot)
	m := &Manifest{
		Repo: entry("", opts.RepoRoot, repoStatus),
		Stack: Stack{
			Path:  opts.StackRoot,
			Repos: []RepoEntry{},
		},
	}
	if info, err := os.Stat(opts.StackRoot); err == nil && info.IsDir() {
		m.Stack.Exists = true
	}

	if opts.WritePatches && repoStatus.IsGitRepo {
		if err := writePatches(ctx, g, opts.RepoRoot, filepath.Join(patchesDir, "repo")); err != nil {
			return nil, err
		}
	}

	children, err := stackRepos(opts.StackRoot)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		path := filepath.Join(opts.StackRoot, child)
		st := g.Describe(ctx, path)
		if opts.WritePatches && st.IsGitRepo {
			if err := writePatches(ctx, g, path, filepath.Join(patchesDir, "stack", child)); err != nil {
				return nil, err
			}
		}
		m.Stack.Repos = append(m.Stack.Repos, entry(child, path, st))
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	out := filepath.Join(opts.OutputDir, FileName)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}
	logrus.WithField("repos", len(m.Stack.Repos)).Infof("Wrote run manifest: %s", out)
	return m, nil
}

// stackRepos lists the immediate subdirectories of root, sorted. A missing
// root has none.
func stackRepos(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing stack %s: %w", root, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// writePatches stores non-empty unstaged and staged diffs of dir under dst.
func writePatches(ctx context.Context, g Git, dir, dst string) error {
	for _, p := range []struct {
		name   string
		staged bool
	}{{"unstaged.patch", false}, {"staged.patch", true}} {
		diff, ok := g.Diff(ctx, dir, p.staged)
		if !ok || strings.TrimSpace(diff) == "" {
			continue
		}
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return fmt.Errorf("creating patch directory: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dst, p.name), []byte(diff), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	return nil
}

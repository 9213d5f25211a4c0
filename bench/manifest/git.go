package manifest

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Git queries a working tree through the git binary. Every query degrades to
// "unknown" instead of failing, so provenance never blocks a benchmark.
type Git struct {
	Binary string // defaults to "git"
}

// Status is what Describe learned about one directory. Pointer fields are nil
// when git could not answer.
type Status struct {
	Commit          *string
	IsGitRepo       bool
	IsDirty         *bool
	StatusPorcelain *string
}

func (g Git) run(ctx context.Context, dir string, args ...string) (string, bool) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, append([]string{"-C", dir}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		logrus.Debugf("git %s in %s: %v: %s", strings.Join(args, " "), dir, err, strings.TrimSpace(stderr.String()))
		return "", false
	}
	return stdout.String(), true
}

// IsRepo reports whether dir is inside a git work tree.
func (g Git) IsRepo(ctx context.Context, dir string) bool {
	out, ok := g.run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return ok && strings.TrimSpace(out) == "true"
}

// Commit returns the HEAD commit of dir.
func (g Git) Commit(ctx context.Context, dir string) (string, bool) {
	out, ok := g.run(ctx, dir, "rev-parse", "HEAD")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(out), true
}

// StatusPorcelain returns `git status --porcelain` verbatim.
func (g Git) StatusPorcelain(ctx context.Context, dir string) (string, bool) {
	return g.run(ctx, dir, "status", "--porcelain")
}

// Diff returns the unstaged diff, or the staged one when staged is set.
func (g Git) Diff(ctx context.Context, dir string, staged bool) (string, bool) {
	args := []string{"diff"}
	if staged {
		args = append(args, "--staged")
	}
	return g.run(ctx, dir, args...)
}

// Describe collects commit and cleanliness of dir.
func (g Git) Describe(ctx context.Context, dir string) Status {
	if !g.IsRepo(ctx, dir) {
		return Status{}
	}
	st := Status{IsGitRepo: true}
	if commit, ok := g.Commit(ctx, dir); ok {
		st.Commit = &commit
	}
	if porcelain, ok := g.StatusPorcelain(ctx, dir); ok {
		dirty := strings.TrimSpace(porcelain) != ""
		st.StatusPorcelain = &porcelain
		st.IsDirty = &dirty
	}
	return st
}

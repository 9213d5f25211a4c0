package manifest

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	full := append([]string{"-C", dir, "-c", "user.name=bench", "-c", "user.email=bench@example.com", "-c", "commit.gpgsign=false"}, args...)
	out, err := exec.Command("git", full...).CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
}

// initRepo creates a git repository with one committed file.
func initRepo(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	gitCmd(t, dir, "init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("bench\n"), 0o644))
	gitCmd(t, dir, "add", "README")
	gitCmd(t, dir, "commit", "-q", "-m", "init")
}

func TestDescribe_NotARepository(t *testing.T) {
	requireGit(t)
	dir := fs.NewDir(t, "plain")

	st := Git{}.Describe(context.Background(), dir.Path())

	assert.Equal(t, Status{}, st)
}

func TestDescribe_MissingDirectory(t *testing.T) {
	st := Git{}.Describe(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.False(t, st.IsGitRepo)
	assert.Nil(t, st.Commit)
}

func TestDescribe_CleanAndDirty(t *testing.T) {
	requireGit(t)
	dir := filepath.Join(t.TempDir(), "repo")
	initRepo(t, dir)
	g := Git{}

	// GIVEN a fresh commit
	st := g.Describe(context.Background(), dir)
	require.True(t, st.IsGitRepo)
	require.NotNil(t, st.Commit)
	assert.Len(t, *st.Commit, 40)
	require.NotNil(t, st.IsDirty)
	assert.False(t, *st.IsDirty)

	// WHEN a tracked file changes
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("changed\n"), 0o644))

	// THEN the tree is dirty and porcelain names the file
	st = g.Describe(context.Background(), dir)
	require.NotNil(t, st.IsDirty)
	assert.True(t, *st.IsDirty)
	assert.Contains(t, *st.StatusPorcelain, "README")

	commit, ok := g.Commit(context.Background(), dir)
	assert.True(t, ok)
	assert.Equal(t, *st.Commit, commit)
}

func TestWrite_RepoAndStackWithPatches(t *testing.T) {
	requireGit(t)
	// GIVEN a dirty repo with a stack holding one dirty checkout and one plain directory
	root := t.TempDir()
	repo := filepath.Join(root, "bench")
	initRepo(t, repo)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "README"), []byte("unstaged edit\n"), 0o644))

	stack := filepath.Join(root, "stack")
	initRepo(t, filepath.Join(stack, "Gaussino"))
	staged := filepath.Join(stack, "Gaussino", "NEW")
	require.NoError(t, os.WriteFile(staged, []byte("staged\n"), 0o644))
	gitCmd(t, filepath.Join(stack, "Gaussino"), "add", "NEW")
	require.NoError(t, os.MkdirAll(filepath.Join(stack, "AdePT"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stack, "not-a-dir"), nil, 0o644))

	out := filepath.Join(root, "runs", "B4", "id")

	// WHEN the manifest is written with patches
	m, err := Write(context.Background(), Options{RepoRoot: repo, StackRoot: stack, OutputDir: out, WritePatches: true})
	require.NoError(t, err)

	// THEN it describes every checkout and stores the diffs
	assert.True(t, m.Repo.IsGitRepo)
	assert.True(t, *m.Repo.IsDirty)
	assert.True(t, m.Stack.Exists)
	require.Len(t, m.Stack.Repos, 2)
	assert.Equal(t, "AdePT", m.Stack.Repos[0].Name)
	assert.False(t, m.Stack.Repos[0].IsGitRepo)
	assert.Equal(t, "Gaussino", m.Stack.Repos[1].Name)
	assert.True(t, m.Stack.Repos[1].IsGitRepo)

	assert.FileExists(t, filepath.Join(out, "patches", "repo", "unstaged.patch"))
	assert.NoFileExists(t, filepath.Join(out, "patches", "repo", "staged.patch"))
	assert.FileExists(t, filepath.Join(out, "patches", "stack", "Gaussino", "staged.patch"))
	assert.NoFileExists(t, filepath.Join(out, "patches", "stack", "Gaussino", "unstaged.patch"))

	data, err := os.ReadFile(filepath.Join(out, FileName))
	require.NoError(t, err)
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, repo, raw["repo"]["path"])
	assert.NotContains(t, raw["repo"], "name")
	assert.Equal(t, true, raw["stack"]["exists"])
	assert.Less(t, strings.Index(string(data), `"commit"`), strings.Index(string(data), `"status_porcelain"`))
}

func TestWrite_NoPatchesAndMissingStack(t *testing.T) {
	requireGit(t)
	root := t.TempDir()
	repo := filepath.Join(root, "bench")
	initRepo(t, repo)
	require.NoError(t, os.WriteFile(filepath.Join(repo, "README"), []byte("edit\n"), 0o644))
	out := filepath.Join(root, "out")

	m, err := Write(context.Background(), Options{RepoRoot: repo, StackRoot: filepath.Join(repo, "stack"), OutputDir: out})
	require.NoError(t, err)

	assert.False(t, m.Stack.Exists)
	assert.Empty(t, m.Stack.Repos)
	assert.NoDirExists(t, filepath.Join(out, "patches"))

	data, err := os.ReadFile(filepath.Join(out, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"repos": []`)
}

func TestWrite_NonRepositoryDegrades(t *testing.T) {
	requireGit(t)
	dir := fs.NewDir(t, "plain")
	out := filepath.Join(t.TempDir(), "out")

	m, err := Write(context.Background(), Options{RepoRoot: dir.Path(), StackRoot: dir.Join("stack"), OutputDir: out, WritePatches: true})
	require.NoError(t, err)

	assert.False(t, m.Repo.IsGitRepo)
	assert.Nil(t, m.Repo.Commit)
	assert.Nil(t, m.Repo.IsDirty)
	data, err := os.ReadFile(filepath.Join(out, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"commit": null`)
}

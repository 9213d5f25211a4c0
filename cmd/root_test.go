package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"
)

func TestSetupLogging_Levels(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())

	tests := []struct {
		name     string
		v        int
		override string
		want     logrus.Level
	}{
		{"default is warn", 0, "", logrus.WarnLevel},
		{"-v is info", 1, "", logrus.InfoLevel},
		{"-vv is debug", 2, "", logrus.DebugLevel},
		{"-vvv stays debug", 3, "", logrus.DebugLevel},
		{"--log wins over -v", 2, "error", logrus.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, setupLogging(tt.v, tt.override))
			assert.Equal(t, tt.want, logrus.GetLevel())
		})
	}

	assert.Error(t, setupLogging(0, "loud"))
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	// GIVEN a .env defining one new and one already-set variable
	dir := fs.NewDir(t, "repo", fs.WithFile(".env", "BENCHCTL_TEST_NEW=from-file\nBENCHCTL_TEST_SET=from-file\n"))
	t.Setenv("BENCHCTL_TEST_SET", "from-env")
	t.Setenv("BENCHCTL_TEST_NEW", "")
	os.Unsetenv("BENCHCTL_TEST_NEW")

	// WHEN loaded
	require.NoError(t, loadDotEnv(dir.Path()))

	// THEN only the unset variable is filled in
	assert.Equal(t, "from-file", os.Getenv("BENCHCTL_TEST_NEW"))
	assert.Equal(t, "from-env", os.Getenv("BENCHCTL_TEST_SET"))
}

func TestLoadDotEnv_MissingFileIsFine(t *testing.T) {
	assert.NoError(t, loadDotEnv(t.TempDir()))
}

func TestRootCommand_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run-id", "manifest", "simulate", "extract", "report", "history"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"params", "repo-root", "verbose", "log"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
	assert.NotNil(t, manifestCmd.Flags().Lookup("out-root"))
	assert.NotNil(t, manifestCmd.Flags().Lookup("no-patches"))
	assert.NotNil(t, extractCmd.Flags().Lookup("no-physics"))
	assert.NotNil(t, simulateCmd.Flags().Lookup("executable"))
}

func TestBuildContext_RequiresGitCheckout(t *testing.T) {
	dir := fs.NewDir(t, "plain", fs.WithFile("params.yaml", "benchmarks_selected: []\n"))

	_, err := buildContext(t.Context(), dir.Join("params.yaml"), dir.Path())

	assert.ErrorContains(t, err, "not a git repo")
}

func TestResolveExecutable(t *testing.T) {
	root := t.TempDir()
	inRoot := filepath.Join(root, "bin", "gaussino")
	require.NoError(t, os.MkdirAll(filepath.Dir(inRoot), 0o755))
	require.NoError(t, os.WriteFile(inRoot, nil, 0o755))
	elsewhere := filepath.Join(t.TempDir(), "run")
	require.NoError(t, os.WriteFile(elsewhere, nil, 0o755))

	tests := []struct {
		name                  string
		flag, env, fromParams string
		want                  string
		wantErr               string
	}{
		{name: "flag relative to repo root", flag: "bin/gaussino", env: elsewhere, want: inRoot},
		{name: "flag absolute", flag: elsewhere, fromParams: "bin/gaussino", want: elsewhere},
		{name: "environment before params", env: elsewhere, fromParams: "bin/gaussino", want: elsewhere},
		{name: "params relative to repo root", fromParams: "bin/gaussino", want: inRoot},
		{name: "nothing configured", wantErr: "missing Gaussino executable"},
		{name: "configured but absent", fromParams: "bin/nope", wantErr: "not found at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveExecutable(tt.flag, tt.env, tt.fromParams, root)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

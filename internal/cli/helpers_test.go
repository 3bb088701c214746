package cli

import (
	"bytes"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/testutil"
)

// cliEnv is an isolated working directory plus the absolute path of the
// package testdata.
type cliEnv struct {
	dir      string
	testdata string
}

// newEnv runs the test from an empty directory that stops the config
// file walk.
func newEnv(t *testing.T) *cliEnv {
	t.Helper()
	td, err := filepath.Abs("testdata")
	require.NoError(t, err)

	for _, key := range []string{"EDMSQL_DRIVER", "EDMSQL_DSN", "EDMSQL_DIALECT", "EDMSQL_CATALOG", "EDMSQL_CASE_SENSITIVE", "EDMSQL_FETCH_SIZE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	chdir(t, dir)

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	return &cliEnv{dir: dir, testdata: td}
}

func (e *cliEnv) path(name string) string {
	return filepath.Join(e.testdata, name)
}

func (e *cliEnv) catalog() string {
	return e.path("shop.yaml")
}

// shopDB creates a SQLite database file seeded with n orders.
func (e *cliEnv) shopDB(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(e.dir, "shop.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, testutil.SeedShop(db, n))
	return path
}

func (e *cliEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// chdir changes the working directory for the duration of the test
// (t.Chdir equivalent for toolchains older than Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

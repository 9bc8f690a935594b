package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/farc"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(config{logLevel: "warn", logFormat: "text", workers: 2})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeArchive(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	w := farc.NewWriter()
	for name, content := range files {
		w.AddNamedFile(name, []byte(content))
	}
	path := filepath.Join(dir, "message.bin")
	require.NoError(t, writeFileAtomic(t.Context(), path, w))
	return path
}

func TestInfo(t *testing.T) {
	t.Parallel()

	path := writeArchive(t, t.TempDir(), map[string]string{"a": "1", "b": "22"})
	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "table kind:   hashed")
	assert.Contains(t, out, "entries:      2")
	assert.Contains(t, out, "unnamed:      2")
}

func TestLs_UsesSiblingListFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeArchive(t, dir, map[string]string{"known.txt": "k", "other": "o"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "message.lst"), []byte("x/known.txt\n"), 0o600))

	out, err := run(t, "ls", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, out, " known.txt\n")
	assert.Contains(t, out, " -\n")

	out, err = run(t, "ls", "--digest", path)
	require.NoError(t, err)
	assert.Contains(t, out, "sha256:")
}

func TestLs_MissingExplicitList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeArchive(t, dir, map[string]string{"a": "1"})
	_, err := run(t, "ls", "--names", filepath.Join(dir, "nope.lst"), path)
	require.Error(t, err)
}

func TestExtractAndRepack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeArchive(t, dir, map[string]string{"a.txt": "alpha", "b.txt": "beta"})
	list := filepath.Join(dir, "names.txt")
	require.NoError(t, os.WriteFile(list, []byte("a.txt\nb.txt\n"), 0o600))

	outDir := filepath.Join(dir, "out")
	out, err := run(t, "extract", "--names", list, path, outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 files")
	got, err := os.ReadFile(filepath.Join(outDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(got))

	replace := filepath.Join(dir, "replace")
	require.NoError(t, os.Mkdir(replace, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(replace, "a.txt"), []byte("ALPHA"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(replace, "c.txt"), []byte("gamma"), 0o600))

	repacked := filepath.Join(dir, "repacked.bin")
	out, err = run(t, "repack", "--replace", replace, path, repacked)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 3 entries")

	f, err := farc.OpenFile(repacked)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	content, err := f.ReadName("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "ALPHA", string(content))
	content, err = f.ReadName("b.txt")
	require.NoError(t, err)
	assert.Equal(t, "beta", string(content))
}

func TestConfig(t *testing.T) {
	t.Setenv(envLogLevel, "debug")
	t.Setenv(envLogFormat, "json")
	t.Setenv(envWorkers, "7")

	cfg := configFromEnv()
	assert.Equal(t, config{logLevel: "debug", logFormat: "json", workers: 7}, cfg)

	var buf bytes.Buffer
	logger, err := cfg.newLogger(&buf)
	require.NoError(t, err)
	logger.Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	bad := config{logLevel: "loud", logFormat: "text"}
	_, err = bad.newLogger(&buf)
	require.Error(t, err)
	bad = config{logLevel: "info", logFormat: "xml"}
	_, err = bad.newLogger(&buf)
	require.Error(t, err)
}

func TestInvalidLogLevelFlag(t *testing.T) {
	t.Parallel()

	path := writeArchive(t, t.TempDir(), map[string]string{"a": "1"})
	_, err := run(t, "--log-level", "loud", "info", path)
	require.Error(t, err)
}

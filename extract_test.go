package farc

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/farc/internal/testutil"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	data := hashedArchive(
		testutil.RawEntry{Hash: Hash("known.txt"), Content: []byte("known")},
		testutil.RawEntry{Hash: 0xabc, Content: []byte("anon")},
	)
	a := newArchive(t, data)
	_, err := a.CheckFileName("known.txt")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	stats, err := a.Extract(context.Background(), dir, ExtractWithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, ExtractStats{Written: 2, Bytes: 9}, stats)

	got, err := os.ReadFile(filepath.Join(dir, "known.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("known"), got)
	got, err = os.ReadFile(filepath.Join(dir, "00000abc.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("anon"), got)

	// Existing files are skipped by default.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "known.txt"), []byte("local"), 0o600))
	stats, err = a.Extract(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, ExtractStats{Skipped: 2}, stats)
	got, err = os.ReadFile(filepath.Join(dir, "known.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("local"), got)

	stats, err = a.Extract(context.Background(), dir, ExtractWithOverwrite(true))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Written)
	got, err = os.ReadFile(filepath.Join(dir, "known.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("known"), got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestExtract_RejectsUnsafeNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"../escape", "dir/file", "."} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			a := newArchive(t, testutil.Named(testutil.NamedFile{Name: name, Content: []byte("x")}))

			dir := t.TempDir()
			_, err := a.Extract(context.Background(), dir)
			var pe *fs.PathError
			require.ErrorAs(t, err, &pe)
			require.ErrorIs(t, err, fs.ErrInvalid)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestExtract_RejectsDuplicateFileNames(t *testing.T) {
	t.Parallel()

	a := newArchive(t, hashedArchive(
		testutil.RawEntry{Hash: Hash("0000abcd.bin"), Content: []byte("named")},
		testutil.RawEntry{Hash: 0xabcd, Content: []byte("anon")},
	))
	ok, err := a.CheckFileName("0000abcd.bin")
	require.NoError(t, err)
	require.True(t, ok)

	dir := t.TempDir()
	stats, err := a.Extract(context.Background(), dir)
	var pe *fs.PathError
	require.ErrorAs(t, err, &pe)
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.Equal(t, "0000abcd.bin", pe.Path)
	assert.Equal(t, ExtractStats{}, stats)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEntryFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a.bin", EntryFileName(&Entry{Name: "a.bin", HasName: true}))
	assert.Equal(t, "0000001f.bin", EntryFileName(&Entry{NameHash: 0x1f}))
}

func TestInspect(t *testing.T) {
	t.Parallel()

	a := newArchive(t, testutil.Named(
		testutil.NamedFile{Name: "a", Content: []byte("alpha")},
		testutil.NamedFile{Name: "b", Content: nil},
	))

	infos, err := a.Inspect(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, Hash("a"), infos[0].Hash)
	require.NotNil(t, infos[0].Name)
	assert.Equal(t, "a", *infos[0].Name)
	assert.Equal(t, uint32(5), infos[0].Length)
	assert.Equal(t, digest.FromBytes([]byte("alpha")), infos[0].Digest)
	assert.Equal(t, digest.FromBytes(nil), infos[1].Digest)
	require.NoError(t, infos[1].Digest.Validate())
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "message.bin")
	require.NoError(t, os.WriteFile(path, hashedArchive(testutil.RawEntry{Hash: 3, Content: []byte("abc")}), 0o600))

	f, err := OpenFile(path)
	require.NoError(t, err)
	got, err := f.ReadHash(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.bin"))
	require.ErrorIs(t, err, fs.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o600))
	_, err = OpenFile(bad)
	require.ErrorIs(t, err, ErrHeader)
}

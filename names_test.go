package farc

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/farc/internal/testutil"
)

func TestCheckListFile(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	data := hashedArchive(
		testutil.RawEntry{Hash: Hash("common.bin"), Content: []byte("c")},
		testutil.RawEntry{Hash: Hash("dungeon.bin"), Content: []byte("d")},
		testutil.RawEntry{Hash: 0x1},
	)
	a := newArchive(t, data, WithLogger(logger))

	list := strings.Join([]string{
		"MESSAGE/common.bin",
		"",
		"deep/dir/dungeon.bin\r",
		"unknown.bin",
		"common.bin",
		"trailing/",
	}, "\n")

	rec, err := a.CheckListFile(strings.NewReader(list))
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Matched)
	assert.Equal(t, []string{"unknown.bin", "common.bin"}, rec.Missed)
	assert.Equal(t, 2, a.KnownNameCount())

	got, err := a.ReadName("dungeon.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("d"), got)

	assert.Contains(t, logs.String(), "recovered file name")
	assert.Contains(t, logs.String(), "name=unknown.bin")
}

func TestListFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"message.bin", "message.lst"},
		{"MESSAGE/message_us.bin", "MESSAGE/message_us.lst"},
		{"noext", "noext.lst"},
		{"a.b.c", "a.b.lst"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ListFileName(tt.in), tt.in)
	}
}

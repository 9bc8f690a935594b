package http_test

import (
	"bytes"
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/farc"
	farchttp "github.com/meigma/farc/http"
)

func countingServer(t *testing.T, data []byte) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var requests atomic.Int64
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		requests.Add(1)
		nethttp.ServeContent(w, r, "data", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestBlockCache_ReadsAcrossBlocks(t *testing.T) {
	t.Parallel()

	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i)
	}
	server, requests := countingServer(t, data)

	src, err := farchttp.NewSource(context.Background(), server.URL, farchttp.WithBlockCache(16, 8))
	require.NoError(t, err)
	probes := requests.Load()

	buf := make([]byte, 20)
	n, err := src.ReadAt(buf, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, data[10:30], buf)
	assert.Equal(t, int64(2), requests.Load()-probes, "two blocks fetched")

	n, err = src.ReadAt(buf[:4], 20)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, data[20:24], buf[:4])
	assert.Equal(t, int64(2), requests.Load()-probes, "served from cache")

	n, err = src.ReadAt(buf, 90)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, data[90:], buf[:n])
}

func TestBlockCache_Evicts(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("x"), 64)
	server, requests := countingServer(t, data)

	src, err := farchttp.NewSource(context.Background(), server.URL, farchttp.WithBlockCache(16, 1))
	require.NoError(t, err)
	probes := requests.Load()

	buf := make([]byte, 1)
	for _, off := range []int64{0, 16, 0} {
		_, err := src.ReadAt(buf, off)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), requests.Load()-probes)
}

func TestBlockCache_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("0123456789abcdef"), 8)
	server, requests := countingServer(t, data)

	src, err := farchttp.NewSource(context.Background(), server.URL, farchttp.WithBlockCache(len64(data), 1))
	require.NoError(t, err)
	probes := requests.Load()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, 16)
			n, err := src.ReadAt(buf, int64(i*16))
			assert.NoError(t, err)
			assert.Equal(t, data[i*16:i*16+n], buf[:n])
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, requests.Load()-probes, int64(2), "concurrent fetches of one block should be deduplicated")
}

func TestBlockCache_ParsesArchiveWithFewRequests(t *testing.T) {
	t.Parallel()

	w := farc.NewWriter()
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		w.AddNamedFile(name, []byte(name))
	}
	data, err := w.Bytes()
	require.NoError(t, err)
	server, requests := countingServer(t, data)

	src, err := farchttp.NewSource(context.Background(), server.URL, farchttp.WithBlockCache(0, 4))
	require.NoError(t, err)
	a, err := farc.New(src.ReadSeeker())
	require.NoError(t, err)
	assert.Equal(t, 6, a.Len())
	assert.LessOrEqual(t, requests.Load(), int64(2))
}

func len64(b []byte) int64 {
	return int64(len(b))
}

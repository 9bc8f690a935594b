package http

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultBlockSize is the block size used by WithBlockCache when blockSize <= 0.
const DefaultBlockSize int64 = 64 << 10

// WithBlockCache makes reads fetch whole aligned blocks of blockSize bytes and
// keep up to maxBlocks of them in memory, evicting the oldest first.
//
// Parsing an archive issues many small reads; with a block cache they are
// served from a handful of range requests.
func WithBlockCache(blockSize int64, maxBlocks int) Option {
	return func(s *Source) {
		if blockSize <= 0 {
			blockSize = DefaultBlockSize
		}
		s.blocks = &blockCache{
			blockSize: blockSize,
			maxBlocks: max(maxBlocks, 1),
			blocks:    make(map[int64][]byte),
		}
	}
}

// blockCache holds recently fetched blocks of one Source.
type blockCache struct {
	blockSize  int64
	maxBlocks  int
	fetchGroup singleflight.Group // deduplicates concurrent fetches for same block

	mu     sync.Mutex
	blocks map[int64][]byte
	order  []int64
}

func (c *blockCache) lookup(index int64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.blocks[index]
	return data, ok
}

func (c *blockCache) store(index int64, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.blocks[index]; ok {
		return
	}
	for len(c.order) >= c.maxBlocks {
		delete(c.blocks, c.order[0])
		c.order = c.order[1:]
	}
	c.blocks[index] = data
	c.order = append(c.order, index)
}

// block returns block index, fetching it with fetch on a miss.
func (c *blockCache) block(index, length int64, fetch func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.lookup(index); ok {
		return data, nil
	}
	result, err, _ := c.fetchGroup.Do(strconv.FormatInt(index, 10), func() (any, error) {
		if data, ok := c.lookup(index); ok {
			return data, nil
		}
		data, err := fetch()
		if err != nil {
			return nil, err
		}
		if int64(len(data)) != length {
			return nil, io.ErrUnexpectedEOF
		}
		c.store(index, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

// cachedReadAt serves ReadAt from whole blocks.
func (s *Source) cachedReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}
	c := s.blocks

	expected := int64(len(p))
	if off+expected > s.size {
		expected = s.size - off
	}

	var n int64
	for index := off / c.blockSize; index <= (off+expected-1)/c.blockSize; index++ {
		blockStart := index * c.blockSize
		blockEnd := min(blockStart+c.blockSize, s.size)
		blockLen := blockEnd - blockStart

		data, err := c.block(index, blockLen, func() ([]byte, error) {
			buf := make([]byte, blockLen)
			m, err := s.rangeReadAt(buf, blockStart)
			if err != nil && err != io.EOF {
				return nil, err
			}
			return buf[:m], nil
		})
		if err != nil {
			return int(n), err
		}

		copyStart := max(off, blockStart)
		copyEnd := min(off+expected, blockEnd)
		n += int64(copy(p[copyStart-off:copyEnd-off], data[copyStart-blockStart:copyEnd-blockStart]))
	}

	if expected < int64(len(p)) {
		return int(n), io.EOF
	}
	return int(n), nil
}

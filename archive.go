package farc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
	"unicode/utf16"

	"github.com/meigma/farc/internal/index"
	"github.com/meigma/farc/internal/sizing"
	"github.com/meigma/farc/partition"
	"github.com/meigma/farc/sir0"
)

// Entry describes one sub-file of an archive.
type Entry = index.Entry

// Hash returns the name hash used by hash-indexed archives: the IEEE CRC-32
// of the UTF-16LE encoding of name.
func Hash(name string) uint32 {
	return index.Hash(name)
}

const (
	tableHeaderLen = 12
	tableEntryLen  = 12
)

// Archive provides read access to the sub-files of a FARC archive.
//
// Archive is safe for concurrent use. Names recovered with CheckFileName are
// visible to lookups that start afterwards.
type Archive struct {
	mu         sync.RWMutex
	idx        *index.Index
	shared     *partition.Shared
	header     Header
	tableKind  TableKind
	maxEntries uint32
	logger     *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// New parses the archive read from src.
//
// src is owned by the Archive afterwards: all access goes through a shared,
// lock-guarded handle, and views returned by OpenName and OpenHash keep
// reading from it. Parsing is all-or-nothing; on error no Archive is returned.
func New(src io.ReadSeeker, opts ...Option) (*Archive, error) {
	a := &Archive{maxEntries: DefaultMaxEntries}
	for _, opt := range opts {
		opt(a)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHeader, err)
	}
	header, err := readHeader(src)
	if err != nil {
		return nil, err
	}
	a.header = header
	a.shared = partition.NewShared(src)

	view, err := a.shared.View(int64(header.Sir0Offset), int64(header.Sir0Length))
	if err != nil {
		return nil, fmt.Errorf("%w: sir0 block: %w", ErrPartition, err)
	}
	container, err := sir0.Decode(view)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodec, err)
	}

	idx, err := a.parseTable(container)
	if err != nil {
		return nil, err
	}
	a.idx = idx

	a.log().Debug("parsed archive",
		"entries", idx.Len(),
		"table_kind", a.tableKind.String(),
		"sub_type", uint32(header.SubType),
		"data_offset", header.DataOffset)
	return a, nil
}

// parseTable reads the file-allocation table described by the SIR0 data header.
func (a *Archive) parseTable(c *sir0.Container) (*index.Index, error) {
	h := c.Header()
	if len(h) < tableHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrHeaderTooShort, len(h), tableHeaderLen)
	}
	tableOffset := binary.LittleEndian.Uint32(h[0:])
	count := binary.LittleEndian.Uint32(h[4:])
	kind := TableKind(binary.LittleEndian.Uint32(h[8:]))

	switch kind {
	case TableNamed, TableHashed:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedTableKind, uint32(kind))
	}
	if a.maxEntries > 0 && count > a.maxEntries {
		return nil, fmt.Errorf("%w: %d exceeds limit %d", ErrTooManyEntries, count, a.maxEntries)
	}
	a.tableKind = kind

	payload := c.Payload()
	names := bufio.NewReaderSize(payload, 128)
	idx := index.New()
	var rec [tableEntryLen]byte
	for i := range count {
		pos := uint64(tableOffset) + uint64(i)*tableEntryLen
		if _, err := payload.Seek(int64(pos), io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek table entry %d: %w", i, err)
		}
		if _, err := io.ReadFull(payload, rec[:]); err != nil {
			return nil, fmt.Errorf("read table entry %d: %w", i, err)
		}
		key := binary.LittleEndian.Uint32(rec[0:])
		dataOffset := binary.LittleEndian.Uint32(rec[4:])
		dataLength := binary.LittleEndian.Uint32(rec[8:])

		start, ok := sizing.AddUint32(a.header.DataOffset, dataOffset)
		if !ok {
			return nil, &OffsetOverflowError{Base: a.header.DataOffset, Offset: dataOffset}
		}

		if kind == TableHashed {
			if err := idx.AddWithHash(key, start, dataLength); err != nil {
				return nil, err
			}
			continue
		}

		if _, err := payload.Seek(int64(key), io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek name of entry %d: %w", i, err)
		}
		names.Reset(payload)
		name, err := readUTF16String(names)
		if err != nil {
			return nil, fmt.Errorf("read name of entry %d: %w", i, err)
		}
		if err := idx.AddWithName(name, start, dataLength); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// readUTF16String reads little-endian UTF-16 code units up to a zero unit.
func readUTF16String(r io.Reader) (string, error) {
	var (
		units []uint16
		buf   [2]byte
	)
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return "", err
		}
		u := binary.LittleEndian.Uint16(buf[:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	if err := validateUTF16(units); err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

// validateUTF16 rejects unpaired surrogates, which utf16.Decode would
// silently replace.
func validateUTF16(units []uint16) error {
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u < 0xd800 || u > 0xdfff:
		case u <= 0xdbff && i+1 < len(units) && units[i+1] >= 0xdc00 && units[i+1] <= 0xdfff:
			i++
		default:
			return fmt.Errorf("%w: unpaired surrogate %#04x at unit %d", ErrInvalidUTF16, u, i)
		}
	}
	return nil
}

// Header returns the outer header.
func (a *Archive) Header() Header {
	return a.header
}

// TableKind reports whether the table was name- or hash-indexed.
func (a *Archive) TableKind() TableKind {
	return a.tableKind
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.idx.Len()
}

// KnownNameCount returns the number of entries whose name is known.
func (a *Archive) KnownNameCount() int {
	n := 0
	for _, e := range a.Entries() {
		if e.HasName {
			n++
		}
	}
	return n
}

// UnknownNameCount returns the number of entries known only by hash.
func (a *Archive) UnknownNameCount() int {
	return a.Len() - a.KnownNameCount()
}

// Entries returns a snapshot of all entries in table order.
func (a *Archive) Entries() []Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.idx.Snapshot()
}

// Names returns an iterator over the known names.
//
// The sequence reflects the index when Names is called and can be ranged
// over repeatedly; names recovered later do not appear in it.
func (a *Archive) Names() iter.Seq[string] {
	entries := a.Entries()
	return func(yield func(string) bool) {
		for i := range entries {
			if entries[i].HasName && !yield(entries[i].Name) {
				return
			}
		}
	}
}

// UnnamedHashes returns an iterator over the hashes of entries without a known name.
func (a *Archive) UnnamedHashes() iter.Seq[uint32] {
	entries := a.Entries()
	return func(yield func(uint32) bool) {
		for i := range entries {
			if !entries[i].HasName && !yield(entries[i].NameHash) {
				return
			}
		}
	}
}

// All returns an iterator over every entry's hash and name. The name is nil
// when unknown.
func (a *Archive) All() iter.Seq2[uint32, *string] {
	entries := a.Entries()
	return func(yield func(uint32, *string) bool) {
		for i := range entries {
			if !yield(entries[i].NameHash, entries[i].NamePtr()) {
				return
			}
		}
	}
}

// Hashes returns an iterator over every entry's hash.
func (a *Archive) Hashes() iter.Seq[uint32] {
	entries := a.Entries()
	return func(yield func(uint32) bool) {
		for i := range entries {
			if !yield(entries[i].NameHash) {
				return
			}
		}
	}
}

// Lookup returns the entry for name, hashing the name if it is not known.
func (a *Archive) Lookup(name string) (Entry, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.idx.ByName(name)
}

// LookupHash returns the entry with the given name hash.
func (a *Archive) LookupHash(hash uint32) (Entry, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.idx.ByHash(hash)
}

// OpenName returns a reader over the content of the named entry.
func (a *Archive) OpenName(name string) (*partition.View, error) {
	e, ok := a.Lookup(name)
	if !ok {
		return nil, &NotFoundError{Name: name, ByName: true}
	}
	return a.open(&e)
}

// OpenHash returns a reader over the content of the entry with the given hash.
func (a *Archive) OpenHash(hash uint32) (*partition.View, error) {
	e, ok := a.LookupHash(hash)
	if !ok {
		return nil, &NotFoundError{Hash: hash}
	}
	return a.open(&e)
}

func (a *Archive) open(e *Entry) (*partition.View, error) {
	v, err := a.shared.View(int64(e.Start), int64(e.Length))
	if err != nil {
		return nil, fmt.Errorf("%w: entry %08x: %w", ErrPartition, e.NameHash, err)
	}
	return v, nil
}

// ReadName returns the full content of the named entry.
func (a *Archive) ReadName(name string) ([]byte, error) {
	v, err := a.OpenName(name)
	if err != nil {
		return nil, err
	}
	return readView(v)
}

// ReadHash returns the full content of the entry with the given hash.
func (a *Archive) ReadHash(hash uint32) ([]byte, error) {
	v, err := a.OpenHash(hash)
	if err != nil {
		return nil, err
	}
	return readView(v)
}

func readView(v *partition.View) ([]byte, error) {
	buf := make([]byte, v.Size())
	if _, err := io.ReadFull(v, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// CheckFileName records name for the unnamed entry whose hash matches it.
//
// It returns true if a name was recovered. A name whose hash is unknown, or
// whose entry already has a name, returns false without changing anything.
// An error is only returned if the index is internally inconsistent.
func (a *Archive) CheckFileName(name string) (bool, error) {
	a.mu.Lock()
	ok, err := a.idx.CheckName(name)
	a.mu.Unlock()
	if err != nil {
		return false, err
	}
	if ok {
		a.log().Debug("recovered file name", "name", name, "hash", fmt.Sprintf("%08x", Hash(name)))
	}
	return ok, nil
}

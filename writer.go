package farc

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/farc/internal/sizing"
	"github.com/meigma/farc/sir0"
)

const (
	// storageAlign is the alignment of each stored file and of the meta sections.
	storageAlign = 16

	// dataAlign is the alignment of the storage region in the output.
	dataAlign = 256

	// dataLengthSlack is added to the storage size in the all_data_length field.
	dataLengthSlack = 112

	// metaReserved is the number of leading meta bytes before the first entry.
	metaReserved = 16
)

// Writer builds hash-indexed archives.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	files       map[uint32][]byte
	readWorkers int
	logger      *slog.Logger
}

// NewWriter returns an empty Writer.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{
		files:       make(map[uint32][]byte),
		readWorkers: DefaultReadWorkers,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// FromArchive returns a Writer holding the content of every entry of a.
//
// Entries are read concurrently with up to WithReadWorkers readers. The first
// read error aborts the copy and is returned.
func FromArchive(ctx context.Context, a *Archive, opts ...WriterOption) (*Writer, error) {
	w := NewWriter(opts...)
	entries := a.Entries()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(w.readWorkers, 1))
	for i := range entries {
		e := entries[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := a.ReadHash(e.NameHash)
			if err != nil {
				return fmt.Errorf("read entry %08x: %w", e.NameHash, err)
			}
			mu.Lock()
			w.files[e.NameHash] = content
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	w.log().Debug("copied archive entries", "entries", len(entries))
	return w, nil
}

// AddHashedFile stores content under hash, replacing any previous content.
func (w *Writer) AddHashedFile(hash uint32, content []byte) {
	w.files[hash] = content
}

// AddNamedFile stores content under the hash of name. The name itself is not
// written.
func (w *Writer) AddNamedFile(name string, content []byte) {
	w.AddHashedFile(Hash(name), content)
}

// AddDir adds every regular file directly inside dir under the hash of its
// file name. Subdirectories are skipped and symbolic links are not followed.
// It returns the number of files added.
func (w *Writer) AddDir(ctx context.Context, dir string) (int, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return 0, err
	}
	defer root.Close()

	entries, err := fs.ReadDir(root.FS(), ".")
	if err != nil {
		return 0, fmt.Errorf("read dir: %w", err)
	}

	added := 0
	for _, d := range entries {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		if !d.Type().IsRegular() {
			continue
		}
		content, err := fs.ReadFile(root.FS(), d.Name())
		if err != nil {
			return added, fmt.Errorf("read %s: %w", d.Name(), err)
		}
		w.AddNamedFile(d.Name(), content)
		added++
	}
	return added, nil
}

// Len returns the number of entries.
func (w *Writer) Len() int {
	return len(w.files)
}

// WriteTo serializes the archive to out.
//
// The complete archive is assembled in memory before anything is written, so
// a size error leaves out untouched.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	buf, err := w.build()
	if err != nil {
		return 0, err
	}
	n, err := out.Write(buf)
	return int64(n), err
}

// Bytes returns the serialized archive.
func (w *Writer) Bytes() ([]byte, error) {
	return w.build()
}

func (w *Writer) build() ([]byte, error) {
	hashes := make([]uint32, 0, len(w.files))
	for h := range w.files {
		hashes = append(hashes, h)
	}
	slices.Sort(hashes)

	count, err := sizing.ToUint32(len(hashes), ErrTooLarge)
	if err != nil {
		return nil, err
	}

	storage, starts, err := w.buildStorage(hashes)
	if err != nil {
		return nil, err
	}
	lengths := make([]int, len(hashes))
	for i, h := range hashes {
		lengths[i] = len(w.files[h])
	}
	meta, err := buildMeta(hashes, starts, lengths, count)
	if err != nil {
		return nil, err
	}

	metaLen, err := sizing.ToUint32(len(meta), ErrTooLarge)
	if err != nil {
		return nil, err
	}
	dataOffset := outerHeaderSize + len(meta)
	dataOffset += sizing.Padding(dataOffset, dataAlign)
	dataOffset32, err := sizing.ToUint32(dataOffset, ErrTooLarge)
	if err != nil {
		return nil, err
	}
	dataLength, err := sizing.ToUint32(len(storage)+dataLengthSlack, ErrTooLarge)
	if err != nil {
		return nil, err
	}

	header := Header{
		Reserved:   writerReserved,
		SubType:    SubType5,
		Sir0Offset: outerHeaderSize,
		Sir0Length: metaLen,
		DataOffset: dataOffset32,
		DataLength: dataLength,
	}

	out := make([]byte, 0, dataOffset+len(storage))
	out = header.appendTo(out)
	out = append(out, meta...)
	out = append(out, make([]byte, dataOffset-len(out))...)
	out = append(out, storage...)

	w.log().Debug("built archive",
		"entries", count,
		"meta_bytes", metaLen,
		"storage_bytes", len(storage),
		"total_bytes", len(out))
	return out, nil
}

// buildStorage concatenates contents in hash order, padding each to
// storageAlign, and returns the start offset of every content.
func (w *Writer) buildStorage(hashes []uint32) ([]byte, []uint32, error) {
	size := 0
	for _, h := range hashes {
		n := len(w.files[h])
		size += n + sizing.Padding(n, storageAlign)
	}

	storage := make([]byte, 0, size)
	starts := make([]uint32, len(hashes))
	for i, h := range hashes {
		start, err := sizing.ToUint32(len(storage), ErrTooLarge)
		if err != nil {
			return nil, nil, err
		}
		starts[i] = start
		content := w.files[h]
		storage = append(storage, content...)
		storage = appendZeros(storage, sizing.Padding(len(content), storageAlign))
	}
	return storage, starts, nil
}

// buildMeta builds the SIR0 container holding the hashed table.
func buildMeta(hashes, starts []uint32, lengths []int, count uint32) ([]byte, error) {
	meta := make([]byte, metaReserved, metaReserved+len(hashes)*tableEntryLen+64)
	for i, h := range hashes {
		length, err := sizing.ToUint32(lengths[i], ErrTooLarge)
		if err != nil {
			return nil, err
		}
		meta = binary.LittleEndian.AppendUint32(meta, h)
		meta = binary.LittleEndian.AppendUint32(meta, starts[i])
		meta = binary.LittleEndian.AppendUint32(meta, length)
	}

	meta = appendZeros(meta, sizing.Padding(len(meta), storageAlign))
	headerPos := uint64(len(meta))
	pointers := []uint64{4, 8, headerPos}
	meta = binary.LittleEndian.AppendUint32(meta, metaReserved)
	meta = binary.LittleEndian.AppendUint32(meta, count)
	meta = binary.LittleEndian.AppendUint32(meta, uint32(TableHashed))

	meta = appendZeros(meta, sizing.Padding(len(meta), storageAlign))
	footerPos := uint64(len(meta))

	buf := bytes.NewBuffer(meta)
	if err := sir0.EncodeFooter(buf, pointers); err != nil {
		return nil, err
	}
	meta = buf.Bytes()
	meta = appendZeros(meta, sizing.Padding(len(meta), storageAlign))

	var head bytes.Buffer
	if err := sir0.EncodeHeader(&head, headerPos, footerPos); err != nil {
		return nil, err
	}
	copy(meta[:sir0.HeaderSize], head.Bytes())
	return meta, nil
}

func appendZeros(b []byte, n int) []byte {
	return append(b, make([]byte, n)...)
}

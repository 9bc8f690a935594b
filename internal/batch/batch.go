// Package batch copies archive entries to a sink with a bounded worker pool.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Item is one entry to copy.
type Item struct {
	// Path is the slash-separated destination path relative to the sink root.
	Path string

	// Hash is the entry's name hash.
	Hash uint32

	// Size is the content length in bytes.
	Size int64
}

// Source opens the content of an item.
type Source interface {
	Open(item *Item) (io.Reader, error)
}

// Committer is a destination that becomes visible only on Commit.
type Committer interface {
	io.Writer
	Commit() error
	Discard() error
}

// Sink receives item content.
type Sink interface {
	// ShouldProcess reports whether item needs to be written.
	ShouldProcess(item *Item) bool

	// Writer returns the destination for item.
	Writer(item *Item) (Committer, error)
}

// Stats counts the outcome of a Process call.
type Stats struct {
	Written int
	Skipped int
	Bytes   int64
}

// Processor copies items from a Source to a Sink.
type Processor struct {
	source  Source
	workers int
	logger  *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of items processed concurrently.
// Values < 1 process items one at a time.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithLogger sets the logger used for per-item tracing.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a processor reading from source.
func NewProcessor(source Source, opts ...ProcessorOption) *Processor {
	p := &Processor{source: source}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// Process copies every item accepted by sink.ShouldProcess.
//
// Processing stops on the first error or when ctx is cancelled. Items that
// were committed before the failure stay in place.
func (p *Processor) Process(ctx context.Context, items []*Item, sink Sink) (Stats, error) {
	var (
		written atomic.Int64
		skipped atomic.Int64
		total   atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.workers, 1))
	for _, item := range items {
		if !sink.ShouldProcess(item) {
			skipped.Add(1)
			p.log().Debug("skipping existing entry", "path", item.Path)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := p.processItem(item, sink)
			if err != nil {
				return fmt.Errorf("batch: %s: %w", item.Path, err)
			}
			written.Add(1)
			total.Add(n)
			return nil
		})
	}
	err := g.Wait()

	stats := Stats{
		Written: int(written.Load()),
		Skipped: int(skipped.Load()),
		Bytes:   total.Load(),
	}
	return stats, err
}

// processItem streams one item into its committer.
func (p *Processor) processItem(item *Item, sink Sink) (int64, error) {
	r, err := p.source.Open(item)
	if err != nil {
		return 0, err
	}

	w, err := sink.Writer(item)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(w, r)
	if err == nil && n != item.Size {
		err = fmt.Errorf("short copy (%d of %d bytes)", n, item.Size)
	}
	if err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return 0, err
	}

	if err := w.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	p.log().Debug("wrote entry", "path", item.Path, "bytes", n)
	return n, nil
}

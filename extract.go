package farc

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/meigma/farc/internal/batch"
)

// ExtractStats reports the outcome of Extract.
type ExtractStats struct {
	// Written is the number of files written.
	Written int

	// Skipped is the number of entries whose destination already existed.
	Skipped int

	// Bytes is the total content size written.
	Bytes int64
}

// extractConfig holds configuration for Extract.
type extractConfig struct {
	overwrite bool
	workers   int
	logger    *slog.Logger
}

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

// ExtractWithOverwrite replaces files that already exist in the destination.
// By default they are skipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(c *extractConfig) {
		c.overwrite = overwrite
	}
}

// ExtractWithWorkers sets the number of entries written concurrently.
func ExtractWithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// ExtractWithLogger sets the logger used while extracting.
// If not set, the archive's logger is used.
func ExtractWithLogger(logger *slog.Logger) ExtractOption {
	return func(c *extractConfig) {
		c.logger = logger
	}
}

// EntryFileName returns the file name Extract uses for e: its name when
// known, otherwise the hash as eight hex digits with a ".bin" extension.
func EntryFileName(e *Entry) string {
	if e.HasName {
		return e.Name
	}
	return fmt.Sprintf("%08x.bin", e.NameHash)
}

// Extract writes every entry to a file in destDir.
//
// Files are written atomically, so a failed extraction never leaves a
// partial file at a destination path. Every file name is validated before
// anything is written; a name that is not a single local path element, or
// that two entries share, yields a *fs.PathError.
func (a *Archive) Extract(ctx context.Context, destDir string, opts ...ExtractOption) (ExtractStats, error) {
	cfg := extractConfig{workers: DefaultReadWorkers, logger: a.logger}
	for _, opt := range opts {
		opt(&cfg)
	}

	entries := a.Entries()
	items := make([]*batch.Item, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		e := &entries[i]
		name := EntryFileName(e)
		if err := batch.ValidPath(name); err != nil {
			return ExtractStats{}, err
		}
		if _, dup := seen[name]; dup {
			return ExtractStats{}, &fs.PathError{Op: "extract", Path: name, Err: ErrDuplicateName}
		}
		seen[name] = struct{}{}
		items = append(items, &batch.Item{Path: name, Hash: e.NameHash, Size: int64(e.Length)})
	}

	sink := batch.NewFileSink(destDir, batch.WithOverwrite(cfg.overwrite))
	proc := batch.NewProcessor(archiveSource{a},
		batch.WithWorkers(cfg.workers),
		batch.WithLogger(cfg.logger))
	stats, err := proc.Process(ctx, items, sink)

	out := ExtractStats{Written: stats.Written, Skipped: stats.Skipped, Bytes: stats.Bytes}
	if err != nil {
		return out, err
	}
	a.log().Debug("extracted archive", "dir", destDir, "written", out.Written, "skipped", out.Skipped)
	return out, nil
}

// archiveSource opens batch items as archive views.
type archiveSource struct {
	a *Archive
}

func (s archiveSource) Open(item *batch.Item) (io.Reader, error) {
	return s.a.OpenHash(item.Hash)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/meigma/farc"
	farchttp "github.com/meigma/farc/http"
)

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// openArchive opens a local path or an http(s) URL. The returned function
// releases the underlying file.
func openArchive(ctx context.Context, target string, logger *slog.Logger) (*farc.Archive, func() error, error) {
	if isURL(target) {
		src, err := farchttp.NewSource(ctx, target, farchttp.WithBlockCache(0, 64))
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", target, err)
		}
		a, err := farc.New(src.ReadSeeker(), farc.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", target, err)
		}
		return a, func() error { return nil }, nil
	}

	f, err := farc.OpenFile(target, farc.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return f.Archive, f.Close, nil
}

// recoverNames applies a list file to a. An explicit listPath must exist;
// otherwise the list file next to a local archive is used when present.
func recoverNames(a *farc.Archive, target, listPath string, logger *slog.Logger) error {
	explicit := listPath != ""
	if !explicit {
		if isURL(target) {
			return nil
		}
		listPath = farc.ListFileName(target)
	}

	f, err := os.Open(listPath) //nolint:gosec // User-provided path is intentional
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open list file: %w", err)
	}
	defer f.Close()

	rec, err := a.CheckListFile(f)
	if err != nil {
		return err
	}
	logger.Info("recovered names", "list", listPath, "matched", rec.Matched, "missed", len(rec.Missed))
	return nil
}

package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSink writes items to the filesystem with atomic writes.
//
// Files are written to a temporary file in the destination directory,
// then renamed to the final path on Commit. This ensures that
// partially written files are never visible at the final path.
type FileSink struct {
	destDir   string
	overwrite bool
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// NewFileSink creates a FileSink that writes to destDir.
// destDir is created on first write if missing.
func NewFileSink(destDir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{
		destDir: destDir,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidPath reports an error unless p names a single file inside the sink
// root.
func ValidPath(p string) error {
	if !fs.ValidPath(p) || p == "." || filepath.Base(p) != p || !filepath.IsLocal(p) {
		return &fs.PathError{Op: "extract", Path: p, Err: fs.ErrInvalid}
	}
	return nil
}

// ShouldProcess returns false if the file already exists and overwrite is disabled.
func (s *FileSink) ShouldProcess(item *Item) bool {
	if s.overwrite {
		return true
	}
	_, err := os.Lstat(filepath.Join(s.destDir, item.Path))
	return os.IsNotExist(err)
}

// Writer returns a Committer that writes to a temp file and renames on Commit.
func (s *FileSink) Writer(item *Item) (Committer, error) {
	if err := ValidPath(item.Path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", s.destDir, err)
	}

	tempFile, err := os.CreateTemp(s.destDir, ".farc-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	return &fileCommitter{
		destPath: filepath.Join(s.destDir, item.Path),
		tempFile: tempFile,
	}, nil
}

// fileCommitter writes to a temp file and renames on Commit.
type fileCommitter struct {
	destPath string
	tempFile *os.File
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file and renames it to the final path.
func (c *fileCommitter) Commit() error {
	tempPath := c.tempFile.Name()

	if err := c.tempFile.Close(); err != nil {
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempPath, c.destPath); err != nil {
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.destPath, err)
	}
	return nil
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	tempPath := c.tempFile.Name()
	_ = c.tempFile.Close() //nolint:errcheck // we're cleaning up
	return os.Remove(tempPath)
}

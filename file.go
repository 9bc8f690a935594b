package farc

import (
	"fmt"
	"os"
)

// File wraps an Archive with its underlying file handle.
// Close must be called to release file resources.
type File struct {
	*Archive
	file *os.File
}

// Close closes the underlying file. Views opened from the archive fail
// afterwards.
func (f *File) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// OpenFile opens and parses the archive at path.
//
// The returned File must be closed to release file resources.
func OpenFile(path string, opts ...Option) (*File, error) {
	file, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a, err := New(file, opts...)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &File{
		Archive: a,
		file:    file,
	}, nil
}

var _ interface{ Close() error } = (*File)(nil)

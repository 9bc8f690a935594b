package partition

import (
	"errors"
	"io"
)

var (
	errWhence = errors.New("partition: invalid whence")
	errOffset = errors.New("partition: negative position")
)

// View reads a fixed byte range of a Shared stream.
//
// Read and Seek share the view's cursor and must not be called concurrently
// on the same View. ReadAt does not use the cursor and is safe for concurrent
// use. Distinct views are independent.
type View struct {
	shared *Shared
	off    int64
	length int64
	pos    int64
}

// Size returns the length of the window.
func (v *View) Size() int64 {
	return v.length
}

// Offset returns the absolute start of the window in the shared stream.
func (v *View) Offset() int64 {
	return v.off
}

// Read implements io.Reader.
func (v *View) Read(p []byte) (int, error) {
	if v.pos >= v.length {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	if remaining := v.length - v.pos; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := v.shared.readAt(p, v.off+v.pos)
	v.pos += int64(n)
	return n, shortRead(err)
}

// ReadAt implements io.ReaderAt relative to the start of the window.
func (v *View) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errOffset
	}
	if off >= v.length {
		return 0, io.EOF
	}
	var eof bool
	if remaining := v.length - off; int64(len(p)) > remaining {
		p = p[:remaining]
		eof = true
	}
	n, err := v.shared.readAt(p, v.off+off)
	if err != nil {
		return n, shortRead(err)
	}
	if eof {
		return n, io.EOF
	}
	return n, nil
}

// Seek implements io.Seeker. Seeking past the end is allowed; reads there return io.EOF.
func (v *View) Seek(offset int64, whence int) (int64, error) {
	if v.shared.Poisoned() {
		return 0, ErrPoisoned
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = v.pos + offset
	case io.SeekEnd:
		abs = v.length + offset
	default:
		return 0, errWhence
	}
	if abs < 0 {
		return 0, errOffset
	}
	v.pos = abs
	return abs, nil
}

// shortRead reports a stream that ended inside the window as io.ErrUnexpectedEOF.
func shortRead(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

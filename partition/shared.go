package partition

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/meigma/farc/internal/sizing"
)

var (
	// ErrPoisoned is returned after the shared stream panicked while locked.
	ErrPoisoned = errors.New("farc: shared source poisoned")

	// ErrInvalidRange is returned when a view does not fit inside the stream.
	ErrInvalidRange = errors.New("farc: invalid partition range")
)

// Shared is a lock-guarded stream that can be split into views.
// It is safe for concurrent use.
type Shared struct {
	mu       sync.Mutex
	rs       io.ReadSeeker
	poisoned bool
}

// NewShared takes ownership of rs. Callers must not use rs directly afterwards.
func NewShared(rs io.ReadSeeker) *Shared {
	return &Shared{rs: rs}
}

// with runs fn while holding the lock. A panic escaping fn poisons s.
func (s *Shared) with(fn func(io.ReadSeeker) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return ErrPoisoned
	}
	completed := false
	defer func() {
		if !completed {
			s.poisoned = true
		}
	}()
	err := fn(s.rs)
	completed = true
	return err
}

// Poisoned reports whether a previous operation panicked while holding the lock.
func (s *Shared) Poisoned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poisoned
}

// Size returns the current length of the underlying stream.
func (s *Shared) Size() (int64, error) {
	var size int64
	err := s.with(func(rs io.ReadSeeker) error {
		var err error
		size, err = rs.Seek(0, io.SeekEnd)
		return err
	})
	return size, err
}

// View returns an independent window over [off, off+length).
//
// The range is validated against the current stream length; no data is read.
func (s *Shared) View(off, length int64) (*View, error) {
	if off < 0 || length < 0 {
		return nil, fmt.Errorf("%w: offset %d length %d", ErrInvalidRange, off, length)
	}
	end, ok := sizing.AddInt64(off, length)
	if !ok {
		return nil, fmt.Errorf("%w: offset %d length %d overflows", ErrInvalidRange, off, length)
	}
	size, err := s.Size()
	if err != nil {
		return nil, err
	}
	if end > size {
		return nil, fmt.Errorf("%w: [%d, %d) exceeds stream size %d", ErrInvalidRange, off, end, size)
	}
	return &View{shared: s, off: off, length: length}, nil
}

// readAt fills p from absolute offset abs.
func (s *Shared) readAt(p []byte, abs int64) (int, error) {
	var n int
	err := s.with(func(rs io.ReadSeeker) error {
		if _, err := rs.Seek(abs, io.SeekStart); err != nil {
			return err
		}
		var err error
		n, err = io.ReadFull(rs, p)
		return err
	})
	return n, err
}

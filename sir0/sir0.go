package sir0

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic identifies a SIR0 container.
var Magic = [4]byte{'S', 'I', 'R', '0'}

// HeaderSize is the size of the fixed container header.
const HeaderSize = 16

var (
	// ErrInvalidMagic is returned when the container does not start with "SIR0".
	ErrInvalidMagic = errors.New("sir0: invalid magic")

	// ErrInvalidHeader is returned when the header offsets are out of bounds.
	ErrInvalidHeader = errors.New("sir0: invalid header offsets")

	// ErrInvalidFooter is returned when the pointer list is truncated or malformed.
	ErrInvalidFooter = errors.New("sir0: invalid pointer list")
)

// Container is a decoded SIR0 container.
type Container struct {
	header   []byte
	pointers []uint64
	payload  io.ReadSeeker
}

// Header returns the data header bytes.
func (c *Container) Header() []byte {
	return c.header
}

// Pointers returns the absolute positions listed in the pointer list.
func (c *Container) Pointers() []uint64 {
	return c.pointers
}

// Payload returns the container stream, addressed from the container start.
func (c *Container) Payload() io.ReadSeeker {
	return c.payload
}

// Decode reads the container header, data header and pointer list from rs.
// rs is retained as the payload stream.
func Decode(rs io.ReadSeeker) (*Container, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var fixed [HeaderSize]byte
	if _, err := io.ReadFull(rs, fixed[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !bytes.Equal(fixed[:4], Magic[:]) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, fixed[:4])
	}
	headerPos := int64(binary.LittleEndian.Uint32(fixed[4:8]))
	footerPos := int64(binary.LittleEndian.Uint32(fixed[8:12]))
	if headerPos > footerPos || footerPos > size {
		return nil, fmt.Errorf("%w: header %#x footer %#x size %#x", ErrInvalidHeader, headerPos, footerPos, size)
	}

	header := make([]byte, footerPos-headerPos)
	if _, err := rs.Seek(headerPos, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(rs, header); err != nil {
		return nil, fmt.Errorf("read data header: %w", err)
	}

	pointers, err := decodePointers(rs)
	if err != nil {
		return nil, err
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return &Container{header: header, pointers: pointers, payload: rs}, nil
}

// decodePointers reads base-128 deltas until the zero terminator.
func decodePointers(r io.Reader) ([]uint64, error) {
	var (
		pointers []uint64
		current  uint64
		delta    uint64
		groups   int
		buf      [1]byte
	)
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFooter, err)
		}
		b := buf[0]
		delta = delta<<7 | uint64(b&0x7f)
		groups++
		if groups > 5 {
			return nil, fmt.Errorf("%w: delta exceeds 32 bits", ErrInvalidFooter)
		}
		if b&0x80 != 0 {
			continue
		}
		if delta == 0 {
			return pointers, nil
		}
		current += delta
		pointers = append(pointers, current)
		delta, groups = 0, 0
	}
}

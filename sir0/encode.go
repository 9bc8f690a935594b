package sir0

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrPointerOrder is returned when pointers are not strictly increasing.
	ErrPointerOrder = errors.New("sir0: pointers must be strictly increasing")

	// ErrOffsetTooLarge is returned when an offset does not fit in 32 bits.
	ErrOffsetTooLarge = errors.New("sir0: offset exceeds 32 bits")
)

// EncodeFooter writes the pointer list for the given absolute positions.
func EncodeFooter(w io.Writer, pointers []uint64) error {
	out := make([]byte, 0, len(pointers)*2+1)
	var previous uint64
	for i, p := range pointers {
		if p > math.MaxUint32 {
			return fmt.Errorf("%w: pointer %#x", ErrOffsetTooLarge, p)
		}
		if i > 0 && p <= previous || p == 0 {
			return fmt.Errorf("%w: %#x after %#x", ErrPointerOrder, p, previous)
		}
		out = appendDelta(out, p-previous)
		previous = p
	}
	out = append(out, 0)
	_, err := w.Write(out)
	return err
}

// appendDelta appends v as big-endian 7-bit groups, setting the high bit on
// every group except the last.
func appendDelta(out []byte, v uint64) []byte {
	var groups [10]byte
	n := 0
	for {
		groups[n] = byte(v & 0x7f)
		n++
		v >>= 7
		if v == 0 {
			break
		}
	}
	for i := n - 1; i > 0; i-- {
		out = append(out, groups[i]|0x80)
	}
	return append(out, groups[0])
}

// EncodeHeader writes the 16-byte container header.
func EncodeHeader(w io.Writer, headerPos, footerPos uint64) error {
	if headerPos > math.MaxUint32 || footerPos > math.MaxUint32 {
		return fmt.Errorf("%w: header %#x footer %#x", ErrOffsetTooLarge, headerPos, footerPos)
	}
	var buf [HeaderSize]byte
	copy(buf[:4], Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerPos))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(footerPos))
	_, err := w.Write(buf[:])
	return err
}

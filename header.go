package farc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Magic identifies a FARC archive.
var Magic = [4]byte{'F', 'A', 'R', 'C'}

const (
	// headerLen is the number of meaningful outer header bytes.
	headerLen = 0x34

	// outerHeaderSize is the space the writer reserves before the SIR0 block.
	outerHeaderSize = 0x80

	reservedLen = 0x1c
)

// SubType is the SIR0 sub-format discriminant stored in the outer header.
type SubType uint32

// Recognized sub-types.
const (
	SubType4 SubType = 4
	SubType5 SubType = 5
)

// TableKind selects how the file-allocation table addresses entries.
type TableKind uint32

// Table kinds.
const (
	TableNamed  TableKind = 0
	TableHashed TableKind = 1
)

// String returns "named" or "hashed".
func (k TableKind) String() string {
	switch k {
	case TableNamed:
		return "named"
	case TableHashed:
		return "hashed"
	default:
		return fmt.Sprintf("TableKind(%d)", uint32(k))
	}
}

// writerReserved holds the constant bytes the writer emits between the magic
// and the sub-type. They are not derived from any input archive.
var writerReserved = [reservedLen]byte{
	0, 0, 0, 0,
	0, 0, 0, 0,
	2, 0, 0, 0,
	0, 0, 0, 0,
	0, 0, 0, 0,
	7, 0, 0, 0,
	0xa4, 0x3c, 0xea, 0x77,
}

// Header is the outer FARC header.
type Header struct {
	// Reserved holds the unknown bytes following the magic.
	Reserved [reservedLen]byte

	SubType SubType

	// Sir0Offset and Sir0Length locate the embedded SIR0 container.
	Sir0Offset uint32
	Sir0Length uint32

	// DataOffset is the base that table data offsets are relative to.
	DataOffset uint32

	// DataLength is recorded for completeness and not used when reading.
	DataLength uint32
}

// readHeader reads and validates the outer header.
func readHeader(r io.Reader) (Header, error) {
	var buf [headerLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrHeader, err)
	}
	if !bytes.Equal(buf[:4], Magic[:]) {
		return Header{}, fmt.Errorf("%w: %q", ErrInvalidMagic, buf[:4])
	}

	var h Header
	copy(h.Reserved[:], buf[4:0x20])
	h.SubType = SubType(binary.LittleEndian.Uint32(buf[0x20:]))
	h.Sir0Offset = binary.LittleEndian.Uint32(buf[0x24:])
	h.Sir0Length = binary.LittleEndian.Uint32(buf[0x28:])
	h.DataOffset = binary.LittleEndian.Uint32(buf[0x2c:])
	h.DataLength = binary.LittleEndian.Uint32(buf[0x30:])

	switch h.SubType {
	case SubType4, SubType5:
	default:
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedSubType, uint32(h.SubType))
	}
	return h, nil
}

// appendTo appends the header padded with zeros to outerHeaderSize bytes.
func (h *Header) appendTo(out []byte) []byte {
	out = append(out, Magic[:]...)
	out = append(out, h.Reserved[:]...)
	out = binary.LittleEndian.AppendUint32(out, uint32(h.SubType))
	out = binary.LittleEndian.AppendUint32(out, h.Sir0Offset)
	out = binary.LittleEndian.AppendUint32(out, h.Sir0Length)
	out = binary.LittleEndian.AppendUint32(out, h.DataOffset)
	out = binary.LittleEndian.AppendUint32(out, h.DataLength)
	return append(out, make([]byte, outerHeaderSize-headerLen)...)
}

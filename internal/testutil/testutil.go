// Package testutil builds raw archives for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"

	"github.com/meigma/farc/sir0"
)

// RawEntry describes one file-allocation table entry.
type RawEntry struct {
	// Hash is the table key of a hashed table.
	Hash uint32

	// Name is stored as NUL-terminated UTF-16LE in a named table.
	Name string

	// NameUnits replaces Name with raw code units when non-nil.
	NameUnits []uint16

	Content []byte

	// Offset replaces the derived data offset when OverrideOffset is set.
	Offset         uint32
	OverrideOffset bool
}

// RawArchive describes an archive to build. The zero value is an empty
// named archive with sub-type 5.
type RawArchive struct {
	SubType   uint32
	TableKind uint32
	Entries   []RawEntry

	// Count replaces the entry count when OverrideCount is set.
	Count         uint32
	OverrideCount bool

	// DataOffset replaces the derived data offset when non-zero.
	DataOffset uint32

	// DataHeaderLen truncates the SIR0 data header to this many bytes when
	// non-zero. The header is then not padded, so the pointer list follows
	// it directly.
	DataHeaderLen int
}

// Bytes lays out the archive: a 0x80-byte outer header, the SIR0 container,
// then the content of every entry padded to 16 bytes.
func (a *RawArchive) Bytes() []byte {
	subType := a.SubType
	if subType == 0 {
		subType = 5
	}
	count := uint32(len(a.Entries))
	if a.OverrideCount {
		count = a.Count
	}

	var storage []byte
	offsets := make([]uint32, len(a.Entries))
	for i, e := range a.Entries {
		offsets[i] = uint32(len(storage))
		if e.OverrideOffset {
			offsets[i] = e.Offset
		}
		storage = append(storage, e.Content...)
		storage = pad(storage, 16)
	}

	const tableOffset = sir0.HeaderSize
	container := make([]byte, tableOffset, 256)
	namesAt := tableOffset + len(a.Entries)*12
	var names []byte
	for i, e := range a.Entries {
		key := e.Hash
		if a.TableKind == 0 {
			key = uint32(namesAt + len(names))
			units := e.NameUnits
			if units == nil {
				units = utf16.Encode([]rune(e.Name))
			}
			for _, u := range units {
				names = binary.LittleEndian.AppendUint16(names, u)
			}
			names = append(names, 0, 0)
		}
		container = binary.LittleEndian.AppendUint32(container, key)
		container = binary.LittleEndian.AppendUint32(container, offsets[i])
		container = binary.LittleEndian.AppendUint32(container, uint32(len(e.Content)))
	}
	container = append(container, names...)
	container = pad(container, 16)

	headerPos := uint64(len(container))
	container = binary.LittleEndian.AppendUint32(container, tableOffset)
	container = binary.LittleEndian.AppendUint32(container, count)
	container = binary.LittleEndian.AppendUint32(container, a.TableKind)
	if a.DataHeaderLen > 0 {
		container = container[:int(headerPos)+a.DataHeaderLen]
	} else {
		container = pad(container, 16)
	}
	footerPos := uint64(len(container))

	buf := bytes.NewBuffer(container)
	if err := sir0.EncodeFooter(buf, []uint64{4, 8, headerPos}); err != nil {
		panic(err)
	}
	container = pad(buf.Bytes(), 16)
	var head bytes.Buffer
	if err := sir0.EncodeHeader(&head, headerPos, footerPos); err != nil {
		panic(err)
	}
	copy(container, head.Bytes())

	dataOffset := uint32(0x80 + len(container))
	if a.DataOffset != 0 {
		dataOffset = a.DataOffset
	}

	out := make([]byte, 0, 0x80+len(container)+len(storage))
	out = append(out, "FARC"...)
	out = append(out, make([]byte, 0x1c)...)
	out = binary.LittleEndian.AppendUint32(out, subType)
	out = binary.LittleEndian.AppendUint32(out, 0x80)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(container)))
	out = binary.LittleEndian.AppendUint32(out, dataOffset)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(storage)))
	out = append(out, make([]byte, 0x80-len(out))...)
	out = append(out, container...)
	if int(dataOffset) > len(out) && a.DataOffset == 0 {
		out = append(out, make([]byte, int(dataOffset)-len(out))...)
	}
	return append(out, storage...)
}

// Named returns a named archive holding files in the given order.
func Named(files ...NamedFile) []byte {
	a := RawArchive{TableKind: 0}
	for _, f := range files {
		a.Entries = append(a.Entries, RawEntry{Name: f.Name, Content: f.Content})
	}
	return a.Bytes()
}

// NamedFile is a name and its content.
type NamedFile struct {
	Name    string
	Content []byte
}

func pad(b []byte, align int) []byte {
	if r := len(b) % align; r != 0 {
		b = append(b, make([]byte, align-r)...)
	}
	return b
}

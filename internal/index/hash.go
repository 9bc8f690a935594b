package index

import (
	"encoding/binary"
	"hash/crc32"
	"unicode/utf16"
)

// Hash returns the FARC name hash: the IEEE CRC-32 of name encoded as
// UTF-16LE code units, without byte order mark or terminator.
func Hash(name string) uint32 {
	units := utf16.Encode([]rune(name))
	buf := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[2*i:], u)
	}
	return crc32.ChecksumIEEE(buf)
}

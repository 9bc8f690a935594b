package sir0

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFooter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pointers []uint64
		want     []byte
	}{
		{"empty", nil, []byte{0}},
		{"small deltas", []uint64{4, 8, 0x1c}, []byte{0x04, 0x04, 0x14, 0x00}},
		{"multi-byte delta", []uint64{4, 0x104}, []byte{0x04, 0x82, 0x00, 0x00}},
		{"three groups", []uint64{0x4000}, []byte{0x81, 0x80, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, EncodeFooter(&buf, tt.pointers))
			assert.Equal(t, tt.want, buf.Bytes())

			got, err := decodePointers(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, len(tt.pointers), len(got))
			for i := range got {
				assert.Equal(t, tt.pointers[i], got[i])
			}
		})
	}
}

func TestEncodeFooter_Errors(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, EncodeFooter(io.Discard, []uint64{8, 4}), ErrPointerOrder)
	require.ErrorIs(t, EncodeFooter(io.Discard, []uint64{4, 4}), ErrPointerOrder)
	require.ErrorIs(t, EncodeFooter(io.Discard, []uint64{0}), ErrPointerOrder)
	require.ErrorIs(t, EncodeFooter(io.Discard, []uint64{1 << 32}), ErrOffsetTooLarge)
}

func TestEncodeHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, 0x20, 0x30))
	assert.Equal(t, []byte{
		'S', 'I', 'R', '0',
		0x20, 0, 0, 0,
		0x30, 0, 0, 0,
		0, 0, 0, 0,
	}, buf.Bytes())

	require.ErrorIs(t, EncodeHeader(io.Discard, 1<<32, 0), ErrOffsetTooLarge)
}

// build assembles a container with the given data header placed after body.
func build(t *testing.T, body, header []byte, pointers []uint64) []byte {
	t.Helper()
	headerPos := uint64(HeaderSize + len(body))
	footerPos := headerPos + uint64(len(header))

	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, headerPos, footerPos))
	buf.Write(body)
	buf.Write(header)
	require.NoError(t, EncodeFooter(&buf, pointers))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	t.Parallel()

	body := []byte("payload!")
	header := make([]byte, 12)
	binary.LittleEndian.PutUint32(header[0:], 0x10)
	binary.LittleEndian.PutUint32(header[4:], 3)
	binary.LittleEndian.PutUint32(header[8:], 1)
	data := build(t, body, header, []uint64{4, 8, 0x18})

	c, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, header, c.Header())
	assert.Equal(t, []uint64{4, 8, 0x18}, c.Pointers())

	payload, err := io.ReadAll(c.Payload())
	require.NoError(t, err)
	assert.Equal(t, data, payload, "payload is addressed from the container start")
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	valid := build(t, nil, make([]byte, 12), []uint64{4, 8})

	badMagic := bytes.Clone(valid)
	copy(badMagic, "SIR1")

	badOffsets := bytes.Clone(valid)
	binary.LittleEndian.PutUint32(badOffsets[4:], 0x1000)

	pastEnd := bytes.Clone(valid)
	binary.LittleEndian.PutUint32(pastEnd[8:], 0x1000)

	noTerminator := valid[:len(valid)-1]

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", []byte("SIR0"), io.ErrUnexpectedEOF},
		{"magic", badMagic, ErrInvalidMagic},
		{"header after footer", badOffsets, ErrInvalidHeader},
		{"footer past end", pastEnd, ErrInvalidHeader},
		{"unterminated footer", noTerminator, ErrInvalidFooter},
		{"oversized delta", append(bytes.Clone(valid[:len(valid)-1]), 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f), ErrInvalidFooter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(bytes.NewReader(tt.data))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

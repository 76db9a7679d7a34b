package tiff

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMinimalTiff hand-assembles a tiny valid little-endian TIFF stream with
// a single IFD0 entry (ImageDescription, ASCII, inline-sized) and no
// ExifIFD/GpsIFD, mirroring what a from-scratch camera-less container would
// carry.
func buildMinimalTiff(t *testing.T) []byte {
	t.Helper()
	order := binary.LittleEndian
	buf := make([]byte, 8)
	buf[0], buf[1] = 'I', 'I'
	order.PutUint16(buf[2:4], 42)
	order.PutUint32(buf[4:8], 8)

	// One entry: tag 0x010E (ImageDescription), ASCII, count 4 ("abc\0"), inline.
	ifd := make([]byte, 2+12+4)
	order.PutUint16(ifd[0:2], 1)
	order.PutUint16(ifd[2:4], 0x010E)
	order.PutUint16(ifd[4:6], FmtAscii)
	order.PutUint32(ifd[6:10], 4)
	copy(ifd[10:14], []byte("abc\x00"))
	order.PutUint32(ifd[14:18], 0)
	return append(buf, ifd...)
}

func TestParseMinimal(t *testing.T) {
	data := buildMinimalTiff(t)
	ps, err := Parse(data)
	require.NoError(t, err)
	require.NotNil(t, ps.IFD0)
	require.Len(t, ps.IFD0.Entries, 1)
	assert.Equal(t, uint16(0x010E), ps.IFD0.Entries[0].Tag)
	assert.Equal(t, []byte("abc\x00"), ps.IFD0.Entries[0].Data)
	assert.Nil(t, ps.ExifIFD)
	assert.Nil(t, ps.GPSIFD)
}

func TestParseRejectsShortStream(t *testing.T) {
	_, err := Parse([]byte{'I', 'I', 42})
	require.Error(t, err)
}

func TestParseRejectsBadMarker(t *testing.T) {
	_, err := Parse([]byte{'X', 'X', 0, 0, 0, 0, 0, 0})
	require.Error(t, err)
}

func TestInjectPreservesOriginalAndAddsExif(t *testing.T) {
	original := buildMinimalTiff(t)

	add := Additions{
		ExifIFD: []Entry{
			{Tag: 0x9286, Format: FmtUndefined, Count: 10, Data: append([]byte("ASCII\x00\x00\x00"), []byte("hi")...)},
		},
	}
	out, err := Inject(original, add)
	require.NoError(t, err)

	// Original bytes must survive untouched as a prefix.
	assert.Equal(t, original, out[:len(original)])

	ps, err := Parse(out)
	require.NoError(t, err)
	require.NotNil(t, ps.ExifIFD)
	require.Len(t, ps.ExifIFD.Entries, 1)
	assert.Equal(t, uint16(0x9286), ps.ExifIFD.Entries[0].Tag)

	// IFD0's original ImageDescription entry must still be present.
	var found bool
	for _, e := range ps.IFD0.Entries {
		if e.Tag == 0x010E {
			found = true
			assert.Equal(t, []byte("abc\x00"), e.Data)
		}
	}
	assert.True(t, found, "original ImageDescription entry should survive Inject")
}

func TestInjectSortsEntriesByTag(t *testing.T) {
	original := buildMinimalTiff(t)
	add := Additions{
		IFD0: []Entry{
			{Tag: 0x0001, Format: FmtAscii, Count: 1, Data: []byte{0}},
			{Tag: 0x9C9B, Format: FmtByte, Count: 2, Data: []byte{'h', 0}},
		},
	}
	out, err := Inject(original, add)
	require.NoError(t, err)

	ps, err := Parse(out)
	require.NoError(t, err)
	for i := 1; i < len(ps.IFD0.Entries); i++ {
		assert.LessOrEqual(t, ps.IFD0.Entries[i-1].Tag, ps.IFD0.Entries[i].Tag)
	}
}

func TestInjectRejectsEmptyOriginal(t *testing.T) {
	_, err := Inject(nil, Additions{})
	require.Error(t, err)
}

func TestBuildFreshMinimal(t *testing.T) {
	out, err := BuildFresh(
		[]Entry{{Tag: 0x010E, Format: FmtAscii, Count: 4, Data: []byte("hi\x00\x00")}},
		nil,
		nil,
		binary.BigEndian,
	)
	require.NoError(t, err)
	assert.Equal(t, byte('M'), out[0])
	assert.Equal(t, byte('M'), out[1])

	ps, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, ps.IFD0.Entries, 1)
	assert.Equal(t, uint16(0x010E), ps.IFD0.Entries[0].Tag)
	assert.Nil(t, ps.ExifIFD)
}

func TestBuildFreshWithExifAndGps(t *testing.T) {
	out, err := BuildFresh(
		nil,
		[]Entry{{Tag: 0x9003, Format: FmtAscii, Count: 20, Data: []byte("2024:01:01 00:00:00\x00")}},
		[]Entry{{Tag: 0x0001, Format: FmtAscii, Count: 2, Data: []byte("N\x00")}},
		binary.LittleEndian,
	)
	require.NoError(t, err)

	ps, err := Parse(out)
	require.NoError(t, err)
	require.NotNil(t, ps.ExifIFD)
	require.NotNil(t, ps.GPSIFD)
	assert.Len(t, ps.ExifIFD.Entries, 1)
	assert.Len(t, ps.GPSIFD.Entries, 1)
}

func TestParseSkipsOutOfBoundsHeapEntry(t *testing.T) {
	order := binary.LittleEndian
	buf := make([]byte, 8)
	buf[0], buf[1] = 'I', 'I'
	order.PutUint16(buf[2:4], 42)
	order.PutUint32(buf[4:8], 8)

	ifd := make([]byte, 2+12+4)
	order.PutUint16(ifd[0:2], 1)
	order.PutUint16(ifd[2:4], 0x9286)
	order.PutUint16(ifd[4:6], FmtUndefined)
	order.PutUint32(ifd[6:10], 100) // oversized count
	order.PutUint32(ifd[10:14], 9999) // bogus heap offset, well out of bounds
	order.PutUint32(ifd[14:18], 0)
	data := append(buf, ifd...)

	ps, err := Parse(data)
	require.NoError(t, err)
	assert.Empty(t, ps.IFD0.Entries)
	assert.NotEmpty(t, ps.Warnings)
}

package webp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildLossyVP8 constructs a minimal VP8 lossy bitstream chunk whose header
// encodes width=4,height=4 (stored directly, no scaling bits set).
func buildLossyVP8() chunk {
	data := make([]byte, 10)
	data[0], data[1], data[2] = 0, 0, 0          // frame tag
	data[3], data[4], data[5] = 0x9D, 0x01, 0x2A // start code isn't validated by dimensions()
	data[6], data[7] = 4, 0                      // width = 4
	data[8], data[9] = 4, 0                      // height = 4
	return chunk{fourCC: vp8Tag, data: data}
}

func TestParseWriteRoundTrip(t *testing.T) {
	chunks := []chunk{buildLossyVP8()}
	data := Write(chunks)

	parsed, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, vp8Tag, parsed[0].fourCC)
}

func TestParseRejectsBadHeader(t *testing.T) {
	_, err := Parse([]byte("not a webp file at all"))
	require.Error(t, err)
}

func TestReplaceOrInsertUpgradesToVP8X(t *testing.T) {
	data := Write([]chunk{buildLossyVP8()})

	out, err := ReplaceOrInsert(data, []byte("fake-exif-tiff"), nil)
	require.NoError(t, err)

	chunks, err := Parse(out)
	require.NoError(t, err)
	require.True(t, len(chunks) >= 2)
	assert.Equal(t, vp8xTag, chunks[0].fourCC)
	assert.Equal(t, byte(vp8xFlagEXIF), chunks[0].data[0])

	exif, xmp, err := Existing(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-exif-tiff"), exif)
	assert.Nil(t, xmp)
}

func TestReplaceOrInsertPreservesExistingVP8XFlags(t *testing.T) {
	data := Write([]chunk{buildLossyVP8()})
	withExif, err := ReplaceOrInsert(data, []byte("exif-1"), nil)
	require.NoError(t, err)

	withBoth, err := ReplaceOrInsert(withExif, nil, []byte("<xmp/>"))
	require.NoError(t, err)

	chunks, err := Parse(withBoth)
	require.NoError(t, err)
	assert.Equal(t, vp8xTag, chunks[0].fourCC)
	assert.Equal(t, vp8xFlagEXIF|vp8xFlagXMP, chunks[0].data[0])

	exif, xmp, err := Existing(withBoth)
	require.NoError(t, err)
	assert.Equal(t, []byte("exif-1"), exif) // untouched by the XMP-only call
	assert.Equal(t, []byte("<xmp/>"), xmp)
}

func TestReplaceOrInsertReplacesExistingChunk(t *testing.T) {
	data := Write([]chunk{buildLossyVP8()})
	first, err := ReplaceOrInsert(data, []byte("exif-old"), nil)
	require.NoError(t, err)

	second, err := ReplaceOrInsert(first, []byte("exif-new"), nil)
	require.NoError(t, err)

	exif, _, err := Existing(second)
	require.NoError(t, err)
	assert.Equal(t, []byte("exif-new"), exif)
}

func TestDimensionsFromVP8L(t *testing.T) {
	// width=5 (stored 4), height=5 (stored 4): bits = (4) | (4<<14)
	bits := uint32(4) | uint32(4)<<14
	data := []byte{0x2F, byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
	chunks := []chunk{{fourCC: vp8lTag, data: data}}
	w, h, ok := dimensions(chunks)
	require.True(t, ok)
	assert.Equal(t, uint32(5), w)
	assert.Equal(t, uint32(5), h)
}

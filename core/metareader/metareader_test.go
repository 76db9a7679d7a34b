package metareader

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/photometa/core/tiff"
)

func utf16leBytes(s string) []byte {
	dec := []byte{}
	for _, r := range s {
		dec = append(dec, byte(r), 0)
	}
	return append(dec, 0, 0)
}

func TestReadTiffBytesTitleAndMake(t *testing.T) {
	data, err := tiff.BuildFresh(
		[]tiff.Entry{
			{Tag: 0x010E, Format: tiff.FmtAscii, Count: 6, Data: []byte("hello\x00")},
			{Tag: 0x010F, Format: tiff.FmtAscii, Count: 6, Data: []byte("Canon\x00")},
		},
		nil, nil, binary.LittleEndian,
	)
	require.NoError(t, err)

	md, err := ReadTiffBytes(data)
	require.NoError(t, err)
	assert.True(t, md.HasTitle)
	assert.Equal(t, "hello", md.Title)
	assert.Equal(t, "Canon", md.Make)
}

func TestReadTiffBytesXPTitleFallback(t *testing.T) {
	data, err := tiff.BuildFresh(
		[]tiff.Entry{
			{Tag: tagXPTitle, Format: tiff.FmtByte, Count: uint32(len(utf16leBytes("xp title"))), Data: utf16leBytes("xp title")},
		},
		nil, nil, binary.LittleEndian,
	)
	require.NoError(t, err)

	md, err := ReadTiffBytes(data)
	require.NoError(t, err)
	assert.True(t, md.HasTitle)
	assert.Equal(t, "xp title", md.Title)
}

func TestReadTiffBytesUserComment(t *testing.T) {
	comment := append([]byte("ASCII\x00\x00\x00"), []byte("a real comment")...)
	data, err := tiff.BuildFresh(
		nil,
		[]tiff.Entry{{Tag: tagUserComment, Format: tiff.FmtUndefined, Count: uint32(len(comment)), Data: comment}},
		nil, binary.LittleEndian,
	)
	require.NoError(t, err)

	md, err := ReadTiffBytes(data)
	require.NoError(t, err)
	assert.True(t, md.HasDesc)
	assert.Equal(t, "a real comment", md.Description)
}

func TestReadTiffBytesGPS(t *testing.T) {
	rat := func(num, den uint32) []byte {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint32(b[0:4], num)
		binary.LittleEndian.PutUint32(b[4:8], den)
		return b
	}
	latDMS := append(append(rat(43, 1), rat(28, 1)...), rat(1200, 1000)...)
	lonDMS := append(append(rat(11, 1), rat(53, 1)...), rat(600, 1000)...)

	data, err := tiff.BuildFresh(
		nil, nil,
		[]tiff.Entry{
			{Tag: 0x0001, Format: tiff.FmtAscii, Count: 2, Data: []byte("N\x00")},
			{Tag: 0x0002, Format: tiff.FmtRational, Count: 3, Data: latDMS},
			{Tag: 0x0003, Format: tiff.FmtAscii, Count: 2, Data: []byte("E\x00")},
			{Tag: 0x0004, Format: tiff.FmtRational, Count: 3, Data: lonDMS},
		},
		binary.LittleEndian,
	)
	require.NoError(t, err)

	md, err := ReadTiffBytes(data)
	require.NoError(t, err)
	assert.True(t, md.HasGPS)
	assert.InDelta(t, 43.47, md.Latitude, 0.01)
	assert.InDelta(t, 11.88, md.Longitude, 0.01)
}

func TestReadTiffBytesNoMetadataIsAbsent(t *testing.T) {
	data, err := tiff.BuildFresh(nil, nil, nil, binary.LittleEndian)
	require.NoError(t, err)

	md, err := ReadTiffBytes(data)
	require.NoError(t, err)
	assert.False(t, md.HasTitle)
	assert.False(t, md.HasDesc)
	assert.False(t, md.HasGPS)
}

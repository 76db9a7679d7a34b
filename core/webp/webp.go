// Package webp implements the WebP container surgeon (component B): RIFF
// chunk parsing/writing, upgrading legacy VP8/VP8L streams to the extended
// VP8X form when EXIF/XMP needs a home, and replacing or appending the EXIF
// and XMP chunks.
package webp

import (
	"encoding/binary"

	"github.com/ankit-chaubey/photometa/core"
)

const (
	riffTag  = "RIFF"
	webpTag  = "WEBP"
	vp8Tag   = "VP8 "
	vp8lTag  = "VP8L"
	vp8xTag  = "VP8X"
	exifTag  = "EXIF"
	xmpTag   = "XMP "

	vp8xFlagXMP  byte = 0x04
	vp8xFlagEXIF byte = 0x08
)

// chunk is one RIFF sub-chunk: its 4-byte fourCC and its data (even-padded
// on write, never carried through from a parse since we recompute it).
type chunk struct {
	fourCC string
	data   []byte
}

// Parse splits a WebP byte stream into its sub-chunk list. The RIFF
// container size in the header is not read; chunks are walked to the end of
// data.
func Parse(data []byte) ([]chunk, error) {
	if len(data) < 12 || string(data[0:4]) != riffTag || string(data[8:12]) != webpTag {
		return nil, core.NewError(core.ErrContainerParse, "not a webp stream (bad RIFF/WEBP header)", nil)
	}
	pos := 12
	var chunks []chunk
	for pos+8 <= len(data) {
		fourCC := string(data[pos : pos+4])
		size := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		dataStart := pos + 8
		dataEnd := dataStart + int(size)
		if dataEnd > len(data) {
			return nil, core.NewError(core.ErrTiffBounds, "webp chunk overruns stream", nil)
		}
		chunks = append(chunks, chunk{fourCC: fourCC, data: append([]byte(nil), data[dataStart:dataEnd]...)})
		pos = dataEnd
		if size%2 != 0 {
			pos++ // even-padding byte, not counted in size
		}
	}
	return chunks, nil
}

// Write reassembles the RIFF header and every chunk, even-padding each
// chunk's data and recomputing the overall RIFF size.
func Write(chunks []chunk) []byte {
	var body []byte
	for _, c := range chunks {
		body = append(body, encodeChunk(c)...)
	}
	out := make([]byte, 0, 12+len(body))
	out = append(out, []byte(riffTag)...)
	sizeBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(sizeBuf, uint32(4+len(body))) // "WEBP" + chunks
	out = append(out, sizeBuf...)
	out = append(out, []byte(webpTag)...)
	out = append(out, body...)
	return out
}

func encodeChunk(c chunk) []byte {
	sizeBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(sizeBuf, uint32(len(c.data)))
	out := append([]byte(c.fourCC), sizeBuf...)
	out = append(out, c.data...)
	if len(c.data)%2 != 0 {
		out = append(out, 0)
	}
	return out
}

// dimensions returns the actual width/height from the first VP8, VP8L or
// VP8X chunk's header (VP8L and VP8X store each as value-1; VP8 stores them
// directly).
func dimensions(chunks []chunk) (width, height uint32, ok bool) {
	for _, c := range chunks {
		switch c.fourCC {
		case vp8Tag:
			if len(c.data) < 10 {
				continue
			}
			// Lossy bitstream: after the 3-byte frame tag and 3-byte start
			// code, width/height are two little-endian 16-bit fields with
			// the top 2 bits as scaling factors.
			w := binary.LittleEndian.Uint16(c.data[6:8]) & 0x3FFF
			h := binary.LittleEndian.Uint16(c.data[8:10]) & 0x3FFF
			return uint32(w), uint32(h), true
		case vp8lTag:
			if len(c.data) < 5 || c.data[0] != 0x2F {
				continue
			}
			bits := uint32(c.data[1]) | uint32(c.data[2])<<8 | uint32(c.data[3])<<16 | uint32(c.data[4])<<24
			w := (bits & 0x3FFF) + 1
			h := ((bits >> 14) & 0x3FFF) + 1
			return w, h, true
		case vp8xTag:
			if len(c.data) < 10 {
				continue
			}
			w := uint32(c.data[4]) | uint32(c.data[5])<<8 | uint32(c.data[6])<<16
			h := uint32(c.data[7]) | uint32(c.data[8])<<8 | uint32(c.data[9])<<16
			return w + 1, h + 1, true
		}
	}
	return 0, 0, false
}

func buildVP8X(chunks []chunk, hasEXIF, hasXMP bool) (chunk, error) {
	w, h, ok := dimensions(chunks)
	if !ok {
		return chunk{}, core.NewError(core.ErrContainerParse, "could not determine webp image dimensions", nil)
	}
	data := make([]byte, 10)
	var flags byte
	if hasEXIF {
		flags |= vp8xFlagEXIF
	}
	if hasXMP {
		flags |= vp8xFlagXMP
	}
	data[0] = flags
	wMinus1, hMinus1 := w-1, h-1
	data[4], data[5], data[6] = byte(wMinus1), byte(wMinus1>>8), byte(wMinus1>>16)
	data[7], data[8], data[9] = byte(hMinus1), byte(hMinus1>>8), byte(hMinus1>>16)
	return chunk{fourCC: vp8xTag, data: data}, nil
}

// ReplaceOrInsert replaces or appends the EXIF and/or XMP chunk of data,
// upgrading an old-style VP8/VP8L stream to VP8X (per §4.B) if one isn't
// already present. Pass nil for a payload to leave that chunk untouched.
func ReplaceOrInsert(data []byte, exifPayload, xmpPayload []byte) ([]byte, error) {
	chunks, err := Parse(data)
	if err != nil {
		return nil, err
	}

	hasVP8X := false
	var vp8xIdx = -1
	for i, c := range chunks {
		if c.fourCC == vp8xTag {
			hasVP8X = true
			vp8xIdx = i
		}
	}

	existingEXIF, existingXMP := false, false
	for _, c := range chunks {
		if c.fourCC == exifTag {
			existingEXIF = true
		}
		if c.fourCC == xmpTag {
			existingXMP = true
		}
	}
	wantEXIF := existingEXIF || exifPayload != nil
	wantXMP := existingXMP || xmpPayload != nil

	if !hasVP8X && (wantEXIF || wantXMP) {
		vp8x, err := buildVP8X(chunks, wantEXIF, wantXMP)
		if err != nil {
			return nil, err
		}
		chunks = append([]chunk{vp8x}, chunks...)
		vp8xIdx = 0
	} else if hasVP8X {
		updated, err := buildVP8X(chunks, wantEXIF, wantXMP)
		if err != nil {
			return nil, err
		}
		chunks[vp8xIdx] = updated
	}

	chunks = upsertChunk(chunks, exifTag, exifPayload)
	chunks = upsertChunk(chunks, xmpTag, xmpPayload)

	return Write(chunks), nil
}

func upsertChunk(chunks []chunk, fourCC string, payload []byte) []chunk {
	if payload == nil {
		return chunks
	}
	for i, c := range chunks {
		if c.fourCC == fourCC {
			chunks[i] = chunk{fourCC: fourCC, data: payload}
			return chunks
		}
	}
	return append(chunks, chunk{fourCC: fourCC, data: payload})
}

// Existing returns the raw EXIF/XMP chunk payloads present in data, if any.
func Existing(data []byte) (exif []byte, xmp []byte, err error) {
	chunks, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range chunks {
		switch c.fourCC {
		case exifTag:
			exif = c.data
		case xmpTag:
			xmp = c.data
		}
	}
	return exif, xmp, nil
}

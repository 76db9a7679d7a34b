// Package png implements the PNG container surgeon (component B): inserting
// or replacing the XMP iTXt chunk just before the first IDAT, recomputing
// each touched chunk's CRC32 with the standard IEEE polynomial — no
// third-party CRC library is needed since hash/crc32.ChecksumIEEE is the
// exact algorithm PNG's spec mandates.
package png

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/ankit-chaubey/photometa/core"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

const (
	xmpKeyword = "XML:com.adobe.xmp"
	typeITXt   = "iTXt"
	typeIDAT   = "IDAT"
)

// chunk is one PNG chunk: its 4-byte type and its data (CRC is recomputed on
// write, never carried through).
type chunk struct {
	kind string
	data []byte
}

// Parse splits a PNG byte stream into its signature-validated chunk list.
func Parse(data []byte) ([]chunk, error) {
	if len(data) < 8 || string(data[:8]) != string(pngSignature) {
		return nil, core.NewError(core.ErrContainerParse, "not a png stream (bad signature)", nil)
	}
	pos := 8
	var chunks []chunk
	for pos+8 <= len(data) {
		length := binary.BigEndian.Uint32(data[pos : pos+4])
		kind := string(data[pos+4 : pos+8])
		dataStart := pos + 8
		dataEnd := dataStart + int(length)
		if dataEnd+4 > len(data) {
			return nil, core.NewError(core.ErrTiffBounds, "png chunk overruns stream", nil)
		}
		chunks = append(chunks, chunk{kind: kind, data: append([]byte(nil), data[dataStart:dataEnd]...)})
		pos = dataEnd + 4
	}
	return chunks, nil
}

// Write reassembles the PNG signature plus each chunk, each with a freshly
// computed CRC32 over its type+data.
func Write(chunks []chunk) []byte {
	out := append([]byte(nil), pngSignature...)
	for _, c := range chunks {
		out = append(out, encodeChunk(c)...)
	}
	return out
}

func encodeChunk(c chunk) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(c.data)))
	typeAndData := append([]byte(c.kind), c.data...)
	crc := crc32.ChecksumIEEE(typeAndData)
	crcBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBuf, crc)

	out := make([]byte, 0, 4+len(typeAndData)+4)
	out = append(out, buf...)
	out = append(out, typeAndData...)
	out = append(out, crcBuf...)
	return out
}

// buildITXtChunk builds an XMP iTXt chunk: keyword + NUL, compression flag=0,
// compression method=0, empty language tag + NUL, empty translated keyword +
// NUL, then the raw (uncompressed, already-UTF-8) XMP packet bytes.
func buildITXtChunk(xmpPacket []byte) chunk {
	var data []byte
	data = append(data, []byte(xmpKeyword)...)
	data = append(data, 0)
	data = append(data, 0, 0) // compression flag, compression method
	data = append(data, 0)    // empty language tag + NUL
	data = append(data, 0)    // empty translated keyword + NUL
	data = append(data, xmpPacket...)
	return chunk{kind: typeITXt, data: data}
}

// isXMPChunk reports whether an iTXt chunk carries the XMP keyword.
func isXMPChunk(c chunk) bool {
	if c.kind != typeITXt {
		return false
	}
	idx := indexByte(c.data, 0)
	if idx < 0 {
		return false
	}
	return string(c.data[:idx]) == xmpKeyword
}

func indexByte(b []byte, target byte) int {
	for i, v := range b {
		if v == target {
			return i
		}
	}
	return -1
}

// xmpPayload extracts the raw XMP packet bytes out of an XMP iTXt chunk's
// data (everything after the fifth NUL-delimited field).
func xmpPayload(c chunk) []byte {
	fieldsLeft := 2 // language tag, translated keyword — each NUL-terminated
	pos := indexByte(c.data, 0) + 1 // past keyword
	pos += 2                        // compression flag + method
	for fieldsLeft > 0 {
		idx := indexByte(c.data[pos:], 0)
		if idx < 0 {
			return nil
		}
		pos += idx + 1
		fieldsLeft--
	}
	if pos > len(c.data) {
		return nil
	}
	return c.data[pos:]
}

// ReplaceOrInsertXMP parses data, replaces any existing XMP iTXt chunk (or
// inserts a fresh one immediately before the first IDAT, per §4.B) with
// xmpPacket, and reserializes.
func ReplaceOrInsertXMP(data []byte, xmpPacket []byte) ([]byte, error) {
	chunks, err := Parse(data)
	if err != nil {
		return nil, err
	}

	newChunk := buildITXtChunk(xmpPacket)

	var out []chunk
	replaced := false
	inserted := false
	for _, c := range chunks {
		if isXMPChunk(c) && !replaced {
			out = append(out, newChunk)
			replaced = true
			continue
		}
		if c.kind == typeIDAT && !replaced && !inserted {
			out = append(out, newChunk)
			inserted = true
		}
		out = append(out, c)
	}
	if !replaced && !inserted {
		out = append(out, newChunk)
	}

	return Write(out), nil
}

// ExistingXMP returns the raw XMP packet bytes from data's XMP iTXt chunk, if
// any.
func ExistingXMP(data []byte) ([]byte, bool, error) {
	chunks, err := Parse(data)
	if err != nil {
		return nil, false, err
	}
	for _, c := range chunks {
		if isXMPChunk(c) {
			return xmpPayload(c), true, nil
		}
	}
	return nil, false, nil
}

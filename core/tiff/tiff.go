// Package tiff implements the TIFF IFD engine (component A): parsing and
// assembling TIFF IFD streams in either byte order, appending or replacing IFD
// entries, and fixing up cross-IFD offsets. It is the load-bearing piece of
// the codec — every in-place EXIF write (JPEG, TIFF) bottoms out here.
package tiff

import (
	"encoding/binary"

	"github.com/ankit-chaubey/photometa/core"
)

// Well-known tag ids that cross-reference IFDs (§3).
const (
	TagExifIFDPointer uint16 = 0x8769
	TagGPSIFDPointer  uint16 = 0x8825
)

// Data format codes (TIFF6 Table 1), ids 1..12.
const (
	FmtByte      uint16 = 1
	FmtAscii     uint16 = 2
	FmtShort     uint16 = 3
	FmtLong      uint16 = 4
	FmtRational  uint16 = 5
	FmtSByte     uint16 = 6
	FmtUndefined uint16 = 7
	FmtSShort    uint16 = 8
	FmtSLong     uint16 = 9
	FmtSRational uint16 = 10
	FmtFloat     uint16 = 11
	FmtDouble    uint16 = 12
)

// formatSize returns the byte size of one component of the given format, or 0
// if the format id is not one of the twelve TIFF6 types.
func formatSize(format uint16) int {
	switch format {
	case FmtByte, FmtSByte, FmtUndefined, FmtAscii:
		return 1
	case FmtShort, FmtSShort:
		return 2
	case FmtLong, FmtSLong, FmtFloat:
		return 4
	case FmtRational, FmtSRational, FmtDouble:
		return 8
	default:
		return 0
	}
}

// Entry is the public contract's representation of one IFD entry to inject:
// a tag id, a data format, a component count, and the raw data-portion bytes
// already encoded in the stream's byte order. The engine decides inline-vs-
// heap placement.
type Entry struct {
	Tag    uint16
	Format uint16
	Count  uint32
	Data   []byte
}

// Additions groups the three IFDs' worth of new/replacement entries that
// Inject and BuildFresh accept, per §4.A's public contract.
type Additions struct {
	IFD0    []Entry
	ExifIFD []Entry
	GPSIFD  []Entry
}

// byteOrderOf inspects the two-byte marker at the start of a TIFF header.
func byteOrderOf(marker [2]byte) (binary.ByteOrder, bool) {
	switch {
	case marker[0] == 'I' && marker[1] == 'I':
		return binary.LittleEndian, true
	case marker[0] == 'M' && marker[1] == 'M':
		return binary.BigEndian, true
	default:
		return nil, false
	}
}

func headerBytes(order binary.ByteOrder) []byte {
	h := make([]byte, 8)
	if order == binary.LittleEndian {
		h[0], h[1] = 'I', 'I'
	} else {
		h[0], h[1] = 'M', 'M'
	}
	order.PutUint16(h[2:4], 42)
	order.PutUint32(h[4:8], 8)
	return h
}

// placedEntry is the engine's internal representation of one entry slot while
// assembling a new IFD: either a pristine copy of an original entry (fresh =
// false, Raw holds the original 4-byte value/offset field verbatim) or a
// fresh entry from Additions (fresh = true, Data holds the full payload to be
// placed inline or on the heap).
type placedEntry struct {
	tag    uint16
	format uint16
	count  uint32
	raw    [4]byte
	data   []byte
	fresh  bool
}

func entriesFromAdditions(adds []Entry) []placedEntry {
	out := make([]placedEntry, 0, len(adds))
	for _, a := range adds {
		out = append(out, placedEntry{tag: a.Tag, format: a.Format, count: a.Count, data: a.Data, fresh: true})
	}
	return out
}

// mergeEntries replaces entries in original sharing a tag id with the
// corresponding addition (entirely — format/count/data from the addition),
// appends additions with unseen tag ids, and returns the result sorted by
// tag id ascending, satisfying the "entries must be sorted by tag id on
// write" invariant (§3).
func mergeEntries(original []placedEntry, additions []Entry) []placedEntry {
	byTag := make(map[uint16]int, len(original))
	merged := make([]placedEntry, len(original))
	copy(merged, original)
	for i, e := range merged {
		byTag[e.tag] = i
	}
	for _, a := range additions {
		fresh := placedEntry{tag: a.Tag, format: a.Format, count: a.Count, data: a.Data, fresh: true}
		if idx, ok := byTag[a.Tag]; ok {
			merged[idx] = fresh
		} else {
			byTag[a.Tag] = len(merged)
			merged = append(merged, fresh)
		}
	}
	sortByTag(merged)
	return merged
}

func sortByTag(entries []placedEntry) {
	// Small N (a handful of entries per IFD) — simple insertion sort avoids
	// pulling in "sort" for a stable, tag-ascending order.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].tag > entries[j].tag; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

func findPointer(entries []placedEntry, tag uint16, order binary.ByteOrder) (uint32, bool) {
	for _, e := range entries {
		if e.tag == tag {
			if e.fresh {
				if len(e.data) >= 4 {
					return order.Uint32(e.data[:4]), true
				}
				return 0, false
			}
			return order.Uint32(e.raw[:]), true
		}
	}
	return 0, false
}

func setPointer(entries []placedEntry, tag uint16, offset uint32, order binary.ByteOrder) []placedEntry {
	buf := make([]byte, 4)
	order.PutUint32(buf, offset)
	for i, e := range entries {
		if e.tag == tag {
			entries[i] = placedEntry{tag: tag, format: FmtLong, count: 1, data: buf, fresh: true}
			return entries
		}
	}
	entries = append(entries, placedEntry{tag: tag, format: FmtLong, count: 1, data: buf, fresh: true})
	sortByTag(entries)
	return entries
}

// serializeIFD lays out entry_count, entry_count×12 bytes, next_ifd, then the
// heap blobs for entries whose payload exceeds the 4-byte inline slot. The
// heap cursor starts immediately after the next_ifd slot, per §4.A.
func serializeIFD(entries []placedEntry, order binary.ByteOrder, baseOffset uint32, nextIFD uint32) []byte {
	n := len(entries)
	headerLen := 2 + n*12 + 4
	ifdHeader := make([]byte, headerLen)
	order.PutUint16(ifdHeader[0:2], uint16(n))

	var heap []byte
	for i, e := range entries {
		slot := ifdHeader[2+i*12 : 2+i*12+12]
		order.PutUint16(slot[0:2], e.tag)
		order.PutUint16(slot[2:4], e.format)
		order.PutUint32(slot[4:8], e.count)

		if !e.fresh {
			copy(slot[8:12], e.raw[:])
			continue
		}
		if len(e.data) <= 4 {
			copy(slot[8:12], e.data)
			continue
		}
		offset := baseOffset + uint32(headerLen) + uint32(len(heap))
		order.PutUint32(slot[8:12], offset)
		heap = append(heap, e.data...)
		if len(e.data)%2 != 0 {
			heap = append(heap, 0) // word-align the next blob
		}
	}
	order.PutUint32(ifdHeader[2+n*12:2+n*12+4], nextIFD)
	return append(ifdHeader, heap...)
}

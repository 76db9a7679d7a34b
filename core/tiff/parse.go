package tiff

import (
	"encoding/binary"

	"github.com/ankit-chaubey/photometa/core"
)

// ResolvedEntry is a fully-resolved IFD entry: tag/format/count plus its
// payload bytes copied out of either the inline slot or the heap, ready for
// core/metareader to decode without touching placement concerns.
type ResolvedEntry struct {
	Tag    uint16
	Format uint16
	Count  uint32
	Data   []byte
}

// Ifd is one parsed, resolved IFD: its entries plus the raw placedEntry list
// (retained so Inject can copy-preserve untouched entries byte-for-byte).
type Ifd struct {
	Entries  []ResolvedEntry
	raw      []placedEntry
	offset   uint32
}

// Parse decodes a TIFF byte stream's header and its three participating IFDs
// (IFD0, ExifIFD via tag 0x8769, GpsIFD via tag 0x8825), resolving every
// entry's payload bytes. Bounds violations on individual entries are
// recorded as warnings and the offending entry is skipped rather than
// failing the whole parse (§4.A edge case iii); a stream too short to carry
// a header, or with an unrecognized byte-order marker, is a
// ContainerParseError.
func Parse(data []byte) (*ParsedStream, error) {
	if len(data) < 8 {
		return nil, core.NewError(core.ErrContainerParse, "tiff stream shorter than an 8-byte header", nil)
	}
	order, ok := byteOrderOf([2]byte{data[0], data[1]})
	if !ok {
		return nil, core.NewError(core.ErrContainerParse, "unrecognized tiff byte-order marker", nil)
	}
	if order.Uint16(data[2:4]) != 42 {
		return nil, core.NewError(core.ErrContainerParse, "bad tiff magic number", nil)
	}
	ifd0Off := order.Uint32(data[4:8])

	ps := &ParsedStream{Order: order, Original: data}

	ifd0, warnings, err := parseIfdAt(data, order, ifd0Off)
	if err != nil {
		return nil, err
	}
	ps.IFD0 = ifd0
	ps.Warnings = append(ps.Warnings, warnings...)

	if off, ok := findPointer(ifd0.raw, TagExifIFDPointer, order); ok && off != 0 {
		exif, w, err := parseIfdAt(data, order, off)
		if err == nil {
			ps.ExifIFD = exif
			ps.Warnings = append(ps.Warnings, w...)
		} else {
			ps.Warnings = append(ps.Warnings, "exif ifd: "+err.Error())
		}
	}
	if off, ok := findPointer(ifd0.raw, TagGPSIFDPointer, order); ok && off != 0 {
		gps, w, err := parseIfdAt(data, order, off)
		if err == nil {
			ps.GPSIFD = gps
			ps.Warnings = append(ps.Warnings, w...)
		} else {
			ps.Warnings = append(ps.Warnings, "gps ifd: "+err.Error())
		}
	}
	return ps, nil
}

// ParsedStream is the result handed back to callers: the original bytes (so
// Inject can reuse them as an unmodified prefix), the byte order, and the
// three resolved IFDs.
type ParsedStream struct {
	Order    binary.ByteOrder
	Original []byte
	IFD0     *Ifd
	ExifIFD  *Ifd
	GPSIFD   *Ifd
	Warnings []string
}

func parseIfdAt(data []byte, order binary.ByteOrder, offset uint32) (*Ifd, []string, error) {
	if int(offset)+2 > len(data) {
		return nil, nil, core.NewError(core.ErrTiffBounds, "ifd offset out of bounds", nil)
	}
	count := order.Uint16(data[offset : offset+2])
	entriesStart := int(offset) + 2
	entriesEnd := entriesStart + int(count)*12
	if count == 0 {
		return &Ifd{offset: offset}, nil, nil
	}
	if entriesEnd > len(data) {
		return nil, nil, core.NewError(core.ErrTiffBounds, "ifd entry table overruns stream", nil)
	}

	var warnings []string
	resolved := make([]ResolvedEntry, 0, count)
	raw := make([]placedEntry, 0, count)

	for i := 0; i < int(count); i++ {
		slot := data[entriesStart+i*12 : entriesStart+i*12+12]
		tag := order.Uint16(slot[0:2])
		format := order.Uint16(slot[2:4])
		cnt := order.Uint32(slot[4:8])

		var rawField [4]byte
		copy(rawField[:], slot[8:12])
		raw = append(raw, placedEntry{tag: tag, format: format, count: cnt, raw: rawField})

		size := formatSize(format)
		if size == 0 {
			warnings = append(warnings, "skipped entry with unknown format")
			continue
		}
		total := size * int(cnt)
		var payload []byte
		if total <= 4 {
			payload = append([]byte(nil), slot[8:8+total]...)
		} else {
			heapOff := order.Uint32(slot[8:12])
			if int(heapOff)+total > len(data) {
				warnings = append(warnings, "skipped entry: heap offset out of bounds")
				continue
			}
			payload = append([]byte(nil), data[int(heapOff):int(heapOff)+total]...)
		}
		resolved = append(resolved, ResolvedEntry{Tag: tag, Format: format, Count: cnt, Data: payload})
	}
	return &Ifd{Entries: resolved, raw: raw, offset: offset}, warnings, nil
}

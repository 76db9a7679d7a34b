// Package jpeg implements the JPEG container surgeon (component B): locating
// and replacing EXIF/XMP/IPTC marker segments in place while canonically
// reordering the APPn segments the codec itself owns, and leaving every
// other byte — thumbnails, ICC profiles, other vendor APPn blocks, the scan
// data — untouched.
package jpeg

import (
	"encoding/binary"

	"github.com/ankit-chaubey/photometa/core"
)

const (
	markerSOI = 0xD8
	markerEOI = 0xD9
	markerSOS = 0xDA
	app0      = 0xE0
	app1      = 0xE1
	app13     = 0xED

	exifPrefix      = "Exif\x00\x00"
	xmpPrefix       = "http://ns.adobe.com/xap/1.0/\x00"
	photoshopPrefix = "Photoshop 3.0\x00"

	maxSegmentPayload = 65533 // u16 length field includes itself; 65535-2
)

// PayloadKind classifies which of the codec's three owned payloads a segment
// carries.
type PayloadKind int

const (
	KindOther PayloadKind = iota
	KindEXIF
	KindXMP
	KindIPTC
)

// segment is one marker segment: its marker byte and its payload (not
// including the 0xFF marker-id pair or the 2-byte length field).
type segment struct {
	marker  byte
	payload []byte
}

func classify(marker byte, payload []byte) PayloadKind {
	switch {
	case marker == app1 && hasPrefix(payload, exifPrefix):
		return KindEXIF
	case marker == app1 && hasPrefix(payload, xmpPrefix):
		return KindXMP
	case marker == app13 && hasPrefix(payload, photoshopPrefix):
		return KindIPTC
	default:
		return KindOther
	}
}

func hasPrefix(payload []byte, prefix string) bool {
	return len(payload) >= len(prefix) && string(payload[:len(prefix)]) == prefix
}

// parseSegments walks a JPEG stream's marker segments from just after SOI up
// to the first SOS (or EOI, for a stream with no scan), returning the
// segments before it plus everything from that marker onward (scan data +
// EOI) as a single opaque tail.
func parseSegments(data []byte) (segs []segment, tail []byte, err error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, nil, core.NewError(core.ErrContainerParse, "not a jpeg stream (missing SOI)", nil)
	}
	pos := 2
	for pos < len(data) {
		if data[pos] != 0xFF {
			return nil, nil, core.NewError(core.ErrContainerParse, "expected marker byte", nil)
		}
		marker := data[pos+1]
		if marker == markerSOS || marker == markerEOI {
			tail = data[pos:]
			return segs, tail, nil
		}
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			pos += 2
			continue
		}
		if pos+4 > len(data) {
			return nil, nil, core.NewError(core.ErrTiffBounds, "truncated segment length", nil)
		}
		length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		if length < 2 || pos+2+length > len(data) {
			return nil, nil, core.NewError(core.ErrTiffBounds, "segment length out of bounds", nil)
		}
		payload := data[pos+4 : pos+2+length]
		segs = append(segs, segment{marker: marker, payload: payload})
		pos += 2 + length
	}
	return nil, nil, core.NewError(core.ErrContainerParse, "jpeg stream ended before SOS", nil)
}

// writeSegments reassembles SOI, the given segments in order, and tail.
func writeSegments(segs []segment, tail []byte) ([]byte, error) {
	out := []byte{0xFF, markerSOI}
	for _, s := range segs {
		if len(s.payload)+2 > 0xFFFF {
			return nil, core.NewError(core.ErrEncodingOverflow, "segment exceeds maximum marker length", nil)
		}
		out = append(out, 0xFF, s.marker)
		lenBuf := make([]byte, 2)
		binary.BigEndian.PutUint16(lenBuf, uint16(len(s.payload)+2))
		out = append(out, lenBuf...)
		out = append(out, s.payload...)
	}
	out = append(out, tail...)
	return out, nil
}

// Replacement is one payload the caller wants placed into the stream,
// replacing any existing segment of the same kind.
type Replacement struct {
	Kind    PayloadKind
	Payload []byte // full segment payload, e.g. "Exif\0\0"+tiffBytes
}

// ReplaceOrInsert rewrites data's EXIF/XMP/IPTC segments per replacements and
// reorders the stream's APPn segments into canonical order: APP0, EXIF APP1,
// XMP APP1, IPTC APP13, any other opaque APPn (original relative order
// preserved), then every remaining non-APPn segment, then the SOS/scan tail.
func ReplaceOrInsert(data []byte, replacements []Replacement) ([]byte, error) {
	segs, tail, err := parseSegments(data)
	if err != nil {
		return nil, err
	}

	byKind := map[PayloadKind][]byte{}
	for _, r := range replacements {
		if len(r.Payload)+2 > maxSegmentPayload+2 {
			return nil, core.NewError(core.ErrEncodingOverflow, "exif/xmp/iptc payload exceeds jpeg segment limit", nil)
		}
		byKind[r.Kind] = r.Payload
	}

	var app0Seg *segment
	var otherAPPn []segment
	var nonAPPn []segment
	existingKind := map[PayloadKind]bool{}

	for _, s := range segs {
		if s.marker == app0 {
			cp := s
			app0Seg = &cp
			continue
		}
		kind := classify(s.marker, s.payload)
		switch kind {
		case KindEXIF, KindXMP, KindIPTC:
			existingKind[kind] = true
			if _, replacing := byKind[kind]; !replacing {
				// Not being replaced this call — keep it in its canonical slot.
				byKind[kind] = s.payload
			}
		case KindOther:
			if s.marker >= 0xE0 && s.marker <= 0xEF {
				otherAPPn = append(otherAPPn, s)
			} else {
				nonAPPn = append(nonAPPn, s)
			}
		}
	}

	var out []segment
	if app0Seg != nil {
		out = append(out, *app0Seg)
	}
	if p, ok := byKind[KindEXIF]; ok {
		out = append(out, segment{marker: app1, payload: p})
	}
	if p, ok := byKind[KindXMP]; ok {
		out = append(out, segment{marker: app1, payload: p})
	}
	if p, ok := byKind[KindIPTC]; ok {
		out = append(out, segment{marker: app13, payload: p})
	}
	out = append(out, otherAPPn...)
	out = append(out, nonAPPn...)

	return writeSegments(out, tail)
}

// Locate returns the payload bytes of the first segment of the given kind,
// or (nil, false) if none is present.
func Locate(data []byte, kind PayloadKind) ([]byte, bool, error) {
	segs, _, err := parseSegments(data)
	if err != nil {
		return nil, false, err
	}
	for _, s := range segs {
		if classify(s.marker, s.payload) == kind {
			return s.payload, true, nil
		}
	}
	return nil, false, nil
}

// ExifPrefix, XMPPrefix and IPTCPrefix are exported so callers building a
// Replacement payload know the exact framing bytes to prepend.
const (
	ExifPrefix      = exifPrefix
	XMPPrefix       = xmpPrefix
	PhotoshopPrefix = photoshopPrefix
)

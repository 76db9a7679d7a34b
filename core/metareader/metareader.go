// Package metareader implements the unified metadata reader (component D):
// decoding an image's existing title/description/keywords/subject/GPS and a
// handful of display-only camera fields out of whichever container format it
// carries, normalizing empty/whitespace-only/NUL-only values to "absent"
// before they ever reach core.ExistingMetadata.
package metareader

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/ankit-chaubey/photometa/core"
	"github.com/ankit-chaubey/photometa/core/gps"
	"github.com/ankit-chaubey/photometa/core/tiff"
)

// IFD0 tag ids.
const (
	tagImageDescription uint16 = 0x010E
	tagMake             uint16 = 0x010F
	tagModel            uint16 = 0x0110
	tagOrientation      uint16 = 0x0112
	tagXResolution      uint16 = 0x011A
	tagYResolution      uint16 = 0x011B
	tagSoftware         uint16 = 0x0131
	tagDateTime         uint16 = 0x0132
	tagImageWidth       uint16 = 0x0100
	tagImageHeight      uint16 = 0x0101
	tagXPTitle          uint16 = 0x9C9B
	tagXPComment        uint16 = 0x9C9C
	tagXPKeywords       uint16 = 0x9C9E
	tagXPSubject        uint16 = 0x9C9F
)

// ExifIFD tag ids.
const (
	tagExposureTime    uint16 = 0x829A
	tagFNumber         uint16 = 0x829D
	tagISOSpeedRatings uint16 = 0x8827
	tagUserComment     uint16 = 0x9286
	tagDateTimeOrig    uint16 = 0x9003
	tagFocalLength     uint16 = 0x920A
	tagColorSpace      uint16 = 0xA001
	tagExifImageWidth  uint16 = 0xA002
	tagExifImageHeight uint16 = 0xA003
	tagLensModel       uint16 = 0xA434
)

// GPSIFD tag ids.
const (
	tagGPSLatitudeRef  uint16 = 0x0001
	tagGPSLatitude     uint16 = 0x0002
	tagGPSLongitudeRef uint16 = 0x0003
	tagGPSLongitude    uint16 = 0x0004
)

// ReadTiffBytes decodes an ExistingMetadata out of a raw TIFF byte stream
// (used directly by the pipeline's TIFF container path, and by its JPEG path
// on the bytes of the EXIF APP1 payload after the "Exif\0\0" prefix is
// stripped).
func ReadTiffBytes(data []byte) (*core.ExistingMetadata, error) {
	ps, err := tiff.Parse(data)
	if err != nil {
		return nil, err
	}
	md := &core.ExistingMetadata{}

	ifd0 := entryMap(ps.IFD0)
	exif := entryMap(ps.ExifIFD)
	gpsIfd := entryMap(ps.GPSIFD)

	if v, ok := ifd0[tagImageDescription]; ok {
		if s := asciiString(v.Data); s != "" {
			md.Title, md.HasTitle = s, true
		}
	}
	if !md.HasTitle {
		if v, ok := ifd0[tagXPTitle]; ok {
			if s := utf16leString(v.Data); s != "" {
				md.Title, md.HasTitle = s, true
			}
		}
	}

	if v, ok := exif[tagUserComment]; ok {
		if s := decodeUserComment(v.Data); s != "" {
			md.Description, md.HasDesc = s, true
		}
	}
	if !md.HasDesc {
		if v, ok := ifd0[tagXPComment]; ok {
			if s := utf16leString(v.Data); s != "" {
				md.Description, md.HasDesc = s, true
			}
		}
	}

	if v, ok := ifd0[tagXPKeywords]; ok {
		if s := utf16leString(v.Data); s != "" {
			md.Keywords, md.HasKeywords = s, true
		}
	}
	if v, ok := ifd0[tagXPSubject]; ok {
		if s := utf16leString(v.Data); s != "" {
			md.Subject, md.HasSubject = s, true
		}
	}

	md.Make = asciiString(valueOf(ifd0, tagMake))
	md.Model = asciiString(valueOf(ifd0, tagModel))
	md.Orientation = asciiOrRational(ifd0[tagOrientation], ps.Order)
	md.Software = asciiString(valueOf(ifd0, tagSoftware))
	md.DateTime = firstNonEmpty(
		asciiString(valueOf(exif, tagDateTimeOrig)),
		asciiString(valueOf(ifd0, tagDateTime)),
	)
	md.ExposureTime = formatRationalFrac(exif[tagExposureTime], ps.Order)
	if f := formatRationalDecimal(exif[tagFNumber], ps.Order); f != "" {
		md.FNumber = "f/" + f
	}
	md.ISO = intString(exif[tagISOSpeedRatings], ps.Order)
	if fl := formatRationalDecimal(exif[tagFocalLength], ps.Order); fl != "" {
		md.FocalLength = fl + " mm"
	}
	md.ColorSpace = colorSpaceName(exif[tagColorSpace], ps.Order)
	md.ImageWidth = firstNonEmpty(intString(exif[tagExifImageWidth], ps.Order), intString(ifd0[tagImageWidth], ps.Order))
	md.ImageHeight = firstNonEmpty(intString(exif[tagExifImageHeight], ps.Order), intString(ifd0[tagImageHeight], ps.Order))
	md.LensModel = asciiString(valueOf(exif, tagLensModel))
	if xr := formatRationalDecimal(ifd0[tagXResolution], ps.Order); xr != "" {
		md.XResolution = xr + " dpi"
	}
	if yr := formatRationalDecimal(ifd0[tagYResolution], ps.Order); yr != "" {
		md.YResolution = yr + " dpi"
	}

	if latE, ok1 := gpsIfd[tagGPSLatitude]; ok1 {
		if lonE, ok2 := gpsIfd[tagGPSLongitude]; ok2 {
			latRef := byteOrDefault(gpsIfd[tagGPSLatitudeRef], 'N')
			lonRef := byteOrDefault(gpsIfd[tagGPSLongitudeRef], 'E')
			lat := gps.FromDMS(rationalsToDMS(latE.Data, ps.Order, latRef))
			lon := gps.FromDMS(rationalsToDMS(lonE.Data, ps.Order, lonRef))
			if gps.Valid(lat, lon) {
				md.HasGPS = true
				md.Latitude = lat
				md.Longitude = lon
			}
		}
	}

	normalize(md)
	return md, nil
}

func entryMap(ifd *tiff.Ifd) map[uint16]tiff.ResolvedEntry {
	m := map[uint16]tiff.ResolvedEntry{}
	if ifd == nil {
		return m
	}
	for _, e := range ifd.Entries {
		m[e.Tag] = e
	}
	return m
}

func valueOf(m map[uint16]tiff.ResolvedEntry, tag uint16) []byte {
	if e, ok := m[tag]; ok {
		return e.Data
	}
	return nil
}

func asciiString(data []byte) string {
	s := strings.TrimRight(string(data), "\x00")
	s = strings.TrimSpace(s)
	return s
}

func utf16leString(data []byte) string {
	if len(data) < 2 {
		return ""
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(data)
	if err != nil {
		return ""
	}
	s := strings.TrimRight(string(out), "\x00")
	return strings.TrimSpace(s)
}

func decodeUserComment(data []byte) string {
	if len(data) <= 8 {
		return ""
	}
	prefix, payload := data[:8], data[8:]
	switch {
	case string(prefix) == "ASCII\x00\x00\x00":
		return asciiString(payload)
	case string(prefix) == "UNICODE\x00":
		return utf16leString(payload)
	default:
		return ""
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func byteOrDefault(e tiff.ResolvedEntry, def byte) byte {
	s := asciiString(e.Data)
	if s == "" {
		return def
	}
	return s[0]
}

func rationalsToDMS(data []byte, order interface{ Uint32([]byte) uint32 }, ref byte) gps.DMS {
	if len(data) < 24 {
		return gps.DMS{Ref: ref}
	}
	readRat := func(off int) gps.Rational {
		return gps.Rational{Num: order.Uint32(data[off : off+4]), Den: order.Uint32(data[off+4 : off+8])}
	}
	return gps.DMS{
		Degrees: readRat(0),
		Minutes: readRat(8),
		Seconds: readRat(16),
		Ref:     ref,
	}
}

func formatRationalFrac(e tiff.ResolvedEntry, order interface{ Uint32([]byte) uint32 }) string {
	num, den, ok := rational(e, order)
	if !ok || den == 0 {
		return ""
	}
	if num == 0 {
		return "0"
	}
	if den == 1 {
		return strconv.FormatUint(uint64(num), 10)
	}
	return strconv.FormatUint(uint64(num), 10) + "/" + strconv.FormatUint(uint64(den), 10)
}

func formatRationalDecimal(e tiff.ResolvedEntry, order interface{ Uint32([]byte) uint32 }) string {
	num, den, ok := rational(e, order)
	if !ok || den == 0 {
		return ""
	}
	decimal := float64(num) / float64(den)
	s := strconv.FormatFloat(decimal, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}

func rational(e tiff.ResolvedEntry, order interface{ Uint32([]byte) uint32 }) (num, den uint32, ok bool) {
	if len(e.Data) < 8 {
		return 0, 0, false
	}
	return order.Uint32(e.Data[0:4]), order.Uint32(e.Data[4:8]), true
}

func intString(e tiff.ResolvedEntry, order interface {
	Uint16([]byte) uint16
	Uint32([]byte) uint32
}) string {
	switch len(e.Data) {
	case 0:
		return ""
	case 2:
		return strconv.Itoa(int(order.Uint16(e.Data)))
	case 4:
		return strconv.Itoa(int(order.Uint32(e.Data)))
	default:
		return ""
	}
}

func asciiOrRational(e tiff.ResolvedEntry, order interface {
	Uint16([]byte) uint16
	Uint32([]byte) uint32
}) string {
	if s := intString(e, order); s != "" {
		return s
	}
	return asciiString(e.Data)
}

func colorSpaceName(e tiff.ResolvedEntry, order interface {
	Uint16([]byte) uint16
	Uint32([]byte) uint32
}) string {
	s := intString(e, order)
	switch s {
	case "1":
		return "sRGB"
	case "65535":
		return "Uncalibrated"
	default:
		return s
	}
}

// normalize strips whitespace/NUL-only values down to "absent", per §3.
func normalize(md *core.ExistingMetadata) {
	clean := func(s string, has *bool) string {
		trimmed := strings.Trim(s, "\x00")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == "" {
			*has = false
			return ""
		}
		return trimmed
	}
	md.Title = clean(md.Title, &md.HasTitle)
	md.Description = clean(md.Description, &md.HasDesc)
	md.Keywords = clean(md.Keywords, &md.HasKeywords)
	md.Subject = clean(md.Subject, &md.HasSubject)
}

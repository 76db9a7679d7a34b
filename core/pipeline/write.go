package pipeline

import (
	"github.com/ankit-chaubey/photometa/core"
	"github.com/ankit-chaubey/photometa/core/gps"
	"github.com/ankit-chaubey/photometa/core/iptc"
	"github.com/ankit-chaubey/photometa/core/jpeg"
	pngsurgeon "github.com/ankit-chaubey/photometa/core/png"
	"github.com/ankit-chaubey/photometa/core/tiff"
	webpsurgeon "github.com/ankit-chaubey/photometa/core/webp"
	xmpbuilder "github.com/ankit-chaubey/photometa/core/xmp"
)

// fieldsFrom bundles the decided write values into the xmp Fields shape
// (iptcFieldsFrom below does the same for iptc.Fields).
func fieldsFrom(d decisions, ai core.AiResult) xmpbuilder.Fields {
	f := xmpbuilder.Fields{}
	if d.title && ai.Title != nil {
		f.Title = *ai.Title
	}
	if d.description && ai.Description != nil {
		f.Description = *ai.Description
	}
	if d.keywords {
		f.Keywords = ai.Tags
	}
	return f
}

func iptcFieldsFrom(d decisions, ai core.AiResult) iptc.Fields {
	f := iptc.Fields{}
	if d.title && ai.Title != nil {
		f.Title = *ai.Title
	}
	if d.description && ai.Description != nil {
		f.Description = *ai.Description
	}
	if d.keywords {
		f.Keywords = ai.Tags
	}
	return f
}

// buildExifAdditions turns the decided fields into TIFF Additions, covering
// ImageDescription/XPTitle (title), UserComment/XPComment (description),
// XPKeywords/XPSubject (keywords/subject), and GPSIFD (gps) — the exact tag
// set §3/§4.A names.
func buildExifAdditions(d decisions, ai core.AiResult) tiff.Additions {
	var add tiff.Additions

	if d.title && ai.Title != nil {
		add.IFD0 = append(add.IFD0, tiff.Entry{Tag: 0x010E, Format: tiff.FmtAscii, Count: uint32(len(*ai.Title) + 1), Data: nullTerminatedASCII(*ai.Title)})
		add.IFD0 = append(add.IFD0, xpEntry(0x9C9B, *ai.Title))
	}
	if d.description && ai.Description != nil {
		comment := append([]byte("ASCII\x00\x00\x00"), []byte(*ai.Description)...)
		add.ExifIFD = append(add.ExifIFD, tiff.Entry{Tag: 0x9286, Format: tiff.FmtUndefined, Count: uint32(len(comment)), Data: comment})
		add.IFD0 = append(add.IFD0, xpEntry(0x9C9C, *ai.Description))
	}
	if d.keywords {
		add.IFD0 = append(add.IFD0, xpEntry(0x9C9E, keywordsJoined(ai.Tags)))
	}
	if d.subject {
		add.IFD0 = append(add.IFD0, xpEntry(0x9C9F, keywordsJoined(ai.Subject)))
	}
	if d.gps && ai.GPS != nil {
		addGPS(&add, ai.GPS.Latitude, ai.GPS.Longitude)
	}
	return add
}

func nullTerminatedASCII(s string) []byte {
	return append([]byte(s), 0)
}

func xpEntry(tag uint16, s string) tiff.Entry {
	data := utf16leEncode(s)
	return tiff.Entry{Tag: tag, Format: tiff.FmtByte, Count: uint32(len(data)), Data: data}
}

func utf16leEncode(s string) []byte {
	var out []byte
	for _, r := range s {
		if r <= 0xFFFF {
			out = append(out, byte(r), byte(r>>8))
		} else {
			// surrogate pair encoding for codepoints outside the BMP
			r -= 0x10000
			hi := 0xD800 + (r >> 10)
			lo := 0xDC00 + (r & 0x3FF)
			out = append(out, byte(hi), byte(hi>>8), byte(lo), byte(lo>>8))
		}
	}
	return append(out, 0, 0)
}

func addGPS(add *tiff.Additions, lat, lon float64) {
	latDMS := gps.ToDMS(lat, 'N', 'S')
	lonDMS := gps.ToDMS(lon, 'E', 'W')

	add.GPSIFD = append(add.GPSIFD,
		tiff.Entry{Tag: 0x0001, Format: tiff.FmtAscii, Count: 2, Data: []byte{latDMS.Ref, 0}},
		tiff.Entry{Tag: 0x0002, Format: tiff.FmtRational, Count: 3, Data: rationalTriple(latDMS)},
		tiff.Entry{Tag: 0x0003, Format: tiff.FmtAscii, Count: 2, Data: []byte{lonDMS.Ref, 0}},
		tiff.Entry{Tag: 0x0004, Format: tiff.FmtRational, Count: 3, Data: rationalTriple(lonDMS)},
	)
}

func rationalTriple(d gps.DMS) []byte {
	out := make([]byte, 24)
	putRational(out[0:8], d.Degrees)
	putRational(out[8:16], d.Minutes)
	putRational(out[16:24], d.Seconds)
	return out
}

func putRational(b []byte, r gps.Rational) {
	le := func(buf []byte, v uint32) {
		buf[0], buf[1], buf[2], buf[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	}
	le(b[0:4], r.Num)
	le(b[4:8], r.Den)
}

// writeJPEG applies d's decisions to a JPEG byte stream, injecting EXIF into
// any existing (or absent) APP1 payload, merging/building the XMP packet,
// and merging/building the IPTC APP13 resource block.
func writeJPEG(data []byte, d decisions, ai core.AiResult) ([]byte, error) {
	var replacements []jpeg.Replacement

	if d.title || d.description || d.keywords || d.subject || d.gps {
		add := buildExifAdditions(d, ai)
		var tiffBytes []byte
		var err error
		if existing, found, lerr := jpeg.Locate(data, jpeg.KindEXIF); lerr == nil && found && len(existing) > len(jpeg.ExifPrefix) {
			tiffBytes, err = tiff.Inject(existing[len(jpeg.ExifPrefix):], add)
		} else {
			tiffBytes, err = tiff.BuildFresh(add.IFD0, add.ExifIFD, add.GPSIFD, leOrder)
		}
		if err != nil {
			return nil, err
		}
		replacements = append(replacements, jpeg.Replacement{Kind: jpeg.KindEXIF, Payload: append([]byte(jpeg.ExifPrefix), tiffBytes...)})
	}

	if d.title || d.description || d.keywords {
		f := fieldsFrom(d, ai)
		var xmpBytes []byte
		var err error
		if existing, found, lerr := jpeg.Locate(data, jpeg.KindXMP); lerr == nil && found && len(existing) > len(jpeg.XMPPrefix) {
			xmpBytes, err = xmpbuilder.MergeInto(existing[len(jpeg.XMPPrefix):], f)
			if err != nil {
				xmpBytes = xmpbuilder.BuildFresh(f)
				err = nil
			}
		} else {
			xmpBytes = xmpbuilder.BuildFresh(f)
		}
		if err != nil {
			return nil, err
		}
		replacements = append(replacements, jpeg.Replacement{Kind: jpeg.KindXMP, Payload: append([]byte(jpeg.XMPPrefix), xmpBytes...)})

		iptcF := iptcFieldsFrom(d, ai)
		var existingResources []byte
		if existing, found, lerr := jpeg.Locate(data, jpeg.KindIPTC); lerr == nil && found && len(existing) > len(jpeg.PhotoshopPrefix) {
			existingResources = existing[len(jpeg.PhotoshopPrefix):]
		}
		newResources := iptc.BuildOrMergeAPP13(existingResources, iptcF)
		replacements = append(replacements, jpeg.Replacement{Kind: jpeg.KindIPTC, Payload: append([]byte(jpeg.PhotoshopPrefix), newResources...)})
	}

	if len(replacements) == 0 {
		return data, nil
	}
	return jpeg.ReplaceOrInsert(data, replacements)
}

// writePNG applies d's decisions as an XMP-only write (PNG carries no IPTC
// or EXIF segment the codec targets — see DESIGN.md's Open Question note).
func writePNG(data []byte, d decisions, ai core.AiResult) ([]byte, error) {
	if !(d.title || d.description || d.keywords) {
		return data, nil
	}
	f := fieldsFrom(d, ai)
	var xmpBytes []byte
	var err error
	if existing, found, lerr := pngsurgeon.ExistingXMP(data); lerr == nil && found {
		xmpBytes, err = xmpbuilder.MergeInto(existing, f)
		if err != nil {
			xmpBytes = xmpbuilder.BuildFresh(f)
			err = nil
		}
	} else {
		xmpBytes = xmpbuilder.BuildFresh(f)
	}
	if err != nil {
		return nil, err
	}
	return pngsurgeon.ReplaceOrInsertXMP(data, xmpBytes)
}

// writeWebP mirrors writePNG: XMP-only, upgrading to VP8X if needed.
func writeWebP(data []byte, d decisions, ai core.AiResult) ([]byte, error) {
	if !(d.title || d.description || d.keywords) {
		return data, nil
	}
	f := fieldsFrom(d, ai)
	_, existingXMP, err := webpsurgeon.Existing(data)
	if err != nil {
		return nil, err
	}
	var xmpBytes []byte
	if existingXMP != nil {
		xmpBytes, err = xmpbuilder.MergeInto(existingXMP, f)
		if err != nil {
			xmpBytes = xmpbuilder.BuildFresh(f)
		}
	} else {
		xmpBytes = xmpbuilder.BuildFresh(f)
	}
	return webpsurgeon.ReplaceOrInsert(data, nil, xmpBytes)
}

// writeTiffContainer applies d's decisions to a standalone .tif/.tiff file's
// raw TIFF bytes.
func writeTiffContainer(data []byte, d decisions, ai core.AiResult) ([]byte, error) {
	if !(d.title || d.description || d.keywords || d.subject || d.gps) {
		return data, nil
	}
	add := buildExifAdditions(d, ai)
	if len(data) == 0 {
		return tiff.BuildFresh(add.IFD0, add.ExifIFD, add.GPSIFD, leOrder)
	}
	return tiff.Inject(data, add)
}

// writeSidecar builds or merges a standalone .xmp sidecar for containers the
// codec never mutates in place (RAW/HEIC/HEIF/AVIF).
func writeSidecar(existingSidecar []byte, d decisions, ai core.AiResult) []byte {
	f := fieldsFrom(d, ai)
	if len(existingSidecar) > 0 {
		if merged, err := xmpbuilder.MergeInto(existingSidecar, f); err == nil {
			return merged
		}
	}
	return xmpbuilder.BuildFresh(f)
}

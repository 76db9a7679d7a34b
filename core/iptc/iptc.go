// Package iptc builds and merges the Photoshop IRB (APP13) segment carrying
// legacy IPTC-IIM metadata: title, caption, and keywords, alongside every
// other 8BIM resource an editor may have already written.
package iptc

import (
	"encoding/binary"
)

const (
	photoshopSignature = "Photoshop 3.0\x00"
	eightBIM            = "8BIM"
	iimResourceID        = uint16(0x0404)

	iimMarker = 0x1C
	iimRecordApplication = 2

	datasetVersion     = 0
	datasetObjectName  = 5   // title
	datasetKeywords    = 25
	datasetCaption     = 120 // description

	maxObjectNameLen = 64
	maxKeywordLen    = 64
	maxCaptionLen    = 2000
)

// Fields is the title/description/keyword triple BuildOrMergeAPP13 embeds.
type Fields struct {
	Title       string
	Description string
	Keywords    []string
}

// resource is one parsed 8BIM resource block: id, a Photoshop Pascal-string
// name, and its data payload. Everything except the IIM dataset (0x0404) is
// copied through verbatim.
type resource struct {
	id   uint16
	name string
	data []byte
}

// BuildOrMergeAPP13 parses an existing Photoshop IRB resource list (the JPEG
// APP13 segment's data with its "Photoshop 3.0\0" signature already stripped
// by the caller), replaces its IIM resource
// (0x0404) with a freshly built one carrying Fields, and reserializes every
// resource in original order. If existing is empty or carries no IIM
// resource, a single fresh IIM resource is appended.
func BuildOrMergeAPP13(existing []byte, f Fields) []byte {
	resources := parseResources(existing)

	iimData := buildIIMDataset(f)
	replaced := false
	for i, r := range resources {
		if r.id == iimResourceID {
			resources[i].data = iimData
			replaced = true
			break
		}
	}
	if !replaced {
		resources = append(resources, resource{id: iimResourceID, name: "", data: iimData})
	}

	return serializeResources(resources)
}

func parseResources(data []byte) []resource {
	var out []resource
	pos := 0
	for pos+4 <= len(data) {
		if string(data[pos:pos+4]) != eightBIM {
			break
		}
		pos += 4
		if pos+2 > len(data) {
			break
		}
		id := binary.BigEndian.Uint16(data[pos : pos+2])
		pos += 2

		if pos >= len(data) {
			break
		}
		nameLen := int(data[pos])
		pos++
		if pos+nameLen > len(data) {
			break
		}
		name := string(data[pos : pos+nameLen])
		pos += nameLen
		if (nameLen+1)%2 != 0 {
			pos++ // pascal string + length byte padded to even total
		}

		if pos+4 > len(data) {
			break
		}
		size := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if pos+size > len(data) {
			break
		}
		payload := append([]byte(nil), data[pos:pos+size]...)
		pos += size
		if size%2 != 0 {
			pos++
		}
		out = append(out, resource{id: id, name: name, data: payload})
	}
	return out
}

func serializeResources(resources []resource) []byte {
	var out []byte
	for _, r := range resources {
		out = append(out, []byte(eightBIM)...)
		idBuf := make([]byte, 2)
		binary.BigEndian.PutUint16(idBuf, r.id)
		out = append(out, idBuf...)

		out = append(out, byte(len(r.name)))
		out = append(out, []byte(r.name)...)
		if (len(r.name)+1)%2 != 0 {
			out = append(out, 0)
		}

		sizeBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(sizeBuf, uint32(len(r.data)))
		out = append(out, sizeBuf...)
		out = append(out, r.data...)
		if len(r.data)%2 != 0 {
			out = append(out, 0)
		}
	}
	return out
}

func buildIIMDataset(f Fields) []byte {
	var out []byte
	out = append(out, iimRecord(datasetVersion, []byte{0x00, 0x02})...)

	if f.Title != "" {
		out = append(out, iimRecord(datasetObjectName, truncate(f.Title, maxObjectNameLen))...)
	}
	for _, kw := range f.Keywords {
		out = append(out, iimRecord(datasetKeywords, truncate(kw, maxKeywordLen))...)
	}
	if f.Description != "" {
		out = append(out, iimRecord(datasetCaption, truncate(f.Description, maxCaptionLen))...)
	}
	return out
}

func iimRecord(dataset byte, payload []byte) []byte {
	rec := make([]byte, 5, 5+len(payload))
	rec[0] = iimMarker
	rec[1] = iimRecordApplication
	rec[2] = dataset
	binary.BigEndian.PutUint16(rec[3:5], uint16(len(payload)))
	return append(rec, payload...)
}

func truncate(s string, max int) []byte {
	b := []byte(s)
	if len(b) > max {
		b = b[:max]
	}
	return b
}

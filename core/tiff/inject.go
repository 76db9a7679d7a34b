package tiff

import (
	"encoding/binary"

	"github.com/ankit-chaubey/photometa/core"
)

// Inject produces a new TIFF stream that is original's bytes, unmodified, as
// a prefix, plus freshly-appended ExifIFD/GPSIFD/IFD0 blocks carrying add's
// entries merged over the originals. Because the original byte range is
// never rewritten, any entry whose 4-byte field was already a heap offset
// into that range keeps resolving correctly without being touched.
//
// Per §4.A: IFD0 is always rebuilt and appended (so its offset can move and
// its Exif/GPS pointer entries can be patched); ExifIFD/GPSIFD are rebuilt
// and appended only when add carries entries for them — otherwise the
// original ExifIFD/GpsIFD (if any) is left in place and IFD0's existing
// pointer to it is preserved verbatim.
func Inject(original []byte, add Additions) ([]byte, error) {
	if len(original) == 0 {
		return nil, core.NewError(core.ErrContainerParse, "cannot inject into an empty tiff stream", nil)
	}
	ps, err := Parse(original)
	if err != nil {
		return nil, err
	}
	order := ps.Order

	out := append([]byte(nil), original...)
	cursor := uint32(len(out))

	ifd0Raw := []placedEntry{}
	if ps.IFD0 != nil {
		ifd0Raw = ps.IFD0.raw
	}

	var exifRaw, gpsRaw []placedEntry
	if ps.ExifIFD != nil {
		exifRaw = ps.ExifIFD.raw
	}
	if ps.GPSIFD != nil {
		gpsRaw = ps.GPSIFD.raw
	}

	if len(add.ExifIFD) > 0 {
		merged := mergeEntries(exifRaw, add.ExifIFD)
		blob := serializeIFD(merged, order, cursor, 0)
		exifOffset := cursor
		out = append(out, blob...)
		cursor += uint32(len(blob))
		ifd0Raw = setPointer(ifd0Raw, TagExifIFDPointer, exifOffset, order)
	}
	if len(add.GPSIFD) > 0 {
		merged := mergeEntries(gpsRaw, add.GPSIFD)
		blob := serializeIFD(merged, order, cursor, 0)
		gpsOffset := cursor
		out = append(out, blob...)
		cursor += uint32(len(blob))
		ifd0Raw = setPointer(ifd0Raw, TagGPSIFDPointer, gpsOffset, order)
	}

	finalIfd0 := mergeEntries(ifd0Raw, add.IFD0)
	ifd0Offset := cursor
	ifd0Blob := serializeIFD(finalIfd0, order, ifd0Offset, 0)
	out = append(out, ifd0Blob...)

	order.PutUint32(out[4:8], ifd0Offset)
	return out, nil
}

// BuildFresh assembles a minimal brand-new TIFF stream from scratch: an
// 8-byte header, then ExifIFD (if non-empty), then GPSIFD (if non-empty),
// then IFD0 last, each appended sequentially with IFD0's pointer entries
// patched to whichever offsets ExifIFD/GPSIFD landed at. Used when a
// container has no pre-existing EXIF segment to inject into.
func BuildFresh(ifd0, exifEntries, gpsEntries []Entry, order binary.ByteOrder) ([]byte, error) {
	out := headerBytes(order)
	cursor := uint32(len(out))

	ifd0Raw := entriesFromAdditions(ifd0)

	if len(exifEntries) > 0 {
		merged := entriesFromAdditions(exifEntries)
		sortByTag(merged)
		blob := serializeIFD(merged, order, cursor, 0)
		exifOffset := cursor
		out = append(out, blob...)
		cursor += uint32(len(blob))
		ifd0Raw = setPointer(ifd0Raw, TagExifIFDPointer, exifOffset, order)
	}
	if len(gpsEntries) > 0 {
		merged := entriesFromAdditions(gpsEntries)
		sortByTag(merged)
		blob := serializeIFD(merged, order, cursor, 0)
		gpsOffset := cursor
		out = append(out, blob...)
		cursor += uint32(len(blob))
		ifd0Raw = setPointer(ifd0Raw, TagGPSIFDPointer, gpsOffset, order)
	}

	sortByTag(ifd0Raw)
	ifd0Offset := cursor
	ifd0Blob := serializeIFD(ifd0Raw, order, ifd0Offset, 0)
	out = append(out, ifd0Blob...)

	order.PutUint32(out[4:8], ifd0Offset)
	return out, nil
}

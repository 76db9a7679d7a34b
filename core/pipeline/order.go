package pipeline

import "encoding/binary"

// leOrder is the byte order used for any TIFF stream the pipeline builds
// from scratch (no existing EXIF to preserve the order of).
var leOrder binary.ByteOrder = binary.LittleEndian

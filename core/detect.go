package core

import "strings"

// rawExtensions are the camera RAW (and HEIC/HEIF/AVIF) extensions that the
// codec never mutates in place — they always resolve to KindSidecar (§3, §8
// testable property 8).
var rawExtensions = map[string]bool{
	".cr2": true, ".cr3": true, ".dng": true, ".nef": true, ".arw": true,
	".raf": true, ".orf": true, ".rw2": true, ".pef": true, ".srw": true,
	".heic": true, ".heif": true, ".avif": true,
}

var extMap = map[string]ContainerKind{
	".jpg":  KindJPEG,
	".jpeg": KindJPEG,
	".png":  KindPNG,
	".webp": KindWebP,
	".tif":  KindTiff,
	".tiff": KindTiff,
}

// DetectContainerKind classifies a path by extension, case-insensitive (§6).
// RAW and HEIC/HEIF/AVIF extensions resolve to KindSidecar so the pipeline
// never attempts to mutate a container it cannot safely parse; any other
// extension resolves to KindUnknown.
func DetectContainerKind(path string) ContainerKind {
	ext := extOf(path)
	if kind, ok := extMap[ext]; ok {
		return kind
	}
	if rawExtensions[ext] {
		return KindSidecar
	}
	return KindUnknown
}

// IsSupportedImage reports whether path carries a recognized image extension
// (mutable container or sidecar-eligible RAW/HEIC/AVIF) — used by the batch
// directory walker.
func IsSupportedImage(path string) bool {
	ext := extOf(path)
	if _, ok := extMap[ext]; ok {
		return true
	}
	return rawExtensions[ext]
}

func extOf(path string) string {
	dot := strings.LastIndex(path, ".")
	if dot < 0 {
		return ""
	}
	return strings.ToLower(path[dot:])
}

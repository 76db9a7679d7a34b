// Package core defines the shared types, the container-kind registry, and the
// sentinel error kinds used across the metadata codec (tiff, jpeg, png, webp,
// xmp, iptc, metareader) and the processing pipeline that drives them.
package core

import "fmt"

// ContainerKind identifies which write strategy a file uses.
type ContainerKind int

const (
	KindUnknown ContainerKind = iota
	KindJPEG
	KindPNG
	KindWebP
	KindTiff
	KindSidecar
)

func (k ContainerKind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindWebP:
		return "webp"
	case KindTiff:
		return "tiff"
	case KindSidecar:
		return "sidecar"
	default:
		return "unknown"
	}
}

// GPSCoords is a decimal-degree latitude/longitude pair.
type GPSCoords struct {
	Latitude  float64
	Longitude float64
}

// ExistingMetadata is the result of reading a container's metadata. All string
// fields are absent (empty string + false companion where relevant) rather than
// present-but-blank — §3's normalization rule strips whitespace/NUL-only values
// before they reach this struct.
type ExistingMetadata struct {
	Title       string
	HasTitle    bool
	Description string
	HasDesc     bool
	Keywords    string
	HasKeywords bool
	Subject     string
	HasSubject  bool

	HasGPS    bool
	Latitude  float64
	Longitude float64

	// Display-only camera/exposure/image fields (§3).
	Make         string
	Model        string
	DateTime     string
	Orientation  string
	Software     string
	ExposureTime string
	FNumber      string
	ISO          string
	FocalLength  string
	ColorSpace   string
	ImageWidth   string
	ImageHeight  string
	LensModel    string
	XResolution  string
	YResolution  string
}

// AiResult is the (partial) output of an external AI vision backend.
type AiResult struct {
	Title       *string
	Description *string
	Tags        []string
	GPS         *GPSCoords
	Subject     []string
}

// FieldPolicy controls which fields the pipeline is allowed to write.
type FieldPolicy struct {
	WriteTitle        bool `yaml:"write_title"`
	WriteDescription  bool `yaml:"write_description"`
	WriteTags         bool `yaml:"write_tags"`
	WriteGPS          bool `yaml:"write_gps"`
	WriteSubject      bool `yaml:"write_subject"`
	OverwriteExisting bool `yaml:"overwrite_existing"`
}

// DefaultFieldPolicy mirrors original_source/src/config.rs's Config::default().
func DefaultFieldPolicy() FieldPolicy {
	return FieldPolicy{
		WriteTitle:        true,
		WriteDescription:  true,
		WriteTags:         true,
		WriteGPS:          true,
		WriteSubject:      true,
		OverwriteExisting: false,
	}
}

// WriteOutcome is the per-image result of a pipeline write.
type WriteOutcome struct {
	TitleWritten       bool
	DescriptionWritten bool
	TagsWritten        bool
	GPSWritten         bool
	SubjectWritten     bool
	SkippedFields      []string
	SidecarPath        string
	AiServiceUsed       string
	Error               string
}

// Error kinds raised by the core (§7).
type ErrorKind int

const (
	ErrUnsupportedContainer ErrorKind = iota
	ErrContainerParse
	ErrTiffBounds
	ErrIO
	ErrAiFailure
	ErrEncodingOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnsupportedContainer:
		return "UnsupportedContainer"
	case ErrContainerParse:
		return "ContainerParseError"
	case ErrTiffBounds:
		return "TiffBoundsError"
	case ErrIO:
		return "IoError"
	case ErrAiFailure:
		return "AiFailure"
	case ErrEncodingOverflow:
		return "EncodingOverflow"
	default:
		return "UnknownError"
	}
}

// CodecError is the core's typed error, carrying a kind alongside the
// underlying cause so the pipeline's recovery policy (§7) can switch on it.
type CodecError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *CodecError) Unwrap() error { return e.Err }

// NewError builds a CodecError.
func NewError(kind ErrorKind, msg string, cause error) *CodecError {
	return &CodecError{Kind: kind, Msg: msg, Err: cause}
}

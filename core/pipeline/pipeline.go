// Package pipeline wires the container surgeons (tiff/jpeg/png/webp/xmp/iptc)
// and the AI backend registry into the per-image and per-batch processing
// loop, mirroring original_source/src/pipeline.rs's process_image/collect_images.
package pipeline

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ankit-chaubey/photometa/core"
	"github.com/ankit-chaubey/photometa/core/ai"
	"github.com/ankit-chaubey/photometa/core/jpeg"
	pngsurgeon "github.com/ankit-chaubey/photometa/core/png"
	"github.com/ankit-chaubey/photometa/core/metareader"
	webpsurgeon "github.com/ankit-chaubey/photometa/core/webp"
)

// Options controls how ProcessOne/ProcessAll behave — assembled by the CLI
// from config.Config plus any per-invocation flag overrides.
type Options struct {
	Policy          core.FieldPolicy
	DryRun          bool
	BackupOriginals bool
	Prompt          string
}

// ProcessOne runs the full read -> analyze -> decide -> write sequence for a
// single image and returns its WriteOutcome. It never returns an error for
// recoverable per-image failures (those land in WriteOutcome.Error instead),
// so a batch run can keep going across a bad file.
func ProcessOne(ctx context.Context, path string, reg *ai.Registry, opts Options) core.WriteOutcome {
	kind := core.DetectContainerKind(path)
	if kind == core.KindUnknown {
		return core.WriteOutcome{Error: core.NewError(core.ErrUnsupportedContainer, "unrecognized container: "+path, nil).Error()}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return core.WriteOutcome{Error: core.NewError(core.ErrIO, "failed to read file", err).Error()}
	}

	existing, existingXMPBytes, sidecarPath, err := readExisting(path, kind, data)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to read existing metadata, proceeding as absent")
		existing = &core.ExistingMetadata{}
	}

	prompt := opts.Prompt
	if prompt == "" {
		prompt = ai.BuildPrompt()
	}
	imageB64 := base64.StdEncoding.EncodeToString(data)
	result, usedBy, aiErr := reg.Analyze(ctx, path, imageB64, prompt, mimeFor(kind))
	if aiErr != nil {
		log.Warn().Err(aiErr).Str("path", path).Msg("every AI backend failed, no fields will be written")
		return core.WriteOutcome{Error: aiErr.Error()}
	}

	d := decide(opts.Policy, existing, result)
	outcome := core.WriteOutcome{
		TitleWritten:       d.title,
		DescriptionWritten: d.description,
		TagsWritten:        d.keywords,
		GPSWritten:         d.gps,
		SubjectWritten:     d.subject,
		SkippedFields:      d.skipped,
		AiServiceUsed:      usedBy,
	}

	if !(d.title || d.description || d.keywords || d.subject || d.gps) {
		return outcome
	}
	if opts.DryRun {
		return outcome
	}

	if kind == core.KindSidecar {
		merged := writeSidecar(existingXMPBytes, d, result)
		if err := os.WriteFile(sidecarPath, merged, 0o644); err != nil {
			outcome.Error = core.NewError(core.ErrIO, "failed to write sidecar", err).Error()
			return outcome
		}
		outcome.SidecarPath = sidecarPath
		return outcome
	}

	if opts.BackupOriginals {
		if err := backupFile(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("backup failed, continuing with write")
		}
	}

	newData, err := writeByKind(kind, data, d, result)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	if err := os.WriteFile(path, newData, 0o644); err != nil {
		outcome.Error = core.NewError(core.ErrIO, "failed to write updated file", err).Error()
		return outcome
	}
	return outcome
}

func writeByKind(kind core.ContainerKind, data []byte, d decisions, ai core.AiResult) ([]byte, error) {
	switch kind {
	case core.KindJPEG:
		return writeJPEG(data, d, ai)
	case core.KindPNG:
		return writePNG(data, d, ai)
	case core.KindWebP:
		return writeWebP(data, d, ai)
	case core.KindTiff:
		return writeTiffContainer(data, d, ai)
	default:
		return data, nil
	}
}

// ReadExisting reads a file's current metadata without calling any AI
// backend — backs the view command.
func ReadExisting(path string) (*core.ExistingMetadata, error) {
	kind := core.DetectContainerKind(path)
	if kind == core.KindUnknown {
		return nil, core.NewError(core.ErrUnsupportedContainer, "unrecognized container: "+path, nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewError(core.ErrIO, "failed to read file", err)
	}
	md, _, _, err := readExisting(path, kind, data)
	return md, err
}

// readExisting dispatches to the right reader per container kind. It returns
// the normalized metadata, the raw existing XMP packet bytes (nil if absent,
// used by writeSidecar to merge rather than overwrite; the in-place writers
// locate the packet again themselves),
// and — for sidecar containers only — the sidecar path.
func readExisting(path string, kind core.ContainerKind, data []byte) (*core.ExistingMetadata, []byte, string, error) {
	switch kind {
	case core.KindJPEG:
		md := &core.ExistingMetadata{}
		if payload, found, err := jpeg.Locate(data, jpeg.KindEXIF); err == nil && found && len(payload) > len(jpeg.ExifPrefix) {
			if parsed, err := metareader.ReadTiffBytes(payload[len(jpeg.ExifPrefix):]); err == nil {
				md = parsed
			}
		}
		var xmpBytes []byte
		if payload, found, err := jpeg.Locate(data, jpeg.KindXMP); err == nil && found && len(payload) > len(jpeg.XMPPrefix) {
			xmpBytes = payload[len(jpeg.XMPPrefix):]
			mergeXMPPresence(md, xmpBytes)
		}
		return md, xmpBytes, "", nil
	case core.KindPNG:
		md := &core.ExistingMetadata{}
		xmpBytes, found, err := pngsurgeon.ExistingXMP(data)
		if err != nil {
			return md, nil, "", err
		}
		if found {
			mergeXMPPresence(md, xmpBytes)
		}
		return md, xmpBytes, "", nil
	case core.KindWebP:
		md := &core.ExistingMetadata{}
		_, xmpBytes, err := webpsurgeon.Existing(data)
		if err != nil {
			return md, nil, "", err
		}
		if xmpBytes != nil {
			mergeXMPPresence(md, xmpBytes)
		}
		return md, xmpBytes, "", nil
	case core.KindTiff:
		md, err := metareader.ReadTiffBytes(data)
		if err != nil {
			return &core.ExistingMetadata{}, nil, "", err
		}
		return md, nil, "", nil
	case core.KindSidecar:
		sidecarPath := path + ".xmp"
		md := &core.ExistingMetadata{}
		sidecar, err := os.ReadFile(sidecarPath)
		if err != nil {
			if os.IsNotExist(err) {
				return md, nil, sidecarPath, nil
			}
			return md, nil, sidecarPath, err
		}
		mergeXMPPresence(md, sidecar)
		return md, sidecar, sidecarPath, nil
	default:
		return &core.ExistingMetadata{}, nil, "", nil
	}
}

// mergeXMPPresence is a light presence check over a raw XMP packet — it sets
// Has* flags for fields the pipeline's own BuildFresh/MergeInto tags would
// have produced, without needing a full XMP parser.
func mergeXMPPresence(md *core.ExistingMetadata, xmpPacket []byte) {
	s := string(xmpPacket)
	if strings.Contains(s, "<dc:title>") && !md.HasTitle {
		md.HasTitle = true
	}
	if strings.Contains(s, "<dc:description>") && !md.HasDesc {
		md.HasDesc = true
	}
	if strings.Contains(s, "<dc:subject>") && !md.HasKeywords {
		md.HasKeywords = true
	}
}

func mimeFor(kind core.ContainerKind) string {
	switch kind {
	case core.KindJPEG:
		return "image/jpeg"
	case core.KindPNG:
		return "image/png"
	case core.KindWebP:
		return "image/webp"
	case core.KindTiff:
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

// ProcessAll fans ProcessOne out across paths with bounded concurrency, via a
// buffered channel of worker slots rather than an errgroup — ProcessOne never
// returns an error, only outcomes, so there is nothing for an errgroup to
// cancel on.
func ProcessAll(ctx context.Context, paths []string, reg *ai.Registry, opts Options, concurrency int) []core.WriteOutcome {
	if concurrency < 1 {
		concurrency = 1
	}
	outcomes := make([]core.WriteOutcome, len(paths))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, p := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p string) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = ProcessOne(ctx, p, reg, opts)
		}(i, p)
	}
	wg.Wait()
	return outcomes
}

// CollectImages walks dir, returning every supported image path (§6's
// IsSupportedImage gate), skipping entries the optional ignore matcher
// reports as ignored.
func CollectImages(dir string, ignored func(string) bool) ([]string, error) {
	var out []string
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if ignored != nil && ignored(p) {
			return nil
		}
		if core.IsSupportedImage(p) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, core.NewError(core.ErrIO, "failed to walk directory", err)
	}
	return out, nil
}

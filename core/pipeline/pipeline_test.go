package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/photometa/core"
	"github.com/ankit-chaubey/photometa/core/ai"
	"github.com/ankit-chaubey/photometa/core/jpeg"
)

func minimalJPEG() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xD9}
}

type stubBackend struct {
	name   string
	result core.AiResult
	err    error
}

func (s stubBackend) Name() string { return s.name }
func (s stubBackend) Analyze(ctx context.Context, imageB64, prompt, mime string) (core.AiResult, error) {
	if s.err != nil {
		return core.AiResult{}, s.err
	}
	return s.result, nil
}
func (s stubBackend) AnalyzeFile(ctx context.Context, path string) (core.AiResult, bool, error) {
	return core.AiResult{}, false, nil
}

func strPtr(s string) *string { return &s }

func TestProcessOneJPEGWritesTitleAndDescription(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, minimalJPEG(), 0o644))

	backend := stubBackend{name: "stub", result: core.AiResult{
		Title:       strPtr("A mountain lake"),
		Description: strPtr("A calm lake surrounded by mountains"),
		Tags:        []string{"lake", "mountains"},
	}}
	reg := ai.NewRegistry(backend)

	outcome := ProcessOne(context.Background(), path, reg, Options{Policy: core.DefaultFieldPolicy(), BackupOriginals: true})
	assert.Empty(t, outcome.Error)
	assert.True(t, outcome.TitleWritten)
	assert.True(t, outcome.DescriptionWritten)
	assert.True(t, outcome.TagsWritten)
	assert.Equal(t, "stub", outcome.AiServiceUsed)

	assert.FileExists(t, path+".bak")

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	_, found, err := jpeg.Locate(written, jpeg.KindEXIF)
	require.NoError(t, err)
	assert.True(t, found)
	_, found, err = jpeg.Locate(written, jpeg.KindXMP)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestProcessOneDryRunDoesNotWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	original := minimalJPEG()
	require.NoError(t, os.WriteFile(path, original, 0o644))

	backend := stubBackend{name: "stub", result: core.AiResult{Title: strPtr("Title")}}
	reg := ai.NewRegistry(backend)

	outcome := ProcessOne(context.Background(), path, reg, Options{Policy: core.DefaultFieldPolicy(), DryRun: true})
	assert.True(t, outcome.TitleWritten)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after)
	assert.NoFileExists(t, path+".bak")
}

func TestProcessOneSidecarNeverTouchesOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.cr2")
	original := []byte("raw-bytes-opaque-to-the-codec")
	require.NoError(t, os.WriteFile(path, original, 0o644))

	backend := stubBackend{name: "stub", result: core.AiResult{Title: strPtr("A RAW capture")}}
	reg := ai.NewRegistry(backend)

	outcome := ProcessOne(context.Background(), path, reg, Options{Policy: core.DefaultFieldPolicy()})
	require.Empty(t, outcome.Error)
	assert.Equal(t, path+".xmp", outcome.SidecarPath)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after)
	assert.FileExists(t, path+".xmp")
}

func TestProcessOneAllBackendsFailSetsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, minimalJPEG(), 0o644))

	backend := stubBackend{name: "stub", err: assertError{"boom"}}
	reg := ai.NewRegistry(backend)

	outcome := ProcessOne(context.Background(), path, reg, Options{Policy: core.DefaultFieldPolicy()})
	assert.NotEmpty(t, outcome.Error)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }

func TestProcessOneUnsupportedContainerErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	reg := ai.NewRegistry(stubBackend{name: "stub"})
	outcome := ProcessOne(context.Background(), path, reg, Options{Policy: core.DefaultFieldPolicy()})
	assert.Contains(t, outcome.Error, "UnsupportedContainer")
}

func TestProcessAllReturnsOneOutcomePerPath(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, minimalJPEG(), 0o644))
		paths = append(paths, p)
	}

	backend := stubBackend{name: "stub", result: core.AiResult{Title: strPtr("Title")}}
	reg := ai.NewRegistry(backend)

	outcomes := ProcessAll(context.Background(), paths, reg, Options{Policy: core.DefaultFieldPolicy()}, 2)
	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.True(t, o.TitleWritten)
	}
}

func TestCollectImagesFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), minimalJPEG(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	paths, err := CollectImages(dir, nil)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), paths[0])
}

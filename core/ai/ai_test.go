package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/photometa/core"
)

func TestParseResponseBareJSON(t *testing.T) {
	result, err := ParseResponse(`{"title": "A Sunset", "description": "Nice", "tags": ["a","b"], "gps": null, "subject": null}`)
	require.NoError(t, err)
	require.NotNil(t, result.Title)
	assert.Equal(t, "A Sunset", *result.Title)
	assert.Equal(t, []string{"a", "b"}, result.Tags)
}

func TestParseResponseFencedJSON(t *testing.T) {
	text := "Here you go:\n```json\n{\"title\": \"Fenced\", \"description\": \"d\"}\n```\nHope that helps!"
	result, err := ParseResponse(text)
	require.NoError(t, err)
	require.NotNil(t, result.Title)
	assert.Equal(t, "Fenced", *result.Title)
}

func TestParseResponseChatterSurroundedJSON(t *testing.T) {
	text := `Sure! Here's the analysis: {"title": "X", "description": "Y"} Let me know if you need anything else.`
	result, err := ParseResponse(text)
	require.NoError(t, err)
	require.NotNil(t, result.Title)
	assert.Equal(t, "X", *result.Title)
}

func TestParseResponseTrailingCommas(t *testing.T) {
	text := `{"title": "X", "tags": ["a", "b",],}`
	result, err := ParseResponse(text)
	require.NoError(t, err)
	require.NotNil(t, result.Title)
	assert.Equal(t, []string{"a", "b"}, result.Tags)
}

func TestParseResponseUnquotedValue(t *testing.T) {
	text := `{"title": Golden Gate Bridge, "description": "A bridge"}`
	result, err := ParseResponse(text)
	require.NoError(t, err)
	require.NotNil(t, result.Title)
	assert.Equal(t, "Golden Gate Bridge", *result.Title)
}

func TestParseResponseZeroZeroGPSIsAbsent(t *testing.T) {
	result, err := ParseResponse(`{"title": "x", "gps": {"latitude": 0, "longitude": 0}}`)
	require.NoError(t, err)
	assert.Nil(t, result.GPS)
}

func TestParseResponseRealGPS(t *testing.T) {
	result, err := ParseResponse(`{"title": "x", "gps": {"latitude": 43.5, "longitude": 11.9}}`)
	require.NoError(t, err)
	require.NotNil(t, result.GPS)
	assert.InDelta(t, 43.5, result.GPS.Latitude, 0.001)
}

func TestParseResponseGarbageErrors(t *testing.T) {
	_, err := ParseResponse("this is not json at all and has no braces")
	require.Error(t, err)
}

type stubBackend struct {
	name   string
	result core.AiResult
	err    error
}

func (s *stubBackend) Name() string { return s.name }
func (s *stubBackend) Analyze(ctx context.Context, imageB64, prompt, mime string) (core.AiResult, error) {
	return s.result, s.err
}
func (s *stubBackend) AnalyzeFile(ctx context.Context, path string) (core.AiResult, bool, error) {
	return core.AiResult{}, false, nil
}

func TestRegistryFailsOverToSecondBackend(t *testing.T) {
	title := "from backend two"
	reg := NewRegistry(
		&stubBackend{name: "one", err: core.NewError(core.ErrAiFailure, "boom", nil)},
		&stubBackend{name: "two", result: core.AiResult{Title: &title}},
	)
	result, used, err := reg.Analyze(context.Background(), "", "b64", "prompt", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "two", used)
	assert.Equal(t, title, *result.Title)
}

func TestRegistryAllFailReturnsAiFailure(t *testing.T) {
	reg := NewRegistry(
		&stubBackend{name: "one", err: core.NewError(core.ErrAiFailure, "boom1", nil)},
		&stubBackend{name: "two", err: core.NewError(core.ErrAiFailure, "boom2", nil)},
	)
	_, _, err := reg.Analyze(context.Background(), "", "b64", "prompt", "image/jpeg")
	require.Error(t, err)
	var codecErr *core.CodecError
	require.ErrorAs(t, err, &codecErr)
	assert.Equal(t, core.ErrAiFailure, codecErr.Kind)
}

func TestRegistrySkipsEmptyResult(t *testing.T) {
	title := "good one"
	reg := NewRegistry(
		&stubBackend{name: "empty", result: core.AiResult{}},
		&stubBackend{name: "real", result: core.AiResult{Title: &title}},
	)
	result, used, err := reg.Analyze(context.Background(), "", "b64", "prompt", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "real", used)
	assert.Equal(t, title, *result.Title)
}

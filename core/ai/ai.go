// Package ai implements the AI backend registry (component F): a capability
// interface over vision backends, an ordered failover chain, and a robust
// JSON response parser tolerant of the markdown fences, chatter, and
// malformed JSON that vision models routinely emit.
package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-errors/errors"
	"github.com/rs/zerolog/log"

	"github.com/ankit-chaubey/photometa/core"
)

// Backend is the capability interface every vision backend implements.
// AnalyzeFile is optional — backends that only work from an in-memory
// base64 payload return ok=false and the registry falls through to
// Analyze.
type Backend interface {
	Name() string
	Analyze(ctx context.Context, imageB64, prompt, mime string) (core.AiResult, error)
	AnalyzeFile(ctx context.Context, path string) (core.AiResult, bool, error)
}

// Registry holds an ordered list of backends and tries each in turn until
// one returns a non-empty result.
type Registry struct {
	backends []Backend
}

// NewRegistry builds a registry trying backends in the given order.
func NewRegistry(backends ...Backend) *Registry {
	return &Registry{backends: backends}
}

// Analyze runs the configured failover chain: each backend is tried via
// AnalyzeFile if it supports it, else Analyze with the given base64 payload;
// the first backend to return a non-empty AiResult wins. If every backend
// fails or returns nothing, the accumulated failure messages are joined into
// a single AiFailure error.
func (r *Registry) Analyze(ctx context.Context, path, imageB64, prompt, mime string) (core.AiResult, string, error) {
	var failures []string
	for _, b := range r.backends {
		result, used, err := tryBackend(ctx, b, path, imageB64, prompt, mime)
		if err != nil {
			failures = append(failures, b.Name()+": "+err.Error())
			log.Warn().Str("backend", b.Name()).Err(err).Msg("ai backend failed")
			continue
		}
		if !used {
			continue
		}
		if isEmpty(result) {
			failures = append(failures, b.Name()+": empty result")
			continue
		}
		return result, b.Name(), nil
	}
	return core.AiResult{}, "", core.NewError(core.ErrAiFailure, strings.Join(failures, "; "), nil)
}

func tryBackend(ctx context.Context, b Backend, path, imageB64, prompt, mime string) (core.AiResult, bool, error) {
	if path != "" {
		result, ok, err := b.AnalyzeFile(ctx, path)
		if ok || err != nil {
			return result, true, err
		}
	}
	result, err := b.Analyze(ctx, imageB64, prompt, mime)
	if err != nil {
		return core.AiResult{}, true, err
	}
	return result, true, nil
}

func isEmpty(r core.AiResult) bool {
	return r.Title == nil && r.Description == nil && len(r.Tags) == 0 && r.GPS == nil && len(r.Subject) == 0
}

// BuildPrompt returns the fixed JSON-shape instruction every backend sends
// alongside the image.
func BuildPrompt() string {
	return `Analyze this image and return a JSON object with the following fields:

{
  "title": "A concise, SEO-optimized title for this image (max 60 characters)",
  "description": "An engaging SEO meta description of this image (max 254 characters)",
  "tags": ["keyword1", "keyword2", "keyword3", "keyword4", "keyword5"],
  "gps": { "latitude": 0.0, "longitude": 0.0 },
  "subject": ["identified subject 1", "identified subject 2"]
}

Rules:
- "title": A short, catchy SEO title. Max 60 characters.
- "description": A detailed paragraph about the image content, scene, mood, colors, and context. Max 254 characters.
- "tags": 5-10 relevant SEO keywords/tags for the image.
- "gps": If you can identify a specific, well-known location in the image, provide GPS coordinates. If unsure, set to null.
- "subject": If you can identify specific known people, species, landmarks, or other notable subjects, list them. If none, set to null.

Return ONLY the JSON object, no markdown formatting, no code blocks, no extra text.`
}

// responseShape mirrors the JSON schema BuildPrompt asks for.
type responseShape struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
	GPS         *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"gps"`
	Subject []string `json:"subject"`
}

// ParseResponse turns a vision backend's raw text reply into a core.AiResult,
// tolerating bare JSON, fenced JSON, JSON surrounded by chatter, trailing
// commas, and unquoted string values — the quirks real backends emit.
func ParseResponse(text string) (core.AiResult, error) {
	cleaned := strings.TrimSpace(text)
	candidates := extractCandidates(cleaned)

	for _, candidate := range candidates {
		if result, ok := tryUnmarshal(candidate); ok {
			return result, nil
		}
		fixed := fixTrailingCommas(candidate)
		if result, ok := tryUnmarshal(fixed); ok {
			return result, nil
		}
	}

	if len(candidates) > 0 {
		var generic map[string]interface{}
		if err := json.Unmarshal([]byte(candidates[0]), &generic); err == nil {
			if result, ok := genericToResult(generic); ok {
				return result, nil
			}
		}
	}

	return core.AiResult{}, errors.New("could not parse ai response as json")
}

func tryUnmarshal(candidate string) (core.AiResult, bool) {
	var shape responseShape
	if err := json.Unmarshal([]byte(candidate), &shape); err != nil {
		return core.AiResult{}, false
	}
	var gps *core.GPSCoords
	if shape.GPS != nil && (shape.GPS.Latitude != 0 || shape.GPS.Longitude != 0) {
		gps = &core.GPSCoords{Latitude: shape.GPS.Latitude, Longitude: shape.GPS.Longitude}
	}
	return core.AiResult{
		Title:       shape.Title,
		Description: shape.Description,
		Tags:        shape.Tags,
		GPS:         gps,
		Subject:     shape.Subject,
	}, true
}

func genericToResult(obj map[string]interface{}) (core.AiResult, bool) {
	var result core.AiResult
	found := false

	if v, ok := obj["title"].(string); ok {
		result.Title = &v
		found = true
	}
	if v, ok := obj["description"].(string); ok {
		result.Description = &v
		found = true
	}
	if arr, ok := obj["tags"].([]interface{}); ok {
		for _, v := range arr {
			if s, ok := v.(string); ok {
				result.Tags = append(result.Tags, s)
			}
		}
		if len(result.Tags) > 0 {
			found = true
		}
	}
	if gpsObj, ok := obj["gps"].(map[string]interface{}); ok {
		lat, latOk := gpsObj["latitude"].(float64)
		lon, lonOk := gpsObj["longitude"].(float64)
		if latOk && lonOk && (lat != 0 || lon != 0) {
			result.GPS = &core.GPSCoords{Latitude: lat, Longitude: lon}
			found = true
		}
	}
	if arr, ok := obj["subject"].([]interface{}); ok {
		for _, v := range arr {
			if s, ok := v.(string); ok {
				result.Subject = append(result.Subject, s)
			}
		}
		if len(result.Subject) > 0 {
			found = true
		}
	}
	return result, found
}

// extractCandidates mirrors original_source's extract_json_candidates:
// markdown-fenced body, outermost {...} span (plus its unquoted-value-fixed
// variant), then the whole text as a last resort.
func extractCandidates(text string) []string {
	var candidates []string

	if strings.Contains(text, "```") {
		lines := strings.Split(text, "\n")
		var fenced []string
		inFence := false
		for _, l := range lines {
			trimmed := strings.TrimSpace(l)
			if strings.HasPrefix(trimmed, "```") {
				if inFence {
					break
				}
				inFence = true
				continue
			}
			if inFence {
				fenced = append(fenced, l)
			}
		}
		if len(fenced) > 0 {
			candidates = append(candidates, strings.Join(fenced, "\n"))
		}
	}

	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			extracted := text[start : end+1]
			candidates = append(candidates, extracted)
			fixed := fixUnquotedValues(extracted)
			if fixed != extracted {
				candidates = append(candidates, fixed)
			}
		}
	}

	candidates = append(candidates, text)
	return candidates
}

// fixUnquotedValues wraps bare-word string values (a common backend quirk,
// e.g. `"title": Golden Gate Bridge,`) in quotes, leaving numbers, booleans,
// null, objects, and arrays alone.
func fixUnquotedValues(text string) string {
	var out strings.Builder
	runes := []rune(text)
	inString := false
	escapeNext := false

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if escapeNext {
			out.WriteRune(c)
			escapeNext = false
			continue
		}
		if c == '\\' && inString {
			out.WriteRune(c)
			escapeNext = true
			continue
		}
		if c == '"' {
			inString = !inString
			out.WriteRune(c)
			continue
		}
		if !inString && c == ':' {
			out.WriteRune(c)
			i++
			for i < len(runes) && (runes[i] == ' ' || runes[i] == '\t') {
				out.WriteRune(runes[i])
				i++
			}
			if i < len(runes) {
				next := runes[i]
				if next != '"' && next != '{' && next != '[' && next != 'n' &&
					next != 't' && next != 'f' && !isDigit(next) && next != '-' {
					var value strings.Builder
					for i < len(runes) && runes[i] != ',' && runes[i] != '}' && runes[i] != '\n' {
						value.WriteRune(runes[i])
						i++
					}
					trimmedVal := strings.TrimRight(value.String(), " \t")
					escaped := strings.ReplaceAll(trimmedVal, `"`, `\"`)
					out.WriteString(`"` + escaped + `"`)
				}
			}
			i--
			continue
		}
		out.WriteRune(c)
	}
	return out.String()
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// fixTrailingCommas strips commas immediately preceding a closing } or ],
// another common backend quirk that breaks strict JSON parsers.
func fixTrailingCommas(text string) string {
	var out strings.Builder
	runes := []rune(text)
	inString := false
	escapeNext := false

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if escapeNext {
			out.WriteRune(c)
			escapeNext = false
			continue
		}
		if c == '\\' && inString {
			out.WriteRune(c)
			escapeNext = true
			continue
		}
		if c == '"' {
			inString = !inString
			out.WriteRune(c)
			continue
		}
		if !inString && c == ',' {
			rest := strings.TrimLeft(string(runes[i+1:]), " \t\n\r")
			if strings.HasPrefix(rest, "}") || strings.HasPrefix(rest, "]") {
				continue
			}
		}
		out.WriteRune(c)
	}
	return out.String()
}

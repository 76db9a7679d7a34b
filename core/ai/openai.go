package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-errors/errors"

	"github.com/ankit-chaubey/photometa/core"
)

// OpenAIBackend talks to an OpenAI-compatible chat-completions vision
// endpoint. It has no file-based analysis path, so AnalyzeFile always
// reports ok=false and the registry falls through to Analyze.
type OpenAIBackend struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

// NewOpenAIBackend builds a backend with sane defaults (model
// "gpt-4o-mini", a 60s HTTP client) that the caller can override.
func NewOpenAIBackend(apiKey string) *OpenAIBackend {
	return &OpenAIBackend{
		APIKey:  apiKey,
		Model:   "gpt-4o-mini",
		BaseURL: "https://api.openai.com/v1/chat/completions",
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (b *OpenAIBackend) Name() string { return "openai" }

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string      `json:"role"`
	Content []openAIPart `json:"content"`
}

type openAIPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (b *OpenAIBackend) Analyze(ctx context.Context, imageB64, prompt, mime string) (core.AiResult, error) {
	reqBody := openAIRequest{
		Model: b.Model,
		Messages: []openAIMessage{
			{
				Role: "user",
				Content: []openAIPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &openAIImageURL{URL: fmt.Sprintf("data:%s;base64,%s", mime, imageB64)}},
				},
			},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return core.AiResult{}, errors.Wrap(err, 0)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return core.AiResult{}, errors.Wrap(err, 0)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.APIKey)

	resp, err := b.Client.Do(httpReq)
	if err != nil {
		return core.AiResult{}, errors.Wrap(err, 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.AiResult{}, errors.Wrap(err, 0)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return core.AiResult{}, core.NewError(core.ErrAiFailure, "openai: malformed response body", err)
	}
	if parsed.Error != nil {
		return core.AiResult{}, core.NewError(core.ErrAiFailure, "openai: "+parsed.Error.Message, nil)
	}
	if len(parsed.Choices) == 0 {
		return core.AiResult{}, core.NewError(core.ErrAiFailure, "openai: no choices in response", nil)
	}

	return ParseResponse(parsed.Choices[0].Message.Content)
}

func (b *OpenAIBackend) AnalyzeFile(ctx context.Context, path string) (core.AiResult, bool, error) {
	return core.AiResult{}, false, nil
}

package ai

import (
	"context"
	"os"

	"github.com/ankit-chaubey/photometa/core"
)

// LocalBackend reads a pre-computed JSON sidecar (path with ".ai.json"
// appended) instead of calling out to a network service — used as a
// credential-free last-resort failover entry, grounded on
// original_source's local backend concept.
type LocalBackend struct {
	Suffix string
}

// NewLocalBackend builds a backend reading "<path><suffix>" files, defaulting
// suffix to ".ai.json".
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{Suffix: ".ai.json"}
}

func (b *LocalBackend) Name() string { return "local" }

func (b *LocalBackend) Analyze(ctx context.Context, imageB64, prompt, mime string) (core.AiResult, error) {
	return core.AiResult{}, core.NewError(core.ErrAiFailure, "local backend requires a file path", nil)
}

func (b *LocalBackend) AnalyzeFile(ctx context.Context, path string) (core.AiResult, bool, error) {
	suffix := b.Suffix
	if suffix == "" {
		suffix = ".ai.json"
	}
	data, err := os.ReadFile(path + suffix)
	if err != nil {
		if os.IsNotExist(err) {
			return core.AiResult{}, false, nil
		}
		return core.AiResult{}, false, err
	}
	result, err := ParseResponse(string(data))
	if err != nil {
		return core.AiResult{}, true, err
	}
	return result, true, nil
}

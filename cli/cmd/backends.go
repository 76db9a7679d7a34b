package cmd

import (
	"os"

	"github.com/ankit-chaubey/photometa/core/ai"
	"github.com/ankit-chaubey/photometa/core/config"
)

// buildRegistry assembles an ai.Registry following cfg.ServiceOrder, falling
// back to the OPENAI_API_KEY environment variable when the config file
// carries no key of its own.
func buildRegistry(cfg config.Config) *ai.Registry {
	var backends []ai.Backend
	for _, name := range cfg.EnabledServices() {
		switch name {
		case "openai":
			key := cfg.AiServices.OpenAI.APIKey
			if key == "" {
				key = os.Getenv("OPENAI_API_KEY")
			}
			if key == "" {
				continue
			}
			backend := ai.NewOpenAIBackend(key)
			if cfg.AiServices.OpenAI.Model != "" {
				backend.Model = cfg.AiServices.OpenAI.Model
			}
			backends = append(backends, backend)
		case "local":
			backends = append(backends, ai.NewLocalBackend())
		}
	}
	return ai.NewRegistry(backends...)
}

// Package config loads the YAML configuration file driving which AI
// backends are enabled, which metadata fields the pipeline writes, and
// output behavior (dry run, backups), mirroring
// original_source/src/config.rs's Config::default().
package config

import (
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/ankit-chaubey/photometa/core"
)

// ServiceConfig is one AI backend's credentials/model/enabled flag.
type ServiceConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Enabled bool   `yaml:"enabled"`
}

// AiServices groups every backend's ServiceConfig.
type AiServices struct {
	OpenAI ServiceConfig `yaml:"openai"`
}

// OutputConfig controls dry-run/backup/log-file behavior.
type OutputConfig struct {
	DryRun          bool   `yaml:"dry_run"`
	BackupOriginals bool   `yaml:"backup_originals"`
	LogFile         string `yaml:"log_file"`
}

// Config is the top-level configuration document.
type Config struct {
	AiServices   AiServices       `yaml:"ai_services"`
	ServiceOrder []string         `yaml:"service_order"`
	FieldPolicy  core.FieldPolicy `yaml:"exif_fields"`
	Output       OutputConfig     `yaml:"output"`
}

// Default mirrors the original implementation's Config::default(): OpenAI
// enabled, a conservative field policy that never overwrites existing
// values, backups on, dry-run off.
func Default() Config {
	return Config{
		AiServices: AiServices{
			OpenAI: ServiceConfig{Model: "gpt-4o-mini", Enabled: true},
		},
		ServiceOrder: []string{"openai", "local"},
		FieldPolicy:  core.DefaultFieldPolicy(),
		Output: OutputConfig{
			DryRun:          false,
			BackupOriginals: true,
		},
	}
}

// Load reads a YAML config file at path. A missing file is not an error —
// it logs a warning and returns Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("config file not found, using defaults")
			return Default(), nil
		}
		return Config{}, core.NewError(core.ErrIO, "failed to read config file", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, core.NewError(core.ErrIO, "failed to parse config file", err)
	}
	return cfg, nil
}

// EnabledServices returns ServiceOrder filtered down to backends whose
// ServiceConfig.Enabled is true (unknown names are treated as disabled).
func (c Config) EnabledServices() []string {
	enabled := map[string]bool{"openai": c.AiServices.OpenAI.Enabled, "local": true}
	var out []string
	for _, name := range c.ServiceOrder {
		if enabled[name] {
			out = append(out, name)
		}
	}
	return out
}

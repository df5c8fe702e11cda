package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Initialize loads politely.yaml from configDir (env-expanding it first),
// merges it onto Defaults(), and validates the result. If configDir is
// empty, or the file does not exist, the defaults are validated and
// returned as-is — a fresh checkout can run with zero configuration.
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)

	cfg := Defaults()
	cfg.configDir = configDir

	if configDir != "" {
		path := filepath.Join(configDir, "politely.yaml")
		if data, err := os.ReadFile(path); err == nil {
			data = ExpandEnv(data)
			var overlay configOverlay
			if err := yaml.Unmarshal(data, &overlay); err != nil {
				return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
			}
			overlay.applyTo(cfg)
		} else if !os.IsNotExist(err) {
			return nil, NewLoadError(path, err)
		}
	}

	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"final_model", stats.FinalModel,
		"label_model", stats.LabelModel,
		"retry_count", stats.RetryCount,
		"audit_enabled", stats.AuditEnabled)

	return cfg, nil
}

// configOverlay is the YAML shape of politely.yaml. Every field is a
// pointer or zero-value-checked so an absent section leaves the default
// untouched — same merge-on-top idiom the teacher's loader used for queue
// config, simplified since this config has no registries to union.
type configOverlay struct {
	LLM      *LLMConfig        `yaml:"llm"`
	Stages   *StageModels      `yaml:"stages"`
	Gating   *GatingThresholds `yaml:"gating"`
	Pipeline *PipelineConfig   `yaml:"pipeline"`
	Audit    *AuditConfig      `yaml:"audit"`
	Metrics  *MetricsConfig    `yaml:"metrics"`
}

func (o *configOverlay) applyTo(cfg *Config) {
	if o.LLM != nil {
		cfg.LLM = o.LLM
	}
	if o.Stages != nil {
		cfg.Stages = o.Stages
	}
	if o.Gating != nil {
		cfg.Gating = o.Gating
	}
	if o.Pipeline != nil {
		cfg.Pipeline = o.Pipeline
	}
	if o.Audit != nil {
		cfg.Audit = o.Audit
	}
	if o.Metrics != nil {
		cfg.Metrics = o.Metrics
	}
}

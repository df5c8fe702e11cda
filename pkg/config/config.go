// Package config loads and validates Politely's process-wide configuration:
// LLM provider credentials, per-stage model/temperature/token limits, and
// the gating thresholds that decide whether an optional LLM call fires for
// a given request.
package config

import "time"

// Config is the umbrella configuration object threaded through the
// orchestrator and every gated stage. It is loaded once at process start
// and never mutated afterward.
type Config struct {
	configDir string

	LLM      *LLMConfig
	Stages   *StageModels
	Gating   *GatingThresholds
	Pipeline *PipelineConfig
	Audit    *AuditConfig
	Metrics  *MetricsConfig
}

// ConfigDir returns the directory the configuration was loaded from, if any.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// LLMConfig holds the provider connection the HTTP-based LLMClient adapter
// uses. One provider serves every stage; per-stage overrides live in
// StageModels.
type LLMConfig struct {
	BaseURL   string        `yaml:"base_url" validate:"required,url"`
	APIKeyEnv string        `yaml:"api_key_env" validate:"required"`
	Timeout   time.Duration `yaml:"timeout" validate:"required"`
}

// StageModel names the model and sampling parameters a single pipeline
// stage's LLM call uses.
type StageModel struct {
	Model       string  `yaml:"model" validate:"required"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"required,gt=0"`
}

// StageModels carries one StageModel per LLM-backed component. Labeling and
// the gated analysis calls default to a fast, small model; the final
// generator defaults to a larger one — mirroring the spec's guidance.
type StageModels struct {
	IdentityBooster  StageModel `yaml:"identity_booster"`
	SegmentRefiner   StageModel `yaml:"segment_refiner"`
	StructureLabeler StageModel `yaml:"structure_labeler"`
	SituationAnalyze StageModel `yaml:"situation_analyzer"`
	ContextGating    StageModel `yaml:"context_gating"`
	FinalGenerator   StageModel `yaml:"final_generator"`

	// RetryTemperature overrides FinalGenerator.Temperature on the single
	// validator-triggered retry (spec §4.16: "lower the LLM temperature to 0.3").
	RetryTemperature float64 `yaml:"retry_temperature" validate:"gte=0,lte=2"`
}

// GatingThresholds decides whether an optional LLM call fires for a given
// request. Field names and defaults follow spec §6's configuration list.
type GatingThresholds struct {
	IdentityBoosterMinTextLength int `yaml:"identity_booster_min_text_length" validate:"gte=0"`
	IdentityBoosterMaxLockedSpans int `yaml:"identity_booster_max_locked_spans" validate:"gte=0"`

	SituationAnalysisMinTextLength      int `yaml:"situation_analysis_min_text_length" validate:"gte=0"`
	SituationAnalysisMinTransitionWords int `yaml:"situation_analysis_min_transition_words" validate:"gte=0"`

	ContextGatingOverrideConfidenceThreshold float64 `yaml:"context_gating_override_confidence_threshold" validate:"gte=0,lte=1"`

	// SegmentRefinerMaxLength is the length above which a segment is
	// considered "over-long" and eligible for refinement (spec §4.6).
	SegmentRefinerMaxLength int `yaml:"segment_refiner_max_length" validate:"gt=0"`
}

// PipelineConfig holds request-wide, non-stage-specific knobs.
type PipelineConfig struct {
	RetryCount       int           `yaml:"retry_count" validate:"gte=0"`
	RequestTimeout   time.Duration `yaml:"request_timeout" validate:"required"`
	SegmentMaxLength int           `yaml:"segment_max_length" validate:"gt=0"`
	YellowSimilarityThreshold float64 `yaml:"yellow_similarity_threshold" validate:"gte=0,lte=1"`
	OutputLengthRatioMin float64 `yaml:"output_length_ratio_min" validate:"gt=0"`
	OutputLengthRatioMax float64 `yaml:"output_length_ratio_max" validate:"gt=0"`
}

// AuditConfig configures the best-effort Postgres audit log (see pkg/audit).
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DSN        string `yaml:"dsn"`
	DSNEnv     string `yaml:"dsn_env"`
	MigrateDir string `yaml:"migrate_dir"`
}

// MetricsConfig configures the Prometheus exporter (see pkg/metrics).
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Stats is a small summary useful for startup logging.
type Stats struct {
	FinalModel   string
	LabelModel   string
	RetryCount   int
	AuditEnabled bool
}

// Stats returns a summary of the loaded configuration for logging.
func (c *Config) Stats() Stats {
	return Stats{
		FinalModel:   c.Stages.FinalGenerator.Model,
		LabelModel:   c.Stages.StructureLabeler.Model,
		RetryCount:   c.Pipeline.RetryCount,
		AuditEnabled: c.Audit != nil && c.Audit.Enabled,
	}
}

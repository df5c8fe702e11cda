package config

import "time"

// Defaults returns a fully-populated Config with the values spec §6 and §5
// name explicitly (gating thresholds, retry count, wall-clock budget), plus
// reasonable stage model choices: a fast small model for the high-volume
// gated calls and the labeler, a larger model for the final generator.
func Defaults() *Config {
	return &Config{
		LLM: &LLMConfig{
			BaseURL:   "https://api.openai.com/v1",
			APIKeyEnv: "POLITELY_LLM_API_KEY",
			Timeout:   30 * time.Second,
		},
		Stages: &StageModels{
			IdentityBooster:  StageModel{Model: "gpt-4o-mini", Temperature: 0.2, MaxTokens: 256},
			SegmentRefiner:   StageModel{Model: "gpt-4o-mini", Temperature: 0.2, MaxTokens: 512},
			StructureLabeler: StageModel{Model: "gpt-4o-mini", Temperature: 0.1, MaxTokens: 1024},
			SituationAnalyze: StageModel{Model: "gpt-4o-mini", Temperature: 0.2, MaxTokens: 768},
			ContextGating:    StageModel{Model: "gpt-4o-mini", Temperature: 0.1, MaxTokens: 256},
			FinalGenerator:   StageModel{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 2048},
			RetryTemperature: 0.3,
		},
		Gating: &GatingThresholds{
			IdentityBoosterMinTextLength:            80,
			IdentityBoosterMaxLockedSpans:            1,
			SituationAnalysisMinTextLength:           600,
			SituationAnalysisMinTransitionWords:      8,
			ContextGatingOverrideConfidenceThreshold: 0.72,
			SegmentRefinerMaxLength:                  180,
		},
		Pipeline: &PipelineConfig{
			RetryCount:                1,
			RequestTimeout:            120 * time.Second,
			SegmentMaxLength:          180,
			YellowSimilarityThreshold: 0.4,
			OutputLengthRatioMin:      0.3,
			OutputLengthRatioMax:      3.0,
		},
		Audit: &AuditConfig{
			Enabled:    false,
			DSNEnv:     "POLITELY_AUDIT_DSN",
			MigrateDir: "pkg/audit/migrations",
		},
		Metrics: &MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}

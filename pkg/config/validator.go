package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator validates a Config comprehensively, struct tags first, then
// the cross-field invariants the tags can't express.
type Validator struct {
	cfg *Config
	v   *validator.Validate
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg, v: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidateAll performs comprehensive validation, fail-fast on the first error.
func (v *Validator) ValidateAll() error {
	if err := v.v.Struct(v.cfg.LLM); err != nil {
		return NewValidationError("llm", "", err)
	}
	if err := v.v.Struct(v.cfg.Gating); err != nil {
		return NewValidationError("gating", "", err)
	}
	if err := v.v.Struct(v.cfg.Pipeline); err != nil {
		return NewValidationError("pipeline", "", err)
	}
	if err := v.validateStages(); err != nil {
		return err
	}
	if err := v.validatePipelineBounds(); err != nil {
		return err
	}
	if err := v.validateAudit(); err != nil {
		return err
	}
	return nil
}

func (v *Validator) validateStages() error {
	stages := v.cfg.Stages
	named := map[string]StageModel{
		"identity_booster":  stages.IdentityBooster,
		"segment_refiner":   stages.SegmentRefiner,
		"structure_labeler": stages.StructureLabeler,
		"situation_analyzer": stages.SituationAnalyze,
		"context_gating":    stages.ContextGating,
		"final_generator":   stages.FinalGenerator,
	}
	for name, sm := range named {
		if err := v.v.Struct(sm); err != nil {
			return NewValidationError("stages."+name, "", err)
		}
	}
	if stages.RetryTemperature < 0 || stages.RetryTemperature > 2 {
		return NewValidationError("stages", "retry_temperature", fmt.Errorf("must be within [0,2]"))
	}
	return nil
}

func (v *Validator) validatePipelineBounds() error {
	p := v.cfg.Pipeline
	if p.OutputLengthRatioMin >= p.OutputLengthRatioMax {
		return NewValidationError("pipeline", "output_length_ratio", fmt.Errorf("min (%v) must be less than max (%v)", p.OutputLengthRatioMin, p.OutputLengthRatioMax))
	}
	return nil
}

func (v *Validator) validateAudit() error {
	a := v.cfg.Audit
	if a == nil || !a.Enabled {
		return nil
	}
	if a.DSN == "" && a.DSNEnv == "" {
		return NewValidationError("audit", "dsn", fmt.Errorf("dsn or dsn_env required when audit is enabled"))
	}
	return nil
}

package template

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/codeready-toolchain/politely/pkg/llm"
)

// DefaultOverrideConfidenceThreshold is the decision boundary below which a
// gating override is ignored, matching the configured
// contextGating.overrideConfidenceThreshold default of 0.72.
const DefaultOverrideConfidenceThreshold = 0.72

// GatingResult is Context Gating's contract.
type GatingResult struct {
	ShouldOverride   bool     `json:"shouldOverride"`
	Confidence       float64  `json:"confidence"`
	InferredTopic    string   `json:"inferredTopic"`
	InferredPurpose  string   `json:"inferredPurpose"`
	InferredContext  string   `json:"primaryContext"`
	InferredTemplate string   `json:"templateId"`
	Reasons          []string `json:"reasons"`
	SafetyNotes      []string `json:"safetyNotes"`
	PromptTokens     int
	CompletionTokens int
}

const gatingSystemPrompt = `Given the message and the caller-supplied metadata, decide whether the metadata likely mismatches the actual text. Reply with strict JSON: {"shouldOverride":bool,"confidence":0..1,"inferredTopic":"...","inferredPurpose":"...","primaryContext":"...","templateId":"...","reasons":["..."],"safetyNotes":["..."]}.`

// ShouldFire implements Context Gating's gate: the caller's policy
// decides whether user metadata warrants a second look.
func ShouldFire(policyEnabled bool) bool { return policyEnabled }

// Run calls the LLM for a gating verdict. Malformed output or an LLM
// failure yields a zero-value, non-overriding result — a GatingLLMFailure
// never fails the request.
func Run(ctx context.Context, client llm.Client, req llm.Request, maskedText string) GatingResult {
	req.SystemPrompt = gatingSystemPrompt
	req.UserMessage = maskedText
	req.ResponseFormat = "json"

	resp, err := client.Complete(ctx, req)
	if err != nil {
		slog.Warn("context gating: llm call failed, skipping", "error", err)
		return GatingResult{}
	}

	var parsed GatingResult
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		slog.Warn("context gating: malformed json, skipping", "error", err)
		return GatingResult{}
	}
	parsed.PromptTokens = resp.PromptTokens
	parsed.CompletionTokens = resp.CompletionTokens
	return parsed
}

// ApplyOverride reports whether the gating result clears the confidence
// bar for actually overriding the caller's metadata.
func ApplyOverride(r GatingResult, threshold float64) bool {
	return r.ShouldOverride && r.Confidence >= threshold
}

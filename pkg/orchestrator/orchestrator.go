// Package orchestrator owns the pipeline DAG: it sequences every stage
// package behind the fixed phase order, runs the Situation Analyzer
// concurrently with the main preprocessing chain, emits SSE progress
// events at each phase boundary, and drives the single validator retry.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeready-toolchain/politely/pkg/boost"
	"github.com/codeready-toolchain/politely/pkg/config"
	"github.com/codeready-toolchain/politely/pkg/events"
	"github.com/codeready-toolchain/politely/pkg/label"
	"github.com/codeready-toolchain/politely/pkg/llm"
	"github.com/codeready-toolchain/politely/pkg/locks"
	"github.com/codeready-toolchain/politely/pkg/normalize"
	"github.com/codeready-toolchain/politely/pkg/prompt"
	"github.com/codeready-toolchain/politely/pkg/redact"
	"github.com/codeready-toolchain/politely/pkg/segment"
	"github.com/codeready-toolchain/politely/pkg/situation"
	"github.com/codeready-toolchain/politely/pkg/stream"
	"github.com/codeready-toolchain/politely/pkg/template"
	"github.com/codeready-toolchain/politely/pkg/types"
	"github.com/codeready-toolchain/politely/pkg/validate"
)

// Sink is the transport-facing dependency the orchestrator dispatches
// every structured event to; pkg/sse.Sink and pkg/stream.Sink both
// satisfy it.
type Sink interface {
	Send(event string, payload any) bool
}

// Tracker receives process-wide metrics updates; pkg/metrics.Tracker
// satisfies it. A nil Tracker is valid — updates become no-ops.
type Tracker interface {
	RecordRequest(outcome string)
	RecordRetry()
	RecordGatedStageFired(stage string)
	RecordTokens(stage, kind string, n int)
	RecordCost(usd float64)
	ObserveLatencySeconds(seconds float64)
	RecordRedSegments(n int)
}

type noopTracker struct{}

func (noopTracker) RecordRequest(string)            {}
func (noopTracker) RecordRetry()                    {}
func (noopTracker) RecordGatedStageFired(string)     {}
func (noopTracker) RecordTokens(string, string, int) {}
func (noopTracker) RecordCost(float64)               {}
func (noopTracker) ObserveLatencySeconds(float64)    {}
func (noopTracker) RecordRedSegments(int)            {}

// Policy bundles the caller-controlled gating toggles the request may
// set alongside the raw text.
type Policy struct {
	ForceIdentityBooster bool
	ForceSituationAnalysis bool
	ContextGatingEnabled bool
	Debug                bool
}

// Request is everything the orchestrator needs for one pipeline run.
type Request struct {
	ID       string
	Text     string
	Persona  types.Persona
	Contexts []types.ContextTag
	Tone     types.Tone
	Hint     string
	Sender   *types.SenderInfo
	Policy   Policy
}

// Orchestrator is the per-request pipeline driver. It is safe to
// construct once per process and reused across requests — the only
// thing it closes over is the shared LLM client, config, and tracker.
type Orchestrator struct {
	client  llm.Client
	cfg     *config.Config
	tracker Tracker
}

// New builds an Orchestrator. A nil tracker is replaced with a no-op.
func New(client llm.Client, cfg *config.Config, tracker Tracker) *Orchestrator {
	if tracker == nil {
		tracker = noopTracker{}
	}
	return &Orchestrator{client: client, cfg: cfg, tracker: tracker}
}

// Stats is the orchestrator's per-request bookkeeping. It is both emitted
// as the `stats` event and returned to the caller so an HTTP handler can
// build a fire-and-forget audit record without re-deriving any of it.
type Stats struct {
	TemplateID             string
	SegmentCount           int
	GreenCount             int
	YellowCount            int
	RedCount               int
	LockedSpanCount        int
	RetryCount             int
	IdentityBoosterFired   bool
	SituationAnalysisFired bool
	ContextGatingFired     bool
	PromptTokens           int
	CompletionTokens       int
	LatencyMs              int64
}

// Run drives one request end to end. It never panics on a gated-stage
// failure (those fail open per-stage); a Structure Labeler failure or an
// upstream streaming error is surfaced as an `error` event and returned.
// The returned Stats is only meaningful when err is nil.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink Sink) (Stats, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	sink.Send(string(events.Phase), events.PhaseNormalizing)
	normalized := normalize.Text(req.Text)

	if normalized == "" {
		latency := time.Since(start)
		sink.Send(string(events.Phase), events.PhaseComplete)
		sink.Send(string(events.Stats), events.StatsPayload{LatencyMs: latency.Milliseconds()})
		sink.Send(string(events.Usage), events.ComputeUsage(0, 0, 0, 0))
		sink.Send(string(events.Done), "")
		o.tracker.RecordRequest("success")
		return Stats{LatencyMs: latency.Milliseconds()}, nil
	}

	sink.Send(string(events.Phase), events.PhaseExtracting)
	spans := locks.Extract(normalized)
	sink.Send(string(events.Spans), spanPayloads(spans))

	maskedText := locks.Mask(normalized, spans)

	// The Situation Analyzer runs concurrently with the main
	// preprocessing chain from the moment masked text is available; the
	// orchestrator joins it just before prompt assembly.
	var situationResult situation.Result
	situationFired := situation.ShouldFire(req.Policy.ForceSituationAnalysis, len(normalized), countTransitionWords(normalized), o.cfg.Gating)

	group, gctx := errgroup.WithContext(ctx)
	if situationFired {
		sink.Send(string(events.Phase), events.PhaseSituationAnalyzing)
		o.tracker.RecordGatedStageFired("situation_analyzer")
		group.Go(func() error {
			situationResult = situation.Run(gctx, o.client, o.stageRequest(o.cfg.Stages.SituationAnalyze), maskedText)
			return nil
		})
	} else {
		sink.Send(string(events.Phase), events.PhaseSituationSkipped)
	}

	// Identity-Lock Booster (gated).
	identityFired := boost.ShouldFire(req.Policy.ForceIdentityBooster, req.Persona, len(spans), len(normalized), o.cfg.Gating)
	if identityFired {
		sink.Send(string(events.Phase), events.PhaseIdentityBoosting)
		o.tracker.RecordGatedStageFired("identity_booster")
		boosted := boost.Run(ctx, o.client, o.stageRequest(o.cfg.Stages.IdentityBooster), normalized, spans)
		spans = boosted.AllSpans
		maskedText = boosted.RemaskedText
		o.tracker.RecordTokens("identity_booster", "prompt", boosted.PromptTokens)
		o.tracker.RecordTokens("identity_booster", "completion", boosted.CompletionTokens)
	} else {
		sink.Send(string(events.Phase), events.PhaseIdentitySkipped)
	}
	sink.Send(string(events.MaskedText), maskedText)

	sink.Send(string(events.Phase), events.PhaseSegmenting)
	segments := segment.Segments(maskedText, o.cfg.Pipeline.SegmentMaxLength)

	refinerFired := false
	for _, s := range segments {
		if segment.ShouldRefine(s, o.cfg.Gating.SegmentRefinerMaxLength) {
			refinerFired = true
			break
		}
	}
	if refinerFired {
		sink.Send(string(events.Phase), events.PhaseSegmentRefining)
		o.tracker.RecordGatedStageFired("segment_refiner")
		segments = segment.RefineAll(ctx, o.client, o.stageRequest(o.cfg.Stages.SegmentRefiner), segments, o.cfg.Gating.SegmentRefinerMaxLength)
	} else {
		sink.Send(string(events.Phase), events.PhaseSegmentRefiningSkipped)
	}
	sink.Send(string(events.Segments), segmentPayloads(segments))

	sink.Send(string(events.Phase), events.PhaseLabeling)
	labelResult, err := label.Run(ctx, o.client, o.stageRequest(o.cfg.Stages.StructureLabeler), req.Persona, req.Contexts, req.Tone, req.Hint, req.Sender, segments, maskedText)
	if err != nil {
		o.tracker.RecordRequest("labeler_failed")
		sink.Send(string(events.Error), "요청을 처리하는 중 문제가 발생했습니다.")
		return Stats{}, fmt.Errorf("structure labeler: %w", err)
	}
	labeled := label.Enforce(labelResult.Labeled)
	o.tracker.RecordTokens("labeler", "prompt", labelResult.PromptTokens)
	o.tracker.RecordTokens("labeler", "completion", labelResult.CompletionTokens)
	sink.Send(string(events.Labels), labelPayloads(labeled))

	stats := statsFromLabels(labeled)
	o.tracker.RecordRedSegments(stats.RedCount)

	sink.Send(string(events.Phase), events.PhaseTemplateSelecting)
	selInput := template.Input{Persona: req.Persona, Contexts: req.Contexts, Stats: labelStatsOf(labeled), MaskedTextLen: len(maskedText)}
	selection := template.Select(selInput)

	contextGatingFired := template.ShouldFire(req.Policy.ContextGatingEnabled)
	if contextGatingFired {
		sink.Send(string(events.Phase), events.PhaseContextGating)
		o.tracker.RecordGatedStageFired("context_gating")
		gateResult := template.Run(ctx, o.client, o.stageRequest(o.cfg.Stages.ContextGating), maskedText)
		o.tracker.RecordTokens("context_gating", "prompt", gateResult.PromptTokens)
		o.tracker.RecordTokens("context_gating", "completion", gateResult.CompletionTokens)
		if template.ApplyOverride(gateResult, o.cfg.Gating.ContextGatingOverrideConfidenceThreshold) {
			overridden := selInput
			overridden.Topic = gateResult.InferredTopic
			overridden.Purpose = gateResult.InferredPurpose
			if gateResult.InferredContext != "" {
				overridden.Contexts = []types.ContextTag{types.ContextTag(gateResult.InferredContext)}
			}
			selection = template.Select(overridden)
		}
	} else {
		sink.Send(string(events.Phase), events.PhaseContextGatingSkipped)
	}
	sink.Send(string(events.TemplateSelected), templateSelectedPayload(selection))

	sink.Send(string(events.Phase), events.PhaseRedacting)
	redaction := redact.Run(labeled)

	waitErr := group.Wait()
	if waitErr == nil {
		waitErr = ctx.Err()
	}
	if waitErr != nil {
		// The Situation Analyzer goroutine never returns a non-nil error
		// itself (GatingLLMFailure fails open); this guards only against a
		// cancelled parent context.
		o.tracker.RecordRequest("cancelled")
		return Stats{}, waitErr
	}
	if situationFired {
		situationResult.Facts = situation.FilterRedOverlap(situationResult.Facts, maskedText, labeled)
		sink.Send(string(events.SituationAnalysis), situationAnalysisPayload(situationResult))
		o.tracker.RecordTokens("situation_analyzer", "prompt", situationResult.PromptTokens)
		o.tracker.RecordTokens("situation_analyzer", "completion", situationResult.CompletionTokens)
	}

	if req.Policy.Debug {
		sink.Send(string(events.ProcessedText), processedTextDebug(maskedText, labeled))
	}

	envelope := types.Envelope{Persona: req.Persona, Contexts: req.Contexts, Tone: req.Tone, Sender: req.Sender, Hint: req.Hint}
	built := prompt.Build(envelope, selection, labeled, spans, redaction.RedactionMap)

	yellowTexts := yellowTextsOf(labeled)

	sink.Send(string(events.Phase), events.PhaseGenerating)
	genResult, finalPromptTokens, finalCompletionTokens, retryCount, issues, err := o.generateWithRetry(ctx, built, normalized, spans, yellowTexts, redaction.RedactionMap, selection, sink)
	if err != nil {
		o.tracker.RecordRequest("stream_failed")
		sink.Send(string(events.Error), "요청을 처리하는 중 문제가 발생했습니다.")
		return Stats{}, fmt.Errorf("streaming generator: %w", err)
	}

	sink.Send(string(events.ValidationIssues), validationIssuePayloads(issues))

	latency := time.Since(start)
	finalStats := events.StatsPayload{
		SegmentCount:           len(segments),
		GreenCount:             stats.GreenCount,
		YellowCount:            stats.YellowCount,
		RedCount:               stats.RedCount,
		LockedSpanCount:        len(spans),
		RetryCount:             retryCount,
		IdentityBoosterFired:   identityFired,
		SituationAnalysisFired: situationFired,
		ContextGatingFired:     contextGatingFired,
		LatencyMs:              latency.Milliseconds(),
	}
	sink.Send(string(events.Stats), finalStats)

	usage := events.ComputeUsage(situationResult.PromptTokens, situationResult.CompletionTokens, finalPromptTokens, finalCompletionTokens)
	sink.Send(string(events.Usage), usage)
	o.tracker.RecordCost(usage.TotalCostUsd)
	o.tracker.ObserveLatencySeconds(latency.Seconds())

	sink.Send(string(events.Phase), events.PhaseComplete)
	sink.Send(string(events.Done), genResult.UnmaskedText)
	o.tracker.RecordRequest("success")

	return Stats{
		TemplateID:             selection.Template.ID,
		SegmentCount:           len(segments),
		GreenCount:             stats.GreenCount,
		YellowCount:            stats.YellowCount,
		RedCount:               stats.RedCount,
		LockedSpanCount:        len(spans),
		RetryCount:             retryCount,
		IdentityBoosterFired:   identityFired,
		SituationAnalysisFired: situationFired,
		ContextGatingFired:     contextGatingFired,
		PromptTokens:           usage.AnalysisPromptTokens + usage.FinalPromptTokens,
		CompletionTokens:       usage.AnalysisCompletionTokens + usage.FinalCompletionTokens,
		LatencyMs:              latency.Milliseconds(),
	}, nil
}

// generateWithRetry runs the Streaming Generator, validates the result,
// and — if validation demands it — retries exactly once with a lowered
// temperature and a hint appended to the user message, per the Output
// Validator's contract.
func (o *Orchestrator) generateWithRetry(ctx context.Context, built prompt.BuiltPrompt, originalText string, spans []locks.Span, yellowTexts []string, redactionMap map[string]string, selection template.Selection, sink Sink) (stream.Result, int, int, int, []validate.Issue, error) {
	req := o.stageRequest(o.cfg.Stages.FinalGenerator)
	req.SystemPrompt = built.SystemPrompt
	req.UserMessage = built.UserMessage

	result, err := stream.Generate(ctx, o.client, req, spans, sink)
	if err != nil {
		return stream.Result{}, 0, 0, 0, nil, err
	}
	promptTokens := result.PromptTokens

	sink.Send(string(events.Phase), events.PhaseValidating)
	issues := o.validateResult(result, originalText, spans, yellowTexts, redactionMap, selection)
	if !validate.ShouldRetry(issues) {
		return result, promptTokens, result.CompletionTokens, 0, issues, nil
	}

	o.tracker.RecordRetry()
	sink.Send(string(events.Retry), "validation_failed")

	retryTemp := o.cfg.Stages.RetryTemperature
	if retryTemp == 0 {
		retryTemp = validate.RetryTemperature
	}
	retryReq := req
	retryReq.Temperature = retryTemp
	retryReq.UserMessage = built.UserMessage + "\n\n" + validate.RetryHint(issues)

	retryResult, err := stream.Generate(ctx, o.client, retryReq, spans, sink)
	if err != nil {
		return stream.Result{}, 0, 0, 0, nil, err
	}
	retryIssues := o.validateResult(retryResult, originalText, spans, yellowTexts, redactionMap, selection)
	return retryResult, promptTokens + retryResult.PromptTokens, retryResult.CompletionTokens, 1, retryIssues, nil
}

func (o *Orchestrator) validateResult(result stream.Result, originalText string, spans []locks.Span, yellowTexts []string, redactionMap map[string]string, selection template.Selection) []validate.Issue {
	var requiredSections []string
	for _, s := range selection.EffectiveSections {
		if s.ID == "S2_OUR_EFFORT" {
			requiredSections = append(requiredSections, s.ID)
		}
	}
	return validate.Run(validate.Input{
		UnmaskedText:     result.UnmaskedText,
		OriginalText:     originalText,
		LockedSpans:      spans,
		RawLLMContent:    result.RawContent,
		RedactionMap:     redactionMap,
		YellowTexts:      yellowTexts,
		RequiredSections: requiredSections,
		OutputRatioMin:   o.cfg.Pipeline.OutputLengthRatioMin,
		OutputRatioMax:   o.cfg.Pipeline.OutputLengthRatioMax,
	})
}

func (o *Orchestrator) stageRequest(m config.StageModel) llm.Request {
	return llm.Request{Model: m.Model, Temperature: m.Temperature, MaxTokens: m.MaxTokens}
}

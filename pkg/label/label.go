// Package label implements the Structure Labeler (the pipeline's first
// LLM call) and the Red-Label Enforcer that overrides its output for
// confirmed-hostile text.
package label

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/codeready-toolchain/politely/pkg/llm"
	"github.com/codeready-toolchain/politely/pkg/segment"
	"github.com/codeready-toolchain/politely/pkg/types"
)

// Tier is the three-way severity bucket every label maps to.
type Tier string

const (
	TierGreen  Tier = "GREEN"
	TierYellow Tier = "YELLOW"
	TierRed    Tier = "RED"
)

// Label is the closed enum of structural labels the Labeler may emit.
type Label string

const (
	// GREEN — preserve verbatim.
	LabelCoreFact   Label = "CORE_FACT"
	LabelCoreIntent Label = "CORE_INTENT"
	LabelRequest    Label = "REQUEST"
	LabelApology    Label = "APOLOGY"
	LabelCourtesy   Label = "COURTESY"

	// YELLOW — rewrite-soften.
	LabelAccountability    Label = "ACCOUNTABILITY"
	LabelSelfJustification Label = "SELF_JUSTIFICATION"
	LabelNegativeFeedback  Label = "NEGATIVE_FEEDBACK"
	LabelEmotional         Label = "EMOTIONAL"
	LabelExcessDetail      Label = "EXCESS_DETAIL"
	LabelSpeculation       Label = "SPECULATION"

	// RED — redact.
	LabelBlame          Label = "BLAME"
	LabelAggression     Label = "AGGRESSION"
	LabelPersonalAttack Label = "PERSONAL_ATTACK"
	LabelPrivateTMI     Label = "PRIVATE_TMI"
	LabelGrumble        Label = "GRUMBLE"
	LabelSelfDefense    Label = "SELF_DEFENSE"
)

var tierByLabel = map[Label]Tier{
	LabelCoreFact:   TierGreen,
	LabelCoreIntent: TierGreen,
	LabelRequest:    TierGreen,
	LabelApology:    TierGreen,
	LabelCourtesy:   TierGreen,

	LabelAccountability:    TierYellow,
	LabelSelfJustification: TierYellow,
	LabelNegativeFeedback:  TierYellow,
	LabelEmotional:         TierYellow,
	LabelExcessDetail:      TierYellow,
	LabelSpeculation:       TierYellow,

	LabelBlame:          TierRed,
	LabelAggression:     TierRed,
	LabelPersonalAttack: TierRed,
	LabelPrivateTMI:     TierRed,
	LabelGrumble:        TierRed,
	LabelSelfDefense:    TierRed,
}

func validLabel(s string) (Label, bool) {
	l := Label(strings.TrimSpace(s))
	_, ok := tierByLabel[l]
	return l, ok
}

// TierOf returns the severity tier for a label; a label outside the known
// set yields the empty Tier.
func TierOf(l Label) Tier { return tierByLabel[l] }

// LabeledSegment is one segment annotated with its label, tier, and the
// exact substring the LLM pointed at (falling back to the segment's own
// text when the LLM left it blank).
type LabeledSegment struct {
	SegmentID   string
	Tier        Tier
	Label       Label
	Text        string
	Start       int
	End         int
}

// Result is the Structure Labeler's contract.
type Result struct {
	Labeled          []LabeledSegment
	SummaryText      string
	PromptTokens     int
	CompletionTokens int
}

var lineParse = regexp.MustCompile(`^\s*([A-Za-z0-9.]+)\s*\|\s*([A-Z_]+)\s*\|\s*(.*)$`)
var summaryParse = regexp.MustCompile(`(?i)^\s*SUMMARY:\s*(.*)$`)

const systemPromptTemplate = `You label each numbered Korean text fragment with exactly one of: CORE_FACT, CORE_INTENT, REQUEST, APOLOGY, COURTESY, ACCOUNTABILITY, SELF_JUSTIFICATION, NEGATIVE_FEEDBACK, EMOTIONAL, EXCESS_DETAIL, SPECULATION, BLAME, AGGRESSION, PERSONAL_ATTACK, PRIVATE_TMI, GRUMBLE, SELF_DEFENSE.
Reply with one line per fragment: "<id>|<LABEL>|<exact substring that triggered the label>".
End with a line "SUMMARY: <one or two sentence summary of the core intent>".
Persona: %s. Contexts: %s. Tone: %s.`

func buildSystemPrompt(persona types.Persona, contexts []types.ContextTag, tone types.Tone) string {
	var ctx []string
	for _, c := range contexts {
		ctx = append(ctx, string(c))
	}
	return fmt.Sprintf(systemPromptTemplate, persona, strings.Join(ctx, ","), tone)
}

func buildUserMessage(segments []segment.Segment, hint string, sender *types.SenderInfo) string {
	var b strings.Builder
	if sender != nil {
		fmt.Fprintf(&b, "발신자: %s (%s)\n", sender.Name, sender.Role)
	}
	if hint != "" {
		fmt.Fprintf(&b, "힌트: %s\n", hint)
	}
	for _, s := range segments {
		fmt.Fprintf(&b, "%s: %s\n", s.ID, s.Text)
	}
	return b.String()
}

// Run calls the LLM once, parses and validates coverage, and retries once
// with an appended instruction if coverage or the core-label requirement
// fails. The second attempt is accepted unconditionally
// (StructureLabelerFailure is fatal only if both calls error outright).
func Run(ctx context.Context, client llm.Client, req llm.Request, persona types.Persona, contexts []types.ContextTag, tone types.Tone, hint string, sender *types.SenderInfo, segments []segment.Segment, maskedText string) (Result, error) {
	req.SystemPrompt = buildSystemPrompt(persona, contexts, tone)
	req.UserMessage = buildUserMessage(segments, hint, sender)

	resp, err := client.Complete(ctx, req)
	if err != nil {
		slog.Warn("structure labeler: llm call failed, retrying once", "error", err)
		resp = llm.Response{}
	} else {
		result := parse(resp.Content, segments)
		result.PromptTokens, result.CompletionTokens = resp.PromptTokens, resp.CompletionTokens

		if coverageOK(result, maskedText) && hasCoreLabel(result) {
			return result, nil
		}

		slog.Warn("structure labeler: coverage or core-label check failed, retrying once")
	}
	req.UserMessage += "\n\n반드시 모든 조각에 라벨을 붙이고, 최소 하나의 CORE_FACT 또는 CORE_INTENT 라벨을 포함하세요."
	resp2, err := client.Complete(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("structure labeler retry: %w", err)
	}
	result2 := parse(resp2.Content, segments)
	result2.PromptTokens = resp.PromptTokens + resp2.PromptTokens
	result2.CompletionTokens = resp.CompletionTokens + resp2.CompletionTokens
	return result2, nil
}

func parse(content string, segments []segment.Segment) Result {
	byID := make(map[string]segment.Segment, len(segments))
	for _, s := range segments {
		byID[s.ID] = s
	}

	var result Result
	for _, line := range strings.Split(content, "\n") {
		if m := summaryParse.FindStringSubmatch(line); m != nil {
			result.SummaryText = strings.TrimSpace(m[1])
			continue
		}
		m := lineParse.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		segID, rawLabel, text := m[1], m[2], strings.TrimSpace(m[3])
		lbl, ok := validLabel(rawLabel)
		if !ok {
			continue
		}
		seg, ok := byID[segID]
		if !ok {
			continue
		}
		if text == "" {
			text = seg.Text
		}
		result.Labeled = append(result.Labeled, LabeledSegment{
			SegmentID: segID,
			Tier:      TierOf(lbl),
			Label:     lbl,
			Text:      text,
			Start:     seg.Start,
			End:       seg.End,
		})
	}
	return result
}

func coverageOK(r Result, maskedText string) bool {
	if len(maskedText) == 0 {
		return true
	}
	var covered int
	for _, l := range r.Labeled {
		covered += len(l.Text)
	}
	return float64(covered)/float64(len(maskedText)) >= 0.6
}

func hasCoreLabel(r Result) bool {
	for _, l := range r.Labeled {
		if l.Label == LabelCoreFact || l.Label == LabelCoreIntent {
			return true
		}
	}
	return false
}

package orchestrator

import (
	"github.com/codeready-toolchain/politely/pkg/events"
	"github.com/codeready-toolchain/politely/pkg/label"
	"github.com/codeready-toolchain/politely/pkg/locks"
	"github.com/codeready-toolchain/politely/pkg/segment"
	"github.com/codeready-toolchain/politely/pkg/situation"
	"github.com/codeready-toolchain/politely/pkg/template"
	"github.com/codeready-toolchain/politely/pkg/validate"
)

func countTransitionWords(text string) int {
	return segment.CountTransitionWords(text)
}

func spanPayloads(spans []locks.Span) []events.SpanPayload {
	out := make([]events.SpanPayload, 0, len(spans))
	for _, s := range spans {
		out = append(out, events.SpanPayload{Placeholder: s.Placeholder, Original: s.OriginalText, Type: string(s.Type)})
	}
	return out
}

func segmentPayloads(segments []segment.Segment) []events.SegmentPayload {
	out := make([]events.SegmentPayload, 0, len(segments))
	for _, s := range segments {
		out = append(out, events.SegmentPayload{ID: s.ID, Text: s.Text, Start: s.Start, End: s.End})
	}
	return out
}

func labelPayloads(labeled []label.LabeledSegment) []events.LabelPayload {
	out := make([]events.LabelPayload, 0, len(labeled))
	for _, l := range labeled {
		out = append(out, events.LabelPayload{SegmentID: l.SegmentID, Tier: string(l.Tier), Label: string(l.Label), Text: l.Text})
	}
	return out
}

func statsFromLabels(labeled []label.LabeledSegment) Stats {
	var s Stats
	for _, l := range labeled {
		switch l.Tier {
		case label.TierGreen:
			s.GreenCount++
		case label.TierYellow:
			s.YellowCount++
		case label.TierRed:
			s.RedCount++
		}
	}
	return s
}

func labelStatsOf(labeled []label.LabeledSegment) template.LabelStats {
	var stats template.LabelStats
	for _, l := range labeled {
		switch l.Tier {
		case label.TierGreen:
			stats.GreenCount++
		case label.TierYellow:
			stats.YellowCount++
		case label.TierRed:
			stats.RedCount++
		}
		switch l.Label {
		case label.LabelAccountability:
			stats.HasAccountability = true
		case label.LabelNegativeFeedback:
			stats.HasNegativeFeedback = true
		case label.LabelEmotional:
			stats.HasEmotional = true
		case label.LabelSelfJustification:
			stats.HasSelfJustification = true
		case label.LabelAggression:
			stats.HasAggression = true
		}
	}
	return stats
}

func yellowTextsOf(labeled []label.LabeledSegment) []string {
	var out []string
	for _, l := range labeled {
		if l.Tier == label.TierYellow {
			out = append(out, l.Text)
		}
	}
	return out
}

func templateSelectedPayload(sel template.Selection) events.TemplateSelectedPayload {
	sections := make([]string, 0, len(sel.EffectiveSections))
	for _, s := range sel.EffectiveSections {
		sections = append(sections, s.ID)
	}
	return events.TemplateSelectedPayload{ID: sel.Template.ID, Name: sel.Template.Name, Sections: sections}
}

func situationAnalysisPayload(r situation.Result) events.SituationAnalysisPayload {
	facts := make([]events.FactPayload, 0, len(r.Facts))
	for _, f := range r.Facts {
		facts = append(facts, events.FactPayload{Content: f.Content, Source: f.Source})
	}
	return events.SituationAnalysisPayload{Facts: facts, Intent: r.Intent}
}

func validationIssuePayloads(issues []validate.Issue) []events.ValidationIssuePayload {
	out := make([]events.ValidationIssuePayload, 0, len(issues))
	for _, i := range issues {
		out = append(out, events.ValidationIssuePayload{Type: i.Type, Severity: string(i.Severity), Message: i.Message, MatchedText: i.MatchedText})
	}
	return out
}

// processedTextDebug builds a small human-readable dump of masked text
// plus its labels, sent only when the request's debug policy is set.
func processedTextDebug(maskedText string, labeled []label.LabeledSegment) map[string]any {
	return map[string]any{
		"maskedText": maskedText,
		"labels":     labelPayloads(labeled),
	}
}

package prompt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/politely/pkg/label"
	"github.com/codeready-toolchain/politely/pkg/locks"
	"github.com/codeready-toolchain/politely/pkg/template"
	"github.com/codeready-toolchain/politely/pkg/types"
)

func TestDedupeKey_NormalizesPlaceholdersAndPunctuation(t *testing.T) {
	a := dedupeKey("금요일까지 {{DATE_0}} 보고서 제출!")
	b := dedupeKey("금요일까지 {{DATE_0}} 보고서 제출")
	assert.Equal(t, a, b, "trailing punctuation must not affect the dedupe key")
}

func TestDedupeKey_PlaceholdersBecomeTypeTokens(t *testing.T) {
	key := dedupeKey("{{DATE_0}} 제출")
	assert.Contains(t, key, "date_0")
}

func TestDedupeKey_StripsWhitespaceAndLowercases(t *testing.T) {
	a := dedupeKey("Report Due Friday")
	b := dedupeKey("report   due   friday")
	assert.Equal(t, a, b)
}

func TestBuild_SegmentsOrderedByStartPosition(t *testing.T) {
	labeled := []label.LabeledSegment{
		{SegmentID: "T2", Tier: label.TierGreen, Label: label.LabelCoreFact, Text: "두번째", Start: 10, End: 15},
		{SegmentID: "T1", Tier: label.TierGreen, Label: label.LabelCoreFact, Text: "첫번째", Start: 0, End: 5},
	}
	sel := template.Select(template.Input{Persona: types.PersonaBoss})
	built := Build(types.Envelope{Persona: types.PersonaBoss, Tone: types.TonePolite}, sel, labeled, nil, nil)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(built.UserMessage), &env))
	require.Len(t, env.Segments, 2)
	assert.Equal(t, "T1", env.Segments[0].ID)
	assert.Equal(t, "T2", env.Segments[1].ID)
}

func TestBuild_RedSegmentsCarryNoText(t *testing.T) {
	labeled := []label.LabeledSegment{
		{SegmentID: "T1", Tier: label.TierRed, Label: label.LabelAggression, Text: "씨발", Start: 0, End: 2},
	}
	sel := template.Select(template.Input{Persona: types.PersonaBoss})
	built := Build(types.Envelope{Persona: types.PersonaBoss}, sel, labeled, nil, nil)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(built.UserMessage), &env))
	assert.Nil(t, env.Segments[0].Text)
	assert.Nil(t, env.Segments[0].DedupeKey)
}

func TestBuild_YellowSegmentsCarryMustInclude(t *testing.T) {
	labeled := []label.LabeledSegment{
		{SegmentID: "T1", Tier: label.TierYellow, Label: label.LabelNegativeFeedback, Text: "{{PHONE_0}} 번호로 연락이 안됩니다", Start: 0, End: 20},
	}
	sel := template.Select(template.Input{Persona: types.PersonaBoss})
	built := Build(types.Envelope{Persona: types.PersonaBoss}, sel, labeled, nil, nil)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(built.UserMessage), &env))
	assert.Contains(t, env.Segments[0].MustInclude, "{{PHONE_0}}")
}

func TestBuild_PlaceholdersMapFromSpans(t *testing.T) {
	spans := []locks.Span{
		{Placeholder: "{{PHONE_0}}", OriginalText: "010-1234-5678"},
	}
	sel := template.Select(template.Input{Persona: types.PersonaBoss})
	built := Build(types.Envelope{Persona: types.PersonaBoss}, sel, nil, spans, nil)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(built.UserMessage), &env))
	assert.Equal(t, "010-1234-5678", env.Placeholders["{{PHONE_0}}"])
}

func TestBuild_SystemPromptIncludesPersonaAndTemplate(t *testing.T) {
	sel := template.Select(template.Input{Persona: types.PersonaBoss, Contexts: []types.ContextTag{types.ContextRequest}})
	built := Build(types.Envelope{Persona: types.PersonaBoss, Tone: types.TonePolite}, sel, nil, nil, nil)
	assert.Contains(t, built.SystemPrompt, "BOSS")
	assert.Contains(t, built.SystemPrompt, sel.Template.ID)
}

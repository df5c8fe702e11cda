package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/politely/pkg/label"
)

func TestRun_CountsTiersCorrectly(t *testing.T) {
	labeled := []label.LabeledSegment{
		{SegmentID: "T1", Tier: label.TierGreen, Text: "안녕하세요"},
		{SegmentID: "T2", Tier: label.TierYellow, Text: "좀 늦었네요"},
		{SegmentID: "T3", Tier: label.TierRed, Label: label.LabelAggression, Text: "씨발", Start: 20},
	}
	result := Run(labeled)
	assert.Equal(t, TierCounts{Green: 1, Yellow: 1, Red: 1}, result.Counts)
}

func TestRun_BuildsMarkerPerRedSegment(t *testing.T) {
	labeled := []label.LabeledSegment{
		{SegmentID: "T1", Tier: label.TierRed, Label: label.LabelAggression, Text: "씨발", Start: 0},
		{SegmentID: "T2", Tier: label.TierRed, Label: label.LabelAggression, Text: "개새끼", Start: 10},
	}
	result := Run(labeled)
	require.Len(t, result.RedactionMap, 2)
	assert.Contains(t, result.RedactionMap, "[REDACTED:AGGRESSION_0]")
	assert.Contains(t, result.RedactionMap, "[REDACTED:AGGRESSION_1]")
}

func TestRun_GreenAndYellowProduceNoMarkers(t *testing.T) {
	labeled := []label.LabeledSegment{
		{SegmentID: "T1", Tier: label.TierGreen, Text: "안녕"},
		{SegmentID: "T2", Tier: label.TierYellow, Text: "아쉽네요"},
	}
	result := Run(labeled)
	assert.Empty(t, result.RedactionMap)
}

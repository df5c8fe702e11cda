package situation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/politely/pkg/config"
	"github.com/codeready-toolchain/politely/pkg/label"
	"github.com/codeready-toolchain/politely/pkg/llm"
)

type stubClient struct {
	content string
	err     error
}

func (s stubClient) Complete(_ context.Context, _ llm.Request) (llm.Response, error) {
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Content: s.content, PromptTokens: 20, CompletionTokens: 10}, nil
}

func (s stubClient) Stream(_ context.Context, _ llm.Request) (<-chan llm.Chunk, error) {
	ch := make(chan llm.Chunk)
	close(ch)
	return ch, nil
}

func TestShouldFire_ForceEnabled(t *testing.T) {
	g := &config.GatingThresholds{SituationAnalysisMinTextLength: 600, SituationAnalysisMinTransitionWords: 8}
	assert.True(t, ShouldFire(true, 0, 0, g))
}

func TestShouldFire_LongTextFires(t *testing.T) {
	g := &config.GatingThresholds{SituationAnalysisMinTextLength: 600, SituationAnalysisMinTransitionWords: 8}
	assert.True(t, ShouldFire(false, 700, 0, g))
}

func TestShouldFire_ShortTextWithFewTransitionsSkips(t *testing.T) {
	g := &config.GatingThresholds{SituationAnalysisMinTextLength: 600, SituationAnalysisMinTransitionWords: 8}
	assert.False(t, ShouldFire(false, 100, 1, g))
}

func TestRun_ParsesValidJSON(t *testing.T) {
	client := stubClient{content: `{"facts":[{"content":"배송 지연","source":"배송이 늦어지고 있습니다"}],"intent":"환불 요청"}`}
	result := Run(context.Background(), client, llm.Request{}, "배송이 늦어지고 있습니다")
	require.Len(t, result.Facts, 1)
	assert.Equal(t, "환불 요청", result.Intent)
	assert.Equal(t, 20, result.PromptTokens)
}

func TestRun_MalformedJSONReturnsEmptyResult(t *testing.T) {
	client := stubClient{content: "not json at all"}
	result := Run(context.Background(), client, llm.Request{}, "x")
	assert.Empty(t, result.Facts)
	assert.Empty(t, result.Intent)
}

func TestRun_LLMFailureReturnsEmptyResult(t *testing.T) {
	client := stubClient{err: errors.New("down")}
	result := Run(context.Background(), client, llm.Request{}, "x")
	assert.Empty(t, result.Facts)
}

func TestFilterRedOverlap_DropsFactOverlappingRedByIndex(t *testing.T) {
	masked := "씨발 이거 빨리 처리해. 보고서는 금요일까지 제출합니다."
	facts := []Fact{
		{Content: "욕설", Source: "씨발 이거 빨리 처리해"},
		{Content: "제출 기한", Source: "보고서는 금요일까지 제출합니다"},
	}
	redSegs := []label.LabeledSegment{
		{Tier: label.TierRed, Text: "씨발 이거 빨리 처리해.", Start: 0, End: len("씨발 이거 빨리 처리해.")},
	}
	kept := FilterRedOverlap(facts, masked, redSegs)
	require.Len(t, kept, 1)
	assert.Equal(t, "제출 기한", kept[0].Content)
}

func TestFilterRedOverlap_NoRedSegmentsKeepsAll(t *testing.T) {
	facts := []Fact{{Content: "a", Source: "x"}}
	kept := FilterRedOverlap(facts, "x", nil)
	assert.Len(t, kept, 1)
}

func TestFilterRedOverlap_WordOverlapStrategy(t *testing.T) {
	masked := "이거 완전 무능하고 짜증나고 정말"
	facts := []Fact{{Content: "감정 표현", Source: "무능하고 짜증나고 반응이 있었음"}}
	redSegs := []label.LabeledSegment{{Tier: label.TierRed, Text: masked, Start: 0, End: len(masked)}}
	kept := FilterRedOverlap(facts, masked, redSegs)
	assert.Empty(t, kept)
}

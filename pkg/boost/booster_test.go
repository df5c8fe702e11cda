package boost

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/politely/pkg/config"
	"github.com/codeready-toolchain/politely/pkg/llm"
	"github.com/codeready-toolchain/politely/pkg/locks"
	"github.com/codeready-toolchain/politely/pkg/types"
)

type stubClient struct {
	content string
	err     error
}

func (s stubClient) Complete(_ context.Context, _ llm.Request) (llm.Response, error) {
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Content: s.content, PromptTokens: 8, CompletionTokens: 4}, nil
}

func (s stubClient) Stream(_ context.Context, _ llm.Request) (<-chan llm.Chunk, error) {
	ch := make(chan llm.Chunk)
	close(ch)
	return ch, nil
}

func thresholds() *config.GatingThresholds {
	return &config.GatingThresholds{
		IdentityBoosterMinTextLength:  10,
		IdentityBoosterMaxLockedSpans: 3,
	}
}

func TestShouldFire_ForceEnabledAlwaysFires(t *testing.T) {
	assert.True(t, ShouldFire(true, types.PersonaOther, 99, 0, thresholds()))
}

func TestShouldFire_HighFormalityPersonaWithinBounds(t *testing.T) {
	assert.True(t, ShouldFire(false, types.PersonaBoss, 1, 20, thresholds()))
}

func TestShouldFire_LowFormalityPersonaNeverFires(t *testing.T) {
	assert.False(t, ShouldFire(false, types.PersonaOther, 1, 20, thresholds()))
}

func TestShouldFire_TooManyExistingSpansBlocksFire(t *testing.T) {
	assert.False(t, ShouldFire(false, types.PersonaBoss, 10, 20, thresholds()))
}

func TestShouldFire_TextTooShortBlocksFire(t *testing.T) {
	assert.False(t, ShouldFire(false, types.PersonaBoss, 1, 3, thresholds()))
}

func TestRun_MergesNewNamesAsSemanticSpans(t *testing.T) {
	client := stubClient{content: "김철수\nAcme Corp"}
	text := "김철수 팀장님께 Acme Corp 계약 건으로 연락드립니다."

	result := Run(context.Background(), client, llm.Request{}, text, nil)
	require.NotEmpty(t, result.AllSpans)

	var types []locks.Type
	for _, s := range result.AllSpans {
		types = append(types, s.Type)
	}
	assert.Contains(t, types, locks.TypeSemantic)
	assert.Contains(t, result.RemaskedText, "{{SEMANTIC_")
}

func TestRun_FailsOpenOnLLMError(t *testing.T) {
	client := stubClient{err: errors.New("provider unavailable")}
	text := "김철수 팀장님께 연락드립니다."
	existing := []locks.Span{}

	result := Run(context.Background(), client, llm.Request{}, text, existing)
	assert.Equal(t, text, result.RemaskedText)
	assert.Empty(t, result.AllSpans)
	assert.Zero(t, result.PromptTokens)
}

func TestRun_SkipsNamesOverlappingExistingSpans(t *testing.T) {
	client := stubClient{content: "010-1234-5678"}
	text := "전화번호는 010-1234-5678 입니다."
	existing := []locks.Span{
		{Index: 0, OriginalText: "010-1234-5678", Type: locks.TypePhone, StartPos: 16, EndPos: 29, Placeholder: locks.Placeholder(locks.TypePhone, 0)},
	}

	result := Run(context.Background(), client, llm.Request{}, text, existing)
	require.Len(t, result.AllSpans, 1)
	assert.Equal(t, locks.TypePhone, result.AllSpans[0].Type)
}

func TestFindOccurrences_RespectsKoreanWordBoundary(t *testing.T) {
	hits := findOccurrences("김철수를 만났고 김철수는 떠났다", "철수")
	assert.Empty(t, hits, "철수 is embedded in 김철수, not a standalone word")
}

func TestFindOccurrences_FindsStandaloneName(t *testing.T) {
	hits := findOccurrences("김철수 팀장님과 김철수 님이 함께", "김철수")
	assert.Len(t, hits, 2)
}

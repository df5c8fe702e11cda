package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/politely/pkg/locks"
)

func TestRun_PassesCleanOutput(t *testing.T) {
	in := Input{
		UnmaskedText:  "010-1234-5678 로 연락 부탁드립니다. 빠른 처리 감사합니다.",
		OriginalText:  "010-1234-5678 로 연락 부탁드립니다. 빠른 처리 감사합니다.",
		RawLLMContent: "{{PHONE_0}} 로 연락 부탁드립니다. 빠른 처리 감사합니다.",
		LockedSpans:   []locks.Span{{Placeholder: "{{PHONE_0}}", OriginalText: "010-1234-5678"}},
	}
	issues := Run(in)
	assert.True(t, Passed(issues))
	assert.False(t, ShouldRetry(issues))
}

func TestRulePlaceholderSurvival_FlagsMissingOriginal(t *testing.T) {
	in := Input{
		UnmaskedText:  "연락 부탁드립니다",
		RawLLMContent: "{{PHONE_0}} 로 연락 부탁드립니다",
		LockedSpans:   []locks.Span{{Placeholder: "{{PHONE_0}}", OriginalText: "010-1234-5678"}},
	}
	issues := rulePlaceholderSurvival(in)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.False(t, Passed(issues))
}

func TestRuleNoRedactionLeak_DetectsMarker(t *testing.T) {
	in := Input{UnmaskedText: "내용 [REDACTED:AGGRESSION_0] 이후 문장"}
	issues := ruleNoRedactionLeak(in)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
}

func TestRuleNoMetaNarration_DetectsPhrase(t *testing.T) {
	in := Input{UnmaskedText: "다음은 재작성된 메시지입니다."}
	issues := ruleNoMetaNarration(in)
	require.Len(t, issues, 1)
}

func TestRuleNumericPreservation_FlagsDroppedNumber(t *testing.T) {
	in := Input{
		OriginalText: "1,250,000원 환불 요청합니다.",
		UnmaskedText: "환불을 요청드립니다.",
	}
	issues := ruleNumericPreservation(in)
	require.Len(t, issues, 1)
	assert.True(t, issues[0].Retryable)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}

func TestRuleRedactedOriginalsAbsent_FlagsLeak(t *testing.T) {
	in := Input{
		UnmaskedText: "씨발 이거 해결해 주세요",
		RedactionMap: map[string]string{"[REDACTED:AGGRESSION_0]": "씨발 이거"},
	}
	issues := ruleRedactedOriginalsAbsent(in)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
}

func TestRuleYellowSimilarity_FlagsDroppedContent(t *testing.T) {
	in := Input{
		UnmaskedText: "완전히 다른 내용의 문장입니다.",
		YellowTexts:  []string{"배송이 너무 늦어서 화가 납니다"},
	}
	issues := ruleYellowSimilarity(in)
	require.Len(t, issues, 1)
	assert.True(t, issues[0].Retryable)
}

func TestRuleOutputLengthRatio_FlagsTooShort(t *testing.T) {
	in := Input{
		OriginalText: "이것은 상당히 긴 원문 메시지 내용입니다 추가로 더 길게 만듭니다",
		UnmaskedText: "짧음",
	}
	issues := ruleOutputLengthRatio(in)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}

func TestShouldRetry_TrueOnRetryableWarningEvenWithoutError(t *testing.T) {
	issues := []Issue{{Type: "x", Severity: SeverityWarning, Retryable: true}}
	assert.True(t, ShouldRetry(issues))
}

func TestShouldRetry_FalseWhenAllWarningsNonRetryable(t *testing.T) {
	issues := []Issue{{Type: "x", Severity: SeverityWarning, Retryable: false}}
	assert.False(t, ShouldRetry(issues))
}

func TestRetryHint_IncludesMissingPlaceholderNames(t *testing.T) {
	issues := []Issue{{Type: "locked_span_missing", Message: "missing", MatchedText: "{{PHONE_0}}"}}
	hint := RetryHint(issues)
	assert.Contains(t, hint, "{{PHONE_0}}")
}

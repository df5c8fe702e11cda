package locks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_FindsDisjointSpans(t *testing.T) {
	text := "내일 오전 09:30에 010-1234-5678로 연락주세요. 참고: foo@bar.com"
	spans := Extract(text)
	require.NotEmpty(t, spans)

	for i := 1; i < len(spans); i++ {
		assert.GreaterOrEqual(t, spans[i].StartPos, spans[i-1].EndPos, "spans must not overlap")
	}

	var types []Type
	for _, s := range spans {
		types = append(types, s.Type)
	}
	assert.Contains(t, types, TypePhone)
	assert.Contains(t, types, TypeEmail)
}

func TestExtract_OverlapResolvedByEarliestStartThenLongest(t *testing.T) {
	text := "계좌번호 123-456-78901234 입니다"
	spans := Extract(text)
	require.Len(t, spans, 1)
	assert.Equal(t, TypeAccount, spans[0].Type)
}

func TestExtract_EmptyOnNoMatches(t *testing.T) {
	spans := Extract("평범한 문장입니다 아무것도 없어요")
	assert.Empty(t, spans)
}

func TestMaskUnmask_RoundTrips(t *testing.T) {
	text := "문의사항은 foo@bar.com 또는 010-1234-5678 로 연락주세요."
	spans := Extract(text)
	masked := Mask(text, spans)

	for _, s := range spans {
		assert.Contains(t, masked, s.Placeholder)
	}
	assert.NotContains(t, masked, "foo@bar.com")

	result := Unmask(masked, spans)
	assert.Equal(t, text, result.Text)
	assert.Empty(t, result.MissingSpans)
}

func TestUnmask_ReportsMissingPlaceholders(t *testing.T) {
	spans := []Span{
		{Index: 0, OriginalText: "foo@bar.com", Placeholder: Placeholder(TypeEmail, 0), Type: TypeEmail},
	}
	result := Unmask("본문에 플레이스홀더가 사라졌습니다", spans)
	require.Len(t, result.MissingSpans, 1)
	assert.Equal(t, TypeEmail, result.MissingSpans[0].Type)
}

func TestUnmask_DescendingIndexAvoidsPrefixCollision(t *testing.T) {
	spans := make([]Span, 0, 11)
	for i := 0; i <= 10; i++ {
		spans = append(spans, Span{
			Index:        i,
			OriginalText: "X" + string(rune('0'+i%10)),
			Placeholder:  Placeholder(TypeIdentifier, i),
			Type:         TypeIdentifier,
		})
	}
	masked := ""
	for _, s := range spans {
		masked += s.Placeholder + " "
	}
	result := Unmask(masked, spans)
	for _, s := range spans {
		assert.Contains(t, result.Text, s.OriginalText)
	}
}

func TestReindex_AssignsContiguousIndicesByStartPos(t *testing.T) {
	spans := []Span{
		{Index: 5, Type: TypeEmail, StartPos: 20, EndPos: 25},
		{Index: 2, Type: TypePhone, StartPos: 5, EndPos: 10},
	}
	out := Reindex(spans)
	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].Index)
	assert.Equal(t, TypePhone, out[0].Type)
	assert.Equal(t, 1, out[1].Index)
	assert.Equal(t, TypeEmail, out[1].Type)
	assert.Equal(t, Placeholder(TypePhone, 0), out[0].Placeholder)
}

func TestPlaceholder_IsTypeQualified(t *testing.T) {
	assert.Equal(t, "{{EMAIL_3}}", Placeholder(TypeEmail, 3))
}

func TestMask_SkipsOutOfBoundsSpans(t *testing.T) {
	text := "짧은 문장"
	spans := []Span{{StartPos: 0, EndPos: 1000, Placeholder: "{{BAD_0}}"}}
	assert.Equal(t, text, Mask(text, spans))
}

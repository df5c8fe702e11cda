package segment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegments_SplitsOnStrongBreak(t *testing.T) {
	text := "첫 번째 문단입니다.\n\n두 번째 문단입니다."
	segs := Segments(text, 180)
	require.NotEmpty(t, segs)
	assert.Equal(t, "T1", segs[0].ID)
	for i, s := range segs {
		assert.Equal(t, segmentID(i+1), s.ID)
	}
}

func TestSegments_EmptyInput(t *testing.T) {
	assert.Nil(t, Segments("", 180))
	assert.Nil(t, Segments("   ", 180))
}

func TestSegments_NeverSplitsInsidePlaceholder(t *testing.T) {
	text := "연락처는 {{PHONE_1}} 입니다. 그리고 감사합니다."
	segs := Segments(text, 180)
	for _, s := range segs {
		assert.Equal(t, strings.Count(s.Text, "{{PHONE"), strings.Count(s.Text, "{{PHONE_1}}"))
		assert.False(t, containsPartialPlaceholder(s.Text))
	}
}

func containsPartialPlaceholder(s string) bool {
	open := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '{' && s[i+1] == '{' {
			open++
		}
		if s[i] == '}' && s[i+1] == '}' {
			open--
		}
	}
	return open != 0
}

func TestSegments_ForceSplitsLongSegment(t *testing.T) {
	long := ""
	for i := 0; i < 40; i++ {
		long += "가나다라마바사아자차 "
	}
	segs := Segments(long, 60)
	for _, s := range segs {
		assert.LessOrEqual(t, utf8.RuneCountInString(s.Text), 60+30, "segment should be close to the force-split bound")
	}
}

func TestSegments_MergesShortRuns(t *testing.T) {
	text := "A. B. C. D. 정상적인 길이의 문장이 이어집니다."
	segs := Segments(text, 180)
	shortCount := 0
	for _, s := range segs {
		if len(s.Text) < 5 {
			shortCount++
		}
	}
	assert.Less(t, shortCount, 3)
}

func TestSegments_PositionsAreMonotonicAndWithinBounds(t *testing.T) {
	text := "안녕하세요. 오늘 회의 일정을 안내드립니다. 참고 부탁드립니다."
	segs := Segments(text, 180)
	prevEnd := 0
	for _, s := range segs {
		require.GreaterOrEqual(t, s.Start, prevEnd)
		require.LessOrEqual(t, s.End, len(text))
		require.LessOrEqual(t, s.Start, s.End)
		prevEnd = s.Start
	}
}

package locks

import (
	"sort"
	"strings"
)

// Mask replaces each span's occurrence in text with its placeholder.
// Replacement is position-based and right-to-left (spans are applied in
// decreasing StartPos order) so that identical substrings occurring at
// different positions are each replaced independently and earlier offsets
// in the string are not invalidated by a prior, shorter-or-longer
// replacement.
func Mask(text string, spans []Span) string {
	ordered := make([]Span, len(spans))
	copy(ordered, spans)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StartPos > ordered[j].StartPos })

	out := text
	for _, s := range ordered {
		if s.StartPos < 0 || s.EndPos > len(out) || s.StartPos >= s.EndPos {
			continue
		}
		out = out[:s.StartPos] + s.Placeholder + out[s.EndPos:]
	}
	return out
}

// UnmaskResult is the outcome of restoring placeholders in LLM output.
type UnmaskResult struct {
	Text         string
	MissingSpans []Span // placeholders that never appeared in text
}

// Unmask replaces every placeholder occurrence in text with its span's
// original text. Replacement proceeds by decreasing placeholder index so
// that "{{TYPE_1}}" is never mistakenly matched as a prefix of
// "{{TYPE_10}}" — a plain left-to-right pass over ascending indices would
// corrupt exactly that case.
func Unmask(text string, spans []Span) UnmaskResult {
	ordered := make([]Span, len(spans))
	copy(ordered, spans)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index > ordered[j].Index })

	out := text
	var missing []Span
	for _, s := range ordered {
		if strings.Contains(out, s.Placeholder) {
			out = strings.ReplaceAll(out, s.Placeholder, s.OriginalText)
		} else {
			missing = append(missing, s)
		}
	}
	return UnmaskResult{Text: out, MissingSpans: missing}
}

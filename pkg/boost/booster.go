// Package boost implements the Identity-Lock Booster: a gated LLM call
// that finds proper-noun spans the regex extractor cannot catch, merges
// them into the locked-span set, and re-masks the text.
package boost

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/codeready-toolchain/politely/pkg/config"
	"github.com/codeready-toolchain/politely/pkg/llm"
	"github.com/codeready-toolchain/politely/pkg/locks"
	"github.com/codeready-toolchain/politely/pkg/types"
)

// ShouldFire implements the Booster's gate: caller-supplied toggle, or
// high-formality persona with a sparse locked-span set on a long-enough
// message.
func ShouldFire(forceEnabled bool, persona types.Persona, existingSpanCount, normalizedLen int, g *config.GatingThresholds) bool {
	if forceEnabled {
		return true
	}
	return persona.HighFormality() &&
		existingSpanCount <= g.IdentityBoosterMaxLockedSpans &&
		normalizedLen >= g.IdentityBoosterMinTextLength
}

// Result is the Booster's contract: the re-masked text, the complete
// (re-indexed) span set, and token usage.
type Result struct {
	RemaskedText     string
	AllSpans         []locks.Span
	PromptTokens     int
	CompletionTokens int
}

const systemPrompt = `You extract proper nouns (person names, company names, product names) from a Korean business message. Reply with one name per line, nothing else. If there are none, reply with an empty response.`

// nameLinePattern strips numbering/bullets the LLM sometimes adds despite
// instructions, e.g. "1. 김철수" or "- Acme Corp".
var nameLinePattern = regexp.MustCompile(`^[\s\-*\d.)]+`)

// Run calls the LLM for proper-noun lines, locates each returned name in
// normalizedText with word-boundary awareness, and merges non-overlapping
// hits into existingSpans as SEMANTIC spans. On any LLM failure it returns
// the input unchanged with zero usage — a GatingLLMFailure never fails the
// request.
func Run(ctx context.Context, client llm.Client, model llm.Request, normalizedText string, existingSpans []locks.Span) Result {
	model.SystemPrompt = systemPrompt
	model.UserMessage = normalizedText
	resp, err := client.Complete(ctx, model)
	if err != nil {
		slog.Warn("identity booster: llm call failed, skipping", "error", err)
		return Result{RemaskedText: locks.Mask(normalizedText, existingSpans), AllSpans: existingSpans}
	}

	names := parseNames(resp.Content)
	merged := make([]locks.Span, len(existingSpans))
	copy(merged, existingSpans)

	for _, name := range names {
		for _, occ := range findOccurrences(normalizedText, name) {
			if overlapsAny(occ.start, occ.end, merged) {
				continue
			}
			merged = append(merged, locks.Span{
				OriginalText: normalizedText[occ.start:occ.end],
				Type:         locks.TypeSemantic,
				StartPos:     occ.start,
				EndPos:       occ.end,
			})
		}
	}

	merged = locks.Reindex(merged)
	return Result{
		RemaskedText:     locks.Mask(normalizedText, merged),
		AllSpans:         merged,
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
	}
}

func parseNames(content string) []string {
	var names []string
	for _, line := range strings.Split(content, "\n") {
		line = nameLinePattern.ReplaceAllString(strings.TrimSpace(line), "")
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names
}

type occurrence struct{ start, end int }

// findOccurrences locates all word-boundary-aware occurrences of name in
// text. For Korean text the boundary rule is the absence of an adjacent
// Hangul syllable or jamo (Korean has no whitespace-delimited word
// boundary the way Latin scripts do); for ASCII it's the standard
// word-boundary rule.
func findOccurrences(text, name string) []occurrence {
	if name == "" {
		return nil
	}
	var hits []occurrence
	start := 0
	for {
		idx := strings.Index(text[start:], name)
		if idx < 0 {
			break
		}
		s := start + idx
		e := s + len(name)
		if isWordBoundaryOK(text, s, e) {
			hits = append(hits, occurrence{start: s, end: e})
		}
		start = e
	}
	return hits
}

func isWordBoundaryOK(text string, s, e int) bool {
	before, beforeOK := runeBefore(text, s)
	after, afterOK := runeAfter(text, e)

	if beforeOK && isHangul(before) {
		return false
	}
	if afterOK && isHangul(after) {
		return false
	}
	if beforeOK && isASCIIWordRune(before) && isASCIIWordRune(firstRune(text, s)) {
		return false
	}
	if afterOK && isASCIIWordRune(after) && isASCIIWordRune(lastRune(text, e)) {
		return false
	}
	return true
}

func runeBefore(text string, pos int) (rune, bool) {
	if pos == 0 {
		return 0, false
	}
	r := []rune(text[:pos])
	if len(r) == 0 {
		return 0, false
	}
	return r[len(r)-1], true
}

func runeAfter(text string, pos int) (rune, bool) {
	if pos >= len(text) {
		return 0, false
	}
	r := []rune(text[pos:])
	if len(r) == 0 {
		return 0, false
	}
	return r[0], true
}

func firstRune(text string, pos int) rune {
	r := []rune(text[pos:])
	if len(r) == 0 {
		return 0
	}
	return r[0]
}

func lastRune(text string, pos int) rune {
	r := []rune(text[:pos])
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1]
}

func isHangul(r rune) bool {
	return unicode.Is(unicode.Hangul, r)
}

func isASCIIWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func overlapsAny(start, end int, spans []locks.Span) bool {
	for _, s := range spans {
		if start < s.EndPos && s.StartPos < end {
			return true
		}
	}
	return false
}

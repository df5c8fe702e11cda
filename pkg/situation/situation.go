// Package situation implements the Situation Analyzer: a gated LLM call
// that runs concurrently with the main preprocessing chain and extracts
// background facts and intent, later filtered against RED segments.
package situation

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/codeready-toolchain/politely/pkg/config"
	"github.com/codeready-toolchain/politely/pkg/label"
	"github.com/codeready-toolchain/politely/pkg/llm"
)

// Fact is one background fact the analyzer extracted, tied back to the
// substring of masked text it was derived from.
type Fact struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Result is the Situation Analyzer's contract.
type Result struct {
	Facts            []Fact `json:"facts"`
	Intent           string `json:"intent"`
	PromptTokens     int
	CompletionTokens int
}

const systemPrompt = `Analyze the background facts and core intent of the following Korean business message. Reply with strict JSON only: {"facts":[{"content":"...","source":"exact substring from the text"}],"intent":"..."}. No commentary.`

// ShouldFire implements the Analyzer's gate: always-on override, or a
// length/transition-word policy matching the text's shape.
func ShouldFire(forceEnabled bool, normalizedLen int, transitionWordCount int, g *config.GatingThresholds) bool {
	if forceEnabled {
		return true
	}
	return normalizedLen >= g.SituationAnalysisMinTextLength ||
		transitionWordCount >= g.SituationAnalysisMinTransitionWords
}

// Run calls the LLM for a strict-JSON facts/intent extraction. Malformed
// JSON yields an empty Result and a logged warning, never an error — a
// GatingLLMFailure never fails the request.
func Run(ctx context.Context, client llm.Client, req llm.Request, maskedText string) Result {
	req.SystemPrompt = systemPrompt
	req.UserMessage = maskedText
	req.ResponseFormat = "json"

	resp, err := client.Complete(ctx, req)
	if err != nil {
		slog.Warn("situation analyzer: llm call failed, skipping", "error", err)
		return Result{}
	}

	var parsed Result
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		slog.Warn("situation analyzer: malformed json, skipping", "error", err)
		return Result{}
	}
	parsed.PromptTokens = resp.PromptTokens
	parsed.CompletionTokens = resp.CompletionTokens
	return parsed
}

var nonWordStrip = regexp.MustCompile(`[^\p{Hangul}a-zA-Z0-9]+`)

var stopWords = map[string]bool{
	"그리고": true, "그런데": true, "하지만": true, "있습니다": true, "합니다": true,
	"입니다": true, "그것": true, "저것": true, "이것": true, "위해": true,
}

// FilterRedOverlap drops any fact whose source substring overlaps a RED
// segment, tried in three escalating strategies: exact indexOf overlap,
// normalized-contains, then meaningful-word overlap.
func FilterRedOverlap(facts []Fact, maskedText string, labeled []label.LabeledSegment) []Fact {
	var redSegs []label.LabeledSegment
	for _, l := range labeled {
		if l.Tier == label.TierRed {
			redSegs = append(redSegs, l)
		}
	}
	if len(redSegs) == 0 {
		return facts
	}

	var kept []Fact
	for _, f := range facts {
		if overlapsRed(f.Source, maskedText, redSegs) {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func overlapsRed(source, maskedText string, redSegs []label.LabeledSegment) bool {
	if source == "" {
		return false
	}

	idx := strings.Index(maskedText, source)
	if idx >= 0 {
		end := idx + len(source)
		for _, r := range redSegs {
			if idx < r.End && r.Start < end {
				return true
			}
		}
	}

	normSource := normalizeForMatch(source)
	for _, r := range redSegs {
		if normSource != "" && strings.Contains(normalizeForMatch(r.Text), normSource) {
			return true
		}
	}

	sourceWords := meaningfulWords(source)
	if len(sourceWords) == 0 {
		return false
	}
	for _, r := range redSegs {
		overlap := 0
		redText := r.Text
		for _, w := range sourceWords {
			if strings.Contains(redText, w) {
				overlap++
			}
		}
		if overlap >= 2 {
			return true
		}
	}
	return false
}

func normalizeForMatch(s string) string {
	s = nonWordStrip.ReplaceAllString(s, "")
	return strings.ToLower(s)
}

// meaningfulWords extracts Korean runs of length ≥2 that aren't in the
// stop-word set, by splitting on non-Hangul runs.
func meaningfulWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) >= 2 {
			w := string(cur)
			if !stopWords[w] {
				words = append(words, w)
			}
		}
		cur = cur[:0]
	}
	for _, r := range s {
		if unicode.Is(unicode.Hangul, r) {
			cur = append(cur, r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

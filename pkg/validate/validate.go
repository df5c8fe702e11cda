// Package validate implements the Output Validator: a fixed list of
// invariant checks run against the unmasked LLM output, classified
// ERROR or WARNING, driving the single automatic retry decision.
package validate

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/codeready-toolchain/politely/pkg/locks"
)

// Severity is the two-level classification every Issue carries.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Issue is one finding from a validation pass.
type Issue struct {
	Type         string
	Severity     Severity
	Message      string
	MatchedText  string
	Retryable    bool
}

// Input bundles everything the rule table reads. Retryable WARNING rules
// (7, 9, 10) are distinguished from the non-retryable WARNING rules
// (4, 5, 12).
type Input struct {
	UnmaskedText      string
	OriginalText      string
	LockedSpans       []locks.Span
	RawLLMContent     string
	RedactionMap      map[string]string
	YellowTexts       []string
	RequiredSections  []string // currently only S2_OUR_EFFORT is checked
	OutputRatioMin    float64
	OutputRatioMax    float64
}

var metaNarrationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)as an ai`),
	regexp.MustCompile(`여기\s*있습니다|다음은|제가\s*작성한`),
	regexp.MustCompile(`(?i)here is`),
	regexp.MustCompile(`다시\s*작성했습니다|rewritten`),
}

var redactionMarkerPattern = regexp.MustCompile(`\[REDACTED:[^\]]*\]|\[SOFTEN:[^\]]*\]`)

var repeatedEndingPattern = regexp.MustCompile(`(드리겠습니다)(\s*\.?\s*드리겠습니다){2,}`)

var emojiPattern = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}]`)

var numericOrDatePattern = regexp.MustCompile(`\d[\d,.:/-]*\d|\d`)

// Run executes every rule and returns all findings.
func Run(in Input) []Issue {
	var issues []Issue
	issues = append(issues, rulePlaceholderSurvival(in)...)
	issues = append(issues, ruleNoRedactionLeak(in)...)
	issues = append(issues, ruleNoMetaNarration(in)...)
	issues = append(issues, ruleNoRepeatedEnding(in)...)
	issues = append(issues, ruleNoEmoji(in)...)
	issues = append(issues, ruleNoTripleRepeatSentence(in)...)
	issues = append(issues, ruleNumericPreservation(in)...)
	issues = append(issues, ruleRedactedOriginalsAbsent(in)...)
	issues = append(issues, ruleYellowSimilarity(in)...)
	issues = append(issues, ruleRequiredSections(in)...)
	issues = append(issues, ruleMustIncludePlaceholders(in)...)
	issues = append(issues, ruleOutputLengthRatio(in)...)
	return issues
}

// Passed reports whether no ERROR-severity issue occurred.
func Passed(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return false
		}
	}
	return true
}

// ShouldRetry reports whether any ERROR occurred, or any retryable
// WARNING occurred.
func ShouldRetry(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError || i.Retryable {
			return true
		}
	}
	return false
}

// rule 1
func rulePlaceholderSurvival(in Input) []Issue {
	var issues []Issue
	var missing []string
	for _, s := range in.LockedSpans {
		if !strings.Contains(in.RawLLMContent, s.Placeholder) {
			missing = append(missing, s.Placeholder)
			continue
		}
		if !strings.Contains(in.UnmaskedText, s.OriginalText) {
			missing = append(missing, s.Placeholder)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, Issue{
			Type: "locked_span_missing", Severity: SeverityError,
			Message: "locked span placeholder or original text missing from output",
			MatchedText: strings.Join(missing, ","),
		})
	}
	return issues
}

// rule 2
func ruleNoRedactionLeak(in Input) []Issue {
	if m := redactionMarkerPattern.FindString(in.UnmaskedText); m != "" {
		return []Issue{{Type: "redaction_marker_leak", Severity: SeverityError, Message: "redaction marker leaked into output", MatchedText: m}}
	}
	return nil
}

// rule 3
func ruleNoMetaNarration(in Input) []Issue {
	for _, p := range metaNarrationPatterns {
		if m := p.FindString(in.UnmaskedText); m != "" {
			return []Issue{{Type: "meta_narration", Severity: SeverityError, Message: "output contains meta narration", MatchedText: m}}
		}
	}
	return nil
}

// rule 4
func ruleNoRepeatedEnding(in Input) []Issue {
	if m := repeatedEndingPattern.FindString(in.UnmaskedText); m != "" {
		return []Issue{{Type: "repeated_ending", Severity: SeverityWarning, Message: "sentence ending repeated 3+ times in a row", MatchedText: m}}
	}
	return nil
}

// rule 5
func ruleNoEmoji(in Input) []Issue {
	if m := emojiPattern.FindString(in.UnmaskedText); m != "" {
		return []Issue{{Type: "emoji_present", Severity: SeverityWarning, Message: "output contains an emoji", MatchedText: m}}
	}
	return nil
}

// rule 6
func ruleNoTripleRepeatSentence(in Input) []Issue {
	sentences := splitSentences(in.UnmaskedText)
	for i := 0; i+2 < len(sentences); i++ {
		if sentences[i] != "" && sentences[i] == sentences[i+1] && sentences[i+1] == sentences[i+2] {
			return []Issue{{Type: "triple_repeat_sentence", Severity: SeverityError, Message: "same sentence repeated three times in a row", MatchedText: sentences[i]}}
		}
	}
	return nil
}

func splitSentences(text string) []string {
	raw := regexp.MustCompile(`[.!?\n]+`).Split(text, -1)
	var out []string
	for _, s := range raw {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

// rule 7 - retryable WARNING
func ruleNumericPreservation(in Input) []Issue {
	originalNumbers := uniqueMatches(numericOrDatePattern, in.OriginalText)
	var missing []string
	for _, n := range originalNumbers {
		if !strings.Contains(in.UnmaskedText, n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return []Issue{{
			Type: "numeric_not_preserved", Severity: SeverityWarning, Retryable: true,
			Message:     "a numeric or date value from the original text is missing from the output",
			MatchedText: strings.Join(missing, ","),
		}}
	}
	return nil
}

func uniqueMatches(re *regexp.Regexp, text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range re.FindAllString(text, -1) {
		if len(m) < 2 {
			continue // bare single digits are too noisy to police
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// rule 8
func ruleRedactedOriginalsAbsent(in Input) []Issue {
	var leaked []string
	for _, original := range in.RedactionMap {
		if original != "" && strings.Contains(in.UnmaskedText, original) {
			leaked = append(leaked, original)
		}
	}
	if len(leaked) > 0 {
		return []Issue{{Type: "redacted_original_leak", Severity: SeverityError, Message: "a redacted RED segment's original text reappeared in output", MatchedText: strings.Join(leaked, ",")}}
	}
	return nil
}

// rule 9 - retryable WARNING
func ruleYellowSimilarity(in Input) []Issue {
	const threshold = 0.3
	var issues []Issue
	for _, yellow := range in.YellowTexts {
		if bagOfWordsSimilarity(yellow, in.UnmaskedText) < threshold {
			issues = append(issues, Issue{
				Type: "yellow_content_dropped", Severity: SeverityWarning, Retryable: true,
				Message:     "yellow-tier content appears dropped from the output",
				MatchedText: yellow,
			})
		}
	}
	return issues
}

func bagOfWordsSimilarity(source, output string) float64 {
	sourceWords := koreanWords(source)
	if len(sourceWords) == 0 {
		return 1
	}
	hit := 0
	for _, w := range sourceWords {
		if strings.Contains(output, w) {
			hit++
		}
	}
	return float64(hit) / float64(len(sourceWords))
}

func koreanWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) >= 2 {
			words = append(words, string(cur))
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

// rule 10 - retryable WARNING, currently only S2_OUR_EFFORT is checked
func ruleRequiredSections(in Input) []Issue {
	for _, section := range in.RequiredSections {
		if section != "S2_OUR_EFFORT" {
			continue
		}
		if !strings.Contains(in.UnmaskedText, "노력") && !strings.Contains(in.UnmaskedText, "조치") {
			return []Issue{{
				Type: "required_section_missing", Severity: SeverityWarning, Retryable: true,
				Message: "required template section S2_OUR_EFFORT appears missing",
			}}
		}
	}
	return nil
}

// rule 11
func ruleMustIncludePlaceholders(in Input) []Issue {
	var missing []string
	for _, s := range in.LockedSpans {
		inAnyYellow := false
		for _, y := range in.YellowTexts {
			if strings.Contains(y, s.Placeholder) {
				inAnyYellow = true
				break
			}
		}
		if inAnyYellow && !strings.Contains(in.UnmaskedText, s.OriginalText) {
			missing = append(missing, s.Placeholder)
		}
	}
	if len(missing) > 0 {
		return []Issue{{Type: "must_include_missing", Severity: SeverityError, Message: "a mustInclude placeholder from a yellow segment is missing from output", MatchedText: strings.Join(missing, ",")}}
	}
	return nil
}

// rule 12
func ruleOutputLengthRatio(in Input) []Issue {
	if len(in.OriginalText) == 0 {
		return nil
	}
	ratio := float64(len(in.UnmaskedText)) / float64(len(in.OriginalText))
	min, max := in.OutputRatioMin, in.OutputRatioMax
	if min == 0 && max == 0 {
		min, max = 0.5, 2.5
	}
	if ratio < min || ratio > max {
		return []Issue{{Type: "output_length_ratio", Severity: SeverityWarning, Message: "output length ratio to original is out of bounds"}}
	}
	return nil
}

// RetryHint builds the instruction to append to the retry's user message:
// an error summary line plus the names of any missing locked spans.
func RetryHint(issues []Issue) string {
	var lines []string
	var missingSpans []string
	for _, i := range issues {
		lines = append(lines, i.Type+": "+i.Message)
		if i.Type == "locked_span_missing" || i.Type == "must_include_missing" {
			missingSpans = append(missingSpans, strings.Split(i.MatchedText, ",")...)
		}
	}
	sort.Strings(lines)
	hint := "Previous attempt had issues: " + strings.Join(lines, "; ")
	if len(missingSpans) > 0 {
		hint += ". These placeholders MUST appear verbatim: " + strings.Join(missingSpans, ", ")
	}
	return hint
}

const RetryTemperature = 0.3

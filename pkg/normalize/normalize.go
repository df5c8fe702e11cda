// Package normalize implements the pipeline's first stage: deterministic
// Unicode cleanup of the raw input message before any span extraction or
// LLM call sees it.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// invisible code points that carry no visual meaning but can hide
// injection attempts or break downstream regex matching: zero-width
// space, zero-width non-joiner, zero-width joiner, BOM, soft hyphen,
// word joiner, Mongolian vowel separator.
var invisibleRunes = map[rune]bool{
	0x200B: true,
	0x200C: true,
	0x200D: true,
	0xFEFF: true,
	0x00AD: true,
	0x2060: true,
	0x180E: true,
}

var (
	runsOfSpacesTabs = regexp.MustCompile(`[ \t]+`)
	runsOfNewlines   = regexp.MustCompile(`\n{3,}`)
)

// Text runs the fixed, ordered cleanup pipeline described for the Text
// Normalizer: NFC, invisible-char strip, control-char strip, CRLF
// collapse, whitespace collapse, blank-line collapse, outer trim. It is
// pure and idempotent: Text(Text(x)) == Text(x).
func Text(raw string) string {
	s := norm.NFC.String(raw)
	s = stripInvisible(s)
	s = stripControl(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = runsOfSpacesTabs.ReplaceAllString(s, " ")
	s = runsOfNewlines.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	return s
}

func stripInvisible(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if invisibleRunes[r] {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stripControl removes C0 control characters except \n, \r, \t.
func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		if r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

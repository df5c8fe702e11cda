// Package segment implements the Meaning Segmenter (rule-based splitting
// of masked text into short meaning units) and the Segment Refiner (a
// gated LLM call that splits segments the rules left too long).
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Segment is a contiguous span of masked text, IDed in document order.
type Segment struct {
	ID    string // "T1".."Tn"
	Text  string
	Start int // byte offset into masked text, inclusive
	End   int // byte offset into masked text, exclusive
}

var placeholderPattern = regexp.MustCompile(`\{\{[A-Z_]+_\d+\}\}`)

var (
	strongBreak     = regexp.MustCompile(`(?m)(\n\n+|^[\-*•]\s|^\d+[.)]\s)`)
	weakBreak       = regexp.MustCompile(`[.!?](\s|$)`)
	koreanEndingSet = []string{"습니다", "입니다", "세요", "에요", "해요", "합니다", "됩니다", "드립니다"}
	transitionWords = []string{
		"그리고", "그런데", "하지만", "따라서", "그래서", "그러나", "그러므로", "그러면",
		"그렇지만", "또한", "게다가", "더불어", "한편", "반면", "결국", "즉", "다만",
	}
)

// CountTransitionWords counts how many of the Korean transition/connective
// words this package uses for boundary detection appear in text — the
// Situation Analyzer's gate reuses this as a cheap signal of narrative
// complexity.
func CountTransitionWords(text string) int {
	n := 0
	for _, tw := range transitionWords {
		n += strings.Count(text, tw)
	}
	return n
}

// placeholderRanges locates every placeholder occurrence so boundary
// detection can avoid splitting inside one.
func placeholderRanges(text string) [][2]int {
	locs := placeholderPattern.FindAllStringIndex(text, -1)
	ranges := make([][2]int, len(locs))
	for i, l := range locs {
		ranges[i] = [2]int{l[0], l[1]}
	}
	return ranges
}

func insidePlaceholder(pos int, ranges [][2]int) bool {
	for _, r := range ranges {
		if pos > r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

// Segments applies the four boundary families in order, each refining the
// previous partition, then force-splits over-long segments and merges
// runs of very short ones. maxLength is the force-split threshold (spec
// default 180).
func Segments(maskedText string, maxLength int) []Segment {
	if strings.TrimSpace(maskedText) == "" {
		return nil
	}

	ranges := placeholderRanges(maskedText)
	boundaries := map[int]bool{0: true, len(maskedText): true}

	addMatches := func(re *regexp.Regexp) {
		for _, loc := range re.FindAllStringIndex(maskedText, -1) {
			if !insidePlaceholder(loc[1], ranges) {
				boundaries[loc[1]] = true
			}
		}
	}

	addMatches(strongBreak)
	addMatches(weakBreak)
	for _, ending := range koreanEndingSet {
		re := regexp.MustCompile(regexp.QuoteMeta(ending) + `(\s|$|[.!?,])`)
		addMatches(re)
	}
	for _, tw := range transitionWords {
		re := regexp.MustCompile(`[\s,]` + regexp.QuoteMeta(tw))
		for _, loc := range re.FindAllStringIndex(maskedText, -1) {
			if !insidePlaceholder(loc[0], ranges) {
				boundaries[loc[0]] = true
			}
		}
	}

	cuts := sortedInts(boundaries)
	var raw []Segment
	for i := 0; i < len(cuts)-1; i++ {
		start, end := cuts[i], cuts[i+1]
		text := maskedText[start:end]
		if strings.TrimSpace(text) == "" {
			continue
		}
		raw = append(raw, Segment{Text: text, Start: start, End: end})
	}

	raw = forceSplitLong(raw, maskedText, ranges, maxLength)
	raw = mergeShortRuns(raw)

	out := make([]Segment, len(raw))
	cursor := 0
	for i, s := range raw {
		idx := strings.Index(maskedText[cursor:], strings.TrimSpace(s.Text))
		start := s.Start
		end := s.End
		if idx >= 0 {
			start = cursor + idx
			end = start + len(strings.TrimSpace(s.Text))
			cursor = end
		}
		out[i] = Segment{ID: segmentID(i + 1), Text: strings.TrimSpace(s.Text), Start: start, End: end}
	}
	return out
}

func segmentID(n int) string {
	return "T" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

func sortedInts(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j-1] > out[j] {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	return out
}

// forceSplitLong splits any segment longer than maxLength runes at the
// nearest space/comma/newline to its byte midpoint, searching a window of
// ±60 bytes.
func forceSplitLong(segments []Segment, fullText string, ranges [][2]int, maxLength int) []Segment {
	var out []Segment
	for _, s := range segments {
		if utf8.RuneCountInString(s.Text) <= maxLength {
			out = append(out, s)
			continue
		}
		out = append(out, splitOne(s, ranges, maxLength)...)
	}
	return out
}

func splitOne(s Segment, ranges [][2]int, maxLength int) []Segment {
	if utf8.RuneCountInString(s.Text) <= maxLength {
		return []Segment{s}
	}
	mid := len(s.Text) / 2
	window := 60
	best := -1
	for delta := 0; delta <= window; delta++ {
		for _, cand := range []int{mid + delta, mid - delta} {
			if cand <= 0 || cand >= len(s.Text) {
				continue
			}
			abs := s.Start + cand
			if insidePlaceholder(abs, ranges) {
				continue
			}
			c := s.Text[cand-1]
			if c == ' ' || c == ',' || c == '\n' {
				best = cand
				break
			}
		}
		if best != -1 {
			break
		}
	}
	if best == -1 {
		return []Segment{s}
	}
	left := Segment{Text: s.Text[:best], Start: s.Start, End: s.Start + best}
	right := Segment{Text: s.Text[best:], Start: s.Start + best, End: s.End}
	return append(splitOne(left, ranges, maxLength), splitOne(right, ranges, maxLength)...)
}

// mergeShortRuns merges runs of ≥3 consecutive segments shorter than 5
// chars into one, preventing a flood of fragment-sized segments reaching
// the labeler.
func mergeShortRuns(segments []Segment) []Segment {
	var out []Segment
	i := 0
	for i < len(segments) {
		if utf8.RuneCountInString(strings.TrimSpace(segments[i].Text)) < 5 {
			j := i
			for j < len(segments) && utf8.RuneCountInString(strings.TrimSpace(segments[j].Text)) < 5 {
				j++
			}
			if j-i >= 3 {
				out = append(out, Segment{
					Text:  joinTexts(segments[i:j]),
					Start: segments[i].Start,
					End:   segments[j-1].End,
				})
				i = j
				continue
			}
		}
		out = append(out, segments[i])
		i++
	}
	return out
}

func joinTexts(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

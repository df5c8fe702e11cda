package locks

import (
	"regexp"
	"sort"
)

// pattern is a single ordered extraction rule, mirroring the teacher's
// CompiledPattern: a compiled regex and the Type it produces.
// Order in patternList matters — it is the tie-break priority when two
// patterns both match overlapping text.
type pattern struct {
	typ   Type
	regex *regexp.Regexp
}

// patternList is the fixed, ordered list of 17 extraction patterns the
// Locked-Span Extractor applies. List order is the priority order used
// during overlap resolution — earlier entries win ties. Never iterate
// these from a map; map iteration order is unspecified and this is the
// one place that would silently break.
var patternList = []pattern{
	{TypeDate, regexp.MustCompile(`\d{4}[-./]\d{1,2}[-./]\d{1,2}|\d{1,2}월\s*\d{1,2}일`)},
	{TypeHHMM, regexp.MustCompile(`\b([01]?\d|2[0-3]):[0-5]\d\b`)},
	{TypeTime, regexp.MustCompile(`\d{1,2}시\s*(\d{1,2}분)?`)},
	{TypePhone, regexp.MustCompile(`01[0-9]-?\d{3,4}-?\d{4}|0\d{1,2}-\d{3,4}-\d{4}`)},
	{TypeEmail, regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
	{TypeURL, regexp.MustCompile(`https?://[^\s]+`)},
	{TypeAccount, regexp.MustCompile(`\d{2,6}-\d{2,6}-\d{2,8}`)},
	{TypeMoney, regexp.MustCompile(`[\d,]+\s*(원|won|USD|\$)`)},
	{TypeLargeNumber, regexp.MustCompile(`\d{1,3}(,\d{3})+\b`)},
	{TypeUUID, regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)},
	{TypeHashCommit, regexp.MustCompile(`\b[0-9a-f]{7,40}\b`)},
	{TypeFilePath, regexp.MustCompile(`(?:[A-Za-z]:)?(?:/[\w.\-]+)+\.[A-Za-z0-9]{1,8}|(?:[\w\-]+/)+[\w\-]+\.[A-Za-z0-9]{1,8}`)},
	{TypeIssueTicket, regexp.MustCompile(`\b[A-Z]{2,10}-\d{1,6}\b`)},
	{TypeVersion, regexp.MustCompile(`\bv?\d+\.\d+(\.\d+)?(-[A-Za-z0-9]+)?\b`)},
	{TypeQuotedText, regexp.MustCompile(`"[^"\n]{1,200}"|'[^'\n]{1,200}'|「[^」\n]{1,200}」`)},
	{TypeUnitNumber, regexp.MustCompile(`\d+\s*(개|명|건|회|층|호|kg|km|g|m|%)`)},
	{TypeIdentifier, regexp.MustCompile(`\b[A-Z][A-Za-z0-9]*[_-][A-Za-z0-9_-]+\b`)},
}

type hit struct {
	start, end int
	text       string
	typ        Type
}

// Extract runs the fixed ordered pattern list over text and returns the
// non-overlapping, start-sorted span set: each pattern contributes all of
// its own non-overlapping matches, they are merged, and overlap is
// resolved by earliest-start then longest-length, per pattern list order
// as the final tiebreak (patternList's position is reflected in the order
// hits are appended before sorting, so a stable sort preserves it).
func Extract(text string) []Span {
	var hits []hit
	for _, p := range patternList {
		for _, loc := range p.regex.FindAllStringIndex(text, -1) {
			hits = append(hits, hit{start: loc[0], end: loc[1], text: text[loc[0]:loc[1]], typ: p.typ})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		li := hits[i].end - hits[i].start
		lj := hits[j].end - hits[j].start
		return li > lj // ties broken by longer length first
	})

	var kept []hit
	lastKeptEnd := -1
	for _, h := range hits {
		if h.start >= lastKeptEnd {
			kept = append(kept, h)
			lastKeptEnd = h.end
		}
	}

	spans := make([]Span, len(kept))
	for i, h := range kept {
		spans[i] = Span{
			Index:        i,
			OriginalText: h.text,
			Type:         h.typ,
			StartPos:     h.start,
			EndPos:       h.end,
			Placeholder:  Placeholder(h.typ, i),
		}
	}
	return spans
}

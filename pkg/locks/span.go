// Package locks implements the locked-span lifecycle: extraction,
// placeholder masking, and unmasking of substrings that must survive the
// LLM round-trip verbatim.
package locks

import "fmt"

// Type enumerates the kind of locked span extracted from the input.
type Type string

const (
	TypeDate        Type = "DATE"
	TypeTime        Type = "TIME"
	TypeHHMM        Type = "HH_MM"
	TypePhone       Type = "PHONE"
	TypeEmail       Type = "EMAIL"
	TypeURL         Type = "URL"
	TypeMoney       Type = "MONEY"
	TypeAccount     Type = "ACCOUNT"
	TypeUnitNumber  Type = "UNIT_NUMBER"
	TypeLargeNumber Type = "LARGE_NUMBER"
	TypeUUID        Type = "UUID"
	TypeFilePath    Type = "FILE_PATH"
	TypeIssueTicket Type = "ISSUE_TICKET"
	TypeVersion     Type = "VERSION"
	TypeQuotedText  Type = "QUOTED_TEXT"
	TypeIdentifier  Type = "IDENTIFIER"
	TypeHashCommit  Type = "HASH_COMMIT"
	TypeSemantic    Type = "SEMANTIC"
)

// Span is one inviolable substring of the normalized input. It is carried
// read-only through every downstream stage once created.
//
// Invariants: spans are pairwise non-overlapping; Placeholder is uniquely
// determined by (Type, Index); EndPos > StartPos; every placeholder
// appearing in any downstream artifact maps to exactly one span.
type Span struct {
	Index        int
	OriginalText string
	Placeholder  string
	Type         Type
	StartPos     int // byte offset into the UTF-8 normalized text (not a UTF-16 code-unit index), inclusive
	EndPos       int // byte offset into the UTF-8 normalized text (not a UTF-16 code-unit index), exclusive
}

// Placeholder builds the type-qualified placeholder form chosen for this
// deployment: "{{TYPE_N}}". See DESIGN.md for why this form was picked over
// the uniform "{{LOCKED_N}}" alternative the spec also allows.
func Placeholder(t Type, index int) string {
	return fmt.Sprintf("{{%s_%d}}", t, index)
}

// Reindex assigns contiguous indices 0..n-1 to spans sorted by StartPos and
// regenerates each Placeholder accordingly. Used after the Identity-Lock
// Booster merges additional SEMANTIC spans into the extractor's output.
func Reindex(spans []Span) []Span {
	out := make([]Span, len(spans))
	copy(out, spans)
	sortSpansByStart(out)
	for i := range out {
		out[i].Index = i
		out[i].Placeholder = Placeholder(out[i].Type, i)
	}
	return out
}

func sortSpansByStart(spans []Span) {
	// insertion sort: span counts are small (single digits to low tens per
	// request) and this keeps the comparator trivial to eyeball.
	for i := 1; i < len(spans); i++ {
		j := i
		for j > 0 && spans[j-1].StartPos > spans[j].StartPos {
			spans[j-1], spans[j] = spans[j], spans[j-1]
			j--
		}
	}
}

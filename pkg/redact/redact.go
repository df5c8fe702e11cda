// Package redact implements the Redactor: it walks labeled segments in
// decreasing start position and builds a redaction map for every RED
// segment, without producing new text for the final prompt — the tier
// label itself carries the segment's fate forward.
package redact

import (
	"fmt"
	"sort"

	"github.com/codeready-toolchain/politely/pkg/label"
)

// TierCounts summarizes how many segments landed in each tier.
type TierCounts struct {
	Green, Yellow, Red int
}

// Result is the Redactor's contract.
type Result struct {
	RedactionMap map[string]string // marker -> original segment text
	Counts       TierCounts
}

// Run builds the redaction map. Markers are numbered per label
// ("[REDACTED:AGGRESSION_0]", "[REDACTED:AGGRESSION_1]", ...) in
// decreasing-start-position walk order, so within a label the RED segment
// with the greatest start position gets _0.
func Run(labeled []label.LabeledSegment) Result {
	ordered := make([]label.LabeledSegment, len(labeled))
	copy(ordered, labeled)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })

	counts := TierCounts{}
	redactionMap := make(map[string]string)
	perLabelCounter := make(map[label.Label]int)

	for _, l := range labeled {
		switch l.Tier {
		case label.TierGreen:
			counts.Green++
		case label.TierYellow:
			counts.Yellow++
		case label.TierRed:
			counts.Red++
		}
	}

	for _, l := range ordered {
		if l.Tier != label.TierRed {
			continue
		}
		n := perLabelCounter[l.Label]
		marker := fmt.Sprintf("[REDACTED:%s_%d]", l.Label, n)
		redactionMap[marker] = l.Text
		perLabelCounter[l.Label]++
	}

	return Result{RedactionMap: redactionMap, Counts: counts}
}

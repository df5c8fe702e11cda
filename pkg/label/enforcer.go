package label

import "regexp"

// confirmedPatterns force a segment to RED regardless of the labeler's
// own tier. When several patterns match one segment, the first in list
// order sets the label. Enforce is idempotent (each pattern only ever
// promotes toward RED, never away from it).
var confirmedPatterns = []struct {
	regex *regexp.Regexp
	label Label
}{
	{regexp.MustCompile(`씨발|ㅅㅂ|좆같|개새끼|병신`), LabelAggression},
	{regexp.MustCompile(`그것도\s*못|뇌가\s*있|무능`), LabelPersonalAttack},
	{regexp.MustCompile(`잘하시네요?\s*!{2,}|잘났다\s*!{1,}`), LabelPersonalAttack},
}

// ambiguousPatterns only ever promote GREEN to YELLOW; they never reach RED.
var ambiguousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`미친|개같|ㅈㄴ`),
}

var stripForMatch = regexp.MustCompile(`[\s.,!?~]+`)

// Enforce applies the confirmed/ambiguous override rules to labeled
// segments in place (on a copy) and returns the adjusted slice. Enforce
// is idempotent: Enforce(Enforce(l)) == Enforce(l).
func Enforce(labeled []LabeledSegment) []LabeledSegment {
	out := make([]LabeledSegment, len(labeled))
	copy(out, labeled)

	for i, seg := range out {
		stripped := stripForMatch.ReplaceAllString(seg.Text, "")

		forced := false
		for _, p := range confirmedPatterns {
			if p.regex.MatchString(stripped) || p.regex.MatchString(seg.Text) {
				out[i].Tier = TierRed
				out[i].Label = p.label
				forced = true
				break
			}
		}
		if forced {
			continue
		}

		if out[i].Tier == TierGreen {
			for _, re := range ambiguousPatterns {
				if re.MatchString(seg.Text) {
					out[i].Tier = TierYellow
					out[i].Label = LabelEmotional
					break
				}
			}
		}
	}
	return out
}

package segment

import (
	"context"
	"log/slog"
	"strings"

	"github.com/codeready-toolchain/politely/pkg/llm"
)

// RefinerSystemPrompt instructs the model to split one over-long Korean
// segment into shorter ones without altering meaning or wording.
const RefinerSystemPrompt = `You split a single Korean sentence fragment into two or three shorter fragments at natural meaning boundaries. Do not change, add, or remove any words. Reply with one fragment per line, nothing else.`

// ShouldRefine reports whether a segment exceeds the Refiner's gate.
func ShouldRefine(s Segment, maxLength int) bool {
	return len(s.Text) > maxLength
}

// Refine calls the LLM to split a single over-long segment into shorter
// ones, relabeling IDs as Tn.a, Tn.b, ... to preserve document order
// without renumbering every later segment. On LLM failure it returns the
// segment unchanged — a GatingLLMFailure never fails the request.
func Refine(ctx context.Context, client llm.Client, req llm.Request, s Segment) []Segment {
	req.SystemPrompt = RefinerSystemPrompt
	req.UserMessage = s.Text

	resp, err := client.Complete(ctx, req)
	if err != nil {
		slog.Warn("segment refiner: llm call failed, keeping segment whole", "error", err, "segment", s.ID)
		return []Segment{s}
	}

	var pieces []string
	for _, line := range strings.Split(resp.Content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			pieces = append(pieces, line)
		}
	}
	if len(pieces) < 2 {
		return []Segment{s}
	}

	out := make([]Segment, 0, len(pieces))
	cursor := s.Start
	suffixes := "abcdefghijklmnopqrstuvwxyz"
	for i, p := range pieces {
		idx := strings.Index(s.Text[cursor-s.Start:], p)
		start := cursor
		if idx >= 0 {
			start = cursor + idx
		}
		end := start + len(p)
		suffix := "z"
		if i < len(suffixes) {
			suffix = string(suffixes[i])
		}
		out = append(out, Segment{ID: s.ID + "." + suffix, Text: p, Start: start, End: end})
		cursor = end
	}
	return out
}

// RefineAll walks segments in order, replacing any that exceed maxLength
// with their refined sub-segments.
func RefineAll(ctx context.Context, client llm.Client, req llm.Request, segments []Segment, maxLength int) []Segment {
	var out []Segment
	for _, s := range segments {
		if ShouldRefine(s, maxLength) {
			out = append(out, Refine(ctx, client, req, s)...)
		} else {
			out = append(out, s)
		}
	}
	return out
}

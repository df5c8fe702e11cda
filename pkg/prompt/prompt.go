// Package prompt implements the Final-Prompt Builder: it assembles the
// static per-tier rewriting instructions, the dynamic persona/context
// blocks, and the JSON user-message envelope the final generation call
// sends to the LLM.
package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/codeready-toolchain/politely/pkg/label"
	"github.com/codeready-toolchain/politely/pkg/locks"
	"github.com/codeready-toolchain/politely/pkg/template"
	"github.com/codeready-toolchain/politely/pkg/types"
)

const systemPromptBase = `You are a Korean business-writing assistant. Rewrite the supplied message segments into a polished, professional message following these tier rules:
GREEN segments: rephrase for tone while preserving every fact, number, and placeholder verbatim.
YELLOW segments: apply a three-phase rewrite — cushion, then the underlying fact, then a forward-looking direction — choosing per-label strategy from the label name.
RED segments: delete without trace. Never paraphrase a RED segment and never refer to it, even implicitly.
Never invent facts. Never break a {{TYPE_N}} placeholder. Never mention that you are rewriting or that you are an AI.`

// BuiltPrompt is the Final-Prompt Builder's contract.
type BuiltPrompt struct {
	SystemPrompt string
	UserMessage  string
	LockedSpans  []locks.Span
	RedactionMap map[string]string
}

type envelopeMeta struct {
	Receiver     string   `json:"receiver"`
	Context      []string `json:"context"`
	Tone         string   `json:"tone"`
	Sender       *senderJSON `json:"sender,omitempty"`
	TemplateID   string   `json:"templateId"`
	SectionOrder []string `json:"sectionOrder"`
}

type senderJSON struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type envelopeSegment struct {
	ID          string `json:"id"`
	Order       int    `json:"order"`
	Tier        string `json:"tier"`
	Label       string `json:"label"`
	Text        *string `json:"text"`
	DedupeKey   *string `json:"dedupeKey"`
	MustInclude []string `json:"mustInclude,omitempty"`
}

type envelope struct {
	Meta         envelopeMeta             `json:"meta"`
	Segments     []envelopeSegment        `json:"segments"`
	Placeholders map[string]string        `json:"placeholders"`
}

var placeholderPattern = regexp.MustCompile(`\{\{([A-Z_]+)_(\d+)\}\}`)
var punctStrip = regexp.MustCompile(`[\s.,!?~·"'()\[\]{}]+`)

// dedupeKey derives a deterministic merge key from segment text: replace
// {{TYPE_N}} with type_n tokens, strip whitespace/punctuation, lowercase.
func dedupeKey(text string) string {
	replaced := placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := placeholderPattern.FindStringSubmatch(m)
		return strings.ToLower(parts[1]) + "_" + parts[2]
	})
	stripped := punctStrip.ReplaceAllString(replaced, "")
	return strings.ToLower(stripped)
}

func placeholdersIn(text string) []string {
	matches := placeholderPattern.FindAllString(text, -1)
	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// Build assembles the full prompt pair. labeled segments are sorted by
// start position to derive the `order` rank the JSON envelope requires.
func Build(envelopeInfo types.Envelope, sel template.Selection, labeled []label.LabeledSegment, spans []locks.Span, redactionMap map[string]string) BuiltPrompt {
	ordered := make([]label.LabeledSegment, len(labeled))
	copy(ordered, labeled)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	var segs []envelopeSegment
	for i, l := range ordered {
		es := envelopeSegment{ID: l.SegmentID, Order: i, Tier: string(l.Tier), Label: string(l.Label)}
		if l.Tier == label.TierRed {
			es.Text = nil
			es.DedupeKey = nil
		} else {
			text := l.Text
			key := dedupeKey(text)
			es.Text = &text
			es.DedupeKey = &key
			if l.Tier == label.TierYellow {
				es.MustInclude = placeholdersIn(text)
			}
		}
		segs = append(segs, es)
	}

	placeholders := make(map[string]string, len(spans))
	for _, s := range spans {
		placeholders[s.Placeholder] = s.OriginalText
	}

	var sectionOrder []string
	for _, s := range sel.EffectiveSections {
		sectionOrder = append(sectionOrder, s.ID)
	}

	var contexts []string
	for _, c := range envelopeInfo.Contexts {
		contexts = append(contexts, string(c))
	}

	var sender *senderJSON
	if envelopeInfo.Sender != nil {
		sender = &senderJSON{Name: envelopeInfo.Sender.Name, Role: envelopeInfo.Sender.Role}
	}

	env := envelope{
		Meta: envelopeMeta{
			Receiver:     string(envelopeInfo.Persona),
			Context:      contexts,
			Tone:         string(envelopeInfo.Tone),
			Sender:       sender,
			TemplateID:   sel.Template.ID,
			SectionOrder: sectionOrder,
		},
		Segments:     segs,
		Placeholders: placeholders,
	}

	userMessage, _ := json.Marshal(env)

	return BuiltPrompt{
		SystemPrompt: buildSystemPrompt(envelopeInfo, sel),
		UserMessage:  string(userMessage),
		LockedSpans:  spans,
		RedactionMap: redactionMap,
	}
}

func buildSystemPrompt(env types.Envelope, sel template.Selection) string {
	var b strings.Builder
	b.WriteString(systemPromptBase)
	fmt.Fprintf(&b, "\n\nPersona: %s. Tone: %s.", env.Persona, env.Tone)
	if env.Hint != "" {
		fmt.Fprintf(&b, " Hint: %s.", env.Hint)
	}
	fmt.Fprintf(&b, "\nTemplate: %s (%s). Section plan:", sel.Template.ID, sel.Template.Name)
	for _, s := range sel.EffectiveSections {
		fmt.Fprintf(&b, "\n- %s (%s)", s.ID, s.Label)
		if s.Mark != template.MarkNormal {
			fmt.Fprintf(&b, " [%s]", s.Mark)
		}
		fmt.Fprintf(&b, ": %s Length: %s.", s.Instruction, s.LengthHint)
		if len(s.ExpressionPool) > 0 {
			fmt.Fprintf(&b, " Suggested phrases: %s.", strings.Join(s.ExpressionPool, "; "))
		}
	}
	return b.String()
}

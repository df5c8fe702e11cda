// Package template implements the Template Selector (a pure scoring
// function over persona/context/label statistics) and Context Gating (an
// optional LLM call that can override the selector's inputs).
package template

import (
	"github.com/codeready-toolchain/politely/pkg/types"
)

// SectionMark annotates how a template section should be rendered for
// the chosen persona.
type SectionMark string

const (
	MarkNormal  SectionMark = ""
	MarkExpand  SectionMark = "expand"
	MarkShorten SectionMark = "shorten"
)

// Section is one slot within a template's layout. Label is the section's
// display name; Instruction, LengthHint, and ExpressionPool feed the
// Final-Prompt Builder's per-section guidance for the final generation
// call.
type Section struct {
	ID             string
	Label          string
	Instruction    string
	LengthHint     string
	ExpressionPool []string
}

// EffectiveSection is a Section after the persona's SectionSkipRule has
// been applied.
type EffectiveSection struct {
	Section
	Mark SectionMark
}

// Template is one entry in the fixed registry.
type Template struct {
	ID       string
	Name     string
	Sections []Section
}

// The nine canonical section slots. Every template's layout is built from
// this fixed set; nothing outside it may appear in a Sections list.
var (
	sectionGreeting = Section{
		ID: "S0_GREETING", Label: "인사",
		Instruction: "받는 사람의 직함에 맞는 짧은 인사로 시작한다.",
		LengthHint:  "1문장",
		ExpressionPool: []string{"안녕하세요", "말씀드릴 것이 있어 연락드립니다"},
	}
	sectionAcknowledge = Section{
		ID: "S1_ACKNOWLEDGE", Label: "확인/공감",
		Instruction: "상대가 전달한 상황이나 요청을 받았음을 먼저 확인한다.",
		LengthHint:  "1-2문장",
		ExpressionPool: []string{"말씀 주신 내용 확인했습니다", "상황 잘 이해했습니다"},
	}
	sectionOurEffort = Section{
		ID: "S2_OUR_EFFORT", Label: "우리측 노력",
		Instruction: "이미 취한 조치나 진행 중인 노력을 구체적으로 전달한다.",
		LengthHint:  "1-2문장",
		ExpressionPool: []string{"바로 확인해보겠습니다", "관련해서 조치를 진행 중입니다"},
	}
	sectionFacts = Section{
		ID: "S3_FACTS", Label: "사실 전달",
		Instruction: "CORE_FACT/CORE_INTENT로 라벨된 핵심 사실과 수치를 왜곡 없이 전달한다.",
		LengthHint:  "2-4문장",
	}
	sectionResponsibility = Section{
		ID: "S4_RESPONSIBILITY", Label: "책임 인정",
		Instruction: "ACCOUNTABILITY나 NEGATIVE_FEEDBACK이 감지된 경우에만, 과장 없이 책임을 인정한다.",
		LengthHint:  "1-2문장",
		ExpressionPool: []string{"불편을 드려 죄송합니다", "저희 측 확인이 늦어진 점 사과드립니다"},
	}
	sectionRequest = Section{
		ID: "S5_REQUEST", Label: "요청",
		Instruction: "REQUEST로 라벨된 내용을 바탕으로 상대에게 필요한 행동을 정중히 요청한다.",
		LengthHint:  "1-2문장",
	}
	sectionOptions = Section{
		ID: "S6_OPTIONS", Label: "대안 제시",
		Instruction: "가능한 대안이나 선택지를 나열한다.",
		LengthHint:  "1-3문장",
	}
	sectionPolicy = Section{
		ID: "S7_POLICY", Label: "방침 설명",
		Instruction: "결정의 근거가 되는 방침이나 제약을 설명한다.",
		LengthHint:  "1-2문장",
	}
	sectionClosing = Section{
		ID: "S8_CLOSING", Label: "맺음말",
		Instruction: "마무리 인사와 다음 연락 경로를 덧붙인다.",
		LengthHint:  "1문장",
		ExpressionPool: []string{"감사합니다", "확인 부탁드립니다", "편하실 때 회신 주세요"},
	}
)

// registry is the fixed set of templates the Selector scores against.
// T01_GENERAL is the fallback the Selector defaults to when nothing else
// scores above zero.
var registry = []Template{
	{ID: "T01_GENERAL", Name: "일반 업무 메시지", Sections: []Section{sectionGreeting, sectionFacts, sectionClosing}},
	{ID: "T02_REQUEST", Name: "요청/부탁", Sections: []Section{sectionGreeting, sectionAcknowledge, sectionFacts, sectionRequest, sectionOurEffort, sectionClosing}},
	{ID: "T03_APOLOGY", Name: "사과/사고 보고", Sections: []Section{sectionGreeting, sectionResponsibility, sectionFacts, sectionOurEffort, sectionOptions, sectionClosing}},
	{ID: "T04_REJECTION", Name: "거절", Sections: []Section{sectionGreeting, sectionAcknowledge, sectionFacts, sectionPolicy, sectionOurEffort, sectionClosing}},
	{ID: "T05_COMPLAINT_RESPONSE", Name: "불만 대응", Sections: []Section{sectionGreeting, sectionAcknowledge, sectionResponsibility, sectionFacts, sectionOurEffort, sectionOptions, sectionClosing}},
	{ID: "T06_REPORT", Name: "보고", Sections: []Section{sectionGreeting, sectionFacts, sectionRequest, sectionClosing}},
	{ID: "T07_NOTICE", Name: "공지", Sections: []Section{sectionGreeting, sectionFacts, sectionPolicy, sectionClosing}},
	{ID: "T08_FOLLOW_UP", Name: "후속 확인", Sections: []Section{sectionGreeting, sectionFacts, sectionRequest, sectionClosing}},
}

func findTemplate(id string) Template {
	for _, t := range registry {
		if t.ID == id {
			return t
		}
	}
	return registry[0]
}

// LabelStats summarizes the labeler output the Selector scores against.
type LabelStats struct {
	GreenCount           int
	YellowCount          int
	RedCount             int
	HasAccountability    bool
	HasNegativeFeedback  bool
	HasEmotional         bool
	HasSelfJustification bool
	HasAggression        bool
}

// Input is the Selector's full parameter set; it is a pure function of
// this value, with no hidden state, so the same Input always yields the
// same Selection.
type Input struct {
	Persona      types.Persona
	Contexts     []types.ContextTag
	Topic        string
	Purpose      string
	Stats        LabelStats
	MaskedTextLen int
}

// Selection is the Selector's output: the chosen template plus the
// persona-adjusted section plan.
type Selection struct {
	Template          Template
	EffectiveSections []EffectiveSection
}

// score applies the fixed rule table: each context contributes points
// toward its natural template, label statistics add situational weight.
// Authored fresh — see package doc and DESIGN.md for why no reference
// scoring table was available to ground this against.
func score(t Template, in Input) int {
	s := 0
	for _, c := range in.Contexts {
		switch {
		case c == types.ContextRequest && t.ID == "T02_REQUEST":
			s += 10
		case c == types.ContextApology && t.ID == "T03_APOLOGY":
			s += 10
		case c == types.ContextRejection && t.ID == "T04_REJECTION":
			s += 10
		case c == types.ContextComplaint && t.ID == "T05_COMPLAINT_RESPONSE":
			s += 10
		case c == types.ContextReport && t.ID == "T06_REPORT":
			s += 10
		case c == types.ContextNotice && t.ID == "T07_NOTICE":
			s += 10
		case c == types.ContextFollowUp && t.ID == "T08_FOLLOW_UP":
			s += 10
		}
	}

	if in.Stats.HasAccountability && (t.ID == "T03_APOLOGY" || t.ID == "T05_COMPLAINT_RESPONSE") {
		s += 4
	}
	if in.Stats.HasNegativeFeedback && t.ID == "T05_COMPLAINT_RESPONSE" {
		s += 3
	}
	if in.Stats.HasSelfJustification && t.ID == "T04_REJECTION" {
		s += 2
	}
	if in.Stats.RedCount > 0 && (t.ID == "T03_APOLOGY" || t.ID == "T05_COMPLAINT_RESPONSE") {
		s += 2
	}
	if t.ID == "T01_GENERAL" {
		s += 1 // small baseline so the fallback always has a non-zero floor
	}
	return s
}

// Select scores every template in the registry and returns the
// highest-scoring one, with persona-adjusted effective sections. A tie
// goes to the template listed first in the registry; T01_GENERAL, listed
// first with its baseline score, wins when no other template scores
// above that baseline.
func Select(in Input) Selection {
	best := registry[0]
	bestScore := -1
	for _, t := range registry {
		sc := score(t, in)
		if sc > bestScore {
			bestScore = sc
			best = t
		}
	}
	return Selection{
		Template:          best,
		EffectiveSections: applySectionSkipRule(best, in.Persona, in.Stats),
	}
}

// applySectionSkipRule is the persona-specific SectionSkipRule: high
// formality personas get S2_OUR_EFFORT expanded and S0_GREETING
// shortened; low-formality personas (PARENT) skip S2_OUR_EFFORT
// entirely; everyone keeps S4_RESPONSIBILITY only when accountability or
// negative feedback was actually detected.
func applySectionSkipRule(t Template, persona types.Persona, stats LabelStats) []EffectiveSection {
	var out []EffectiveSection
	for _, sec := range t.Sections {
		if sec.ID == "S4_RESPONSIBILITY" && !stats.HasAccountability && !stats.HasNegativeFeedback {
			continue
		}
		if sec.ID == "S2_OUR_EFFORT" && persona == types.PersonaParent {
			continue
		}

		mark := MarkNormal
		switch {
		case sec.ID == "S2_OUR_EFFORT" && persona.HighFormality():
			mark = MarkExpand
		case sec.ID == "S0_GREETING" && persona.HighFormality():
			mark = MarkShorten
		}
		out = append(out, EffectiveSection{Section: sec, Mark: mark})
	}
	return out
}

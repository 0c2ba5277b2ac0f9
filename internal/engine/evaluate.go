package engine

import (
	"reflect"
	"time"

	"aeroform-backend/internal/forms"
)

// MaxCascadePasses bounds re-evaluation when calculate actions feed each
// other. Hitting the cap is an authoring defect, not a runtime failure:
// evaluation stops and the last computed state is returned.
const MaxCascadePasses = 10

// ElementState is the derived render state for one field or section.
type ElementState struct {
	Visible  bool `json:"visible"`
	Required bool `json:"required"`
}

// Result is the output of one evaluation pass over a form.
type Result struct {
	Fields        map[string]ElementState `json:"fields"`
	Sections      map[string]ElementState `json:"sections"`
	Answers       AnswerMap               `json:"answers"`
	JumpTo        string                  `json:"jump_to,omitempty"`
	CascadeCapped bool                    `json:"-"`
}

// Evaluator derives visibility, requiredness and calculated values from
// a form definition and a live answer map. It is synchronous and holds
// no per-session state; concurrent sessions share one instance.
type Evaluator struct {
	expr *ExprEvaluator
	now  func() time.Time
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		expr: NewExprEvaluator(),
		now:  time.Now,
	}
}

// Evaluate runs calculations to a fixed point (bounded by
// MaxCascadePasses) and resolves the state of every field and section.
// The answer map is updated in place with calculated values.
func (e *Evaluator) Evaluate(form *forms.Form, answers AnswerMap) *Result {
	if answers == nil {
		answers = AnswerMap{}
	}

	res := &Result{
		Fields:   make(map[string]ElementState, form.FieldCount()),
		Sections: make(map[string]ElementState, len(form.Sections)),
		Answers:  answers,
	}

	res.CascadeCapped = e.runCascade(form, answers)

	for si := range form.Sections {
		sec := &form.Sections[si]
		secVisible := e.elementVisible(form, answers, sec.ID)
		res.Sections[sec.ID] = ElementState{Visible: secVisible}

		for fi := range sec.Fields {
			field := &sec.Fields[fi]
			res.Fields[field.ID] = ElementState{
				Visible:  secVisible && e.elementVisible(form, answers, field.ID),
				Required: e.fieldRequired(form, answers, field),
			}
		}
	}

	return res
}

// EvaluateChange is Evaluate plus navigation intent: jump_to rules that
// reference the just-changed field and currently hold request a section
// change, which the host applies.
func (e *Evaluator) EvaluateChange(form *forms.Form, answers AnswerMap, changedField string) *Result {
	res := e.Evaluate(form, answers)

	for _, rule := range form.RulesTriggeredBy(changedField) {
		if rule.Then.Kind != forms.ActionJumpTo {
			continue
		}
		if EvaluatePredicate(rule.When, answers) {
			res.JumpTo = rule.Then.Target
			break
		}
	}

	return res
}

// runCascade applies calculate rules until no answer changes or the pass
// cap is hit. Returns true when the cap was hit.
func (e *Evaluator) runCascade(form *forms.Form, answers AnswerMap) bool {
	for pass := 0; pass < MaxCascadePasses; pass++ {
		if !e.runCalculations(form, answers) {
			return false
		}
	}
	return true
}

// runCalculations executes every calculate rule whose predicate holds.
// Returns true if any answer changed.
func (e *Evaluator) runCalculations(form *forms.Form, answers AnswerMap) bool {
	changed := false
	for _, rule := range form.AllRules() {
		if rule.Then.Kind != forms.ActionCalculate {
			continue
		}
		if !EvaluatePredicate(rule.When, answers) {
			continue
		}
		val := e.calculate(rule.Then.Value, answers)
		if !reflect.DeepEqual(answers[rule.Then.Target], val) {
			answers[rule.Then.Target] = val
			changed = true
		}
	}
	return changed
}

// elementVisible resolves visibility for a field or section id.
// An element with no rules is visible. Every hide rule's predicate must
// be false AND every show rule's predicate must be true.
func (e *Evaluator) elementVisible(form *forms.Form, answers AnswerMap, id string) bool {
	for _, rule := range form.RulesTargeting(forms.ActionHide, id) {
		if EvaluatePredicate(rule.When, answers) {
			return false
		}
	}
	for _, rule := range form.RulesTargeting(forms.ActionShow, id) {
		if !EvaluatePredicate(rule.When, answers) {
			return false
		}
	}
	return true
}

// fieldRequired resolves effective requiredness. When require rules
// target the field their conjunction governs; otherwise the static flag.
func (e *Evaluator) fieldRequired(form *forms.Form, answers AnswerMap, field *forms.Field) bool {
	rules := form.RulesTargeting(forms.ActionRequire, field.ID)
	if len(rules) == 0 {
		return field.Required
	}
	for _, rule := range rules {
		if !EvaluatePredicate(rule.When, answers) {
			return false
		}
	}
	return true
}

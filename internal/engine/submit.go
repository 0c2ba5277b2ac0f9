package engine

import (
	"fmt"

	"aeroform-backend/internal/forms"
)

// CheckRequired recomputes effective visibility and requiredness over
// the final answer map and returns one violation per visible, required,
// unanswered field. It runs server-side at submission time: client
// state may be stale or tampered, and the evaluator is cheap to re-run.
func (e *Evaluator) CheckRequired(form *forms.Form, answers AnswerMap) []ErrorDetail {
	res := e.Evaluate(form, answers)

	var details []ErrorDetail
	for si := range form.Sections {
		sec := &form.Sections[si]
		for fi := range sec.Fields {
			field := &sec.Fields[fi]
			state := res.Fields[field.ID]
			if !state.Visible || !state.Required {
				continue
			}
			if IsEmptyValue(res.Answers[field.ID]) {
				details = append(details, ErrorDetail{
					Field:   field.ID,
					Rule:    "required",
					Message: fmt.Sprintf("%s is required", field.Label),
				})
			}
		}
	}
	return details
}

package engine

import (
	"strings"

	"aeroform-backend/internal/forms"
)

// EvaluatePredicate applies a rule's condition to the current answers.
// It is total: unresolved field references behave as an empty answer,
// non-numeric comparisons evaluate false, and unknown operators never
// trigger. A respondent must never see a crash caused by an authoring
// mistake in the conditional logic.
func EvaluatePredicate(cond forms.Condition, answers AnswerMap) bool {
	current := answers[cond.FieldID]

	switch cond.Operator {
	case forms.OpIs:
		return coerceString(current) == coerceString(cond.Value)

	case forms.OpIsNot:
		return coerceString(current) != coerceString(cond.Value)

	case forms.OpIsEmpty:
		return IsEmptyValue(current)

	case forms.OpIsNotEmpty:
		return !IsEmptyValue(current)

	case forms.OpContains:
		return valueContains(current, cond.Value)

	case forms.OpDoesNotContain:
		return !valueContains(current, cond.Value)

	case forms.OpGreaterThan:
		cur, ok1 := coerceFloat(current)
		ref, ok2 := coerceFloat(cond.Value)
		return ok1 && ok2 && cur > ref

	case forms.OpLessThan:
		cur, ok1 := coerceFloat(current)
		ref, ok2 := coerceFloat(cond.Value)
		return ok1 && ok2 && cur < ref
	}

	return false
}

// valueContains is a substring test for scalar answers and a membership
// test for multi-select (array) answers.
func valueContains(current, ref any) bool {
	want := coerceString(ref)
	if arr, ok := asStrings(current); ok {
		for _, item := range arr {
			if item == want {
				return true
			}
		}
		return false
	}
	return strings.Contains(coerceString(current), want)
}

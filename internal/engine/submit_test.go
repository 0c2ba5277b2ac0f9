package engine

import (
	"testing"

	"aeroform-backend/internal/forms"
)

func TestCheckRequired_MissingAnswer(t *testing.T) {
	e := NewEvaluator()
	form := licenseForm()

	details := e.CheckRequired(form, AnswerMap{})
	if len(details) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(details), details)
	}
	if details[0].Field != "is_pilot" {
		t.Fatalf("expected violation on is_pilot, got %s", details[0].Field)
	}
	if details[0].Rule != "required" {
		t.Fatalf("expected rule=required, got %s", details[0].Rule)
	}
	if details[0].Message == "" {
		t.Fatal("expected a human-readable message")
	}
}

func TestCheckRequired_ConditionallyRequiredField(t *testing.T) {
	e := NewEvaluator()
	form := licenseForm()

	// Pilot without a license number: two-field form, one violation
	details := e.CheckRequired(form, AnswerMap{"is_pilot": "yes"})
	if len(details) != 1 || details[0].Field != "license_no" {
		t.Fatalf("expected license_no violation, got %v", details)
	}

	// Pilot with a license number: clean
	details = e.CheckRequired(form, AnswerMap{"is_pilot": "yes", "license_no": "FAA-1234"})
	if len(details) != 0 {
		t.Fatalf("expected no violations, got %v", details)
	}

	// Not a pilot: license field hidden, its requiredness is moot
	details = e.CheckRequired(form, AnswerMap{"is_pilot": "no"})
	if len(details) != 0 {
		t.Fatalf("expected no violations for hidden field, got %v", details)
	}
}

func TestCheckRequired_SkipsFieldsInHiddenSections(t *testing.T) {
	form := &forms.Form{
		ID: "f",
		Sections: []forms.Section{
			{ID: "s1", Fields: []forms.Field{
				{ID: "has_drone", Label: "Own a drone?", Type: forms.FieldRadio, Required: true, Options: forms.OptionList{"yes", "no"}},
			}, Rules: []forms.ConditionalRule{
				{
					When: forms.Condition{FieldID: "has_drone", Operator: forms.OpIs, Value: "no"},
					Then: forms.Action{Kind: forms.ActionHide, Target: "s2"},
				},
			}},
			{ID: "s2", Fields: []forms.Field{
				{ID: "model", Label: "Model", Type: forms.FieldText, Required: true},
			}},
		},
	}
	e := NewEvaluator()

	details := e.CheckRequired(form, AnswerMap{"has_drone": "no"})
	if len(details) != 0 {
		t.Fatalf("hidden section must not produce violations, got %v", details)
	}

	details = e.CheckRequired(form, AnswerMap{"has_drone": "yes"})
	if len(details) != 1 || details[0].Field != "model" {
		t.Fatalf("expected model violation when section visible, got %v", details)
	}
}

func TestCheckRequired_EmptySelectionCounts(t *testing.T) {
	form := &forms.Form{
		ID: "f",
		Sections: []forms.Section{
			{ID: "s1", Fields: []forms.Field{
				{ID: "interests", Label: "Interests", Type: forms.FieldMultiSelect, Required: true, Options: forms.OptionList{"fpv", "photo"}},
			}},
		},
	}
	e := NewEvaluator()

	details := e.CheckRequired(form, AnswerMap{"interests": []any{}})
	if len(details) != 1 {
		t.Fatalf("empty selection must violate required, got %v", details)
	}

	details = e.CheckRequired(form, AnswerMap{"interests": []any{"fpv"}})
	if len(details) != 0 {
		t.Fatalf("expected no violations, got %v", details)
	}
}

func TestCheckRequired_CalculatedAnswerSatisfiesRequired(t *testing.T) {
	// The cascade runs before the check, so a calculated value fills the
	// required field.
	form := &forms.Form{
		ID: "f",
		Sections: []forms.Section{
			{ID: "s1", Fields: []forms.Field{
				{ID: "a", Label: "A", Type: forms.FieldNumber},
				{ID: "total", Label: "Total", Type: forms.FieldNumber, Required: true},
			}, Rules: []forms.ConditionalRule{
				{
					When: forms.Condition{FieldID: "a", Operator: forms.OpIsNotEmpty},
					Then: forms.Action{Kind: forms.ActionCalculate, Target: "total", Value: "sum(a)"},
				},
			}},
		},
	}

	details := NewEvaluator().CheckRequired(form, AnswerMap{"a": float64(5)})
	if len(details) != 0 {
		t.Fatalf("expected calculated value to satisfy required, got %v", details)
	}
}

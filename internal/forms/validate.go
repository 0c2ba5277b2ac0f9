package forms

import "fmt"

// Issue is a single definition-time validation problem, reported back to
// the builder UI. These are expected, recoverable authoring mistakes,
// not errors that propagate.
type Issue struct {
	Path    string `json:"path"` // "section[0].field[2]" style locator
	Code    string `json:"code"` // "missing_label", "missing_options", ...
	Message string `json:"message"`
}

// Validate checks a form definition before it can be saved. It returns
// every issue found, or nil when the definition is saveable.
func Validate(f *Form) []Issue {
	var issues []Issue

	if f.Title == "" {
		issues = append(issues, Issue{
			Path: "form", Code: "missing_title",
			Message: "Form must have a title",
		})
	}

	if f.FieldCount() == 0 {
		issues = append(issues, Issue{
			Path: "form", Code: "empty_form",
			Message: "Form must have at least one field",
		})
	}

	for si := range f.Sections {
		sec := &f.Sections[si]
		for fi := range sec.Fields {
			field := &sec.Fields[fi]
			path := fmt.Sprintf("section[%d].field[%d]", si, fi)

			if field.Label == "" {
				issues = append(issues, Issue{
					Path: path, Code: "missing_label",
					Message: "Field must have a label",
				})
			}
			if field.Type.IsChoice() && len(nonEmptyOptions(field.Options)) == 0 {
				issues = append(issues, Issue{
					Path: path, Code: "missing_options",
					Message: fmt.Sprintf("Field %q needs at least one option", field.Label),
				})
			}
		}

		for ri, rule := range sec.Rules {
			path := fmt.Sprintf("section[%d].rule[%d]", si, ri)

			if !rule.When.Operator.Valid() {
				issues = append(issues, Issue{
					Path: path, Code: "unknown_operator",
					Message: fmt.Sprintf("Unknown operator %q", rule.When.Operator),
				})
			}
			if !rule.Then.Kind.Valid() {
				issues = append(issues, Issue{
					Path: path, Code: "unknown_action",
					Message: fmt.Sprintf("Unknown action %q", rule.Then.Kind),
				})
			}
			if f.FieldByID(rule.When.FieldID) == nil {
				issues = append(issues, Issue{
					Path: path, Code: "dangling_condition",
					Message: fmt.Sprintf("Condition references unknown field %q", rule.When.FieldID),
				})
			}
			if rule.Then.Kind.Valid() && !ruleTargetResolves(f, rule.Then) {
				issues = append(issues, Issue{
					Path: path, Code: "dangling_target",
					Message: fmt.Sprintf("Action targets unknown field or section %q", rule.Then.Target),
				})
			}
		}
	}

	return issues
}

// ruleTargetResolves checks that an action's target exists. jump_to must
// name a section; the other kinds may target either a field or a section.
func ruleTargetResolves(f *Form, a Action) bool {
	if a.Kind == ActionJumpTo {
		return f.SectionByID(a.Target) != nil
	}
	return f.FieldByID(a.Target) != nil || f.SectionByID(a.Target) != nil
}

func nonEmptyOptions(opts OptionList) []string {
	var out []string
	for _, o := range opts {
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

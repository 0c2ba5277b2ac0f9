package forms

import (
	"encoding/json"
	"strings"
)

// Operator is the predicate comparison applied between a field's current
// answer and the rule's value.
type Operator string

const (
	OpIs             Operator = "is"
	OpIsNot          Operator = "is_not"
	OpContains       Operator = "contains"
	OpDoesNotContain Operator = "does_not_contain"
	OpIsEmpty        Operator = "is_empty"
	OpIsNotEmpty     Operator = "is_not_empty"
	OpGreaterThan    Operator = "greater_than"
	OpLessThan       Operator = "less_than"
)

// operatorAliases maps vocabulary used by older builder payloads onto
// the canonical operator names.
var operatorAliases = map[string]Operator{
	"equals":       OpIs,
	"equal":        OpIs,
	"not_equals":   OpIsNot,
	"not_equal":    OpIsNot,
	"empty":        OpIsEmpty,
	"not_empty":    OpIsNotEmpty,
	"gt":           OpGreaterThan,
	"lt":           OpLessThan,
	"not_contains": OpDoesNotContain,
}

func (o *Operator) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if canonical, ok := operatorAliases[s]; ok {
		*o = canonical
		return nil
	}
	*o = Operator(s)
	return nil
}

// Valid reports whether the operator is one of the canonical set.
func (o Operator) Valid() bool {
	switch o {
	case OpIs, OpIsNot, OpContains, OpDoesNotContain,
		OpIsEmpty, OpIsNotEmpty, OpGreaterThan, OpLessThan:
		return true
	}
	return false
}

// ActionKind is what a rule does when its predicate holds.
type ActionKind string

const (
	ActionShow      ActionKind = "show"
	ActionHide      ActionKind = "hide"
	ActionRequire   ActionKind = "require"
	ActionJumpTo    ActionKind = "jump_to"
	ActionCalculate ActionKind = "calculate"
)

// actionAliases maps the vocabularies of the older builder variants
// (SHOW_BLOCKS, JUMP_TO_PAGE, ...) onto the canonical kinds.
var actionAliases = map[string]ActionKind{
	"show_blocks":  ActionShow,
	"hide_blocks":  ActionHide,
	"jump_to_page": ActionJumpTo,
	"goto":         ActionJumpTo,
	"compute":      ActionCalculate,
}

func (a *ActionKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if canonical, ok := actionAliases[s]; ok {
		*a = canonical
		return nil
	}
	*a = ActionKind(s)
	return nil
}

// Valid reports whether the kind is one of the canonical set.
func (a ActionKind) Valid() bool {
	switch a {
	case ActionShow, ActionHide, ActionRequire, ActionJumpTo, ActionCalculate:
		return true
	}
	return false
}

// Condition is the "when" half of a rule: compare the current answer of
// FieldID against Value using Operator.
type Condition struct {
	FieldID  string   `json:"field_id"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Action is the "then" half of a rule. Target is a field id for
// show/hide/require/calculate, or a section id for jump_to (and for
// section-level show/hide). Value carries the calculate expression.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Target string     `json:"target"`
	Value  string     `json:"value,omitempty"`
}

// ConditionalRule is a single "when X then Y" statement.
type ConditionalRule struct {
	When Condition `json:"when"`
	Then Action    `json:"then"`
}

// OptionList is the choice list for select-type fields. Definitions
// written by older builders stored it either as a JSON string array or
// as one comma-separated string; both decode into the array form.
type OptionList []string

func (o *OptionList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*o = arr
		return nil
	}

	var csv string
	if err := json.Unmarshal(data, &csv); err != nil {
		return err
	}
	var parts []string
	for _, p := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	*o = parts
	return nil
}

func (o OptionList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(o))
}

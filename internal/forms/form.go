package forms

// FieldType is the closed set of input types a field can take.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldEmail       FieldType = "email"
	FieldPhone       FieldType = "phone"
	FieldNumber      FieldType = "number"
	FieldDate        FieldType = "date"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
	FieldCheckbox    FieldType = "checkbox"
	FieldRadio       FieldType = "radio"
	FieldFile        FieldType = "file"
)

// IsChoice returns true for field types that present a fixed option list.
func (t FieldType) IsChoice() bool {
	switch t {
	case FieldSelect, FieldMultiSelect, FieldCheckbox, FieldRadio:
		return true
	}
	return false
}

type Field struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Type     FieldType  `json:"type"`
	Required bool       `json:"required,omitempty"`
	Options  OptionList `json:"options,omitempty"`
}

type Section struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Fields      []Field           `json:"fields"`
	Rules       []ConditionalRule `json:"rules,omitempty"`
}

// Form is the persisted aggregate: ordered sections of ordered fields,
// plus the conditional rules scoped to each section.
type Form struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	AllowSubmissions bool      `json:"allow_submissions"`
	Sections         []Section `json:"sections"`
	OwnerID          string    `json:"owner_id,omitempty"`
}

// FieldByID returns a pointer to the field with the given id, searching
// all sections, or nil.
func (f *Form) FieldByID(id string) *Field {
	for si := range f.Sections {
		for fi := range f.Sections[si].Fields {
			if f.Sections[si].Fields[fi].ID == id {
				return &f.Sections[si].Fields[fi]
			}
		}
	}
	return nil
}

// SectionByID returns a pointer to the section with the given id, or nil.
func (f *Form) SectionByID(id string) *Section {
	for i := range f.Sections {
		if f.Sections[i].ID == id {
			return &f.Sections[i]
		}
	}
	return nil
}

// SectionOf returns the section containing the field with the given id, or nil.
func (f *Form) SectionOf(fieldID string) *Section {
	for i := range f.Sections {
		for fi := range f.Sections[i].Fields {
			if f.Sections[i].Fields[fi].ID == fieldID {
				return &f.Sections[i]
			}
		}
	}
	return nil
}

// AllRules returns every rule across all sections, in section order.
func (f *Form) AllRules() []ConditionalRule {
	var rules []ConditionalRule
	for i := range f.Sections {
		rules = append(rules, f.Sections[i].Rules...)
	}
	return rules
}

// RulesTargeting returns all rules of the given kind whose action targets
// the given field or section id.
func (f *Form) RulesTargeting(kind ActionKind, targetID string) []ConditionalRule {
	var rules []ConditionalRule
	for i := range f.Sections {
		for _, r := range f.Sections[i].Rules {
			if r.Then.Kind == kind && r.Then.Target == targetID {
				rules = append(rules, r)
			}
		}
	}
	return rules
}

// RulesTriggeredBy returns all rules whose predicate references the given
// field id.
func (f *Form) RulesTriggeredBy(fieldID string) []ConditionalRule {
	var rules []ConditionalRule
	for i := range f.Sections {
		for _, r := range f.Sections[i].Rules {
			if r.When.FieldID == fieldID {
				rules = append(rules, r)
			}
		}
	}
	return rules
}

// FieldCount returns the total number of fields across all sections.
func (f *Form) FieldCount() int {
	n := 0
	for i := range f.Sections {
		n += len(f.Sections[i].Fields)
	}
	return n
}

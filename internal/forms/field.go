package forms

import "github.com/wolfman30/campusride/internal/validation"

// Style classes toggled on a field and its error element.
const (
	ClassFieldErrored = "border-red-500"
	ClassFieldNormal  = "border-gray-300"
	ClassErrorShown   = "error-message show"
	ClassErrorHidden  = "error-message hidden"
)

// FieldSpec describes one input of a form schema.
type FieldSpec struct {
	Name        string
	Label       string
	Kind        validation.Kind
	Required    bool
	Placeholder string
	// Options lists select choices, or the checkbox values of a group.
	Options []Option
	// Group marks a checkbox group collected as a list of checked values.
	Group bool
}

// Option is a select choice or a checkbox in a group.
type Option struct {
	Value string
	Label string
}

// FieldState is a rendered field: its current value plus error presentation.
type FieldState struct {
	FieldSpec
	Value  string
	Values []string

	ErrorText    string
	ErrorVisible bool
	Errored      bool
}

// Checked reports whether a single checkbox was ticked, or a group has any value.
func (f FieldState) Checked() bool {
	if f.Group {
		return len(f.Values) > 0
	}
	return f.Value != ""
}

// Has reports whether value is among the checked values of a group.
func (f FieldState) Has(value string) bool {
	for _, v := range f.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Input converts the state to the validator's field view.
func (f FieldState) Input() validation.Field {
	return validation.Field{
		Name:     f.Name,
		Kind:     f.Kind,
		Value:    f.Value,
		Required: f.Required,
	}
}

// Class is the style class of the input element.
func (f FieldState) Class() string {
	if f.Errored {
		return ClassFieldErrored
	}
	return ClassFieldNormal
}

// ErrorClass is the style class of the adjacent error element.
func (f FieldState) ErrorClass() string {
	if f.ErrorVisible {
		return ClassErrorShown
	}
	return ClassErrorHidden
}

// Present shows or hides the field's error according to v.
func Present(f *FieldState, v validation.Verdict) {
	if v.Valid {
		Clear(f)
		return
	}
	f.ErrorText = v.Message
	f.ErrorVisible = true
	f.Errored = true
}

// Clear hides the field's error and resets its style. Used while the user is typing.
func Clear(f *FieldState) {
	f.ErrorVisible = false
	f.Errored = false
}

// Package forms models the booking forms: their fields, error presentation,
// submit control state and form-level validation.
package forms

import (
	"errors"
	"net/url"
	"strings"
	"sync"
)

// ErrBusy is returned when a submission starts while the form is already submitting.
var ErrBusy = errors.New("forms: submission already in progress")

// SubmitControl is the state of a form's submit button.
type SubmitControl struct {
	Label    string
	Disabled bool
	Busy     bool
}

// Class is the style class of the submit button.
func (c SubmitControl) Class() string {
	if c.Busy {
		return "loading"
	}
	return ""
}

// Form is a live instance of a schema. A pipeline continuation may reset it
// while the caller still reads it, so every accessor takes the form's mutex.
// Render from Snapshot.
type Form struct {
	Schema *Schema

	mu          sync.Mutex
	fields      []*FieldState
	notice      string
	groupErrors map[string]string
	submit      SubmitControl
	success     bool
	scrollTo    string
}

// View is an immutable copy of a form's state for rendering and assertions.
type View struct {
	Kind           Kind
	ID             string
	SuccessID      string
	Fields         []FieldState
	Notice         string
	GroupErrors    map[string]string
	Submit         SubmitControl
	SuccessVisible bool
	ScrollTarget   string
}

// Field returns the view of the named field, if present.
func (v View) Field(name string) (FieldState, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldState{}, false
}

// Snapshot copies the current state.
func (f *Form) Snapshot() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	fields := make([]FieldState, len(f.fields))
	for i, fs := range f.fields {
		fields[i] = *fs
		fields[i].Values = append([]string(nil), fs.Values...)
	}
	groupErrors := make(map[string]string, len(f.groupErrors))
	for k, v := range f.groupErrors {
		groupErrors[k] = v
	}
	return View{
		Kind:           f.Schema.Kind,
		ID:             f.Schema.ID,
		SuccessID:      f.Schema.SuccessID,
		Fields:         fields,
		Notice:         f.notice,
		GroupErrors:    groupErrors,
		Submit:         f.submit,
		SuccessVisible: f.success,
		ScrollTarget:   f.scrollTo,
	}
}

// Field returns the live state of the named field. The pointer bypasses the
// form's lock, so only the goroutine that owns the form may write through it.
func (f *Form) Field(name string) *FieldState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.field(name)
}

func (f *Form) field(name string) *FieldState {
	for _, fs := range f.fields {
		if fs.Name == name {
			return fs
		}
	}
	return nil
}

// Value returns the trimmed scalar value of the named field.
func (f *Form) Value(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fs := f.field(name); fs != nil {
		return strings.TrimSpace(fs.Value)
	}
	return ""
}

// Values returns the checked values of a checkbox group.
func (f *Form) Values(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fs := f.field(name); fs != nil {
		return append([]string(nil), fs.Values...)
	}
	return nil
}

// Checked reports whether the named checkbox is ticked.
func (f *Form) Checked(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checked(name)
}

func (f *Form) checked(name string) bool {
	if fs := f.field(name); fs != nil {
		return fs.Checked()
	}
	return false
}

// Set assigns a scalar value, clearing any stale error like an input event does.
func (f *Form) Set(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fs := f.field(name); fs != nil {
		fs.Value = value
		Clear(fs)
	}
}

// Bind fills the form from submitted values. Unknown keys are ignored.
func (f *Form) Bind(values url.Values) *Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fs := range f.fields {
		if fs.Group {
			fs.Values = append([]string(nil), values[fs.Name]...)
			continue
		}
		fs.Value = values.Get(fs.Name)
	}
	return f
}

// BeginSubmit enters the busy state: submit disabled, in-progress label, busy class.
func (f *Form) BeginSubmit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submit.Busy {
		return ErrBusy
	}
	f.success = false
	f.submit = SubmitControl{Label: f.Schema.BusyLabel, Disabled: true, Busy: true}
	return nil
}

// AbortSubmit leaves the busy state without acknowledging success.
func (f *Form) AbortSubmit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submit = SubmitControl{Label: f.Schema.IdleLabel}
}

// CompleteSubmit leaves the busy state, reveals the success notice, resets every
// field and scrolls to the notice.
func (f *Form) CompleteSubmit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submit = SubmitControl{Label: f.Schema.IdleLabel}
	f.success = true
	f.scrollTo = f.Schema.SuccessID
	f.notice = ""
	for _, fs := range f.fields {
		fs.Value = ""
		fs.Values = nil
	}
}

// setNotice and setGroupError expect f.mu to be held.
func (f *Form) setNotice(notice string) {
	f.notice = notice
}

func (f *Form) setGroupError(group, message string) {
	if message == "" {
		delete(f.groupErrors, group)
		return
	}
	f.groupErrors[group] = message
}

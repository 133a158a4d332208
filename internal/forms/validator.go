package forms

import "github.com/wolfman30/campusride/internal/validation"

// Result is the outcome of validating a whole form.
type Result struct {
	Valid bool
	// Failed lists the names of failing fields, groups and agreements in form order.
	Failed []string
}

// Validator checks every required field of a form plus its form-level constraints.
type Validator struct {
	fields *validation.Validator
}

// NewValidator builds a form validator on top of a field validator.
func NewValidator(fields *validation.Validator) *Validator {
	if fields == nil {
		fields = validation.New(nil)
	}
	return &Validator{fields: fields}
}

// Field validates a single field and presents the verdict on it.
func (v *Validator) Field(fs *FieldState) validation.Verdict {
	verdict := v.fields.Validate(fs.Input())
	Present(fs, verdict)
	return verdict
}

// Validate runs every check without short-circuiting so all errors render.
func (v *Validator) Validate(f *Form) Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := Result{Valid: true}
	fail := func(name string) {
		res.Valid = false
		res.Failed = append(res.Failed, name)
	}

	for _, fs := range f.fields {
		if !fs.Required || fs.Kind == validation.KindCheckbox {
			continue
		}
		if !v.Field(fs).Valid {
			fail(fs.Name)
		}
	}

	s := f.Schema
	if s.Group != "" {
		if f.checked(s.Group) {
			f.setGroupError(s.Group, "")
		} else {
			f.setGroupError(s.Group, s.GroupMessage)
			fail(s.Group)
		}
	}

	agreed := true
	for _, name := range s.Agreements {
		if !f.checked(name) {
			agreed = false
			fail(name)
		}
	}
	if agreed {
		f.setNotice("")
	} else {
		f.setNotice(s.AgreementNotice)
	}

	return res
}

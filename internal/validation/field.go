// Package validation implements per-field validation for the booking forms.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind is the input type of a form field.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindTel      Kind = "tel"
	KindDate     Kind = "date"
	KindTime     Kind = "time"
	KindNumber   Kind = "number"
	KindCheckbox Kind = "checkbox"
	KindSelect   Kind = "select"
	KindTextarea Kind = "textarea"
)

// Field is the validator's view of a single form input.
type Field struct {
	Name     string
	Kind     Kind
	Value    string
	Required bool
}

// Verdict is the outcome of validating one field. Message is empty when Valid.
type Verdict struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// Validation messages shown next to a field.
const (
	MsgRequired = "This field is required."
	MsgEmail    = "Please enter a valid email address."
	MsgPhone    = "Please enter a valid phone number."
	MsgDate     = "Please select a future date."
)

// MinVehicleYear is the oldest vehicle year accepted by the "year" field.
const MinVehicleYear = 2000

// DateLayout is the wire format of date inputs.
const DateLayout = "2006-01-02"

// YearFieldName is the field name that receives the vehicle year range check.
const YearFieldName = "year"

var (
	emailRX      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRX      = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	phoneStripRX = regexp.MustCompile(`[\s\-()]`)
	nonDigitRX   = regexp.MustCompile(`\D`)
)

// Validator validates fields against the current date.
type Validator struct {
	now func() time.Time
}

// New returns a Validator using now as its clock. A nil clock uses time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Validate returns the verdict for f. Rules run in order and the first failure wins.
func (v *Validator) Validate(f Field) Verdict {
	value := strings.TrimSpace(f.Value)

	if f.Required && value == "" {
		return invalid(MsgRequired)
	}
	if value == "" {
		return Verdict{Valid: true}
	}

	switch f.Kind {
	case KindEmail:
		if !emailRX.MatchString(value) {
			return invalid(MsgEmail)
		}
	case KindTel:
		if !phoneRX.MatchString(phoneStripRX.ReplaceAllString(value, "")) {
			return invalid(MsgPhone)
		}
	case KindDate:
		if !v.notBeforeToday(value) {
			return invalid(MsgDate)
		}
	}

	if f.Name == YearFieldName {
		current := v.now().Year()
		year, err := strconv.Atoi(value)
		if err != nil || year < MinVehicleYear || year > current {
			return invalid(YearMessage(current))
		}
	}

	return Verdict{Valid: true}
}

// YearMessage is the out-of-range message for the vehicle year field.
func YearMessage(currentYear int) string {
	return fmt.Sprintf("Please enter a year between %d and %d.", MinVehicleYear, currentYear)
}

// MinDate is the earliest selectable date, used as the min attribute of date inputs.
func (v *Validator) MinDate() string {
	return v.now().Format(DateLayout)
}

func (v *Validator) notBeforeToday(value string) bool {
	now := v.now()
	selected, err := time.ParseInLocation(DateLayout, value, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !selected.Before(today)
}

func invalid(message string) Verdict {
	return Verdict{Valid: false, Message: message}
}

// FormatPhone renders a 10-digit number as (xxx) xxx-xxxx and returns anything else unchanged.
func FormatPhone(phone string) string {
	digits := nonDigitRX.ReplaceAllString(phone, "")
	if len(digits) != 10 {
		return phone
	}
	return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
}

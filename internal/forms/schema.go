package forms

import "github.com/wolfman30/campusride/internal/validation"

// Kind identifies a form.
type Kind string

const (
	RideRequest        Kind = "ride-request"
	DriverRegistration Kind = "driver-registration"
)

// Form-level notices.
const (
	NoticeRideTerms        = "Please accept the Terms of Service and Privacy Policy."
	NoticeDriverAgreements = "Please check all required agreements."
	MsgAvailability        = "Please select at least one day of availability."
)

// Schema describes a form: its inputs, submit labels and form-level constraints.
type Schema struct {
	Kind      Kind
	ID        string
	SuccessID string
	IdleLabel string
	BusyLabel string
	Fields    []FieldSpec

	// Agreements are checkboxes that must all be ticked; AgreementNotice is
	// surfaced as a blocking notice otherwise.
	Agreements      []string
	AgreementNotice string

	// Group, when set, names a checkbox group that needs at least one value.
	Group        string
	GroupMessage string
}

// New returns an empty form for the schema.
func (s *Schema) New() *Form {
	fields := make([]*FieldState, len(s.Fields))
	for i, spec := range s.Fields {
		fields[i] = &FieldState{FieldSpec: spec}
	}
	return &Form{
		Schema:      s,
		fields:      fields,
		groupErrors: make(map[string]string),
		submit:      SubmitControl{Label: s.IdleLabel},
	}
}

// Spec returns the field spec with the given name.
func (s *Schema) Spec(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

var weekdays = []Option{
	{Value: "monday", Label: "Monday"},
	{Value: "tuesday", Label: "Tuesday"},
	{Value: "wednesday", Label: "Wednesday"},
	{Value: "thursday", Label: "Thursday"},
	{Value: "friday", Label: "Friday"},
	{Value: "saturday", Label: "Saturday"},
	{Value: "sunday", Label: "Sunday"},
}

func counts(n int) []Option {
	opts := make([]Option, 0, n)
	for i := 1; i <= n; i++ {
		v := string(rune('0' + i))
		opts = append(opts, Option{Value: v, Label: v})
	}
	return opts
}

// RideRequestSchema is the "request a ride" form.
var RideRequestSchema = &Schema{
	Kind:      RideRequest,
	ID:        "ride-request-form",
	SuccessID: "success-message",
	IdleLabel: "Submit Request",
	BusyLabel: "Submitting...",
	Fields: []FieldSpec{
		{Name: "fullName", Label: "Full Name", Kind: validation.KindText, Required: true},
		{Name: "email", Label: "Email", Kind: validation.KindEmail, Required: true, Placeholder: "you@university.edu"},
		{Name: "phone", Label: "Phone", Kind: validation.KindTel, Required: true},
		{Name: "pickupLocation", Label: "Pickup Location", Kind: validation.KindText, Required: true},
		{Name: "destination", Label: "Destination", Kind: validation.KindText, Required: true},
		{Name: "date", Label: "Date", Kind: validation.KindDate, Required: true},
		{Name: "time", Label: "Time", Kind: validation.KindTime, Required: true},
		{Name: "passengers", Label: "Passengers", Kind: validation.KindSelect, Required: true, Options: counts(4)},
		{Name: "notes", Label: "Additional Notes", Kind: validation.KindTextarea},
		{Name: "terms", Label: "I agree to the Terms of Service and Privacy Policy", Kind: validation.KindCheckbox},
	},
	Agreements:      []string{"terms"},
	AgreementNotice: NoticeRideTerms,
}

// DriverRegistrationSchema is the "become a driver" form.
var DriverRegistrationSchema = &Schema{
	Kind:      DriverRegistration,
	ID:        "driver-registration-form",
	SuccessID: "success-message-driver",
	IdleLabel: "Submit Application",
	BusyLabel: "Submitting Application...",
	Fields: []FieldSpec{
		{Name: "fullName", Label: "Full Name", Kind: validation.KindText, Required: true},
		{Name: "email", Label: "Email", Kind: validation.KindEmail, Required: true},
		{Name: "phone", Label: "Phone", Kind: validation.KindTel, Required: true},
		{Name: "studentId", Label: "Student ID", Kind: validation.KindText, Required: true},
		{Name: "licenseNumber", Label: "Driver's License Number", Kind: validation.KindText, Required: true},
		{Name: "make", Label: "Vehicle Make", Kind: validation.KindText, Required: true},
		{Name: "model", Label: "Vehicle Model", Kind: validation.KindText, Required: true},
		{Name: "year", Label: "Vehicle Year", Kind: validation.KindNumber, Required: true},
		{Name: "color", Label: "Vehicle Color", Kind: validation.KindText, Required: true},
		{Name: "licensePlate", Label: "License Plate", Kind: validation.KindText, Required: true},
		{Name: "seats", Label: "Available Seats", Kind: validation.KindSelect, Required: true, Options: counts(6)},
		{Name: "availability", Label: "Availability", Kind: validation.KindCheckbox, Group: true, Options: weekdays},
		{Name: "experience", Label: "Driving Experience", Kind: validation.KindTextarea},
		{Name: "terms-driver", Label: "I agree to the Driver Terms of Service", Kind: validation.KindCheckbox},
		{Name: "insurance", Label: "I confirm my vehicle is insured", Kind: validation.KindCheckbox},
		{Name: "background", Label: "I consent to a background check", Kind: validation.KindCheckbox},
	},
	Agreements:      []string{"terms-driver", "insurance", "background"},
	AgreementNotice: NoticeDriverAgreements,
	Group:           "availability",
	GroupMessage:    MsgAvailability,
}

// SchemaFor returns the schema of a form kind.
func SchemaFor(kind Kind) (*Schema, bool) {
	switch kind {
	case RideRequest:
		return RideRequestSchema, true
	case DriverRegistration:
		return DriverRegistrationSchema, true
	default:
		return nil, false
	}
}

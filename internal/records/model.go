package records

// Record statuses.
const (
	StatusPending             = "pending"
	StatusPendingVerification = "pending_verification"
)

// RideRequest is a persisted ride request submission.
type RideRequest struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	PickupLocation string `json:"pickupLocation"`
	Destination    string `json:"destination"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Passengers     string `json:"passengers"`
	Notes          string `json:"notes"`
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
}

// DriverApplication is a persisted driver registration. Keys match the form's
// field names; only the availability group is a list.
type DriverApplication struct {
	ID            string   `json:"id"`
	FullName      string   `json:"fullName"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	StudentID     string   `json:"studentId"`
	LicenseNumber string   `json:"licenseNumber"`
	Make          string   `json:"make"`
	Model         string   `json:"model"`
	Year          string   `json:"year"`
	Color         string   `json:"color"`
	LicensePlate  string   `json:"licensePlate"`
	Seats         string   `json:"seats"`
	Availability  []string `json:"availability"`
	Experience    string   `json:"experience"`
	Status        string   `json:"status"`
	Timestamp     string   `json:"timestamp"`
}

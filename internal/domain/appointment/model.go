package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Booked appointments count against the doctor's
// slots; cancelled ones free the slot for rebooking.
const (
	StatusBooked    = "booked"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is one of the three appointment statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusBooked, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// MaxNotesLength caps the free-text notes field.
const MaxNotesLength = 500

// Appointment occupies a single start-time slot for a doctor on a date.
// Date carries day granularity only; Start is a zero-padded "HH:mm" string.
type Appointment struct {
	ID           uuid.UUID `json:"id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	PatientID    uuid.UUID `json:"patient_id"`
	Date         time.Time `json:"date"`
	Start        string    `json:"start"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	ReminderSent bool      `json:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

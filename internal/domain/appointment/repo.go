package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no appointment matches the lookup.
	ErrNotFound = errors.New("appointment not found")

	// ErrSlotTaken is returned by CreateBooked when a non-cancelled
	// appointment already holds the (doctor, date, start) slot. The store's
	// partial unique index makes the check-and-insert atomic, so two
	// concurrent requests for the same slot cannot both succeed.
	ErrSlotTaken = errors.New("slot already booked")
)

type Repository interface {
	// CreateBooked inserts a new appointment with status booked. Returns
	// ErrSlotTaken when the slot uniqueness constraint fires.
	CreateBooked(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// ListByDoctor and ListByPatient return appointments ordered by date
	// ascending, then start ascending.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// ListDueReminders returns booked appointments on the given date whose
	// reminder has not yet been sent.
	ListDueReminders(ctx context.Context, date time.Time) ([]*Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

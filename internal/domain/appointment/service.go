package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/medibook/internal/domain/doctor"
	"github.com/medibook/medibook/internal/domain/identity"
	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/internal/platform/notification"
	"github.com/medibook/medibook/pkg/metrics"
)

// DoctorDirectory is the subset of the doctor repository the booking logic
// needs. The doctor package's Repository satisfies it.
type DoctorDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*doctor.Doctor, error)
}

// UserDirectory resolves an appointment's patient to an account, for the
// cancellation email. The identity package's Repository satisfies it.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// BookingRequest is a patient's request for a slot.
type BookingRequest struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	Start     string
	Notes     string
}

type Service struct {
	appointments Repository
	doctors      DoctorDirectory
	users        UserDirectory
	mailer       *notification.Mailer
	now          func() time.Time
}

func NewService(appointments Repository, doctors DoctorDirectory) *Service {
	return &Service{
		appointments: appointments,
		doctors:      doctors,
		now:          time.Now,
	}
}

// SetClock overrides the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// SetMailer enables the cancellation email. Without it cancellations are
// silent.
func (s *Service) SetMailer(users UserDirectory, mailer *notification.Mailer) {
	s.users = users
	s.mailer = mailer
}

// Book decides whether the requested slot may be created. Checks run in a
// fixed order and the first failure wins, so every rejection carries one
// specific reason. On acceptance the appointment is persisted with status
// booked and returned.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	a, err := s.book(ctx, req)
	if err != nil {
		var rej *RejectError
		if errors.As(err, &rej) {
			metrics.BookingRejections.WithLabelValues(string(rej.Code)).Inc()
		}
		return nil, err
	}
	metrics.AppointmentsBooked.Inc()
	return a, nil
}

func (s *Service) book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.Date.IsZero() {
		return nil, reject(CodeMissingDate, "appointment date is required")
	}

	// Past-time boundary: slots must be strictly in the future. A slot
	// starting at the current minute is already rejected.
	now := s.now()
	today := doctor.DateOnly(now)
	reqDay := doctor.DateOnly(req.Date)
	if reqDay.Before(today) {
		return nil, reject(CodePastTime, "cannot book an appointment in the past")
	}
	if reqDay.Equal(today) && doctor.ValidTime(req.Start) {
		nowMinutes := now.Hour()*60 + now.Minute()
		if doctor.MinutesOf(req.Start) <= nowMinutes {
			return nil, reject(CodePastTime, "cannot book a past time today; please pick a later slot")
		}
	}

	doc, err := s.doctors.GetByID(ctx, req.DoctorID)
	if errors.Is(err, doctor.ErrNotFound) {
		return nil, reject(CodeDoctorNotFound, "no doctor exists with the given id")
	}
	if err != nil {
		return nil, err
	}
	if !doc.Approved {
		return nil, reject(CodeDoctorNotApproved, "this doctor is not accepting appointments yet")
	}

	if req.Start == "" {
		return nil, reject(CodeMissingStart, "start time is required")
	}
	if !doctor.ValidTime(req.Start) {
		return nil, reject(CodeInvalidTime, "start time %q is not a valid HH:mm value", req.Start)
	}
	if len(req.Notes) > MaxNotesLength {
		return nil, reject(CodeNotesTooLong, "notes must be at most %d characters", MaxNotesLength)
	}

	if doc.OnLeave(req.Date) {
		return nil, reject(CodeDoctorOnLeave, "the doctor is on leave on this date; please pick another date")
	}

	hours, working := doc.WorkingHours(req.Date)
	if !working {
		return nil, reject(CodeNotWorkingThisDay, "the doctor does not work on %s", req.Date.Weekday())
	}
	if !hours.Within(req.Start) {
		return nil, reject(CodeOutsideHours,
			"this time cannot be booked; working hours are %s - %s", hours.Start, hours.End)
	}

	a := &Appointment{
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		Date:      reqDay,
		Start:     req.Start,
		Notes:     req.Notes,
	}
	// The store's partial unique index closes the race between two
	// concurrent requests for the same slot: exactly one insert wins.
	if err := s.appointments.CreateBooked(ctx, a); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, reject(CodeSlotTaken, "the doctor already has an appointment at this time; please pick another slot")
		}
		return nil, err
	}
	return a, nil
}

// Get returns an appointment to one of its participants.
func (s *Service) Get(ctx context.Context, id, callerUserID uuid.UUID, callerRole string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, reject(CodeNotFound, "appointment not found")
	}
	if err != nil {
		return nil, err
	}
	ok, err := s.isParticipant(ctx, a, callerUserID, callerRole)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reject(CodeForbidden, "you are not a participant of this appointment")
	}
	return a, nil
}

// Cancel transitions a booked appointment to cancelled. Only the
// appointment's patient or its doctor may cancel. Cancelling twice is an
// error, not a no-op.
func (s *Service) Cancel(ctx context.Context, id, callerUserID uuid.UUID, callerRole string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, reject(CodeNotFound, "appointment not found")
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.isParticipant(ctx, a, callerUserID, callerRole)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reject(CodeForbidden, "you are not allowed to cancel this appointment")
	}

	if a.Status == StatusCancelled {
		return nil, reject(CodeAlreadyCancelled, "this appointment has already been cancelled")
	}

	if err := s.appointments.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	metrics.AppointmentsCancelled.Inc()
	a.Status = StatusCancelled
	s.notifyCancelled(ctx, a)
	return a, nil
}

// notifyCancelled emails the patient. The cancellation itself has already
// committed; mail failure is the mailer's problem, not the caller's.
func (s *Service) notifyCancelled(ctx context.Context, a *Appointment) {
	if s.mailer == nil {
		return
	}
	patient, err := s.users.GetByID(ctx, a.PatientID)
	if err != nil {
		return
	}
	s.mailer.Send(ctx, patient.Email, "appointment-cancelled", map[string]string{
		"patient_name": patient.Name,
		"date":         a.Date.Format("2006-01-02"),
		"time":         a.Start,
	})
}

// UpdateStatus lets the owning doctor set any of the three statuses. Unlike
// patient-facing cancellation there is no terminal-state lock here: the
// doctor may move a completed appointment back to booked.
func (s *Service) UpdateStatus(ctx context.Context, id, callerUserID uuid.UUID, status string) (*Appointment, error) {
	if !ValidStatus(status) {
		return nil, reject(CodeInvalidStatus, "invalid status %q; valid values: booked, completed, cancelled", status)
	}

	a, err := s.appointments.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, reject(CodeNotFound, "appointment not found")
	}
	if err != nil {
		return nil, err
	}

	doc, err := s.doctors.GetByID(ctx, a.DoctorID)
	if errors.Is(err, doctor.ErrNotFound) {
		return nil, reject(CodeForbidden, "you are not allowed to update this appointment")
	}
	if err != nil {
		return nil, err
	}
	if doc.UserID != callerUserID {
		return nil, reject(CodeForbidden, "you are not allowed to update this appointment")
	}

	if err := s.appointments.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a.Status = status
	return a, nil
}

// ListForDoctorUser returns the appointments of the caller's doctor profile.
func (s *Service) ListForDoctorUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	doc, err := s.doctors.GetByUserID(ctx, userID)
	if errors.Is(err, doctor.ErrNotFound) {
		return nil, 0, reject(CodeNotFound, "doctor profile not found")
	}
	if err != nil {
		return nil, 0, err
	}
	return s.appointments.ListByDoctor(ctx, doc.ID, limit, offset)
}

// ListForPatient returns the caller's own appointments.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

// isParticipant reports whether the caller is the appointment's patient, or
// its doctor. Appointments reference the doctor profile id, so a doctor
// caller is resolved through their profile first.
func (s *Service) isParticipant(ctx context.Context, a *Appointment, callerUserID uuid.UUID, callerRole string) (bool, error) {
	if a.PatientID == callerUserID {
		return true, nil
	}
	if callerRole != auth.RoleDoctor {
		return false, nil
	}
	doc, err := s.doctors.GetByUserID(ctx, callerUserID)
	if errors.Is(err, doctor.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return doc.ID == a.DoctorID, nil
}

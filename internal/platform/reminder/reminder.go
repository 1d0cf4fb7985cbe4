// Package reminder runs the background job that emails patients the day
// before their appointment.
package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medibook/medibook/internal/domain/appointment"
	"github.com/medibook/medibook/internal/domain/doctor"
	"github.com/medibook/medibook/internal/domain/identity"
	"github.com/medibook/medibook/internal/platform/notification"
	"github.com/medibook/medibook/pkg/metrics"
)

// AppointmentSource yields appointments still awaiting their reminder and
// records delivery.
type AppointmentSource interface {
	ListDueReminders(ctx context.Context, date time.Time) ([]*appointment.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type DoctorDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

type Job struct {
	appointments AppointmentSource
	users        UserDirectory
	doctors      DoctorDirectory
	templates    *notification.TemplateEngine
	sender       notification.EmailSender
	logger       zerolog.Logger
	now          func() time.Time
	done         chan struct{}
}

func NewJob(
	appointments AppointmentSource,
	users UserDirectory,
	doctors DoctorDirectory,
	templates *notification.TemplateEngine,
	sender notification.EmailSender,
	logger zerolog.Logger,
) *Job {
	return &Job{
		appointments: appointments,
		users:        users,
		doctors:      doctors,
		templates:    templates,
		sender:       sender,
		logger:       logger,
		now:          time.Now,
		done:         make(chan struct{}),
	}
}

// SetClock overrides the wall clock, for tests.
func (j *Job) SetClock(now func() time.Time) { j.now = now }

// Start runs the job every interval until Stop is called. The first run
// happens after one full interval, not immediately.
func (j *Job) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-j.done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if err := j.Run(ctx); err != nil {
					j.logger.Error().Err(err).Msg("reminder run failed")
				}
				cancel()
			}
		}
	}()
}

// Stop halts the background loop. Safe to call multiple times.
func (j *Job) Stop() {
	select {
	case <-j.done:
	default:
		close(j.done)
	}
}

// Run sends reminders for every booked, not-yet-reminded appointment dated
// tomorrow. Per-appointment failures are logged and skipped; the run carries
// on so one bad address cannot starve the rest.
func (j *Job) Run(ctx context.Context) error {
	tomorrow := doctor.DateOnly(j.now()).AddDate(0, 0, 1)

	due, err := j.appointments.ListDueReminders(ctx, tomorrow)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}
	j.logger.Info().Int("due", len(due)).Str("date", tomorrow.Format("2006-01-02")).
		Msg("sending appointment reminders")

	for _, a := range due {
		if err := j.remind(ctx, a); err != nil {
			j.logger.Error().Err(err).
				Str("appointment_id", a.ID.String()).
				Msg("reminder failed")
			continue
		}
		metrics.RemindersSent.Inc()
	}
	return nil
}

func (j *Job) remind(ctx context.Context, a *appointment.Appointment) error {
	patient, err := j.users.GetByID(ctx, a.PatientID)
	if err != nil {
		return err
	}
	doc, err := j.doctors.GetByID(ctx, a.DoctorID)
	if err != nil {
		return err
	}
	docUser, err := j.users.GetByID(ctx, doc.UserID)
	if err != nil {
		return err
	}

	subject, body, err := j.templates.Render("appointment-reminder", map[string]string{
		"patient_name": patient.Name,
		"doctor_name":  docUser.Name,
		"time":         a.Start,
	})
	if err != nil {
		return err
	}
	if err := j.sender.SendEmail(ctx, patient.Email, subject, body); err != nil {
		return err
	}
	// marking last means a send failure retries next run; a duplicate email
	// is preferred over a silently missing one
	return j.appointments.MarkReminderSent(ctx, a.ID)
}

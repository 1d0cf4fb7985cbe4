package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	doctors Repository
}

func NewService(doctors Repository) *Service {
	return &Service{doctors: doctors}
}

// CreateProfile creates the doctor profile for a doctor-role user. Profiles
// start unapproved; an admin must approve them before they become bookable.
func (s *Service) CreateProfile(ctx context.Context, userID uuid.UUID, speciality string, clocks WeeklyClocks) (*Doctor, error) {
	if speciality == "" {
		return nil, fmt.Errorf("speciality is required")
	}
	if clocks == nil {
		clocks = WeeklyClocks{}
	}
	if err := clocks.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}
	if existing, err := s.doctors.GetByUserID(ctx, userID); err == nil && existing != nil {
		return nil, fmt.Errorf("doctor profile already exists")
	}

	d := &Doctor{
		UserID:     userID,
		Speciality: speciality,
		Clocks:     clocks,
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByUserID(ctx, userID)
}

// UpdateSchedule replaces the doctor's weekly working hours.
func (s *Service) UpdateSchedule(ctx context.Context, userID uuid.UUID, clocks WeeklyClocks) (*Doctor, error) {
	if err := clocks.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}
	d, err := s.doctors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.Clocks = clocks
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateSpeciality changes the doctor's speciality string.
func (s *Service) UpdateSpeciality(ctx context.Context, userID uuid.UUID, speciality string) (*Doctor, error) {
	if speciality == "" {
		return nil, fmt.Errorf("speciality is required")
	}
	d, err := s.doctors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.Speciality = speciality
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// AddLeave appends an unavailable date range on top of the weekly schedule.
func (s *Service) AddLeave(ctx context.Context, userID uuid.UUID, leave LeaveRange) (*Doctor, error) {
	if leave.StartDate.IsZero() || leave.EndDate.IsZero() {
		return nil, fmt.Errorf("start_date and end_date are required")
	}
	if DateOnly(leave.EndDate).Before(DateOnly(leave.StartDate)) {
		return nil, fmt.Errorf("end_date must not be before start_date")
	}
	d, err := s.doctors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.UnavailableDates = append(d.UnavailableDates, leave)
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Approve marks a doctor as bookable. Admin-only, enforced at the route.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	return s.doctors.SetApproved(ctx, id, true)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.doctors.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.Search(ctx, params, limit, offset)
}

// CheckSlot is a convenience used by availability browsing: it reports
// whether the doctor could in principle take a slot at date+start, ignoring
// existing bookings.
func (s *Service) CheckSlot(ctx context.Context, id uuid.UUID, date time.Time, start string) (bool, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !ValidTime(start) {
		return false, fmt.Errorf("invalid time %q, expected HH:mm", start)
	}
	if d.OnLeave(date) {
		return false, nil
	}
	hours, working := d.WorkingHours(date)
	if !working {
		return false, nil
	}
	return hours.Within(start), nil
}

package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medibook/medibook/internal/domain/doctor"
	"github.com/medibook/medibook/internal/platform/auth"
)

var ErrNotOwner = errors.New("review belongs to another patient")

// TxRunner executes fn atomically. In production this is db.WithTx bound to
// the pool; tests pass a pass-through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// DoctorStats is the slice of the doctor repository needed to keep the
// doctor's aggregate rating in step with its reviews.
type DoctorStats interface {
	GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	UpdateStats(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error
}

type Service struct {
	reviews Repository
	doctors DoctorStats
	inTx    TxRunner
}

func NewService(reviews Repository, doctors DoctorStats, inTx TxRunner) *Service {
	return &Service{reviews: reviews, doctors: doctors, inTx: inTx}
}

// Submit records a patient's review and recomputes the doctor's aggregate
// rating in the same transaction, so the stored aggregate never drifts from
// the review rows.
func (s *Service) Submit(ctx context.Context, patientID, doctorID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}

	rv := &Review{DoctorID: doctorID, PatientID: patientID, Rating: rating, Comment: comment}
	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.reviews.Create(ctx, rv); err != nil {
			return err
		}
		return s.recomputeStats(ctx, doctorID)
	})
	if err != nil {
		return nil, err
	}
	return rv, nil
}

// Delete removes a review. Only the authoring patient (or an admin) may
// delete it. The doctor's aggregate is recomputed atomically with the
// removal.
func (s *Service) Delete(ctx context.Context, id, callerUserID uuid.UUID, callerRole string) error {
	rv, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rv.PatientID != callerUserID && callerRole != auth.RoleAdmin {
		return ErrNotOwner
	}

	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.reviews.Delete(ctx, id); err != nil {
			return err
		}
		return s.recomputeStats(ctx, rv.DoctorID)
	})
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Review, int, error) {
	return s.reviews.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) recomputeStats(ctx context.Context, doctorID uuid.UUID) error {
	avg, count, err := s.reviews.StatsForDoctor(ctx, doctorID)
	if err != nil {
		return err
	}
	return s.doctors.UpdateStats(ctx, doctorID, avg, count)
}

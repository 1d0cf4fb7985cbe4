package review

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("doctor already reviewed by this patient")
)

type Repository interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Review, int, error)

	// StatsForDoctor aggregates the current average rating and review count.
	StatsForDoctor(ctx context.Context, doctorID uuid.UUID) (float64, int, error)
}

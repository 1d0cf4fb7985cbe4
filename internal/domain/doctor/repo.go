package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no doctor matches the lookup.
var ErrNotFound = errors.New("doctor not found")

// SearchParams filters doctor listings.
type SearchParams struct {
	Speciality string
	MinRating  float64
}

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
	UpdateStats(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Doctor, int, error)
}

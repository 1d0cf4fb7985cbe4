package review

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medibook/medibook/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reviewCols = `id, doctor_id, patient_id, rating, comment, created_at, updated_at`

func scanReview(row pgx.Row) (*Review, error) {
	var rv Review
	err := row.Scan(&rv.ID, &rv.DoctorID, &rv.PatientID, &rv.Rating, &rv.Comment,
		&rv.CreatedAt, &rv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *repoPG) Create(ctx context.Context, rv *Review) error {
	rv.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO review (id, doctor_id, patient_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)`,
		rv.ID, rv.DoctorID, rv.PatientID, rv.Rating, rv.Comment)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyReviewed
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	return scanReview(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reviewCols+` FROM review WHERE id = $1`, id))
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM review WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Review, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM review WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reviewCols+` FROM review WHERE doctor_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rv)
	}
	return items, total, rows.Err()
}

func (r *repoPG) StatsForDoctor(ctx context.Context, doctorID uuid.UUID) (float64, int, error) {
	var avg float64
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM review WHERE doctor_id = $1`,
		doctorID).Scan(&avg, &count)
	return avg, count, err
}

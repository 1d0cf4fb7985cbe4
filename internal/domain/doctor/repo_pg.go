package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

const doctorCols = `id, user_id, speciality, clocks, unavailable_dates,
	rating, review_count, approved, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var clocksJSON, leaveJSON []byte
	err := row.Scan(&d.ID, &d.UserID, &d.Speciality, &clocksJSON, &leaveJSON,
		&d.Rating, &d.ReviewCount, &d.Approved, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(clocksJSON) > 0 {
		if err := json.Unmarshal(clocksJSON, &d.Clocks); err != nil {
			return nil, fmt.Errorf("decode clocks: %w", err)
		}
	}
	if len(leaveJSON) > 0 {
		if err := json.Unmarshal(leaveJSON, &d.UnavailableDates); err != nil {
			return nil, fmt.Errorf("decode unavailable_dates: %w", err)
		}
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	clocksJSON, err := json.Marshal(d.Clocks)
	if err != nil {
		return fmt.Errorf("encode clocks: %w", err)
	}
	leaveJSON, err := json.Marshal(d.UnavailableDates)
	if err != nil {
		return fmt.Errorf("encode unavailable_dates: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor (id, user_id, speciality, clocks, unavailable_dates, approved)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.UserID, d.Speciality, clocksJSON, leaveJSON, d.Approved)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id))
}

func (r *repoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor WHERE user_id = $1`, userID))
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	clocksJSON, err := json.Marshal(d.Clocks)
	if err != nil {
		return fmt.Errorf("encode clocks: %w", err)
	}
	leaveJSON, err := json.Marshal(d.UnavailableDates)
	if err != nil {
		return fmt.Errorf("encode unavailable_dates: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor SET speciality=$2, clocks=$3, unavailable_dates=$4, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Speciality, clocksJSON, leaveJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE doctor SET approved=$2, updated_at=NOW() WHERE id = $1`, id, approved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdateStats(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE doctor SET rating=$2, review_count=$3, updated_at=NOW() WHERE id = $1`,
		id, rating, reviewCount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Doctor, int, error) {
	query := `SELECT ` + doctorCols + ` FROM doctor WHERE approved = TRUE`
	countQuery := `SELECT COUNT(*) FROM doctor WHERE approved = TRUE`
	var args []interface{}
	idx := 1

	if params.Speciality != "" {
		clause := fmt.Sprintf(` AND speciality ILIKE $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, "%"+params.Speciality+"%")
		idx++
	}
	if params.MinRating > 0 {
		clause := fmt.Sprintf(` AND rating >= $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, params.MinRating)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY rating DESC, created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

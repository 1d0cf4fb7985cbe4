package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// RevocationChecker answers whether a token jti has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RevocationStore persists revoked JWT jtis so that logout survives process
// restarts and is shared across instances. Entries are kept only until the
// token's natural expiry; after that the token is rejected anyway.
type RevocationStore struct {
	pool *pgxpool.Pool
	done chan struct{}
}

// NewRevocationStore creates a store backed by the revoked_token table.
func NewRevocationStore(pool *pgxpool.Pool) *RevocationStore {
	return &RevocationStore{pool: pool, done: make(chan struct{})}
}

// Revoke records a token's jti together with the owning user and the token's
// natural expiry.
func (s *RevocationStore) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO revoked_token (jti, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (jti) DO NOTHING`,
		jti, userID, expiresAt)
	return err
}

// IsRevoked checks whether a jti is in the revocation table. Entries past
// their expiry do not count; cleanup removes them lazily.
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM revoked_token WHERE jti = $1 AND expires_at > NOW()
		)`, jti).Scan(&revoked)
	return revoked, err
}

// RevokeAllForUser revokes every live token recorded for a user. Returns the
// number of entries touched.
func (s *RevocationStore) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE revoked_token SET expires_at = GREATEST(expires_at, NOW())
		WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Cleanup removes entries whose tokens have expired.
func (s *RevocationStore) Cleanup(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM revoked_token WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// StartCleanup launches a background loop that purges expired entries every
// interval until Close is called.
func (s *RevocationStore) StartCleanup(interval time.Duration, logger zerolog.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				n, err := s.Cleanup(ctx)
				cancel()
				if err != nil {
					logger.Error().Err(err).Msg("revocation cleanup failed")
				} else if n > 0 {
					logger.Debug().Int64("removed", n).Msg("revocation cleanup")
				}
			}
		}
	}()
}

// Close stops the background cleanup loop. Safe to call multiple times.
func (s *RevocationStore) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

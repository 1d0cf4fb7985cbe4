package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/internal/platform/notification"
	"github.com/medibook/medibook/pkg/metrics"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ErrInvalidCredentials covers both unknown email and wrong password, so a
// failed login does not reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid email or password")

// TokenRevoker persists revoked token ids until they expire on their own.
// The auth package's RevocationStore satisfies it.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

type Service struct {
	users   Repository
	issuer  *auth.TokenIssuer
	revoker TokenRevoker
	mailer  *notification.Mailer
}

func NewService(users Repository, issuer *auth.TokenIssuer, revoker TokenRevoker) *Service {
	return &Service{users: users, issuer: issuer, revoker: revoker}
}

// SetMailer enables the welcome email on registration. Without it accounts
// are created silently.
func (s *Service) SetMailer(mailer *notification.Mailer) { s.mailer = mailer }

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates a patient or doctor account. Admin accounts are only
// created out-of-band, so the role is restricted here.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, fmt.Errorf("invalid email address")
	}
	if in.Role == "" {
		in.Role = auth.RolePatient
	}
	if in.Role != auth.RolePatient && in.Role != auth.RoleDoctor {
		return nil, fmt.Errorf("role must be patient or doctor")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(in.Email),
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	metrics.UserRegistrations.Inc()
	if s.mailer != nil {
		s.mailer.Send(ctx, u.Email, "welcome", map[string]string{"name": u.Name})
	}
	return u, nil
}

// LoginResult carries the bearer token alongside the account it belongs to.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, _, expiresAt, err := s.issuer.Issue(u.ID, u.Role, u.Name)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// Logout revokes the presented token. Other tokens of the same user stay
// valid.
func (s *Service) Logout(ctx context.Context, jti string, userID uuid.UUID, expiresAt time.Time) error {
	if jti == "" {
		return fmt.Errorf("missing token id")
	}
	if expiresAt.IsZero() {
		// keep the entry at least as long as any token issued now could live
		expiresAt = time.Now().Add(s.issuer.TTL())
	}
	return s.revoker.Revoke(ctx, jti, userID.String(), expiresAt)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

type ProfileUpdate struct {
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Password string `json:"password"`
}

// UpdateProfile changes name, avatar and optionally the password. Empty
// fields keep their current value.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(upd.Name); name != "" {
		u.Name = name
	}
	if upd.Avatar != "" {
		u.Avatar = upd.Avatar
	}
	if upd.Password != "" {
		hash, err := auth.HashPassword(upd.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

// Delete removes the account and invalidates every token issued to it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	_, err := s.revoker.RevokeAllForUser(ctx, id.String())
	return err
}

package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/internal/platform/notification"
)

type mockRepo struct {
	users map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	for _, e := range m.users {
		if strings.EqualFold(e.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

type mockRevoker struct {
	revoked map[string]time.Time
}

func newMockRevoker() *mockRevoker {
	return &mockRevoker{revoked: make(map[string]time.Time)}
}

func (m *mockRevoker) Revoke(_ context.Context, jti, _ string, expiresAt time.Time) error {
	m.revoked[jti] = expiresAt
	return nil
}

func (m *mockRevoker) RevokeAllForUser(_ context.Context, _ string) (int64, error) {
	return int64(len(m.revoked)), nil
}

func newTestService() (*Service, *mockRepo, *mockRevoker) {
	repo := newMockRepo()
	revoker := newMockRevoker()
	issuer := auth.NewTokenIssuer([]byte("test-secret-at-least-32-bytes-long!!"), time.Hour)
	return NewService(repo, issuer, revoker), repo, revoker
}

func TestRegister(t *testing.T) {
	svc, _, _ := newTestService()

	u, err := svc.Register(context.Background(), RegisterInput{
		Name: "Ada Lovelace", Email: "Ada@Example.com", Password: "s3cret-pass", Role: auth.RolePatient,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Errorf("email = %q, want lowercased", u.Email)
	}
	if u.PasswordHash == "s3cret-pass" || u.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	_, err = svc.Register(context.Background(), RegisterInput{
		Name: "Other", Email: "ada@example.com", Password: "another-pass",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email: %v, want ErrEmailTaken", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@b.co", Password: "s3cret-pass"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "s3cret-pass"}},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "short"}},
		{"admin role", RegisterInput{Name: "A", Email: "a@b.co", Password: "s3cret-pass", Role: auth.RoleAdmin}},
		{"unknown role", RegisterInput{Name: "A", Email: "a@b.co", Password: "s3cret-pass", Role: "superuser"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.in); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRegisterDefaultsToPatient(t *testing.T) {
	svc, _, _ := newTestService()
	u, err := svc.Register(context.Background(), RegisterInput{
		Name: "A", Email: "a@b.co", Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != auth.RolePatient {
		t.Errorf("role = %q, want patient", u.Role)
	}
}

type captureSender struct {
	to      []string
	subject []string
}

func (s *captureSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.to = append(s.to, to)
	s.subject = append(s.subject, subject)
	return nil
}

func TestRegisterSendsWelcome(t *testing.T) {
	svc, _, _ := newTestService()
	sender := &captureSender{}
	svc.SetMailer(notification.NewMailer(notification.NewTemplateEngine(), sender, zerolog.Nop()))

	if _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Ada Lovelace", Email: "ada@example.com", Password: "s3cret-pass",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(sender.to) != 1 || sender.to[0] != "ada@example.com" {
		t.Fatalf("welcome mail recipients = %v, want [ada@example.com]", sender.to)
	}
	if sender.subject[0] != "Welcome to MediBook" {
		t.Errorf("subject = %q", sender.subject[0])
	}

	// a failed registration sends nothing
	if _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Other", Email: "ada@example.com", Password: "another-pass",
	}); err == nil {
		t.Fatal("expected duplicate email error")
	}
	if len(sender.to) != 1 {
		t.Errorf("mail count = %d, want 1", len(sender.to))
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Ada", Email: "ada@example.com", Password: "s3cret-pass",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := svc.Login(context.Background(), "ada@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" || res.User == nil {
		t.Fatal("expected token and user")
	}
	if !res.ExpiresAt.After(time.Now()) {
		t.Error("expiry must be in the future")
	}

	if _, err := svc.Login(context.Background(), "ada@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: %v, want ErrInvalidCredentials", err)
	}
}

func TestLogout(t *testing.T) {
	svc, _, revoker := newTestService()
	uid := uuid.New()
	exp := time.Now().Add(time.Hour)

	if err := svc.Logout(context.Background(), "some-jti", uid, exp); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if got, ok := revoker.revoked["some-jti"]; !ok || !got.Equal(exp) {
		t.Errorf("revoked[some-jti] = (%v, %v), want recorded with expiry", got, ok)
	}

	if err := svc.Logout(context.Background(), "", uid, exp); err == nil {
		t.Error("expected error for missing jti")
	}

	// missing expiry falls back to the issuer TTL
	if err := svc.Logout(context.Background(), "other-jti", uid, time.Time{}); err != nil {
		t.Fatalf("Logout without expiry: %v", err)
	}
	if got := revoker.revoked["other-jti"]; !got.After(time.Now()) {
		t.Errorf("fallback expiry %v must be in the future", got)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, repo, _ := newTestService()
	u, err := svc.Register(context.Background(), RegisterInput{
		Name: "Ada", Email: "ada@example.com", Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	oldHash := u.PasswordHash

	upd, err := svc.UpdateProfile(context.Background(), u.ID, ProfileUpdate{Name: "Ada L", Avatar: "https://img/ada.png"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if upd.Name != "Ada L" || upd.Avatar != "https://img/ada.png" {
		t.Errorf("profile not applied: %+v", upd)
	}
	if upd.PasswordHash != oldHash {
		t.Error("password must be unchanged when not provided")
	}

	upd, err = svc.UpdateProfile(context.Background(), u.ID, ProfileUpdate{Password: "new-s3cret-pass"})
	if err != nil {
		t.Fatalf("UpdateProfile password: %v", err)
	}
	if upd.PasswordHash == oldHash {
		t.Error("password hash must change")
	}
	if _, err := svc.Login(context.Background(), "ada@example.com", "new-s3cret-pass"); err != nil {
		t.Errorf("login with new password: %v", err)
	}

	if _, err := svc.UpdateProfile(context.Background(), uuid.New(), ProfileUpdate{Name: "X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: %v, want ErrNotFound", err)
	}
	_ = repo
}

func TestDelete(t *testing.T) {
	svc, repo, _ := newTestService()
	u, err := svc.Register(context.Background(), RegisterInput{
		Name: "Ada", Email: "ada@example.com", Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), u.ID); !errors.Is(err, ErrNotFound) {
		t.Error("user should be gone")
	}
	if err := svc.Delete(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: %v, want ErrNotFound", err)
	}
}

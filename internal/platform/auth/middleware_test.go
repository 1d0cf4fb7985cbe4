package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeRevocation struct {
	revoked map[string]bool
}

func (f *fakeRevocation) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	uid := uuid.New()

	token, jti, expiresAt, err := issuer.Issue(uid, RolePatient, "Jane Doe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jti == "" {
		t.Error("expected a jti")
	}
	if time.Until(expiresAt) > time.Hour || time.Until(expiresAt) < 59*time.Minute {
		t.Errorf("unexpected expiry: %v", expiresAt)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.Subject != uid.String() {
		t.Errorf("expected subject %s, got %s", uid, claims.Subject)
	}
	if claims.Role != RolePatient {
		t.Errorf("expected role patient, got %s", claims.Role)
	}
	if claims.ID != jti {
		t.Errorf("expected jti %s, got %s", jti, claims.ID)
	}
}

func TestParse_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, -time.Minute)
	token, _, _, err := issuer.Issue(uuid.New(), RolePatient, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := issuer.Parse(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestParse_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	other := NewTokenIssuer([]byte("another-secret-another-secret-32"), time.Hour)

	token, _, _, err := issuer.Issue(uuid.New(), RoleDoctor, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := other.Parse(token); err == nil {
		t.Error("expected token signed with a different secret to be rejected")
	}
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, UserIDFromContext(c.Request().Context()))
	})
	return rec, handler(c)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	_, err := doRequest(t, Middleware(issuer, nil), "")

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	uid := uuid.New()
	token, _, _, _ := issuer.Issue(uid, RoleDoctor, "")

	rec, err := doRequest(t, Middleware(issuer, nil), "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != uid.String() {
		t.Errorf("expected user id %s in context, got %s", uid, rec.Body.String())
	}
}

func TestMiddleware_RevokedToken(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	token, jti, _, _ := issuer.Issue(uuid.New(), RolePatient, "")

	mw := Middleware(issuer, &fakeRevocation{revoked: map[string]bool{jti: true}})
	_, err := doRequest(t, mw, "Bearer "+token)

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked token, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name     string
		role     string
		required []string
		allowed  bool
	}{
		{"doctor allowed", RoleDoctor, []string{RoleDoctor}, true},
		{"patient denied doctor route", RolePatient, []string{RoleDoctor}, false},
		{"admin passes everything", RoleAdmin, []string{RolePatient}, true},
		{"either role", RoleDoctor, []string{RolePatient, RoleDoctor}, true},
		{"no role", "", []string{RolePatient}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			ctx := context.WithValue(req.Context(), UserRoleKey, tc.role)
			req = req.WithContext(ctx)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := RequireRole(tc.required...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			err := handler(c)

			if tc.allowed && err != nil {
				t.Errorf("expected access, got %v", err)
			}
			if !tc.allowed {
				he, ok := err.(*echo.HTTPError)
				if !ok || he.Code != http.StatusForbidden {
					t.Errorf("expected 403, got %v", err)
				}
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("expected password to match its hash")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("expected wrong password to fail")
	}
}

func TestHashPassword_RejectsShort(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Error("expected error for short password")
	}
}

package notification

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRender_ReminderTemplate(t *testing.T) {
	e := NewTemplateEngine()

	subject, body, err := e.Render("appointment-reminder", map[string]string{
		"patient_name": "Ayse Yilmaz",
		"time":         "09:30",
		"doctor_name":  "Demir",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(subject, "Ayse Yilmaz") {
		t.Errorf("expected patient name in subject, got %q", subject)
	}
	if !strings.Contains(body, "09:30") || !strings.Contains(body, "Dr. Demir") {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, err := e.Render("no-such-template", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRender_LeavesUnknownPlaceholders(t *testing.T) {
	e := NewTemplateEngine()
	e.Register(&Template{ID: "t", Subject: "Hi {{who}}", Body: "{{missing}}"})

	subject, body, err := e.Render("t", map[string]string{"who": "there"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Hi there" {
		t.Errorf("unexpected subject: %q", subject)
	}
	if body != "{{missing}}" {
		t.Errorf("expected unresolved placeholder to remain, got %q", body)
	}
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(zerolog.New(zerolog.Nop()))
	if err := s.SendEmail(context.Background(), "p@example.com", "s", "b"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

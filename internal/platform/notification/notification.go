// Package notification provides outbound email delivery with template
// rendering. The reminder job and account flows send through it.
package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template defines a reusable notification template. Placeholders use
// {{name}} syntax and are replaced verbatim from the data map.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "appointment-reminder",
			Name:    "Appointment Reminder",
			Subject: "Appointment Reminder for {{patient_name}}",
			Body:    "Dear {{patient_name}}, this is a reminder of your appointment tomorrow at {{time}} with Dr. {{doctor_name}}.",
		},
		{
			ID:      "appointment-cancelled",
			Name:    "Appointment Cancelled",
			Subject: "Your Appointment Has Been Cancelled",
			Body:    "Dear {{patient_name}}, your appointment on {{date}} at {{time}} has been cancelled.",
		},
		{
			ID:      "welcome",
			Name:    "Welcome",
			Subject: "Welcome to MediBook",
			Body:    "Dear {{name}}, your account has been created. You can now search doctors and book appointments.",
		},
	}
	for i := range builtIn {
		e.templates[builtIn[i].ID] = &builtIn[i]
	}
}

// Register adds or replaces a template.
func (e *TemplateEngine) Register(t *Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = t
}

// Render looks up a template and substitutes placeholders from data.
// Unknown placeholders are left in place so missing data is visible.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for key, value := range data {
		placeholder := "{{" + key + "}}"
		subject = strings.ReplaceAll(subject, placeholder, value)
		body = strings.ReplaceAll(body, placeholder, value)
	}
	return subject, body, nil
}

// Mailer renders a named template and delivers it. Delivery is best effort:
// a failed send is logged, never surfaced, so mail trouble cannot fail the
// request that triggered it.
type Mailer struct {
	templates *TemplateEngine
	sender    EmailSender
	logger    zerolog.Logger
}

func NewMailer(templates *TemplateEngine, sender EmailSender, logger zerolog.Logger) *Mailer {
	return &Mailer{templates: templates, sender: sender, logger: logger}
}

func (m *Mailer) Send(ctx context.Context, to, templateID string, data map[string]string) {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		m.logger.Error().Err(err).Str("template", templateID).Msg("render email")
		return
	}
	if err := m.sender.SendEmail(ctx, to, subject, body); err != nil {
		m.logger.Error().Err(err).Str("to", to).Str("template", templateID).Msg("send email")
	}
}

// SMTPConfig configures the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendEmail(_ context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	var a smtp.Auth
	if s.cfg.User != "" {
		a = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := smtp.SendMail(addr, a, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogSender logs messages instead of delivering them. Used in development
// and when SMTP is not configured.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("email (log-only delivery)")
	return nil
}

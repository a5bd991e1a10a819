package services

import (
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"wastereport/internal/config"
	"wastereport/internal/observability"
	"wastereport/internal/services/mailer"
	contextutils "wastereport/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/mail.v2"
)

//go:embed templates/email/*
var emailTemplatesFS embed.FS

const (
	assignmentHTMLTemplate = "complaint_assigned.html"
	assignmentTextTemplate = "complaint_assigned.txt"
)

// emailTemplates holds the parsed bodies for every notice type
type emailTemplates struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func loadEmailTemplates() (*emailTemplates, error) {
	html, err := htmltemplate.ParseFS(emailTemplatesFS, "templates/email/*.html")
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to parse html email templates")
	}
	text, err := texttemplate.ParseFS(emailTemplatesFS, "templates/email/*.txt")
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to parse text email templates")
	}
	return &emailTemplates{html: html, text: text}, nil
}

// render returns the plain-text and HTML bodies for a notice
func (t *emailTemplates) render(notice mailer.AssignmentNotice) (string, string, error) {
	var text, html strings.Builder
	if err := t.text.ExecuteTemplate(&text, assignmentTextTemplate, notice); err != nil {
		return "", "", contextutils.WrapError(err, "failed to render text body")
	}
	if err := t.html.ExecuteTemplate(&html, assignmentHTMLTemplate, notice); err != nil {
		return "", "", contextutils.WrapError(err, "failed to render html body")
	}
	return text.String(), html.String(), nil
}

// EmailService sends assignment notices over SMTP
type EmailService struct {
	smtp      config.SMTPConfig
	enabled   bool
	dialer    *mail.Dialer
	templates *emailTemplates
	logger    *observability.Logger
}

var _ mailer.Mailer = (*EmailService)(nil)

// NewEmailService creates a new EmailService instance. A template failure disables sending.
func NewEmailService(cfg *config.Config, logger *observability.Logger) *EmailService {
	service := &EmailService{
		smtp:    cfg.Email.SMTP,
		enabled: cfg.Email.Enabled && cfg.Email.SMTP.Host != "",
		logger:  logger,
	}
	if !service.enabled {
		return service
	}

	templates, err := loadEmailTemplates()
	if err != nil {
		logger.Error(context.Background(), "Email templates unavailable, disabling email", err)
		service.enabled = false
		return service
	}
	service.templates = templates
	service.dialer = mail.NewDialer(cfg.Email.SMTP.Host, cfg.Email.SMTP.Port, cfg.Email.SMTP.Username, cfg.Email.SMTP.Password)
	return service
}

// SendAssignmentNotice emails the assignee that a complaint is now theirs
func (e *EmailService) SendAssignmentNotice(ctx context.Context, notice mailer.AssignmentNotice) (err error) {
	ctx, span := observability.TraceNotificationFunction(ctx, "send_assignment_email",
		observability.AttributeComplaintID(notice.ComplaintID),
		attribute.Bool("email.enabled", e.enabled),
	)
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(notice.To) == "" {
		e.logger.Warn(ctx, "Assignee has no email address, skipping assignment notice", map[string]interface{}{
			"complaint_id": notice.ComplaintID,
		})
		return nil
	}
	if !e.enabled {
		e.logger.Debug(ctx, "Email disabled, skipping assignment notice", map[string]interface{}{
			"complaint_id": notice.ComplaintID,
		})
		return nil
	}

	text, html, err := e.templates.render(notice)
	if err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetAddressHeader("From", e.smtp.FromAddress, e.smtp.FromName)
	m.SetHeader("To", notice.To)
	m.SetHeader("Subject", notice.Subject())
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)

	if err = e.dialer.DialAndSend(m); err != nil {
		e.logger.Error(ctx, "Failed to send assignment notice", err, map[string]interface{}{
			"complaint_id": notice.ComplaintID,
			"smtp_host":    e.smtp.Host,
		})
		return contextutils.WrapErrorf(contextutils.ErrServiceUnavailable, "failed to send email: %v", err)
	}

	e.logger.Info(ctx, "Assignment notice sent", map[string]interface{}{
		"complaint_id": notice.ComplaintID,
	})
	return nil
}

// IsEnabled reports whether SMTP is configured
func (e *EmailService) IsEnabled() bool {
	return e.enabled
}

// String describes the transport for startup logs
func (e *EmailService) String() string {
	if !e.enabled {
		return "email disabled"
	}
	return fmt.Sprintf("smtp %s:%d as %s", e.smtp.Host, e.smtp.Port, e.smtp.FromAddress)
}

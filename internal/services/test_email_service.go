package services

import (
	"context"
	"sync"

	"wastereport/internal/config"
	"wastereport/internal/observability"
	"wastereport/internal/services/mailer"
)

// SentEmail is a notice captured by TestEmailService together with its rendered text body
type SentEmail struct {
	mailer.AssignmentNotice
	Body string
}

// TestEmailService implements mailer.Mailer by rendering and recording notices instead of sending them
type TestEmailService struct {
	logger    *observability.Logger
	templates *emailTemplates

	mu   sync.Mutex
	sent []SentEmail
}

var _ mailer.Mailer = (*TestEmailService)(nil)

// NewTestEmailService creates a new TestEmailService instance
func NewTestEmailService(_ *config.Config, logger *observability.Logger) *TestEmailService {
	service := &TestEmailService{logger: logger}
	if templates, err := loadEmailTemplates(); err == nil {
		service.templates = templates
	}
	return service
}

// SendAssignmentNotice records the notice
func (e *TestEmailService) SendAssignmentNotice(ctx context.Context, notice mailer.AssignmentNotice) error {
	if notice.To == "" {
		return nil
	}

	var body string
	if e.templates != nil {
		text, _, err := e.templates.render(notice)
		if err != nil {
			return err
		}
		body = text
	}

	e.logger.Info(ctx, "TEST MODE: Would send assignment notice", map[string]interface{}{
		"to":           notice.To,
		"complaint_id": notice.ComplaintID,
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, SentEmail{AssignmentNotice: notice, Body: body})
	return nil
}

// IsEnabled always reports true so callers exercise their email path in tests
func (e *TestEmailService) IsEnabled() bool {
	return true
}

// Sent returns a copy of the recorded notices
func (e *TestEmailService) Sent() []SentEmail {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]SentEmail(nil), e.sent...)
}

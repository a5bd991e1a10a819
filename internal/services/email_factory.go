package services

import (
	"context"

	"wastereport/internal/config"
	"wastereport/internal/observability"
	"wastereport/internal/services/mailer"
)

// CreateEmailService picks the mailer for the environment: a recorder under test, SMTP otherwise
func CreateEmailService(cfg *config.Config, logger *observability.Logger) mailer.Mailer {
	if cfg.IsTest {
		logger.Info(context.Background(), "Assignment notices will be recorded, not sent", map[string]interface{}{
			"test_mode": true,
		})
		return NewTestEmailService(cfg, logger)
	}

	service := NewEmailService(cfg, logger)
	logger.Info(context.Background(), "Assignment notice transport ready", map[string]interface{}{
		"transport": service.String(),
	})
	return service
}

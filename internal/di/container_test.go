package di

import (
	"context"
	"testing"

	"wastereport/internal/config"
	"wastereport/internal/observability"
	"wastereport/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		IsTest: true,
		Seed: config.SeedConfig{
			AuthorityEmail:    "authority@mcc.tn.gov.in",
			AuthorityPassword: "admin123",
			AuthorityName:     "Municipal Officer",
		},
	}
}

func TestInitializeWithDB_RegistersServices(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sc := NewServiceContainer(testConfig(), observability.NewNopLogger())
	require.NoError(t, sc.InitializeWithDB(context.Background(), db))

	userService, err := sc.GetUserService()
	require.NoError(t, err)
	assert.NotNil(t, userService)

	_, err = sc.GetComplaintService()
	assert.NoError(t, err)
	_, err = sc.GetAssignmentService()
	assert.NoError(t, err)
	_, err = sc.GetAnalyticsService()
	assert.NoError(t, err)
	_, err = sc.GetNotificationService()
	assert.NoError(t, err)

	gateway, err := sc.GetAIGateway()
	require.NoError(t, err)
	assert.False(t, gateway.(*services.AIService).IsEnabled())

	publisher, err := GetServiceAs[services.NotificationPublisher](sc, ServicePublisher)
	require.NoError(t, err)
	assert.IsType(t, services.NoopNotificationPublisher{}, publisher)

	email, err := GetServiceAs[*services.TestEmailService](sc, ServiceEmail)
	require.NoError(t, err)
	assert.NotNil(t, email)

	assert.Same(t, db, sc.GetDatabase())
	assert.Nil(t, sc.GetDatabaseManager())

	mock.ExpectClose()
	require.NoError(t, sc.Shutdown(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetService_Errors(t *testing.T) {
	sc := NewServiceContainer(testConfig(), observability.NewNopLogger())

	_, err := sc.GetService("missing")
	assert.Error(t, err)

	sc.services["wrong"] = 42
	_, err = GetServiceAs[services.UserServiceInterface](sc, "wrong")
	assert.Error(t, err)
}

func TestInitializeWithDB_InvalidTransitions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Lifecycle.Transitions = map[string][]string{"pending": {"archived"}}

	mock.ExpectClose()
	sc := NewServiceContainer(cfg, observability.NewNopLogger())
	err = sc.InitializeWithDB(context.Background(), db)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "archived")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureAuthorityUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sc := NewServiceContainer(testConfig(), observability.NewNopLogger())
	require.NoError(t, sc.InitializeWithDB(context.Background(), db))

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("authority@mcc.tn.gov.in", sqlmock.AnyArg(), "authority", "Municipal Officer").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, sc.EnsureAuthorityUser(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

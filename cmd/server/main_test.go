package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wastereport/internal/config"
	"wastereport/internal/di"
	"wastereport/internal/observability"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApplication(t *testing.T) (*Application, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cfg := &config.Config{IsTest: true}
	cfg.Server.SessionSecret = "test-secret"
	cfg.Server.BodyLimitBytes = config.DefaultBodyLimitBytes

	container := di.NewServiceContainer(cfg, observability.NewNopLogger())
	require.NoError(t, container.InitializeWithDB(context.Background(), db))

	app, err := NewApplication(container)
	require.NoError(t, err)
	return app, mock
}

func TestApplication_ServesHealth(t *testing.T) {
	app, mock := newTestApplication(t)

	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, config.DefaultServiceName, body["service"])

	mock.ExpectClose()
	require.NoError(t, app.Shutdown(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplication_ListsMembers(t *testing.T) {
	app, mock := newTestApplication(t)

	mock.ExpectQuery(`SELECT id, name, role FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "role"}).AddRow(1, "Municipal Officer", "authority"))

	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/members", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Municipal Officer","role":"authority"}]`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

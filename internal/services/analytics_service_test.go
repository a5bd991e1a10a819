package services

import (
	"context"
	"errors"
	"testing"

	"wastereport/internal/models"
	contextutils "wastereport/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAnalytics_SingleSnapshot(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewAnalyticsService(db, createTestLogger())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM complaints GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("assigned", 1).
			AddRow("pending", 2).
			AddRow("resolved", 4))
	mock.ExpectQuery(`SELECT type, COUNT\(\*\) FROM complaints GROUP BY type`).
		WillReturnRows(sqlmock.NewRows([]string{"type", "count"}).
			AddRow("garbage", 5).
			AddRow("missed_pickup", 2))
	mock.ExpectCommit()

	analytics, err := service.GetAnalytics(context.Background())
	require.NoError(t, err)
	require.Len(t, analytics.Stats, 3)
	assert.Equal(t, models.StatusPending, analytics.Stats[1].Status)
	assert.Equal(t, 2, analytics.Stats[1].Count)
	require.Len(t, analytics.TypeStats, 2)
	assert.Equal(t, models.TypeGarbage, analytics.TypeStats[0].Type)

	typeTotal := 0
	for _, c := range analytics.TypeStats {
		typeTotal += c.Count
	}
	assert.Equal(t, analytics.Total(), typeTotal)
	assert.Equal(t, 7, analytics.Total())
}

func TestGetAnalytics_NoComplaints(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewAnalyticsService(db, createTestLogger())

	mock.ExpectBegin()
	mock.ExpectQuery(`GROUP BY status`).WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))
	mock.ExpectQuery(`GROUP BY type`).WillReturnRows(sqlmock.NewRows([]string{"type", "count"}))
	mock.ExpectCommit()

	analytics, err := service.GetAnalytics(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, analytics.Stats)
	assert.NotNil(t, analytics.TypeStats)
	assert.Zero(t, analytics.Total())
}

func TestGetAnalytics_QueryFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewAnalyticsService(db, createTestLogger())

	mock.ExpectBegin()
	mock.ExpectQuery(`GROUP BY status`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	analytics, err := service.GetAnalytics(context.Background())
	require.Error(t, err)
	assert.Nil(t, analytics)
	assert.True(t, contextutils.IsError(err, contextutils.ErrDatabaseQuery))
}

func TestGetAnalytics_BeginFailure(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewAnalyticsService(db, createTestLogger())

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := service.GetAnalytics(context.Background())
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrDatabaseTransaction))
	assert.True(t, contextutils.IsServerFailure(err))
}

func TestStatusAndTypeCounts(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewAnalyticsService(db, createTestLogger())

	mock.ExpectQuery(`GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("verified", 3))
	mock.ExpectQuery(`GROUP BY type`).
		WillReturnRows(sqlmock.NewRows([]string{"type", "count"}).AddRow("dead_animal", 3))

	stats, err := service.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.StatusCount{{Status: models.StatusVerified, Count: 3}}, stats)

	types, err := service.TypeCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.TypeCount{{Type: models.TypeDeadAnimal, Count: 3}}, types)
}

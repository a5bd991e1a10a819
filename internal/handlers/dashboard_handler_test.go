package handlers

import (
	"net/http"
	"testing"
	"time"

	"wastereport/internal/models"
	contextutils "wastereport/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetAnalytics(t *testing.T) {
	s := newTestServer(t)
	s.analytics.On("GetAnalytics", mock.Anything).Return(&models.Analytics{
		Stats: []models.StatusCount{
			{Status: models.StatusAssigned, Count: 1},
			{Status: models.StatusPending, Count: 2},
		},
		TypeStats: []models.TypeCount{{Type: models.TypeGarbage, Count: 3}},
	}, nil).Once()

	w := s.do(t, http.MethodGet, "/api/analytics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	stats := body["stats"].([]interface{})
	require.Len(t, stats, 2)
	assert.Equal(t, "assigned", stats[0].(map[string]interface{})["status"])
	typeStats := body["typeStats"].([]interface{})
	assert.Equal(t, float64(3), typeStats[0].(map[string]interface{})["count"])
}

func TestGetAnalytics_StoreFailure(t *testing.T) {
	s := newTestServer(t)
	s.analytics.On("GetAnalytics", mock.Anything).Return(nil, contextutils.ErrDatabaseConnection).Once()

	w := s.do(t, http.MethodGet, "/api/analytics", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListNotifications(t *testing.T) {
	s := newTestServer(t)
	created := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	s.notifications.On("ListNotifications", mock.Anything, 1).Return([]models.Notification{
		{ID: 2, UserID: 1, Message: "You have been assigned Complaint #4", CreatedAt: created},
		{ID: 1, UserID: 1, Message: "You have been assigned Complaint #3", IsRead: true, CreatedAt: created.Add(-time.Hour)},
	}, nil).Once()

	w := s.do(t, http.MethodGet, "/api/notifications/1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	list := decodeList(t, w)
	require.Len(t, list, 2)
	assert.Equal(t, float64(2), list[0]["id"])
	assert.Equal(t, false, list[0]["is_read"])
}

func TestListNotifications_BadUserID(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/notifications/0", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid user_id", decodeBody(t, w)["error"])
}

func TestMarkNotificationRead(t *testing.T) {
	s := newTestServer(t)
	s.notifications.On("MarkNotificationRead", mock.Anything, 1, 2).Return(nil).Once()

	w := s.do(t, http.MethodPost, "/api/notifications/1/2/read", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])
}

func TestMarkNotificationRead_OtherUsersNotification(t *testing.T) {
	s := newTestServer(t)
	s.notifications.On("MarkNotificationRead", mock.Anything, 1, 9).Return(contextutils.ErrRecordNotFound).Once()

	w := s.do(t, http.MethodPost, "/api/notifications/1/9/read", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListMembers(t *testing.T) {
	s := newTestServer(t)
	s.users.On("ListAuthorities", mock.Anything).Return([]models.Member{
		{ID: 1, Name: "Officer", Role: models.RoleAuthority},
	}, nil).Once()

	w := s.do(t, http.MethodGet, "/api/members", nil)

	require.Equal(t, http.StatusOK, w.Code)
	list := decodeList(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, map[string]interface{}{"id": float64(1), "name": "Officer", "role": "authority"}, list[0])
}

func TestListUsers_AuthorityOnly(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/admin/users", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	citizen := s.login(t, citizenUser)
	w = s.do(t, http.MethodGet, "/api/admin/users", nil, citizen)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListUsers(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, authorityUser)
	s.users.On("ListUsers", mock.Anything).Return([]models.User{*authorityUser, *citizenUser}, nil).Once()

	w := s.do(t, http.MethodGet, "/api/admin/users", nil, cookie)

	require.Equal(t, http.StatusOK, w.Code)
	list := decodeList(t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "citizen@example.com", list[1]["email"])
	assert.NotContains(t, list[1], "password_hash")
}

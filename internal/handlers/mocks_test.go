package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wastereport/internal/config"
	"wastereport/internal/models"
	"wastereport/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserService for testing
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, email, password, name string, role models.UserRole) (*models.User, error) {
	args := m.Called(ctx, email, password, name, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) ListAuthorities(ctx context.Context) ([]models.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Member), args.Error(1)
}

func (m *MockUserService) UpdateUserPassword(ctx context.Context, userID int, newPassword string) error {
	args := m.Called(ctx, userID, newPassword)
	return args.Error(0)
}

func (m *MockUserService) EnsureAuthorityUserExists(ctx context.Context, email, password, name string) error {
	args := m.Called(ctx, email, password, name)
	return args.Error(0)
}

// MockComplaintService for testing
type MockComplaintService struct {
	mock.Mock
}

func (m *MockComplaintService) CreateComplaint(ctx context.Context, in models.NewComplaint) (int, error) {
	args := m.Called(ctx, in)
	return args.Int(0), args.Error(1)
}

func (m *MockComplaintService) ListComplaints(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *MockComplaintService) GetComplaint(ctx context.Context, id int) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockComplaintService) UpdateComplaint(ctx context.Context, id int, update models.ComplaintUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockComplaintService) ResolveComplaint(ctx context.Context, id int, photoAfter string) (*models.CleanupVerification, error) {
	args := m.Called(ctx, id, photoAfter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CleanupVerification), args.Error(1)
}

// MockAssignmentService for testing
type MockAssignmentService struct {
	mock.Mock
}

func (m *MockAssignmentService) AssignComplaint(ctx context.Context, complaintID, assigneeID int, assigneeName string) (*models.Notification, error) {
	args := m.Called(ctx, complaintID, assigneeID, assigneeName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

// MockAnalyticsService for testing
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) GetAnalytics(ctx context.Context) (*models.Analytics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analytics), args.Error(1)
}

func (m *MockAnalyticsService) StatusCounts(ctx context.Context) ([]models.StatusCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StatusCount), args.Error(1)
}

func (m *MockAnalyticsService) TypeCounts(ctx context.Context) ([]models.TypeCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TypeCount), args.Error(1)
}

// MockNotificationService for testing
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) ListNotifications(ctx context.Context, userID int) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkNotificationRead(ctx context.Context, userID, notificationID int) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

// MockAIGateway for testing
type MockAIGateway struct {
	mock.Mock
}

func (m *MockAIGateway) ClassifyWaste(ctx context.Context, image string) (*models.WasteClassification, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WasteClassification), args.Error(1)
}

func (m *MockAIGateway) ClassifyDeadAnimal(ctx context.Context, image string) (*models.DeadAnimalClassification, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeadAnimalClassification), args.Error(1)
}

func (m *MockAIGateway) VerifyCleanup(ctx context.Context, beforeImage, afterImage string) (*models.CleanupVerification, error) {
	args := m.Called(ctx, beforeImage, afterImage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CleanupVerification), args.Error(1)
}

func (m *MockAIGateway) Converse(ctx context.Context, message string, history []models.ChatTurn) (string, error) {
	args := m.Called(ctx, message, history)
	return args.String(0), args.Error(1)
}

// testServer wires the real router to mocked services
type testServer struct {
	router        *gin.Engine
	users         *MockUserService
	complaints    *MockComplaintService
	assignments   *MockAssignmentService
	analytics     *MockAnalyticsService
	notifications *MockNotificationService
	ai            *MockAIGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{
			SessionSecret:  "test-secret",
			BodyLimitBytes: 64 << 10,
		},
	}

	s := &testServer{
		users:         &MockUserService{},
		complaints:    &MockComplaintService{},
		assignments:   &MockAssignmentService{},
		analytics:     &MockAnalyticsService{},
		notifications: &MockNotificationService{},
		ai:            &MockAIGateway{},
	}
	s.router = NewRouter(cfg, s.users, s.complaints, s.assignments, s.analytics, s.notifications, s.ai, observability.NewNopLogger())

	t.Cleanup(func() {
		s.users.AssertExpectations(t)
		s.complaints.AssertExpectations(t)
		s.assignments.AssertExpectations(t)
		s.analytics.AssertExpectations(t)
		s.notifications.AssertExpectations(t)
		s.ai.AssertExpectations(t)
	})
	return s
}

// do sends a request with an optional JSON body and cookies
func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login authenticates user through the login route and returns the session cookie
func (s *testServer) login(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	s.users.On("AuthenticateUser", mock.Anything, user.Email, "secret").Return(user, nil).Once()

	w := s.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": user.Email, "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == config.SessionName {
			return cookie
		}
	}
	t.Fatalf("login did not set the %s cookie", config.SessionName)
	return nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

var (
	citizenUser   = &models.User{ID: 7, Email: "citizen@example.com", Role: models.RoleCitizen, Name: "Citizen"}
	authorityUser = &models.User{ID: 1, Email: "authority@example.com", Role: models.RoleAuthority, Name: "Officer"}
)

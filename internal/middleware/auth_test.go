package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wastereport/internal/models"
	contextutils "wastereport/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("test-session", store))
	return router
}

func setSessionCookie(t *testing.T, router *gin.Engine, values map[string]interface{}) *http.Cookie {
	setupPath := "/setup-session-" + t.Name()
	router.GET(setupPath, func(c *gin.Context) {
		session := sessions.Default(c)
		for k, v := range values {
			session.Set(k, v)
		}
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", setupPath, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestRequireAuth_NoSession(t *testing.T) {
	router := newTestRouter()
	router.GET("/resource", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/resource", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Authentication required", body["error"])
	assert.Equal(t, string(contextutils.ErrorCodeUnauthorized), body["code"])
}

func TestRequireAuth_ValidSession(t *testing.T) {
	router := newTestRouter()
	router.GET("/resource", RequireAuth(), func(c *gin.Context) {
		assert.Equal(t, 42, c.GetInt(UserIDKey))
		assert.Equal(t, 42, contextutils.GetUserIDFromContext(c.Request.Context()))
		role, _ := c.Get(RoleKey)
		assert.Equal(t, models.RoleCitizen, role)
		c.Status(http.StatusOK)
	})
	cookie := setSessionCookie(t, router, map[string]interface{}{UserIDKey: 42, RoleKey: "citizen"})

	req := httptest.NewRequest("GET", "/resource", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_MalformedSession(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
	}{
		{"string user id", map[string]interface{}{UserIDKey: "42", RoleKey: "citizen"}},
		{"missing role", map[string]interface{}{UserIDKey: 42}},
		{"unknown role", map[string]interface{}{UserIDKey: 42, RoleKey: "mayor"}},
		{"zero user id", map[string]interface{}{UserIDKey: 0, RoleKey: "citizen"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter()
			router.GET("/resource", RequireAuth(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			cookie := setSessionCookie(t, router, tt.values)

			req := httptest.NewRequest("GET", "/resource", nil)
			req.AddCookie(cookie)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireAuthority(t *testing.T) {
	router := newTestRouter()
	router.GET("/staff", RequireAuthority(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	citizen := setSessionCookie(t, router, map[string]interface{}{UserIDKey: 5, RoleKey: "citizen"})
	req := httptest.NewRequest("GET", "/staff", nil)
	req.AddCookie(citizen)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/staff", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthority_Allows(t *testing.T) {
	router := newTestRouter()
	router.GET("/staff", RequireAuthority(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	authority := setSessionCookie(t, router, map[string]interface{}{UserIDKey: 1, RoleKey: "authority"})

	req := httptest.NewRequest("GET", "/staff", nil)
	req.AddCookie(authority)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	contextutils "wastereport/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func setupRecordingRouter(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(sessions.Sessions("test-session", cookie.NewStore([]byte("test-secret-key"))))
	router.Use(GinMiddleware("waste-test"), SpanErrorMiddleware())
	return router, recorder
}

func serve(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSpanErrorMiddleware_SuccessLeavesStatusUnset(t *testing.T) {
	router, recorder := setupRecordingRouter(t)
	router.GET("/api/analytics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"stats": []string{}})
	})

	w := serve(router, "/api/analytics")
	assert.Equal(t, http.StatusOK, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestSpanErrorMiddleware_ClientErrorCarriesAppErrorCode(t *testing.T) {
	router, recorder := setupRecordingRouter(t)
	router.GET("/api/complaints/:id", func(c *gin.Context) {
		_ = c.Error(contextutils.ErrRecordNotFound)
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	w := serve(router, "/api/complaints/999")
	assert.Equal(t, http.StatusNotFound, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "RECORD_NOT_FOUND", attrs["error.code"])
	assert.Equal(t, "info", attrs["error.severity"])
}

func TestSpanErrorMiddleware_ServerErrorWithoutAppError(t *testing.T) {
	router, recorder := setupRecordingRouter(t)
	router.GET("/boom", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})

	w := serve(router, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestSpanErrorMiddleware_WithoutSessions(t *testing.T) {
	otel.SetTracerProvider(noop.NewTracerProvider())
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware("waste-test"), SpanErrorMiddleware())
	router.GET("/unauthorized", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	})

	assert.NotPanics(t, func() {
		w := serve(router, "/unauthorized")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

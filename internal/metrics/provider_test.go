package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("playbook")
	require.NoError(t, err)
	require.NotNil(t, provider)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	assert.NotNil(t, provider.MeterProvider())
	assert.NotNil(t, provider.Handler())
}

func TestProvider_HandlerServesExposition(t *testing.T) {
	provider, err := NewProvider("playbook")
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	// Record something so the exposition is non-trivial.
	business, err := NewBusinessMetrics(provider.MeterProvider(), "playbook")
	require.NoError(t, err)
	business.RecordOperation(context.Background(), "registration", "admit", "success")
	business.RecordDuration(context.Background(), "webhook", "dispatch", 120*time.Millisecond, "success")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	provider.Handler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "playbook_operations_total")
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider("playbook")
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "playbook"))
	router.GET("/v1/sessions/:id/availability", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"available": 3})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/sessions/42/availability", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// The route pattern, not the raw path, must appear in the exposition.
	mw := httptest.NewRecorder()
	provider.Handler().ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, mw.Body.String(), "/v1/sessions/:id/availability")
}

func TestNoOpBusinessMetrics(t *testing.T) {
	m := NewNoOpBusinessMetrics()
	// Must not panic.
	m.RecordOperation(context.Background(), "payment", "confirm", "success")
	m.RecordDuration(context.Background(), "payment", "confirm", time.Second, "success")
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "unknown", sanitizePath(""))
	assert.Equal(t, "/v1/programs", sanitizePath("/v1/programs"))
}

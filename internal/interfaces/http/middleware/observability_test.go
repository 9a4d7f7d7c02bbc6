package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"

	"github.com/turtacn/genguard/internal/infrastructure/monitoring"
	"github.com/turtacn/genguard/pkg/constants"
)

func TestObservabilityMiddleware(t *testing.T) {
	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())

	router := gin.New()
	router.Use(ObservabilityMiddleware(otel.Tracer("test-tracer"), metrics))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 2, testutil.CollectAndCount(metrics.RequestDuration))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.RequestsInFlight))
}

func TestRequestID(t *testing.T) {
	var seen string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		seen, _ = c.Request.Context().Value(constants.ContextKeyRequestID).(string)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"fingerprint", map[string]string{constants.HeaderFingerprint: "fp-1", constants.HeaderForwardedFor: "1.1.1.1"}, "fp-1"},
		{"forwarded", map[string]string{constants.HeaderForwardedFor: " 2.2.2.2 , 3.3.3.3"}, "2.2.2.2"},
		{"fallback", nil, constants.FallbackIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromGin, fromCtx string
			router := gin.New()
			router.Use(Identifier())
			router.GET("/", func(c *gin.Context) {
				fromGin = IdentifierFrom(c)
				fromCtx, _ = c.Request.Context().Value(constants.ContextKeyIdentifier).(string)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			router.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, fromGin)
			assert.Equal(t, tt.want, fromCtx)
		})
	}
}

func TestIdentifierFrom_WithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/", nil)
	c.Request.Header.Set(constants.HeaderForwardedFor, "4.4.4.4")
	assert.Equal(t, "4.4.4.4", IdentifierFrom(c))
}

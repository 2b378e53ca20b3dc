package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"vehicle-insurance-mlops/internal/metrics"
)

func setupRouter(m *metrics.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logging(m))
	r.GET("/ping/:id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})
	return r
}

func TestRequestID(t *testing.T) {
	r := setupRouter(nil)

	req, _ := http.NewRequest("GET", "/ping/1", nil)
	req.Header.Set(headerRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(headerRequestID))
	assert.Equal(t, "abc-123", w.Body.String())

	req, _ = http.NewRequest("GET", "/ping/1", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	generated := w.Header().Get(headerRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())
}

func TestLogging_RecordsRouteTemplate(t *testing.T) {
	m := metrics.New()
	r := setupRouter(m)

	for _, path := range []string{"/ping/1", "/ping/2", "/missing"} {
		req, _ := http.NewRequest("GET", path, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	expected := `
# HELP vehicle_insurance_http_requests_total HTTP requests by method, route and status.
# TYPE vehicle_insurance_http_requests_total counter
vehicle_insurance_http_requests_total{method="GET",route="/ping/:id",status="200"} 2
vehicle_insurance_http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "vehicle_insurance_http_requests_total")
	assert.NoError(t, err)
}

package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routes func(e *echo.Echo)

func (r routes) RegisterRoutes(e *echo.Echo) { r(e) }

func newTestServer(t *testing.T, reg *prometheus.Registry) *Server {
	t.Helper()
	return NewServer(routes(func(e *echo.Echo) {
		e.GET("/ok", func(c echo.Context) error { return SuccessResponse(c, map[string]string{"hello": "world"}) })
		e.GET("/bad", func(c echo.Context) error { return AppErrorResponse(c, BadRequestError("nope")) })
		e.GET("/boom", func(c echo.Context) error { panic("boom") })
		e.GET("/opaque", func(c echo.Context) error { return AppErrorResponse(c, errors.New("hidden")) })
	}), WithRegistry(reg, reg))
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServerResponses(t *testing.T) {
	s := newTestServer(t, prometheus.NewRegistry())

	rec := serve(s, http.MethodGet, "/ok")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":{"hello":"world"}}`, rec.Body.String())

	rec = serve(s, http.MethodGet, "/bad")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_BAD_REQUEST")

	rec = serve(s, http.MethodGet, "/opaque")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hidden")

	rec = serve(s, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestServer(t, reg)
	// a second server on the same registry reuses the collectors
	_ = newTestServer(t, reg)

	serve(s, http.MethodGet, "/ok")
	serve(s, http.MethodGet, "/ok")
	serve(s, http.MethodGet, "/bad")

	expected := `
# HELP http_requests_total Total number of HTTP requests
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/bad",status="400"} 1
http_requests_total{method="GET",path="/ok",status="200"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))

	rec := serve(s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func TestServerCORSPreflight(t *testing.T) {
	s := newTestServer(t, prometheus.NewRegistry())
	req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
	req.Header.Set("Origin", "http://dash.local")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://dash.local", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerAddr(t *testing.T) {
	s := NewServer(nil, WithHost("127.0.0.1"), WithPort(9000), WithRegistry(prometheus.NewRegistry(), prometheus.NewRegistry()))
	assert.Equal(t, "127.0.0.1:9000", s.Addr())
}

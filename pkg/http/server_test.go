package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tradeReq struct {
	IsWin  *bool   `json:"is_win" validate:"required"`
	PnLPct float64 `json:"pnl_pct" validate:"gte=-1,lte=10"`
	Source string  `json:"source" default:"manual"`
}

type testRoutes struct{}

func (testRoutes) RegisterRoutes(e *echo.Echo) {
	e.POST("/trade", func(c echo.Context) error {
		var req tradeReq
		if errs := ReadAndValidateRequest(c, &req); errs != nil {
			return BadRequestResponse(c, errs)
		}
		return SuccessResponse(c, req)
	})
	e.GET("/missing", func(c echo.Context) error {
		return AppErrorResponse(c, NotFoundErrorf("no bars for %s", "600519"))
	})
	e.GET("/boom", func(c echo.Context) error { panic("boom") })
}

func newTestServer(opts ...ServerOption) *Server {
	opts = append([]ServerOption{WithMetrics("/metrics", prometheus.NewRegistry())}, opts...)
	return NewServer(testRoutes{}, opts...)
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestValidationAndDefaults(t *testing.T) {
	s := newTestServer()

	rec := do(s, http.MethodPost, "/trade", `{"pnl_pct": 0.02}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var bad struct {
		Data []ValidationError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bad))
	require.Len(t, bad.Data, 1)
	assert.Equal(t, "ERR_REQUIRED", bad.Data[0].Code)
	assert.Equal(t, "is_win", bad.Data[0].Field)

	rec = do(s, http.MethodPost, "/trade", `{"is_win": false, "pnl_pct": -0.03}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var ok struct {
		Data tradeReq `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.Equal(t, "manual", ok.Data.Source)
}

func TestAppErrorStatus(t *testing.T) {
	rec := do(newTestServer(), http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_NOT_FOUND")
}

func TestRecoverFromPanic(t *testing.T) {
	rec := do(newTestServer(), http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(WithRateLimit(0.001, 2))
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/missing", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(s, http.MethodGet, "/missing", "").Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/metrics", "").Code, "metrics exempt")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer()
	do(s, http.MethodGet, "/missing", "")
	rec := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sentinel_http_requests_total{class="4xx",method="GET",route="/missing"} 1`)
}

func TestStartBindsEphemeralPort(t *testing.T) {
	s := newTestServer(WithHost("127.0.0.1"), WithPort(0), WithCORS(false))
	assert.Empty(t, s.Addr())

	errCh := s.Start()
	require.NotEmpty(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(echo.HeaderXRequestID))

	require.NoError(t, s.Stop(context.Background()))
	for err := range errCh {
		assert.NoError(t, err)
	}
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticBot string

func (b staticBot) BotTag() string { return string(b) }

type mockTotals struct {
	mock.Mock
}

func (m *mockTotals) GetGlobalTotal(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func do(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(stdhttp.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStatus(t *testing.T) {
	totals := &mockTotals{}
	totals.On("GetGlobalTotal", mock.Anything).Return(decimal.RequireFromString("1250.75"), nil).Once()
	r := NewRouter(Deps{
		Bot:     staticBot("ExchangeBot#0001"),
		Totals:  totals,
		Started: time.Now().Add(-time.Minute),
	})

	w := do(t, r, "/")
	require.Equal(t, stdhttp.StatusOK, w.Code)
	var body StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "online", body.Status)
	assert.Equal(t, "ExchangeBot#0001", body.Bot)
	assert.InDelta(t, 1250.75, body.TotalExchanged, 0.001)
	assert.GreaterOrEqual(t, body.Uptime, 59.0)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	totals.AssertExpectations(t)
}

func TestStatus_TotalsUnavailable(t *testing.T) {
	totals := &mockTotals{}
	totals.On("GetGlobalTotal", mock.Anything).Return(decimal.Zero, errors.New("db down"))
	r := NewRouter(Deps{Totals: totals})
	w := do(t, r, "/")
	require.Equal(t, stdhttp.StatusOK, w.Code)
	var body StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Not logged in yet", body.Bot)
	assert.Zero(t, body.TotalExchanged)
}

func TestHealthAndLive(t *testing.T) {
	r := NewRouter(Deps{})
	w := do(t, r, "/health")
	assert.Equal(t, stdhttp.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	assert.Equal(t, stdhttp.StatusOK, do(t, r, "/live").Code)
}

func TestReady(t *testing.T) {
	healthy := PingFunc(func(context.Context) error { return nil })
	r := NewRouter(Deps{Checks: map[string]Pinger{"postgres": healthy, "redis": healthy}})
	assert.Equal(t, stdhttp.StatusOK, do(t, r, "/ready").Code)

	r = NewRouter(Deps{Checks: map[string]Pinger{
		"postgres": healthy,
		"redis":    PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	}})
	w := do(t, r, "/ready")
	assert.Equal(t, stdhttp.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis unavailable")
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := NewRouter(Deps{})
	req := httptest.NewRequest(stdhttp.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewRouter(Deps{})
	do(t, r, "/health")
	w := do(t, r, "/metrics")
	require.Equal(t, stdhttp.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "exchange_bot_http_requests_total")
}

package health

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeSession struct {
	nodes []string
	ports int
}

func (s fakeSession) NodeNames() []string { return s.nodes }
func (s fakeSession) TotalPorts() int     { return s.ports }

func newTestService(clock *fakeClock) *HealthService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewHealthService(clock, logger)
}

func serve(t *testing.T, h *HealthService, method string) (int, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, "/healthz", nil))

	var response HealthResponse
	if rec.Code != http.StatusMethodNotAllowed {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
	return rec.Code, response
}

func TestHealthService_Status(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *HealthService)
		wantStatus HealthStatus
		wantCode   int
	}{
		{
			name:       "no session attached",
			setup:      func(h *HealthService) {},
			wantStatus: StatusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name: "topology failed to load",
			setup: func(h *HealthService) {
				h.SetSession(fakeSession{})
				h.UpdateTopology(false, stderrors.New("namespace ns-a does not exist"))
			},
			wantStatus: StatusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name: "healthy with some failures",
			setup: func(h *HealthService) {
				h.SetSession(fakeSession{nodes: []string{"nodeA"}, ports: 2})
				h.UpdateTopology(true, nil)
				h.RecordOperation(nil)
				h.RecordOperation(nil)
				h.RecordOperation(stderrors.New("boom"))
			},
			wantStatus: StatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name: "degraded when half the operations fail",
			setup: func(h *HealthService) {
				h.SetSession(fakeSession{nodes: []string{"nodeA"}})
				h.RecordOperation(nil)
				h.RecordOperation(stderrors.New("boom"))
			},
			wantStatus: StatusDegraded,
			wantCode:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestService(&fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)})
			tt.setup(h)

			code, response := serve(t, h, http.MethodGet)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, response.Status)
		})
	}
}

func TestHealthService_Report(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	h := newTestService(clock)
	h.SetSession(fakeSession{nodes: []string{"nodeA", "nodeB"}, ports: 3})
	h.UpdateTopology(true, nil)
	h.RecordOperation(nil)
	h.RecordOperation(stderrors.New("[COMMAND_FAILED] ip link add failed"))
	h.RecordOperation(nil)
	clock.now = clock.now.Add(26*time.Hour + 5*time.Minute)

	_, response := serve(t, h, http.MethodGet)

	session := response.Components["session"].(map[string]interface{})
	assert.Equal(t, []interface{}{"nodeA", "nodeB"}, session["nodes"])
	assert.Equal(t, float64(3), session["mapped_ports"])
	assert.Equal(t, float64(2), response.Statistics["succeeded_operations"])
	assert.Equal(t, float64(1), response.Statistics["failed_operations"])
	assert.Equal(t, "1d2h5m", response.Statistics["uptime"])
	assert.Equal(t, "[COMMAND_FAILED] ip link add failed", response.Statistics["last_failure"])
	assert.Equal(t, "2024-05-01T12:00:00Z", response.Statistics["last_failure_time"])
}

func TestHealthService_MethodNotAllowed(t *testing.T) {
	h := newTestService(&fakeClock{now: time.Now()})

	code, _ := serve(t, h, http.MethodPost)

	assert.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0m", formatUptime(30*time.Second))
	assert.Equal(t, "3h0m", formatUptime(3*time.Hour))
	assert.Equal(t, "2d1h1m", formatUptime(49*time.Hour+time.Minute))
	assert.Equal(t, "2d0h1m", formatUptime(48*time.Hour+time.Minute))
}

package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"topolink-agent/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// SessionStats is the view of the topology session the health report needs
type SessionStats interface {
	NodeNames() []string
	TotalPorts() int
}

// HealthService provides health check functionality
type HealthService struct {
	mu               sync.RWMutex
	clock            interfaces.Clock
	logger           *logrus.Logger
	startTime        time.Time
	session          SessionStats
	topologyLoaded   bool
	topologyError    error
	succeededOps     int64
	failedOps        int64
	lastFailure      string
	lastFailureTime  time.Time
}

// HealthStatus represents health check status
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the health check response struct
type HealthResponse struct {
	Status     HealthStatus           `json:"status"`
	Timestamp  string                 `json:"timestamp"`
	Components map[string]interface{} `json:"components"`
	Statistics map[string]interface{} `json:"statistics"`
}

// NewHealthService creates a new HealthService
func NewHealthService(clock interfaces.Clock, logger *logrus.Logger) *HealthService {
	return &HealthService{
		clock:     clock,
		logger:    logger,
		startTime: clock.Now(),
	}
}

// SetSession attaches the session whose nodes and ports are reported
func (h *HealthService) SetSession(session SessionStats) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session = session
}

// UpdateTopology records the outcome of loading the startup topology
func (h *HealthService) UpdateTopology(loaded bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.topologyLoaded = loaded
	h.topologyError = err
}

// RecordOperation counts the outcome of a link operation
func (h *HealthService) RecordOperation(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err == nil {
		h.succeededOps++
		return
	}
	h.failedOps++
	h.lastFailure = err.Error()
	h.lastFailureTime = h.clock.Now()
}

// ServeHTTP handles the HTTP health check endpoint
func (h *HealthService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := h.buildHealthResponse()

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("failed to encode health check response")
	}
}

func (h *HealthService) buildHealthResponse() HealthResponse {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.clock.Now()

	var nodes []string
	ports := 0
	if h.session != nil {
		nodes = h.session.NodeNames()
		ports = h.session.TotalPorts()
	}

	components := map[string]interface{}{
		"topology": map[string]interface{}{
			"loaded": h.topologyLoaded,
			"error":  formatError(h.topologyError),
		},
		"session": map[string]interface{}{
			"nodes":        nodes,
			"mapped_ports": ports,
		},
	}

	statistics := map[string]interface{}{
		"succeeded_operations": h.succeededOps,
		"failed_operations":    h.failedOps,
		"uptime":               formatUptime(now.Sub(h.startTime)),
	}
	if h.lastFailure != "" {
		statistics["last_failure"] = h.lastFailure
		statistics["last_failure_time"] = h.lastFailureTime.Format(time.RFC3339)
	}

	return HealthResponse{
		Status:     h.determineOverallStatus(),
		Timestamp:  now.Format(time.RFC3339),
		Components: components,
		Statistics: statistics,
	}
}

func (h *HealthService) determineOverallStatus() HealthStatus {
	if h.topologyError != nil || h.session == nil {
		return StatusUnhealthy
	}

	// half or more of the operations failing means the node contexts are likely broken
	total := h.succeededOps + h.failedOps
	if total > 0 && float64(h.failedOps)/float64(total) >= 0.5 {
		return StatusDegraded
	}

	return StatusHealthy
}

func formatError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func formatUptime(duration time.Duration) string {
	days := int(duration.Hours()) / 24
	hours := int(duration.Hours()) % 24
	minutes := int(duration.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd%dh%dm", days, hours, minutes)
	} else if hours > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Link operation metrics
	LinkOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topolink_link_operations_total",
			Help: "Total number of link operations by operation and result",
		},
		[]string{"operation", "result"}, // result: success or the error type
	)

	LinkOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topolink_link_operation_duration_seconds",
			Help:    "Time spent in each link operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Compensating deletes after a kernel change could not be confirmed or registered
	CompensatingDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topolink_compensating_deletes_total",
			Help: "Total number of compensating interface deletions",
		},
		[]string{"result"}, // success, failed
	)

	// Command metrics
	CommandsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topolink_commands_total",
			Help: "Total number of networking commands executed",
		},
		[]string{"verb", "status"}, // status: success, failed, timeout, canceled, error
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topolink_command_duration_seconds",
			Help:    "Time spent executing networking commands",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"verb"},
	)

	// Registry metrics
	MappedPorts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "topolink_mapped_ports",
			Help: "Number of logical ports currently mapped per node",
		},
		[]string{"node"},
	)

	// Drift between the registry and the kernel found by verification
	PortDrifts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topolink_port_drifts_total",
			Help: "Total number of mapped ports found inconsistent with the kernel",
		},
		[]string{"drift_type"}, // missing, type_mismatch
	)

	// Periodic verification
	VerifyCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topolink_verify_cycles_total",
			Help: "Total number of periodic verification cycles",
		},
		[]string{"result"}, // consistent, drift, error
	)

	VerifyBackoffLevel = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "topolink_verify_backoff_level",
			Help: "Current backoff level of periodic verification (0 = normal)",
		},
	)

	AgentInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "topolink_agent_info",
			Help: "Agent information",
		},
		[]string{"version", "hostname"},
	)
)

// RecordLinkOperation records the outcome and duration of a link operation
func RecordLinkOperation(operation, result string, duration float64) {
	LinkOperations.WithLabelValues(operation, result).Inc()
	LinkOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordCompensatingDelete records a compensating delete attempt
func RecordCompensatingDelete(success bool) {
	if success {
		CompensatingDeletes.WithLabelValues("success").Inc()
	} else {
		CompensatingDeletes.WithLabelValues("failed").Inc()
	}
}

// RecordCommand records a single command execution
func RecordCommand(verb, status string, duration float64) {
	CommandsExecuted.WithLabelValues(verb, status).Inc()
	CommandDuration.WithLabelValues(verb).Observe(duration)
}

// SetMappedPorts sets the mapped port count for a node
func SetMappedPorts(node string, count int) {
	MappedPorts.WithLabelValues(node).Set(float64(count))
}

// RecordDrift records a registry/kernel inconsistency
func RecordDrift(driftType string) {
	PortDrifts.WithLabelValues(driftType).Inc()
}

// RecordVerifyCycle records the outcome of one periodic verification
func RecordVerifyCycle(result string) {
	VerifyCycles.WithLabelValues(result).Inc()
}

// SetVerifyBackoffLevel sets the verification backoff level
func SetVerifyBackoffLevel(level float64) {
	VerifyBackoffLevel.Set(level)
}

// SetAgentInfo sets the agent information gauge
func SetAgentInfo(version, hostname string) {
	AgentInfo.WithLabelValues(version, hostname).Set(1)
}

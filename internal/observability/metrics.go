package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kitchenctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kitchenctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	provisionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kitchenctl",
			Subsystem: "provision",
			Name:      "runs_total",
			Help:      "Provisioning runs by final phase and outcome.",
		},
		[]string{"phase", "success"},
	)
	provisionPhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kitchenctl",
			Subsystem: "provision",
			Name:      "phase_duration_seconds",
			Help:      "Time spent reaching each provisioning phase.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"phase"},
	)
	remoteCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kitchenctl",
			Subsystem: "transport",
			Name:      "commands_total",
			Help:      "Remote commands executed by transport and step.",
		},
		[]string{"transport", "step", "exit"},
	)
	remoteCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kitchenctl",
			Subsystem: "transport",
			Name:      "command_duration_seconds",
			Help:      "Remote command duration in seconds.",
			Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"transport", "step"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			provisionRuns,
			provisionPhaseDuration,
			remoteCommands,
			remoteCommandDuration,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordProvisionPhase(phase string, duration time.Duration) {
	RegisterMetrics()
	provisionPhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

func RecordProvisionRun(phase string, success bool) {
	RegisterMetrics()
	provisionRuns.WithLabelValues(phase, strconv.FormatBool(success)).Inc()
}

func RecordRemoteCommand(transport, step string, exitCode int, duration time.Duration) {
	RegisterMetrics()
	remoteCommands.WithLabelValues(transport, step, strconv.Itoa(exitCode)).Inc()
	remoteCommandDuration.WithLabelValues(transport, step).Observe(duration.Seconds())
}

// WriteTextfile dumps the default registry in node_exporter textfile format.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// Package telemetry holds fleetdash's Prometheus metrics and the optional
// /metrics listener. Metrics are registered on the default registry at init.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

var (
	// FleetPolls counts Fleet API refreshes by outcome (ok, error, skipped).
	FleetPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetdash_fleet_polls_total",
		Help: "Total number of fleet refreshes by result",
	}, []string{"result"})

	// FleetAgents tracks the agents in the latest fleet snapshot by status.
	FleetAgents = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleetdash_fleet_agents",
		Help: "Agents in the most recent fleet snapshot by reported status",
	}, []string{"status"})

	// FileOps counts file operations against agents.
	FileOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetdash_file_ops_total",
		Help: "Total number of file operations by operation and result",
	}, []string{"op", "result"})

	// RequestDuration tracks HTTP round trips per logical endpoint.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleetdash_http_request_duration_seconds",
		Help:    "Duration of HTTP requests to the Fleet and File APIs",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// UploadBytes counts bytes streamed to agents by uploads.
	UploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetdash_upload_bytes_total",
		Help: "Total bytes sent to agents by uploads",
	})
)

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}

// ObservePoll records the outcome of one fleet refresh.
func ObservePoll(err error) {
	FleetPolls.WithLabelValues(result(err)).Inc()
}

// ObservePollSkipped records a tick dropped because a refresh was still running.
func ObservePollSkipped() {
	FleetPolls.WithLabelValues("skipped").Inc()
}

// SetAgents replaces the per-status agent gauges.
func SetAgents(online, offline int) {
	FleetAgents.WithLabelValues("online").Set(float64(online))
	FleetAgents.WithLabelValues("offline").Set(float64(offline))
}

// ObserveFileOp records the outcome of a list, upload, download, or delete.
func ObserveFileOp(op string, err error) {
	FileOps.WithLabelValues(op, result(err)).Inc()
}

// ObserveRequest records how long a request to endpoint took.
func ObserveRequest(endpoint string, d time.Duration) {
	RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// AddUploadBytes adds n streamed bytes.
func AddUploadBytes(n int64) {
	if n > 0 {
		UploadBytes.Add(float64(n))
	}
}

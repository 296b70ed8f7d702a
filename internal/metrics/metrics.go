// Package metrics counts client activity for one CLI run and dumps it in the
// Prometheus text format for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DownloadBytes   prometheus.Counter
	PollsTotal      *prometheus.CounterVec
	DocumentsTotal  *prometheus.CounterVec
	ParagraphsTotal prometheus.Counter

	startTime time.Time
	runTime   prometheus.Gauge
}

// New registers every collector on a private registry so repeated runs in
// one process (tests) never collide on the default one.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	m := &Metrics{Registry: reg, startTime: time.Now()}

	m.RequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swissdox_requests_total",
			Help: "Total number of HTTP requests sent to the retrieval service",
		},
		[]string{"operation", "status"},
	)

	m.RequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swissdox_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	m.DownloadBytes = f.NewCounter(
		prometheus.CounterOpts{
			Name: "swissdox_download_bytes_total",
			Help: "Total number of artifact bytes written to disk",
		},
	)

	m.PollsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swissdox_polls_total",
			Help: "Total number of status polls by observed job status",
		},
		[]string{"status"},
	)

	m.DocumentsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swissdox_segmented_documents_total",
			Help: "Total number of corpus rows segmented, by result kind",
		},
		[]string{"kind"},
	)

	m.ParagraphsTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "swissdox_segmented_paragraphs_total",
			Help: "Total number of paragraphs produced by segmentation",
		},
	)

	m.runTime = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "swissdox_run_duration_seconds",
			Help: "Wall time of the CLI run that wrote this file",
		},
	)

	return m
}

// RecordRequest records one finished HTTP exchange. statusCode 0 means the
// request never got a response.
func (m *Metrics) RecordRequest(operation string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) RecordDownload(n int64) {
	if n > 0 {
		m.DownloadBytes.Add(float64(n))
	}
}

func (m *Metrics) RecordPoll(status string) {
	if status == "" {
		status = "unknown"
	}
	m.PollsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordSegment(kind string, paragraphs int) {
	m.DocumentsTotal.WithLabelValues(kind).Inc()
	if paragraphs > 0 {
		m.ParagraphsTotal.Add(float64(paragraphs))
	}
}

// WriteTextfile stamps the run duration and writes every metric to path.
func (m *Metrics) WriteTextfile(path string) error {
	m.runTime.Set(time.Since(m.startTime).Seconds())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

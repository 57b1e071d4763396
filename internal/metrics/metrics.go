package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SignalsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cryptoscan_signals_detected_total", Help: "Candidate signals emitted by signal modules"},
		[]string{"module"},
	)
	AlertsAdmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cryptoscan_alerts_admitted_total", Help: "Alerts that passed quality and cooldown"},
		[]string{"type"},
	)
	AlertsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cryptoscan_alerts_rejected_total", Help: "Alerts held back by the gate"},
		[]string{"reason"},
	)
	AlertsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cryptoscan_alerts_sent_total", Help: "Alerts delivered per channel"},
		[]string{"channel"},
	)
	SendFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cryptoscan_send_failures_total", Help: "Alert deliveries that failed after retries"},
		[]string{"channel"},
	)
	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cryptoscan_fetch_errors_total", Help: "Symbols skipped during a scan"},
		[]string{"reason"},
	)
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cryptoscan_scan_duration_seconds",
			Help:    "Wall time of a full scan cycle",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
		},
	)
	LastScan = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "cryptoscan_last_scan_timestamp_seconds", Help: "Unix time the last scan finished"},
	)
)

func init() {
	prometheus.MustRegister(SignalsDetected, AlertsAdmitted, AlertsRejected, AlertsSent, SendFailures, FetchErrors, ScanDuration, LastScan)
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve starts a standalone /metrics listener
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

// Package metrics exposes Prometheus counters for a detection run.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "botdetector"

var (
	LinesRead = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lines_read_total",
		Help:      "Total number of log lines read",
	})

	LinesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lines_skipped_total",
		Help:      "Log lines that did not match the access log format",
	})

	RequestsChecked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_checked_total",
		Help:      "Parsed requests run through classification",
	})

	FlagsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flags_total",
		Help:      "Flag events by category",
	}, []string{"category"})
)

// RegisterClientGauge publishes the number of tracked clients from count
func RegisterClientGauge(reg prometheus.Registerer, count func() int) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tracked_clients",
		Help:      "Clients with in-memory state",
	}, func() float64 {
		return float64(count())
	}))
}

// StartServer serves /metrics on addr until the listener fails
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("metrics server listening")
	return srv.ListenAndServe()
}

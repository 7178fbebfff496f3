// Package metrics exposes the gateway's Prometheus collectors and a small
// standalone metrics server listening on its own address.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EnrolmentChecks counts enrolment state evaluations by result.
	EnrolmentChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dsb_gateway_enrolment_checks_total",
		Help: "Enrolment state checks against the claims registry.",
	}, []string{"result"})

	// ClaimSubmissions counts claim request submissions by role and result.
	ClaimSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dsb_gateway_claim_submissions_total",
		Help: "Claim requests submitted to the claims registry.",
	}, []string{"role", "result"})

	// CronJobRuns counts scheduled job executions by job name and status.
	CronJobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dsb_gateway_cron_runs_total",
		Help: "Scheduled job executions.",
	}, []string{"job", "status"})

	// BrokerHealthUp reports the last observed message broker health.
	BrokerHealthUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dsb_gateway_broker_health_up",
		Help: "1 when the last message broker health check succeeded.",
	})
)

// MetricsServer serves the Prometheus scrape endpoint.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the named service bound to addr.
func New(name, addr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving the scrape endpoint.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}

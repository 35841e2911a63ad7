package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for FetchTotal.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

var (
	// FetchTotal counts backend calls by operation and outcome.
	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techtree_fetch_total",
			Help: "Backend requests issued by the client",
		},
		[]string{"op", "outcome"},
	)

	// FallbackTotal counts substitutions of static or synthesized data.
	FallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techtree_fallback_total",
			Help: "Times a fallback dataset or detail record was shown",
		},
		[]string{"kind"},
	)

	// StaleResponseTotal counts responses discarded because the selection moved on.
	StaleResponseTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techtree_stale_response_total",
			Help: "Responses discarded because a newer request superseded them",
		},
		[]string{"kind"},
	)

	// DroppedEdgeTotal counts edges removed because an endpoint was missing.
	DroppedEdgeTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "techtree_dropped_edge_total",
			Help: "Edges dropped because they referenced nodes outside the dataset",
		},
	)

	registry = prometheus.NewRegistry()
)

func init() {
	registry.MustRegister(FetchTotal)
	registry.MustRegister(FallbackTotal)
	registry.MustRegister(StaleResponseTotal)
	registry.MustRegister(DroppedEdgeTotal)
	registry.MustRegister(operationSeconds)
}

// Registry returns the registry holding tt's collectors.
func Registry() *prometheus.Registry {
	return registry
}

// ObserveFetch records the outcome of a backend call.
func ObserveFetch(op string, err error, empty bool) {
	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
	case empty:
		outcome = OutcomeEmpty
	}
	FetchTotal.WithLabelValues(op, outcome).Inc()
}

// Server exposes the registry over HTTP.
type Server struct {
	srv *http.Server
}

// NewServer builds a /metrics server listening on addr.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start serves in the background. Listen errors are reported on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

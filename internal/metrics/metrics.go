// Package metrics exposes Prometheus instrumentation for playback sessions.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDiscarded = "discarded" // acquired after the session moved on
	OutcomeRejected  = "rejected"  // no attached resource or superseded
)

var (
	acquisitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reel_acquisitions_total",
		Help: "Playback resource acquisitions by outcome",
	}, []string{"outcome"}) // outcome=success|failure|discarded

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reel_commands_total",
		Help: "Playback commands by operation and outcome",
	}, []string{"op", "outcome"}) // outcome=success|failure|rejected

	staleEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reel_stale_events_total",
		Help: "Status events dropped because their generation was no longer current",
	})

	liveResources = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reel_live_resources",
		Help: "Playback resources acquired and not yet released",
	})
)

// RecordAcquisition counts one finished acquisition.
func RecordAcquisition(outcome string) {
	acquisitionsTotal.WithLabelValues(outcome).Inc()
}

// RecordCommand counts one command by operation and outcome.
func RecordCommand(op, outcome string) {
	commandsTotal.WithLabelValues(op, outcome).Inc()
}

// RecordStaleEvent counts a dropped status event.
func RecordStaleEvent() {
	staleEventsTotal.Inc()
}

// ResourceAcquired marks a resource as live.
func ResourceAcquired() { liveResources.Inc() }

// ResourceReleased marks a resource as gone.
func ResourceReleased() { liveResources.Dec() }

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx ends.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen: %w", err)
	}
	return serve(ctx, ln, logger)
}

func serve(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

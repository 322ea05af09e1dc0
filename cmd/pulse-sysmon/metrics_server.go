package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/rcourtman/pulse-sysmon/internal/utils"
)

var (
	metricsShutdownTimeout = 5 * time.Second
)

type status struct {
	RunID      string `json:"run_id"`
	Version    string `json:"version"`
	Generation uint64 `json:"generation"`
}

func newMetricsMux(statusFn func() status) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := utils.WriteJSONResponse(w, statusFn()); err != nil {
			log.Warn().Err(err).Msg("Failed to write health response")
		}
	})
	return mux
}

// serveMetrics serves engine metrics until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, statusFn func() status) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      newMetricsMux(statusFn),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Msg("Failed to shut down metrics server cleanly")
		}
	}()

	log.Info().Str("addr", addr).Msg("Metrics endpoint listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// metricsServer serves the Prometheus scrape endpoint under the
// supervision tree.
type metricsServer struct {
	addr   string
	logger zerolog.Logger
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newMetricsServer(addr string, logger zerolog.Logger) *metricsServer {
	return &metricsServer{
		addr:   addr,
		logger: logger.With().Str("service", "metrics").Logger(),
	}
}

// Serve runs the HTTP listener until the context is canceled.
func (m *metricsServer) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              m.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	m.logger.Info().Str("addr", m.addr).Msg("metrics endpoint listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			m.logger.Error().Err(err).Msg("metrics shutdown failed")
		}
		return ctx.Err()

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// String returns the service name for supervisor logging.
func (m *metricsServer) String() string {
	return "metrics-server"
}

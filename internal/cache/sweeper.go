// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pickplate/pickplate/internal/metrics"
)

// Sweeper proactively removes expired entries from a set of caches on a
// fixed interval, independent of read traffic. It implements the
// suture.Service contract (Serve/String) and is run under the server's
// supervision tree so it never blocks request-serving goroutines.
type Sweeper struct {
	caches   []*Cache
	interval time.Duration
	logger   zerolog.Logger
}

// NewSweeper creates a sweeper over the given caches. An interval <= 0
// defaults to 5 minutes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSweeper(interval time.Duration, logger zerolog.Logger, caches ...*Cache) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Sweeper{
		caches:   caches,
		interval: interval,
		logger:   logger.With().Str("service", "cache-sweeper").Logger(),
	}
}

// Serve runs the sweep loop until the context is canceled.
func (s *Sweeper) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.interval).
		Int("caches", len(s.caches)).
		Msg("cache sweeper starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cache sweeper shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	total := 0
	for _, c := range s.caches {
		if n := c.CleanupExpired(); n > 0 {
			s.logger.Debug().Str("cache", c.Name()).Int("removed", n).Msg("swept expired entries")
			total += n
		}
		metrics.ObserveCacheSizes(c)
	}
	if total > 0 {
		s.logger.Info().Int("removed", total).Msg("sweep complete")
	}
}

// String returns the service name for supervisor logging.
func (s *Sweeper) String() string {
	return "cache-sweeper"
}

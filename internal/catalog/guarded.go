// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// GuardConfig tunes the circuit breaker around a remote catalog backend.
type GuardConfig struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker open.
	FailureThreshold uint32 `koanf:"failure_threshold"`

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `koanf:"timeout"`

	// MaxRequests is the number of probe requests allowed half-open.
	MaxRequests uint32 `koanf:"max_requests"`
}

// DefaultGuardConfig returns conservative breaker settings.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// GuardedView wraps a View whose backend can fail (a remote catalog
// service) with circuit breakers, one per result shape. A lookup miss is
// not a backend failure and never trips the breaker.
type GuardedView struct {
	next   View
	itemCB *gobreaker.CircuitBreaker[Item]
	listCB *gobreaker.CircuitBreaker[[]Item]
	logger zerolog.Logger
}

var _ View = (*GuardedView)(nil)

// NewGuardedView wraps next with breakers configured from cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGuardedView(next View, cfg GuardConfig, logger zerolog.Logger) *GuardedView {
	logger = logger.With().Str("component", "catalog-guard").Logger()

	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.MaxRequests,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.FailureThreshold
			},
			IsSuccessful: func(err error) bool {
				// Missing items are an answer, not an outage.
				return err == nil || errors.Is(err, ErrItemNotFound)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("catalog breaker state change")
			},
		}
	}

	return &GuardedView{
		next:   next,
		itemCB: gobreaker.NewCircuitBreaker[Item](settings("catalog-item")),
		listCB: gobreaker.NewCircuitBreaker[[]Item](settings("catalog-list")),
		logger: logger,
	}
}

func (v *GuardedView) Item(ctx context.Context, id string) (Item, error) {
	return v.itemCB.Execute(func() (Item, error) {
		return v.next.Item(ctx, id)
	})
}

func (v *GuardedView) ItemsForSlot(ctx context.Context, slot TimeSlot) ([]Item, error) {
	return v.listCB.Execute(func() ([]Item, error) {
		return v.next.ItemsForSlot(ctx, slot)
	})
}

func (v *GuardedView) ActiveItems(ctx context.Context) ([]Item, error) {
	return v.listCB.Execute(func() ([]Item, error) {
		return v.next.ActiveItems(ctx)
	})
}

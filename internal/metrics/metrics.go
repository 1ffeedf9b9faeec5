// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationRequests counts served recommendation requests by
	// mode and experiment group.
	RecommendationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pickplate",
		Subsystem: "recommend",
		Name:      "requests_total",
		Help:      "Recommendation requests served, by mode and experiment group.",
	}, []string{"mode", "group"})

	// RecommendationDuration observes end-to-end request latency by mode.
	RecommendationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pickplate",
		Subsystem: "recommend",
		Name:      "request_duration_seconds",
		Help:      "Recommendation request latency in seconds, by mode.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})

	// InteractionsRecorded counts learned interaction events by type.
	InteractionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pickplate",
		Subsystem: "profile",
		Name:      "interactions_total",
		Help:      "Interaction events recorded, by type.",
	}, []string{"type"})

	// ProfilesCreated counts lazily created preference profiles.
	ProfilesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pickplate",
		Subsystem: "profile",
		Name:      "created_total",
		Help:      "Preference profiles created.",
	})
)

// StatsSource is what the cache size gauge needs from a cache instance.
// Matches internal/cache without importing it.
type StatsSource interface {
	Name() string
	Len() int
}

// cacheSize tracks the live entry count of each named cache.
var cacheSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "pickplate",
	Subsystem: "cache",
	Name:      "entries",
	Help:      "Current entries per cache instance.",
}, []string{"cache"})

// ObserveCacheSizes refreshes the cache size gauges. Called by the
// sweeper path or a collection loop in the server.
func ObserveCacheSizes(sources ...StatsSource) {
	for _, s := range sources {
		cacheSize.WithLabelValues(s.Name()).Set(float64(s.Len()))
	}
}

var (
	// CacheHits and CacheMisses track lookups per cache instance.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pickplate",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache hits per instance.",
	}, []string{"cache"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pickplate",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache misses per instance.",
	}, []string{"cache"})

	// CacheEvictions counts LRU capacity evictions per cache instance.
	CacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pickplate",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "LRU capacity evictions per instance.",
	}, []string{"cache"})
)
